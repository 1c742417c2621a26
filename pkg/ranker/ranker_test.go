package ranker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarunsinghofficial/visionbackend/pkg/types"
	"github.com/tarunsinghofficial/visionbackend/pkg/vectorindex"
)

type fakeEmbedder struct {
	calls   int
	queries []string
	err     error
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.calls++
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not used")
}

type fakeIndex struct {
	matches    []types.IndexMatch
	countErr   error
	queryErr   error
	countCalls int
	queryCalls int
	lastK      int
}

func (f *fakeIndex) Count(_ context.Context) (int, error) {
	f.countCalls++
	return len(f.matches), f.countErr
}

func (f *fakeIndex) Query(_ context.Context, _ []float32, k int) ([]types.IndexMatch, error) {
	f.queryCalls++
	f.lastK = k
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if k > len(f.matches) {
		k = len(f.matches)
	}
	return f.matches[:k], nil
}

func match(id string, d float64) types.IndexMatch {
	return types.IndexMatch{
		ID:       id,
		Distance: d,
		Document: id + " description",
		Metadata: map[string]string{
			vectorindex.MetaName:     "name " + id,
			vectorindex.MetaCategory: "sofa",
			vectorindex.MetaStyle:    "modern",
			vectorindex.MetaRoomType: "living room",
		},
	}
}

func TestRankEmptyLabelsShortCircuits(t *testing.T) {
	emb := &fakeEmbedder{}
	idx := &fakeIndex{matches: []types.IndexMatch{match("a", 0.1)}}
	r := New(emb, idx, 0, nil)

	for _, labels := range [][]string{nil, {}, {"", "  "}} {
		got, err := r.Rank(context.Background(), labels, 5)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
	assert.Zero(t, emb.calls)
	assert.Zero(t, idx.countCalls)
	assert.Zero(t, idx.queryCalls)
}

func TestRankEmptyIndex(t *testing.T) {
	emb := &fakeEmbedder{}
	idx := &fakeIndex{}
	r := New(emb, idx, 0, nil)

	got, err := r.Rank(context.Background(), []string{"couch"}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, emb.calls)
	assert.Zero(t, idx.queryCalls)
}

func TestRankConvertsDistances(t *testing.T) {
	emb := &fakeEmbedder{}
	idx := &fakeIndex{matches: []types.IndexMatch{
		match("a", 0.1234),
		match("b", 0.5),
		match("c", 1.4),
	}}
	r := New(emb, idx, 0, nil)

	got, err := r.Rank(context.Background(), []string{"tv", "couch", "couch"}, 0)
	require.NoError(t, err)

	// default limit 5 capped at the index size
	assert.Equal(t, 3, idx.lastK)
	require.Len(t, got, 3)

	assert.Equal(t, []string{"couch, tv"}, emb.queries)

	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "name a", got[0].Name)
	assert.Equal(t, "a description", got[0].Description)
	assert.Equal(t, "sofa", got[0].Category)
	assert.Equal(t, "modern", got[0].Style)
	assert.Equal(t, "living room", got[0].RoomType)
	assert.Equal(t, 0.877, got[0].SimilarityScore)
	assert.Equal(t, 0.5, got[1].SimilarityScore)
	assert.Equal(t, 0.0, got[2].SimilarityScore)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].SimilarityScore, got[i].SimilarityScore)
	}
}

func TestRankRespectsLimit(t *testing.T) {
	idx := &fakeIndex{matches: []types.IndexMatch{match("a", 0.1), match("b", 0.2), match("c", 0.3)}}
	r := New(&fakeEmbedder{}, idx, 0, nil)

	got, err := r.Rank(context.Background(), []string{"bed"}, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, idx.lastK)
}

func TestRankFailures(t *testing.T) {
	tests := []struct {
		name string
		emb  *fakeEmbedder
		idx  *fakeIndex
	}{
		{"count", &fakeEmbedder{}, &fakeIndex{countErr: errors.New("down")}},
		{"embed", &fakeEmbedder{err: errors.New("no model")}, &fakeIndex{matches: []types.IndexMatch{match("a", 0)}}},
		{"query", &fakeEmbedder{}, &fakeIndex{matches: []types.IndexMatch{match("a", 0)}, queryErr: errors.New("timeout")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.emb, tt.idx, 0, nil).Rank(context.Background(), []string{"couch"}, 5)
			assert.ErrorIs(t, err, ErrRecommendationUnavailable)
		})
	}
}

// stalledIndex reports a populated index but never answers queries
type stalledIndex struct{}

func (stalledIndex) Count(context.Context) (int, error) { return 3, nil }

func (stalledIndex) Query(ctx context.Context, _ []float32, _ int) ([]types.IndexMatch, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRankTimesOut(t *testing.T) {
	r := New(&fakeEmbedder{}, stalledIndex{}, 50*time.Millisecond, nil)

	done := make(chan error, 1)
	go func() {
		_, err := r.Rank(context.Background(), []string{"couch"}, 5)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrRecommendationUnavailable)
	case <-time.After(3 * time.Second):
		t.Fatal("Rank did not return after its timeout")
	}
}

func TestNewDefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, New(&fakeEmbedder{}, &fakeIndex{}, 0, nil).timeout)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity(0))
	assert.Equal(t, 0.0, Similarity(1))
	assert.Equal(t, 0.0, Similarity(2))
	assert.Equal(t, 1.0, Similarity(-0.01))
	assert.Equal(t, 0.667, Similarity(0.3333))
}

func TestQueryText(t *testing.T) {
	assert.Equal(t, "", QueryText(nil))
	assert.Equal(t, "bed", QueryText([]string{"bed", "bed"}))
	assert.Equal(t, "chair, laptop, tv", QueryText([]string{"tv", "laptop", "chair", "tv"}))
}
