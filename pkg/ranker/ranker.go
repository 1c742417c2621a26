// Package ranker recommends catalog products for a set of detected labels
// by nearest-neighbor search over product description embeddings.
package ranker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tarunsinghofficial/visionbackend/pkg/client"
	"github.com/tarunsinghofficial/visionbackend/pkg/types"
	"github.com/tarunsinghofficial/visionbackend/pkg/vectorindex"
)

// DefaultLimit is the number of recommendations returned when none is requested
const DefaultLimit = 5

// DefaultTimeout bounds one Rank call across the embedder and the index
const DefaultTimeout = 10 * time.Second

// ErrRecommendationUnavailable wraps any embedding or index failure
var ErrRecommendationUnavailable = errors.New("recommendations unavailable")

// Ranker turns detected labels into ranked product matches
type Ranker struct {
	embedder client.Embedder
	index    client.VectorIndex
	timeout  time.Duration
	logger   *zap.Logger
}

// New creates a ranker over the given embedder and index. A non-positive
// timeout uses DefaultTimeout.
func New(embedder client.Embedder, index client.VectorIndex, timeout time.Duration, logger *zap.Logger) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Ranker{embedder: embedder, index: index, timeout: timeout, logger: logger}
}

// Rank returns up to limit products similar to the labels, in index order.
// An empty label set returns an empty result without touching the embedder
// or the index. An empty index is a cold start, not an error. The embedder
// and index calls share one deadline; running past it is reported as
// ErrRecommendationUnavailable.
func (r *Ranker) Rank(ctx context.Context, labels []string, limit int) ([]types.ProductMatch, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := QueryText(labels)
	if query == "" {
		return []types.ProductMatch{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	count, err := r.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: counting index: %v", ErrRecommendationUnavailable, err)
	}
	if count == 0 {
		r.logger.Warn("vector index is empty, no recommendations available; run the seed command")
		return []types.ProductMatch{}, nil
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", ErrRecommendationUnavailable, err)
	}

	k := min(limit, count)
	matches, err := r.index.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("%w: querying index: %v", ErrRecommendationUnavailable, err)
	}

	products := make([]types.ProductMatch, 0, len(matches))
	for _, m := range matches {
		products = append(products, toProduct(m))
	}

	r.logger.Debug("ranked recommendations",
		zap.String("query", query),
		zap.Int("k", k),
		zap.Int("results", len(products)),
	)
	return products, nil
}

// QueryText joins the distinct labels into a single query. Labels are sorted
// so the same set always produces the same text.
func QueryText(labels []string) string {
	seen := make(map[string]struct{}, len(labels))
	unique := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		unique = append(unique, l)
	}
	sort.Strings(unique)
	return strings.Join(unique, ", ")
}

// Similarity converts a cosine distance into a score in [0, 1] rounded to 3 decimals
func Similarity(distance float64) float64 {
	s := math.Max(0, 1-distance)
	s = math.Min(1, s)
	return math.Round(s*1000) / 1000
}

func toProduct(m types.IndexMatch) types.ProductMatch {
	return types.ProductMatch{
		ID:              m.ID,
		Name:            m.Metadata[vectorindex.MetaName],
		Description:     m.Document,
		Category:        m.Metadata[vectorindex.MetaCategory],
		Style:           m.Metadata[vectorindex.MetaStyle],
		RoomType:        m.Metadata[vectorindex.MetaRoomType],
		SimilarityScore: Similarity(m.Distance),
	}
}
