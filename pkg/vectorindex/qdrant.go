package vectorindex

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/tarunsinghofficial/visionbackend/pkg/types"
)

// payload key holding the catalog id; point ids must be UUIDs
const payloadID = "id"

const payloadContent = "content"

// QdrantConfig configures the remote index
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	VectorSize int
}

// QdrantIndex is a vector index backed by a Qdrant server over gRPC
type QdrantIndex struct {
	client *qdrant.Client
	config QdrantConfig
	logger *zap.Logger
}

// NewQdrantIndex connects to Qdrant and creates the collection when missing
func NewQdrantIndex(ctx context.Context, cfg QdrantConfig, logger *zap.Logger) (*QdrantIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: qdrant host is required", ErrInvalidConfig)
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.VectorSize <= 0 {
		return nil, fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}

	c, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	idx := &QdrantIndex{client: c, config: cfg, logger: logger}
	if err := idx.ensureCollection(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return idx, nil
}

func (q *QdrantIndex) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.config.Collection)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", q.config.Collection, err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.config.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.config.VectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", q.config.Collection, err)
	}
	q.logger.Info("created qdrant collection",
		zap.String("collection", q.config.Collection),
		zap.Int("vector_size", q.config.VectorSize),
	)
	return nil
}

// Count returns the exact number of points in the collection
func (q *QdrantIndex) Count(ctx context.Context) (int, error) {
	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.config.Collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("counting collection %s: %w", q.config.Collection, err)
	}
	return int(n), nil
}

// Query returns up to k nearest points. Qdrant reports cosine similarity as
// the score, which is converted back to a distance.
func (q *QdrantIndex) Query(ctx context.Context, vector []float32, k int) ([]types.IndexMatch, error) {
	if len(vector) == 0 {
		return nil, ErrEmptyVector
	}
	if k <= 0 {
		return []types.IndexMatch{}, nil
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.config.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("searching collection %s: %w", q.config.Collection, err)
	}

	matches := make([]types.IndexMatch, 0, len(points))
	for _, p := range points {
		m := types.IndexMatch{
			Distance: distance(p.Score),
			Metadata: map[string]string{},
		}
		for key, v := range p.Payload {
			s, ok := v.Kind.(*qdrant.Value_StringValue)
			if !ok {
				continue
			}
			switch key {
			case payloadID:
				m.ID = s.StringValue
			case payloadContent:
				m.Document = s.StringValue
			default:
				m.Metadata[key] = s.StringValue
			}
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Upsert writes documents as points keyed by a UUID derived from the catalog id
func (q *QdrantIndex) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, d := range docs {
		if len(d.Embedding) == 0 {
			return fmt.Errorf("document %s: %w", d.ID, ErrEmptyVector)
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(d.ID)),
			Vectors: qdrant.NewVectors(d.Embedding...),
			Payload: payload(d),
		}
	}

	wait := true
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.config.Collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting into %s: %w", q.config.Collection, err)
	}
	return nil
}

// Close releases the gRPC connection
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

func pointID(id string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

func payload(d Document) map[string]*qdrant.Value {
	out := make(map[string]*qdrant.Value, len(d.Metadata)+2)
	out[payloadID] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: d.ID}}
	out[payloadContent] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: d.Content}}
	for k, v := range d.Metadata {
		out[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
	}
	return out
}
