package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/tarunsinghofficial/visionbackend/pkg/types"
)

// ChromemConfig configures the embedded index
type ChromemConfig struct {
	// Path to the on-disk store. Empty keeps everything in memory.
	Path       string
	Compress   bool
	Collection string
}

// ChromemIndex is an embedded, optionally persistent vector index
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	logger     *zap.Logger
}

// NewChromemIndex opens (or creates) the catalog collection
func NewChromemIndex(cfg ChromemConfig, logger *zap.Logger) (*ChromemIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	var (
		db  *chromem.DB
		err error
	)
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		path, perr := expandPath(cfg.Path)
		if perr != nil {
			return nil, perr
		}
		db, err = chromem.NewPersistentDB(path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("opening vector store at %s: %w", path, err)
		}
	}

	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, noEmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", cfg.Collection, err)
	}

	return &ChromemIndex{db: db, collection: collection, logger: logger}, nil
}

// Count returns the number of indexed documents
func (c *ChromemIndex) Count(_ context.Context) (int, error) {
	return c.collection.Count(), nil
}

// Query returns up to k nearest documents ordered by ascending distance
func (c *ChromemIndex) Query(ctx context.Context, vector []float32, k int) ([]types.IndexMatch, error) {
	if len(vector) == 0 {
		return nil, ErrEmptyVector
	}
	if k <= 0 {
		return []types.IndexMatch{}, nil
	}

	// chromem requires nResults <= doc count
	count := c.collection.Count()
	if count == 0 {
		return []types.IndexMatch{}, nil
	}
	if k > count {
		k = count
	}

	results, err := c.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", c.collection.Name, err)
	}

	matches := make([]types.IndexMatch, len(results))
	for i, r := range results {
		matches[i] = types.IndexMatch{
			ID:       r.ID,
			Distance: distance(r.Similarity),
			Document: r.Content,
			Metadata: r.Metadata,
		}
	}

	c.logger.Debug("queried chromem collection",
		zap.String("collection", c.collection.Name),
		zap.Int("k", k),
		zap.Int("results", len(matches)),
	)
	return matches, nil
}

// Upsert writes documents with precomputed embeddings
func (c *ChromemIndex) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, d := range docs {
		if len(d.Embedding) == 0 {
			return fmt.Errorf("document %s: %w", d.ID, ErrEmptyVector)
		}
		chromemDocs[i] = chromem.Document{
			ID:        d.ID,
			Content:   d.Content,
			Metadata:  d.Metadata,
			Embedding: d.Embedding,
		}
	}

	if err := c.collection.AddDocuments(ctx, chromemDocs, 1); err != nil {
		return fmt.Errorf("adding documents to %s: %w", c.collection.Name, err)
	}
	return nil
}

// Close is a no-op; persistent chromem writes through on every add
func (c *ChromemIndex) Close() error {
	return nil
}

// noEmbeddingFunc stops chromem from falling back to a remote embedding API.
// Every document and query carries its own vector.
func noEmbeddingFunc(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("vectorindex: documents must carry precomputed embeddings")
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding path %s: %w", path, err)
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Clean(path), nil
}
