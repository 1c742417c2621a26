package vectorindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/tarunsinghofficial/visionbackend/pkg/client"
)

var (
	ErrInvalidConfig = errors.New("invalid vector index config")
	ErrEmptyVector   = errors.New("query vector is empty")
)

// Document is a catalog entry ready to be written to an index
type Document struct {
	ID        string
	Content   string
	Metadata  map[string]string
	Embedding []float32
}

// Store is a vector index that can also be written to
type Store interface {
	client.VectorIndex
	Upsert(ctx context.Context, docs []Document) error
	Close() error
}

// Seed embeds every product description and upserts the catalog.
// It returns the number of documents written.
func Seed(ctx context.Context, embedder client.Embedder, store Store, products []Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	texts := make([]string, len(products))
	for i, p := range products {
		texts[i] = p.Description
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding catalog: %w", err)
	}
	if len(vectors) != len(products) {
		return 0, fmt.Errorf("embedding catalog: got %d vectors for %d products", len(vectors), len(products))
	}

	docs := make([]Document, len(products))
	for i, p := range products {
		docs[i] = Document{
			ID:        p.ID,
			Content:   p.Description,
			Metadata:  p.Metadata(),
			Embedding: vectors[i],
		}
	}

	if err := store.Upsert(ctx, docs); err != nil {
		return 0, fmt.Errorf("writing catalog: %w", err)
	}
	return len(docs), nil
}

// distance converts a cosine similarity reported by a backend into a distance
func distance(similarity float32) float64 {
	return 1 - float64(similarity)
}
