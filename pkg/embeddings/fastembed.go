//go:build cgo

// Package embeddings provides local text embeddings via ONNX models.
package embeddings

import (
	"context"
	"fmt"
	"sync"

	fastembed "github.com/anush008/fastembed-go"
)

// Provider generates embeddings with a local FastEmbed model
type Provider struct {
	model     *fastembed.FlagEmbedding
	modelName string
	dimension int
	mu        sync.RWMutex
}

// NewProvider loads the configured model. Model files are downloaded into
// CacheDir on first use, which can take a while.
func NewProvider(cfg Config) (*Provider, error) {
	cfg.applyDefaults()

	model, ok := modelMapping[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported model %q", ErrInvalidConfig, cfg.Model)
	}

	showProgress := false
	flagEmbed, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                model,
		CacheDir:             cfg.CacheDir,
		MaxLength:            cfg.MaxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing FastEmbed: %w", err)
	}

	return &Provider{
		model:     flagEmbed,
		modelName: cfg.Model,
		dimension: modelDimensions[cfg.Model],
	}, nil
}

// EmbedQuery generates an embedding for a single query text.
// No instruction prefix is added so queries and catalog documents share a space.
func (p *Provider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	out, err := p.model.Embed([]string{text}, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%w: expected 1 vector, got %d", ErrEmbeddingFailed, len(out))
	}
	return out[0], nil
}

// EmbedDocuments generates embeddings for multiple texts
func (p *Provider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	out, err := p.model.Embed(texts, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return out, nil
}

// Dimension returns the embedding dimension for the current model
func (p *Provider) Dimension() int {
	return p.dimension
}

// Close releases the ONNX session
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model != nil {
		return p.model.Destroy()
	}
	return nil
}

var modelMapping = map[string]fastembed.EmbeddingModel{
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
	"all-MiniLM-L6-v2":                       fastembed.AllMiniLML6V2,
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
}
