package embeddings

import (
	"errors"
	"path/filepath"
)

var (
	ErrInvalidConfig   = errors.New("invalid embedding config")
	ErrEmptyInput      = errors.New("empty embedding input")
	ErrEmbeddingFailed = errors.New("embedding failed")
)

// DefaultModel matches the model the product catalog is seeded with
const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

// Config holds configuration for the embedding provider
type Config struct {
	Model     string
	CacheDir  string
	MaxLength int
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(".", "local_cache")
	}
	if c.MaxLength == 0 {
		c.MaxLength = 512
	}
}

var modelDimensions = map[string]int{
	"sentence-transformers/all-MiniLM-L6-v2": 384,
	"all-MiniLM-L6-v2":                       384,
	"BAAI/bge-small-en-v1.5":                 384,
	"BAAI/bge-base-en-v1.5":                  768,
}

// ModelDimension returns the vector size of a known model
func ModelDimension(model string) (int, bool) {
	if model == "" {
		model = DefaultModel
	}
	d, ok := modelDimensions[model]
	return d, ok
}
