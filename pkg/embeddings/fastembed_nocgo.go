//go:build !cgo

// Package embeddings provides local text embeddings via ONNX models.
package embeddings

import (
	"context"
	"errors"
)

// ErrNotAvailable is returned when the binary was built without CGO
var ErrNotAvailable = errors.New("fastembed: not available (binary built without CGO support)")

// Provider is a stub for non-CGO builds
type Provider struct{}

// NewProvider returns an error when CGO is not available
func NewProvider(_ Config) (*Provider, error) {
	return nil, ErrNotAvailable
}

func (p *Provider) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return nil, ErrNotAvailable
}

func (p *Provider) EmbedDocuments(_ context.Context, _ []string) ([][]float32, error) {
	return nil, ErrNotAvailable
}

func (p *Provider) Dimension() int {
	return 0
}

func (p *Provider) Close() error {
	return nil
}
