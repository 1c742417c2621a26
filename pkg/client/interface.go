package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/tarunsinghofficial/visionbackend/pkg/types"
)

// ObjectDetector runs object detection on encoded image bytes
type ObjectDetector interface {
	Detect(ctx context.Context, image []byte) ([]types.RawDetection, error)
}

// Embedder turns text into a fixed-length vector. The model must match the
// one used to populate the vector index.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is a nearest-neighbor store. Query results are ordered by
// ascending cosine distance.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, k int) ([]types.IndexMatch, error)
	Count(ctx context.Context) (int, error)
}

// GenerativeClient sends a prompt to a text generation model. Failures
// should be returned as *BackendError so callers can tell quota exhaustion
// apart from other errors.
type GenerativeClient interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// FailureKind classifies a generative backend failure
type FailureKind int

const (
	FailureOther FailureKind = iota
	FailureQuota
)

func (k FailureKind) String() string {
	if k == FailureQuota {
		return "quota"
	}
	return "other"
}

// BackendError is the structured failure returned by generative backends
type BackendError struct {
	Kind  FailureKind
	Model string
	Err   error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend error for model %s: %v", e.Kind, e.Model, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// QuotaError wraps err as a quota/rate-limit failure
func QuotaError(model string, err error) error {
	return &BackendError{Kind: FailureQuota, Model: model, Err: err}
}

// OtherError wraps err as a non-retryable failure
func OtherError(model string, err error) error {
	return &BackendError{Kind: FailureOther, Model: model, Err: err}
}

// IsQuota reports whether err is a quota/rate-limit failure
func IsQuota(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Kind == FailureQuota
}
