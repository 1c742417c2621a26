package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/tarunsinghofficial/visionbackend/pkg/client"
	"github.com/tarunsinghofficial/visionbackend/pkg/storage"
	"github.com/tarunsinghofficial/visionbackend/pkg/types"
)

// ErrServiceUnavailable is returned when a lazily built handle has no factory
var ErrServiceUnavailable = errors.New("service not configured")

// lazy builds a value once. A failed build is retried on the next call; a
// successful one is never rebuilt.
type lazy[T any] struct {
	name  string
	mu    sync.Mutex
	build func(ctx context.Context) (T, error)
	value T
	ready bool
}

func newLazy[T any](name string, build func(ctx context.Context) (T, error)) *lazy[T] {
	return &lazy[T]{name: name, build: build}
}

func (l *lazy[T]) get(ctx context.Context) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ready {
		return l.value, nil
	}
	var zero T
	if l.build == nil {
		return zero, fmt.Errorf("%w: %s", ErrServiceUnavailable, l.name)
	}
	v, err := l.build(ctx)
	if err != nil {
		return zero, fmt.Errorf("initializing %s: %w", l.name, err)
	}
	l.value = v
	l.ready = true
	return v, nil
}

func (l *lazy[T]) loaded() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.ready
}

// Factories build the expensive model handles on first use
type Factories struct {
	Detector func(ctx context.Context) (client.ObjectDetector, error)
	Embedder func(ctx context.Context) (client.Embedder, error)
	Index    func(ctx context.Context) (client.VectorIndex, error)
}

// Services holds the handles a pipeline run depends on. Model handles are
// created lazily and shared by all runs.
type Services struct {
	detector *lazy[client.ObjectDetector]
	embedder *lazy[client.Embedder]
	index    *lazy[client.VectorIndex]

	// Generative is nil when no credential is configured
	Generative client.GenerativeClient
	// Images and History are optional; nil disables persistence
	Images  storage.ImageStore
	History storage.HistoryStore
}

// NewServices creates a service context from factories
func NewServices(f Factories) *Services {
	return &Services{
		detector: newLazy("object detector", f.Detector),
		embedder: newLazy("embedder", f.Embedder),
		index:    newLazy("vector index", f.Index),
	}
}

// Detector returns a detector that initializes on first Detect
func (s *Services) Detector() client.ObjectDetector {
	return lazyDetector{s.detector}
}

// Embedder returns an embedder that initializes on first use
func (s *Services) Embedder() client.Embedder {
	return lazyEmbedder{s.embedder}
}

// Index returns a vector index that initializes on first use
func (s *Services) Index() client.VectorIndex {
	return lazyIndex{s.index}
}

// LoadIndex initializes the vector index if needed and returns the
// underlying handle, e.g. for seeding
func (s *Services) LoadIndex(ctx context.Context) (client.VectorIndex, error) {
	return s.index.get(ctx)
}

// Loaded reports which model handles have been initialized
func (s *Services) Loaded() map[string]bool {
	_, d := s.detector.loaded()
	_, e := s.embedder.loaded()
	_, i := s.index.loaded()
	return map[string]bool{"detector": d, "embedder": e, "index": i}
}

// Close releases initialized handles that hold resources
func (s *Services) Close() error {
	var errs []error
	closeIf := func(v any, ok bool) {
		if !ok {
			return
		}
		if c, isCloser := v.(io.Closer); isCloser {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	closeIf(s.detector.loaded())
	closeIf(s.embedder.loaded())
	closeIf(s.index.loaded())
	if c, ok := s.History.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type lazyDetector struct{ l *lazy[client.ObjectDetector] }

func (d lazyDetector) Detect(ctx context.Context, image []byte) ([]types.RawDetection, error) {
	det, err := d.l.get(ctx)
	if err != nil {
		return nil, err
	}
	return det.Detect(ctx, image)
}

type lazyEmbedder struct{ l *lazy[client.Embedder] }

func (e lazyEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	emb, err := e.l.get(ctx)
	if err != nil {
		return nil, err
	}
	return emb.EmbedQuery(ctx, text)
}

func (e lazyEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	emb, err := e.l.get(ctx)
	if err != nil {
		return nil, err
	}
	return emb.EmbedDocuments(ctx, texts)
}

type lazyIndex struct{ l *lazy[client.VectorIndex] }

func (i lazyIndex) Query(ctx context.Context, vector []float32, k int) ([]types.IndexMatch, error) {
	idx, err := i.l.get(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Query(ctx, vector, k)
}

func (i lazyIndex) Count(ctx context.Context) (int, error) {
	idx, err := i.l.get(ctx)
	if err != nil {
		return 0, err
	}
	return idx.Count(ctx)
}
