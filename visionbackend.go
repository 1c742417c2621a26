// Package visionbackend analyzes photos of rooms.
//
// An image goes through object detection, a furniture catalog lookup over
// a vector index, a rule based room classifier and a generative critique
// that falls back to a deterministic analysis when no model is usable.
//
// Basic usage:
//
//	cfg, err := config.Load(config.GetConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//	a, err := visionbackend.New(cfg, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer a.Close()
//
//	out, err := a.AnalyzeFile(ctx, "living-room.jpg")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(out.Analysis.RoomType, out.Analysis.ImprovementScore)
//
// Model handles (detector, embedder, index) are created on first use and
// shared by every analysis. Image and history persistence is optional and
// never fails an analysis.
package visionbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/tarunsinghofficial/visionbackend/internal/config"
	"github.com/tarunsinghofficial/visionbackend/internal/utils"
	"github.com/tarunsinghofficial/visionbackend/pkg/client"
	"github.com/tarunsinghofficial/visionbackend/pkg/detection"
	"github.com/tarunsinghofficial/visionbackend/pkg/embeddings"
	"github.com/tarunsinghofficial/visionbackend/pkg/gemini"
	"github.com/tarunsinghofficial/visionbackend/pkg/genai"
	"github.com/tarunsinghofficial/visionbackend/pkg/inference"
	"github.com/tarunsinghofficial/visionbackend/pkg/llamacpp"
	"github.com/tarunsinghofficial/visionbackend/pkg/ollama"
	"github.com/tarunsinghofficial/visionbackend/pkg/pipeline"
	"github.com/tarunsinghofficial/visionbackend/pkg/storage"
	"github.com/tarunsinghofficial/visionbackend/pkg/vectorindex"
)

// Version of the room analysis library
const Version = "1.0.0"

// Analyzer is the high-level entry point wiring configuration to a pipeline
type Analyzer struct {
	pipeline *pipeline.Pipeline
	services *pipeline.Services
	registry *prometheus.Registry
	config   *config.Config
	logger   *zap.Logger
}

// New builds an Analyzer from configuration. Nothing expensive is loaded
// until the first analysis.
func New(cfg *config.Config, logger *zap.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	services := pipeline.NewServices(Factories(cfg, logger))

	gen, err := NewGenerativeClient(cfg)
	if err != nil {
		return nil, err
	}
	services.Generative = gen

	if cfg.Storage.ImagesDir != "" {
		images, err := storage.NewFilesystemImageStore(cfg.Storage.ImagesDir, cfg.Storage.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		services.Images = images
	}

	switch cfg.Storage.History {
	case config.HistoryMemory:
		services.History = storage.NewMemoryHistory()
	case config.HistoryPostgres:
		h, err := storage.OpenPostgres(context.Background(), cfg.Storage.PostgresDSN, logger.Named("storage"))
		if err != nil {
			return nil, err
		}
		services.History = h
	}

	return NewWithServices(services, cfg, logger), nil
}

// NewWithServices builds an Analyzer around an existing service context
func NewWithServices(services *pipeline.Services, cfg *config.Config, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Analyzer{
		pipeline: pipeline.New(services, PipelineConfig(cfg), pipeline.NewMetrics(registry), logger.Named("pipeline")),
		services: services,
		registry: registry,
		config:   cfg,
		logger:   logger,
	}
}

// PipelineConfig maps application configuration to pipeline configuration
func PipelineConfig(cfg *config.Config) pipeline.Config {
	pc := pipeline.DefaultConfig()
	pc.Detection.MaxImageBytes = cfg.Detection.MaxImageBytes
	pc.Detection.AnnotationFormat = cfg.Detection.AnnotationFormat
	pc.Detection.AnnotationQuality = cfg.Detection.AnnotationQuality
	pc.Generative = genai.Config{
		Models:         cfg.GenAI.Models,
		AttemptTimeout: cfg.GenAI.AttemptTimeout,
	}
	pc.RecommendationLimit = cfg.Index.Limit
	pc.RecommendationTimeout = cfg.Index.Timeout
	return pc
}

// Factories returns the lazy constructors for the model handles
func Factories(cfg *config.Config, logger *zap.Logger) pipeline.Factories {
	return pipeline.Factories{
		Detector: func(context.Context) (client.ObjectDetector, error) {
			return inference.NewClient(cfg.Detection.InferenceURL, cfg.Detection.Model, cfg.Detection.Timeout)
		},
		Embedder: func(context.Context) (client.Embedder, error) {
			logger.Info("loading embedding model", zap.String("model", cfg.Embeddings.Model))
			return embeddings.NewProvider(embeddings.Config{
				Model:    cfg.Embeddings.Model,
				CacheDir: cfg.Embeddings.CacheDir,
			})
		},
		Index: func(ctx context.Context) (client.VectorIndex, error) {
			return OpenIndex(ctx, cfg, logger.Named("index"))
		},
	}
}

// OpenIndex opens the configured vector index backend
func OpenIndex(ctx context.Context, cfg *config.Config, logger *zap.Logger) (vectorindex.Store, error) {
	switch cfg.Index.Backend {
	case config.IndexQdrant:
		dim, ok := embeddings.ModelDimension(cfg.Embeddings.Model)
		if !ok {
			return nil, fmt.Errorf("%w: unknown dimension for model %s", vectorindex.ErrInvalidConfig, cfg.Embeddings.Model)
		}
		return vectorindex.NewQdrantIndex(ctx, vectorindex.QdrantConfig{
			Host:       cfg.Index.QdrantHost,
			Port:       cfg.Index.QdrantPort,
			APIKey:     cfg.Index.QdrantAPIKey,
			UseTLS:     cfg.Index.QdrantTLS,
			Collection: cfg.Index.Collection,
			VectorSize: dim,
		}, logger)
	default:
		return vectorindex.NewChromemIndex(vectorindex.ChromemConfig{
			Path:       cfg.Index.Path,
			Collection: cfg.Index.Collection,
		}, logger)
	}
}

// NewGenerativeClient returns the configured generative backend, or nil
// when it has no credential or endpoint. A nil client makes every analysis
// use the fallback.
func NewGenerativeClient(cfg *config.Config) (client.GenerativeClient, error) {
	if !cfg.GenerativeEnabled() {
		return nil, nil
	}

	switch cfg.GenAI.Backend {
	case config.GenAIOllama:
		c, err := ollama.NewClient(cfg.GenAI.BaseURL)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.GenAILlamaCpp:
		c, err := llamacpp.NewClient(cfg.GenAI.BaseURL)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		c, err := gemini.NewClient(gemini.Config{
			APIKey:    cfg.GenAI.APIKey,
			BaseURL:   cfg.GenAI.BaseURL,
			RateLimit: cfg.GenAI.RateLimit,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Run analyzes one request
func (a *Analyzer) Run(ctx context.Context, req pipeline.Request) (*pipeline.Output, error) {
	return a.pipeline.Run(ctx, req)
}

// Analyze analyzes encoded image bytes
func (a *Analyzer) Analyze(ctx context.Context, image []byte, contentType, userID string) (*pipeline.Output, error) {
	return a.Run(ctx, pipeline.Request{Image: image, ContentType: contentType, UserID: userID})
}

// AnalyzeFile reads and analyzes an image file
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*pipeline.Output, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return a.Analyze(ctx, data, utils.ContentType(path), "")
}

// ProcessImageFile analyzes inputPath and writes <name>_annotated.<ext> and
// <name>_analysis.json to outputDir
func (a *Analyzer) ProcessImageFile(ctx context.Context, inputPath, outputDir string) (*pipeline.Output, error) {
	out, err := a.AnalyzeFile(ctx, inputPath)
	if err != nil {
		return nil, err
	}

	if err := utils.EnsureDir(outputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	ext := a.config.Detection.AnnotationFormat
	if ext == "jpeg" {
		ext = "jpg"
	}
	annotatedPath := utils.OutputPath(inputPath, outputDir, "_annotated", ext)
	if err := os.WriteFile(annotatedPath, out.AnnotatedImage, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save annotated image: %w", err)
	}

	// the annotated image is written separately
	report := out.AnalysisResult
	report.AnnotatedImage = nil
	js, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}
	if err := os.WriteFile(utils.OutputPath(inputPath, outputDir, "_analysis", "json"), js, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}

	return out, nil
}

// Seed embeds the product catalog into the vector index
func (a *Analyzer) Seed(ctx context.Context) (int, error) {
	idx, err := a.services.LoadIndex(ctx)
	if err != nil {
		return 0, err
	}
	store, ok := idx.(vectorindex.Store)
	if !ok {
		return 0, fmt.Errorf("vector index %T does not support writes", idx)
	}

	n, err := vectorindex.Seed(ctx, a.services.Embedder(), store, vectorindex.Catalog)
	if err != nil {
		return 0, err
	}
	a.logger.Info("seeded product catalog", zap.Int("products", n))
	return n, nil
}

// History returns the most recent analyses of userID
func (a *Analyzer) History(ctx context.Context, userID string, limit int) ([]storage.Record, error) {
	if a.services.History == nil {
		return nil, fmt.Errorf("history storage is not configured")
	}
	return a.services.History.Recent(ctx, userID, limit)
}

// HistoryStore returns the configured history store, or nil
func (a *Analyzer) HistoryStore() storage.HistoryStore {
	return a.services.History
}

// Registry returns the Prometheus registry holding pipeline metrics
func (a *Analyzer) Registry() *prometheus.Registry {
	return a.registry
}

// Close releases model handles and storage connections
func (a *Analyzer) Close() error {
	return a.services.Close()
}

// IsClientFault reports whether err was caused by the input image
func IsClientFault(err error) bool {
	return detection.IsClientFault(err)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
