// Package pipeline runs one room photo through detection, recommendation,
// room classification and generative analysis.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tarunsinghofficial/visionbackend/pkg/detection"
	"github.com/tarunsinghofficial/visionbackend/pkg/genai"
	"github.com/tarunsinghofficial/visionbackend/pkg/ranker"
	"github.com/tarunsinghofficial/visionbackend/pkg/room"
	"github.com/tarunsinghofficial/visionbackend/pkg/storage"
	"github.com/tarunsinghofficial/visionbackend/pkg/types"
)

// Config configures a Pipeline. RecommendationTimeout bounds the embedder
// and index calls of one run.
type Config struct {
	Detection             detection.Config
	Generative            genai.Config
	RecommendationLimit   int
	RecommendationTimeout time.Duration
}

// DefaultConfig returns the default pipeline configuration
func DefaultConfig() Config {
	return Config{
		Detection:             detection.DefaultConfig(),
		Generative:            genai.DefaultConfig(),
		RecommendationLimit:   ranker.DefaultLimit,
		RecommendationTimeout: ranker.DefaultTimeout,
	}
}

// Request is one image to analyze
type Request struct {
	Image []byte
	// ContentType of the upload, used for the stored image key
	ContentType string
	UserID      string
}

// Output is the result of a run plus diagnostics that are not part of the
// public response
type Output struct {
	types.AnalysisResult

	AnnotatedContentType string        `json:"-"`
	Outcome              genai.Outcome `json:"-"`
	RecordID             string        `json:"-"`
}

// Pipeline wires the stages together
type Pipeline struct {
	services    *Services
	detector    *detection.Detector
	ranker      *ranker.Ranker
	coordinator *genai.Coordinator
	limit       int
	metrics     *Metrics
	logger      *zap.Logger
}

// New creates a pipeline. metrics may be nil.
func New(services *Services, cfg Config, metrics *Metrics, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RecommendationLimit <= 0 {
		cfg.RecommendationLimit = ranker.DefaultLimit
	}

	return &Pipeline{
		services:    services,
		detector:    detection.NewDetectorWithConfig(services.Detector(), cfg.Detection, logger.Named("detection")),
		ranker:      ranker.New(services.Embedder(), services.Index(), cfg.RecommendationTimeout, logger.Named("ranker")),
		coordinator: genai.NewCoordinator(services.Generative, cfg.Generative, logger.Named("genai")),
		limit:       cfg.RecommendationLimit,
		metrics:     metrics,
		logger:      logger,
	}
}

// Run analyzes one image. Only detection failures are returned; every later
// stage degrades to a default instead.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Output, error) {
	start := time.Now()

	det, err := p.detector.Detect(ctx, req.Image)
	p.metrics.observeStage("detection", time.Since(start).Seconds())
	if err != nil {
		p.metrics.recordRun(err)
		return nil, err
	}
	p.metrics.recordDetections(len(det.Objects))

	labels := types.ObjectLabels(det.Objects)

	var (
		recs     []types.ProductMatch
		roomType string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t := time.Now()
		defer func() { p.metrics.observeStage("recommendation", time.Since(t).Seconds()) }()

		r, err := p.ranker.Rank(gctx, labels, p.limit)
		if err != nil {
			p.logger.Warn("recommendations unavailable, continuing without", zap.Error(err))
			p.metrics.recordRecommendationFailure()
			r = []types.ProductMatch{}
		}
		recs = r
		return nil
	})
	g.Go(func() error {
		roomType = room.Classify(labels)
		return nil
	})
	_ = g.Wait()

	t := time.Now()
	analysis, outcome := p.coordinator.Analyze(ctx, det.Objects, recs, roomType)
	p.metrics.observeStage("generative", time.Since(t).Seconds())
	p.metrics.recordOutcome(outcome)

	out := &Output{
		AnalysisResult: types.AnalysisResult{
			DetectedObjects: det.Objects,
			Recommendations: recs,
			Analysis:        analysis,
			AnnotatedImage:  det.AnnotatedImage,
		},
		AnnotatedContentType: det.ContentType,
		Outcome:              outcome,
	}

	p.persist(ctx, req, out)

	p.metrics.recordRun(nil)
	p.logger.Info("analysis complete",
		zap.Int("objects", len(det.Objects)),
		zap.Int("recommendations", len(recs)),
		zap.String("room_type", roomType),
		zap.String("analysis_source", string(outcome.Source)),
		zap.String("model", outcome.Model),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

// persist stores the original image and then a history record. Failures are
// logged and counted, never returned.
func (p *Pipeline) persist(ctx context.Context, req Request, out *Output) {
	if p.services.Images == nil && p.services.History == nil {
		return
	}
	t := time.Now()
	defer func() { p.metrics.observeStage("storage", time.Since(t).Seconds()) }()

	if p.services.Images != nil {
		contentType := req.ContentType
		if contentType == "" {
			contentType = "image/jpeg"
		}
		key := storage.ImageKey(contentType)
		url, err := p.services.Images.Put(ctx, key, contentType, req.Image)
		if err != nil {
			// a record without its image is not written
			p.logger.Error("image upload failed (non-blocking), skipping history record", zap.String("key", key), zap.Error(err))
			p.metrics.recordStorageFailure("image")
			return
		}
		out.ImageURL = &url
	}

	if p.services.History != nil {
		id, err := p.services.History.Save(ctx, storage.NewRecord(req.UserID, out.ImageURL, &out.AnalysisResult))
		if err != nil {
			p.logger.Error("history save failed (non-blocking)", zap.Error(err))
			p.metrics.recordStorageFailure("history")
			return
		}
		out.RecordID = id
	}
}
