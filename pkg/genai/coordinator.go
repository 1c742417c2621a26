package genai

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tarunsinghofficial/visionbackend/pkg/client"
	"github.com/tarunsinghofficial/visionbackend/pkg/types"
)

// DefaultModels is the model priority list
var DefaultModels = []string{
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
	"gemini-2.5-flash",
	"gemini-1.5-flash",
}

// DefaultAttemptTimeout bounds a single model call
const DefaultAttemptTimeout = 30 * time.Second

// Source identifies where an analysis came from
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Fallback reasons reported in Outcome
const (
	ReasonNoCredential   = "no_credential"
	ReasonQuotaExhausted = "quota_exhausted"
	ReasonBackendError   = "backend_error"
	ReasonInvalidOutput  = "invalid_response"
	ReasonCanceled       = "canceled"
)

// Attempt results
const (
	ResultOK      = "ok"
	ResultQuota   = "quota"
	ResultOther   = "other"
	ResultInvalid = "invalid"
)

// Attempt records one model call
type Attempt struct {
	Model    string
	Result   string
	Duration time.Duration
	Err      error
}

// Outcome describes how an analysis was produced
type Outcome struct {
	Source   Source
	Model    string
	Attempts []Attempt
	Reason   string
}

// Config controls the model chain
type Config struct {
	Models         []string
	AttemptTimeout time.Duration
}

// DefaultConfig returns the default chain and timeout
func DefaultConfig() Config {
	return Config{
		Models:         append([]string(nil), DefaultModels...),
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

// Coordinator drives the generative model chain
type Coordinator struct {
	client client.GenerativeClient
	config Config
	logger *zap.Logger
}

// NewCoordinator creates a coordinator. A nil client means no credential is
// configured and every call returns the fallback.
func NewCoordinator(c client.GenerativeClient, cfg Config, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Models) == 0 {
		cfg.Models = append([]string(nil), DefaultModels...)
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	return &Coordinator{client: c, config: cfg, logger: logger}
}

// Models returns the configured priority list
func (c *Coordinator) Models() []string {
	return append([]string(nil), c.config.Models...)
}

// Analyze returns a valid RoomAnalysis. Quota failures move on to the next
// model; any other failure, including an unusable response, ends the chain.
// It never returns an error.
func (c *Coordinator) Analyze(ctx context.Context, objects []types.DetectedObject, recs []types.ProductMatch, roomType string) (types.RoomAnalysis, Outcome) {
	if c.client == nil {
		c.logger.Warn("no generative credential configured, returning fallback analysis")
		return c.fallback(objects, recs, roomType, Outcome{Reason: ReasonNoCredential})
	}

	prompt := BuildPrompt(objects, roomType, recs)
	var out Outcome

	for _, model := range c.config.Models {
		if ctx.Err() != nil {
			out.Reason = ReasonCanceled
			return c.fallback(objects, recs, roomType, out)
		}

		c.logger.Info("trying generative model", zap.String("model", model))
		analysis, attempt := c.try(ctx, model, prompt, roomType)
		out.Attempts = append(out.Attempts, attempt)

		switch attempt.Result {
		case ResultOK:
			c.logger.Info("generative analysis completed",
				zap.String("model", model),
				zap.Duration("duration", attempt.Duration),
			)
			out.Source = SourceModel
			out.Model = model
			return analysis, out

		case ResultQuota:
			c.logger.Warn("model quota exceeded, trying next", zap.String("model", model), zap.Error(attempt.Err))
			continue

		case ResultInvalid:
			c.logger.Error("model returned unusable response", zap.String("model", model), zap.Error(attempt.Err))
			out.Reason = ReasonInvalidOutput

		default:
			c.logger.Error("generative model failed", zap.String("model", model), zap.Error(attempt.Err))
			out.Reason = ReasonBackendError
			if ctx.Err() != nil {
				out.Reason = ReasonCanceled
			}
		}
		return c.fallback(objects, recs, roomType, out)
	}

	c.logger.Warn("all generative models exhausted their quota, using fallback analysis",
		zap.Int("models", len(c.config.Models)))
	out.Reason = ReasonQuotaExhausted
	return c.fallback(objects, recs, roomType, out)
}

func (c *Coordinator) try(ctx context.Context, model, prompt, roomType string) (types.RoomAnalysis, Attempt) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.AttemptTimeout)
	defer cancel()

	start := time.Now()
	text, err := c.client.Generate(attemptCtx, model, prompt)
	attempt := Attempt{Model: model, Duration: time.Since(start), Err: err}

	if err != nil {
		attempt.Result = ResultOther
		if client.IsQuota(err) {
			attempt.Result = ResultQuota
		}
		return types.RoomAnalysis{}, attempt
	}

	analysis, err := ParseAnalysis(text, roomType)
	if err != nil {
		attempt.Result = ResultInvalid
		attempt.Err = err
		return types.RoomAnalysis{}, attempt
	}

	attempt.Result = ResultOK
	return analysis, attempt
}

func (c *Coordinator) fallback(objects []types.DetectedObject, recs []types.ProductMatch, roomType string, out Outcome) (types.RoomAnalysis, Outcome) {
	out.Source = SourceFallback
	out.Model = ""
	return Fallback(objects, recs, roomType), out
}

// LastError returns the error of the final attempt, if any
func (o Outcome) LastError() error {
	if len(o.Attempts) == 0 {
		return nil
	}
	return o.Attempts[len(o.Attempts)-1].Err
}
