// Package gemini runs room analysis prompts against Gemini models through
// the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/tarunsinghofficial/visionbackend/pkg/client"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultRateLimit = 2
	defaultBurst     = 4

	statusResourceExhausted = "RESOURCE_EXHAUSTED"
)

// ErrMissingAPIKey is returned by NewClient without a key
var ErrMissingAPIKey = errors.New("gemini API key required")

// Config configures the client
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint; empty uses the SDK default
	BaseURL string
	Timeout time.Duration
	// RateLimit is requests per second; zero uses the default
	RateLimit float64
	Burst     int
}

// Client calls Gemini models by name
type Client struct {
	models  *genai.Models
	limiter *rate.Limiter
}

// NewClient creates a Gemini client
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	// the API key backend does no I/O while constructing the client
	gc, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{
		models:  gc.Models,
		limiter: rate.NewLimiter(rate.Limit(limit), burst),
	}, nil
}

// Generate sends the prompt to the named model and returns the response
// text. Quota exhaustion is reported as a client.FailureQuota BackendError.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", client.OtherError(model, fmt.Errorf("rate limiter: %w", err))
	}

	resp, err := c.models.GenerateContent(ctx, model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, nil)
	if err != nil {
		return "", classify(model, err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", client.OtherError(model, fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason))
	}
	if len(resp.Candidates) == 0 {
		return "", client.OtherError(model, errors.New("no candidates in response"))
	}

	text := resp.Text()
	if text == "" {
		return "", client.OtherError(model, errors.New("empty response text"))
	}
	return text, nil
}

// classify maps an SDK failure onto the backend error kinds
func classify(model string, err error) error {
	var ae genai.APIError
	if errors.As(err, &ae) {
		if ae.Code == http.StatusTooManyRequests || ae.Status == statusResourceExhausted {
			return client.QuotaError(model, err)
		}
	}
	return client.OtherError(model, err)
}
