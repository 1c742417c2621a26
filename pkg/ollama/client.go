package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/tarunsinghofficial/visionbackend/pkg/client"
)

// Client wraps the Ollama API client
type Client struct {
	client  *api.Client
	options map[string]any
}

// NewClient creates a new Ollama client
func NewClient(ollamaURL string) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = "http://localhost:11434"
	}

	// Parse the provided URL
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: scheme and host are required", ollamaURL)
	}

	// Create base URL from the provided URL (removing path like /api/chat)
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	// Create client with the specified URL, ignoring environment
	c := api.NewClient(baseURL, http.DefaultClient)

	return &Client{
		client: c,
		options: map[string]any{
			"temperature": 0.4,
			"num_ctx":     4096,
		},
	}, nil
}

// Generate sends a single-turn chat to the model and returns its reply.
// A 429 from the server is reported as a quota failure.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	streamFalse := false
	req := &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Stream:  &streamFalse,
		Options: c.options,
		// No Format field - let the prompt guide the format
	}

	var responseContent strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", classify(model, err)
	}

	if responseContent.Len() == 0 {
		return "", client.OtherError(model, errors.New("empty response from ollama"))
	}
	return responseContent.String(), nil
}

func classify(model string, err error) error {
	var se api.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests {
		return client.QuotaError(model, fmt.Errorf("ollama chat error: %w", err))
	}
	return client.OtherError(model, fmt.Errorf("ollama chat error: %w", err))
}
