// Package llamacpp talks to a llama.cpp server (or any OpenAI-compatible
// chat endpoint) for the room analysis step.
package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tarunsinghofficial/visionbackend/pkg/client"
)

const (
	defaultServerURL = "http://localhost:8080"
	completionsPath  = "/v1/chat/completions"

	// error bodies are truncated to keep log lines readable
	maxErrorBody = 512
)

// Client is a generative backend for a llama.cpp server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type chatMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type textPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// statusError carries the HTTP status of a failed request
type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a client for the server at serverURL. Per-attempt
// deadlines come from the caller's context; the transport timeout only
// bounds requests made without one.
func NewClient(serverURL string) (*Client, error) {
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		return nil, fmt.Errorf("invalid server URL %q", serverURL)
	}

	return &Client{
		baseURL:    strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

// Generate sends prompt as a single user turn and returns the reply text.
// HTTP 429 is reported as a quota failure.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	content, err := json.Marshal(prompt)
	if err != nil {
		return "", client.OtherError(model, err)
	}

	body, err := c.post(ctx, completionsPath, chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: content}},
		Temperature: 0.4,
		MaxTokens:   2048,
	})
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests {
			return "", client.QuotaError(model, err)
		}
		return "", client.OtherError(model, err)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", client.OtherError(model, fmt.Errorf("failed to parse response: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", client.OtherError(model, errors.New("no choices in response"))
	}

	text := messageText(resp.Choices[0].Message.Content)
	if text == "" {
		return "", client.OtherError(model, errors.New("empty response"))
	}
	return text, nil
}

// messageText accepts both the plain string and the content-part array
// forms of a message body.
func messageText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var parts []textPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		if p.Type == "text" || p.Type == "" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &statusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
