package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarunsinghofficial/visionbackend/pkg/client"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, RateLimit: 1000, Burst: 10})
	require.NoError(t, err)
	return c
}

// generateBody is the part of the generateContent request the tests inspect
type generateBody struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

func TestGenerate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req generateBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)
		require.Len(t, req.Contents[0].Parts, 1)
		assert.Equal(t, "describe the room", req.Contents[0].Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")

		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"{\"a\":"},{"text":"1}"}]}}]}`)
	})

	out, err := c.Generate(context.Background(), "gemini-2.0-flash", "describe the room")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
}

func TestGenerateQuota(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"429", http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`},
		{"status only", http.StatusForbidden, `{"error":{"code":403,"message":"exhausted","status":"RESOURCE_EXHAUSTED"}}`},
		{"429 plain body", http.StatusTooManyRequests, `slow down`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Generate(context.Background(), "gemini-2.0-flash", "p")
			require.Error(t, err)
			assert.True(t, client.IsQuota(err))
		})
	}
}

func TestGenerateOtherErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"code":500,"message":"internal","status":"INTERNAL"}}`},
		{"bad key", http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
		{"blocked", http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`},
		{"bad json", http.StatusOK, `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Generate(context.Background(), "gemini-2.0-flash", "p")
			require.Error(t, err)
			assert.False(t, client.IsQuota(err))

			var be *client.BackendError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, "gemini-2.0-flash", be.Model)
		})
	}
}

func TestGenerateHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Generate(ctx, "gemini-2.0-flash", "p")
	require.Error(t, err)
	assert.False(t, client.IsQuota(err))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{APIKey: " "})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
