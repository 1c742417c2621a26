package llamacpp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarunsinghofficial/visionbackend/pkg/client"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"string content", `{"choices":[{"message":{"role":"assistant","content":"{}"}}]}`},
		{"array content", `{"choices":[{"message":{"role":"assistant","content":[{"type":"text","text":"{}"}]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/v1/chat/completions", r.URL.Path)

				var req chatRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "qwen2.5", req.Model)
				assert.False(t, req.Stream)

				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c, err := NewClient(srv.URL + "/")
			require.NoError(t, err)

			out, err := c.Generate(context.Background(), "qwen2.5", "hello")
			require.NoError(t, err)
			assert.Equal(t, "{}", out)
		})
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		quota  bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":"busy"}`, true},
		{"server error", http.StatusInternalServerError, `{"error":"oom"}`, false},
		{"no choices", http.StatusOK, `{"choices":[]}`, false},
		{"empty text", http.StatusOK, `{"choices":[{"message":{"content":""}}]}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c, err := NewClient(srv.URL)
			require.NoError(t, err)

			_, err = c.Generate(context.Background(), "qwen2.5", "hello")
			require.Error(t, err)
			assert.Equal(t, tt.quota, client.IsQuota(err))
		})
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("localhost:8080")
	assert.Error(t, err)

	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, defaultServerURL, c.baseURL)
}

func TestMessageTextJoinsParts(t *testing.T) {
	raw := []byte(`[{"type":"text","text":"{\"a\":"},{"type":"image_url"},{"type":"text","text":"1}"}]`)
	assert.Equal(t, `{"a":1}`, messageText(raw))
	assert.Empty(t, messageText([]byte(`42`)))
}
