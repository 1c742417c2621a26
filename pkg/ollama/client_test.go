package ollama

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
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req["model"])
		assert.Equal(t, false, req["stream"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"llama3.2","message":{"role":"assistant","content":"{\"ok\":true}"},"done":true}`)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL + "/api/chat")
	require.NoError(t, err)

	out, err := c.Generate(context.Background(), "llama3.2", "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		quota  bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, true},
		{"missing model", http.StatusNotFound, `{"error":"model not found"}`, false},
		{"server error", http.StatusInternalServerError, `{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c, err := NewClient(srv.URL)
			require.NoError(t, err)

			_, err = c.Generate(context.Background(), "llama3.2", "hello")
			require.Error(t, err)
			assert.Equal(t, tt.quota, client.IsQuota(err))

			var be *client.BackendError
			assert.ErrorAs(t, err, &be)
		})
	}
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient("not a url")
	assert.Error(t, err)
}
