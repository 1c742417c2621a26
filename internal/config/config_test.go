package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment does
// not leak into a test
func clearEnv(t *testing.T) {
	t.Helper()
	for name := range aliases {
		t.Setenv(name, "")
	}
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix) {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10*1024*1024, cfg.Detection.MaxImageBytes)
	assert.Equal(t, "furniture_products", cfg.Index.Collection)
	assert.Equal(t, 10*time.Second, cfg.Index.Timeout)
	assert.Equal(t, "gemini-2.0-flash", cfg.GenAI.Models[0])
	assert.False(t, cfg.GenerativeEnabled())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
server:
  port: 9000
index:
  backend: qdrant
  qdrant_host: qdrant.internal
genai:
  models: [gemini-2.5-flash]
  attempt_timeout: 5s
log:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, IndexQdrant, cfg.Index.Backend)
	assert.Equal(t, "qdrant.internal", cfg.Index.QdrantHost)
	assert.Equal(t, 6334, cfg.Index.QdrantPort)
	assert.Equal(t, []string{"gemini-2.5-flash"}, cfg.GenAI.Models)
	assert.Equal(t, 5*time.Second, cfg.GenAI.AttemptTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
	// untouched sections keep defaults
	assert.Equal(t, "yolov8n.pt", cfg.Detection.Model)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "server:\n  port: 9000\n")

	t.Setenv("VISION_SERVER_PORT", "9100")
	t.Setenv("VISION_GENAI_API_KEY", "from-vision")
	t.Setenv("VISION_DETECTION_MAX_IMAGE_BYTES", "2048")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "from-vision", cfg.GenAI.APIKey)
	assert.Equal(t, 2048, cfg.Detection.MaxImageBytes)
	assert.True(t, cfg.GenerativeEnabled())
}

func TestLoadAliases(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "legacy")
	t.Setenv("CHROMA_DB_PATH", "/data/chroma")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.GenAI.APIKey)
	assert.Equal(t, "/data/chroma", cfg.Index.Path)

	t.Setenv("VISION_GENAI_API_KEY", "preferred")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "preferred", cfg.GenAI.APIKey)
}

func TestLoadInvalid(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeFile(t, "server: [unterminated"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "index:\n  backend: pinecone\n"))
	assert.ErrorContains(t, err, "index.backend")

	_, err = Load(t.TempDir())
	assert.ErrorContains(t, err, "directory")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"max image bytes", func(c *Config) { c.Detection.MaxImageBytes = 0 }, "max_image_bytes"},
		{"quality", func(c *Config) { c.Detection.AnnotationQuality = 101 }, "annotation_quality"},
		{"format", func(c *Config) { c.Detection.AnnotationFormat = "gif" }, "annotation_format"},
		{"limit", func(c *Config) { c.Index.Limit = 0 }, "index.limit"},
		{"index timeout", func(c *Config) { c.Index.Timeout = 0 }, "index.timeout"},
		{"genai backend", func(c *Config) { c.GenAI.Backend = "openai" }, "genai.backend"},
		{"models", func(c *Config) { c.GenAI.Models = nil }, "genai.models"},
		{"timeout", func(c *Config) { c.GenAI.AttemptTimeout = 0 }, "attempt_timeout"},
		{"postgres dsn", func(c *Config) { c.Storage.History = HistoryPostgres }, "postgres_dsn"},
		{"history", func(c *Config) { c.Storage.History = "redis" }, "storage.history"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestGenerativeEnabled(t *testing.T) {
	cfg := Default()
	cfg.GenAI.Backend = GenAIOllama
	assert.False(t, cfg.GenerativeEnabled())
	cfg.GenAI.BaseURL = "http://localhost:11434"
	assert.True(t, cfg.GenerativeEnabled())
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("VISION_LOG_LEVEL=debug\n"), 0600))
	t.Setenv("VISION_LOG_LEVEL", "")
	os.Unsetenv("VISION_LOG_LEVEL")

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "debug", os.Getenv("VISION_LOG_LEVEL"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "genai.api_key", envKey("VISION_GENAI_API_KEY"))
	assert.Equal(t, "server.port", envKey("VISION_SERVER_PORT"))
	assert.Equal(t, "debug", envKey("VISION_DEBUG"))
}
