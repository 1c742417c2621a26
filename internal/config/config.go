package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides, e.g. VISION_GENAI_API_KEY
const EnvPrefix = "VISION_"

const maxConfigFileSize = 1024 * 1024

// Index backends
const (
	IndexChromem = "chromem"
	IndexQdrant  = "qdrant"
)

// Generative backends
const (
	GenAIGemini   = "gemini"
	GenAIOllama   = "ollama"
	GenAILlamaCpp = "llamacpp"
)

// History backends
const (
	HistoryNone     = ""
	HistoryMemory   = "memory"
	HistoryPostgres = "postgres"
)

// aliases maps the environment names used by earlier deployments to config
// keys. VISION_ variables take precedence over them.
var aliases = map[string]string{
	"GEMINI_API_KEY": "genai.api_key",
	"MODEL_PATH":     "detection.model",
	"CHROMA_DB_PATH": "index.path",
	"DATABASE_URL":   "storage.postgres_dsn",
}

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Detection  DetectionConfig  `koanf:"detection"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Index      IndexConfig      `koanf:"index"`
	GenAI      GenAIConfig      `koanf:"genai"`
	Storage    StorageConfig    `koanf:"storage"`
	Log        LogConfig        `koanf:"log"`
}

// ServerConfig holds configuration for the HTTP surface
type ServerConfig struct {
	Host           string `koanf:"host"`
	Port           int    `koanf:"port"`
	MaxUploadBytes int64  `koanf:"max_upload_bytes"`
	Metrics        bool   `koanf:"metrics"`
}

// DetectionConfig holds configuration for the detector service and the
// detection stage
type DetectionConfig struct {
	InferenceURL      string        `koanf:"inference_url"`
	Model             string        `koanf:"model"`
	Timeout           time.Duration `koanf:"timeout"`
	MaxImageBytes     int           `koanf:"max_image_bytes"`
	AnnotationFormat  string        `koanf:"annotation_format"`
	AnnotationQuality int           `koanf:"annotation_quality"`
}

// EmbeddingsConfig holds configuration for the text embedder
type EmbeddingsConfig struct {
	Model    string `koanf:"model"`
	CacheDir string `koanf:"cache_dir"`
}

// IndexConfig holds configuration for the product vector index
type IndexConfig struct {
	Backend      string        `koanf:"backend"`
	Path         string        `koanf:"path"`
	Collection   string        `koanf:"collection"`
	Limit        int           `koanf:"limit"`
	Timeout      time.Duration `koanf:"timeout"`
	QdrantHost   string        `koanf:"qdrant_host"`
	QdrantPort   int           `koanf:"qdrant_port"`
	QdrantAPIKey string        `koanf:"qdrant_api_key"`
	QdrantTLS    bool          `koanf:"qdrant_tls"`
}

// GenAIConfig holds configuration for the generative backend
type GenAIConfig struct {
	Backend        string        `koanf:"backend"`
	APIKey         string        `koanf:"api_key"`
	BaseURL        string        `koanf:"base_url"`
	Models         []string      `koanf:"models"`
	AttemptTimeout time.Duration `koanf:"attempt_timeout"`
	RateLimit      float64       `koanf:"rate_limit"`
}

// StorageConfig holds configuration for image and history persistence
type StorageConfig struct {
	ImagesDir     string `koanf:"images_dir"`
	PublicBaseURL string `koanf:"public_base_url"`
	History       string `koanf:"history"`
	PostgresDSN   string `koanf:"postgres_dsn"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			MaxUploadBytes: 11 * 1024 * 1024,
			Metrics:        true,
		},
		Detection: DetectionConfig{
			InferenceURL:      "http://localhost:8001",
			Model:             "yolov8n.pt",
			Timeout:           60 * time.Second,
			MaxImageBytes:     10 * 1024 * 1024,
			AnnotationFormat:  "jpg",
			AnnotationQuality: 85,
		},
		Embeddings: EmbeddingsConfig{
			Model:    "sentence-transformers/all-MiniLM-L6-v2",
			CacheDir: "./local_cache",
		},
		Index: IndexConfig{
			Backend:    IndexChromem,
			Path:       "./chroma_store",
			Collection: "furniture_products",
			Limit:      5,
			Timeout:    10 * time.Second,
			QdrantHost: "localhost",
			QdrantPort: 6334,
		},
		GenAI: GenAIConfig{
			Backend:        GenAIGemini,
			Models:         []string{"gemini-2.0-flash", "gemini-2.0-flash-lite", "gemini-2.5-flash", "gemini-1.5-flash"},
			AttemptTimeout: 30 * time.Second,
			RateLimit:      1,
		},
		Storage: StorageConfig{
			// matches the path the server exposes images_dir under
			PublicBaseURL: "/images",
			History:       HistoryNone,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadDotEnv loads variables from .env files into the process environment.
// Missing files are skipped and variables already set are not overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds the configuration from defaults, the YAML file at path (if
// it exists), legacy environment aliases and VISION_ environment variables,
// in increasing order of precedence.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if content != nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	for name, key := range aliases {
		if v := os.Getenv(name); v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, fmt.Errorf("failed to apply %s: %w", name, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	// slices are merged element-wise by the decoder, so replace rather than overlay
	if k.Exists("genai.models") {
		cfg.GenAI.Models = nil
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envKey maps VISION_GENAI_API_KEY to genai.api_key. Only the first
// underscore after the prefix separates section from field.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return data, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Detection.MaxImageBytes < 1 {
		return fmt.Errorf("detection.max_image_bytes must be positive")
	}

	if c.Detection.AnnotationQuality < 1 || c.Detection.AnnotationQuality > 100 {
		return fmt.Errorf("detection.annotation_quality must be between 1 and 100")
	}

	switch c.Detection.AnnotationFormat {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("detection.annotation_format %q is not supported", c.Detection.AnnotationFormat)
	}

	switch c.Index.Backend {
	case IndexChromem, IndexQdrant:
	default:
		return fmt.Errorf("index.backend must be %q or %q", IndexChromem, IndexQdrant)
	}

	if c.Index.Limit < 1 {
		return fmt.Errorf("index.limit must be positive")
	}

	if c.Index.Timeout <= 0 {
		return fmt.Errorf("index.timeout must be positive")
	}

	switch c.GenAI.Backend {
	case GenAIGemini, GenAIOllama, GenAILlamaCpp:
	default:
		return fmt.Errorf("genai.backend must be one of %s, %s, %s", GenAIGemini, GenAIOllama, GenAILlamaCpp)
	}

	if len(c.GenAI.Models) == 0 {
		return fmt.Errorf("genai.models cannot be empty")
	}

	if c.GenAI.AttemptTimeout <= 0 {
		return fmt.Errorf("genai.attempt_timeout must be positive")
	}

	switch c.Storage.History {
	case HistoryNone, HistoryMemory:
	case HistoryPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for postgres history")
		}
	default:
		return fmt.Errorf("storage.history %q is not supported", c.Storage.History)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console")
	}

	return nil
}

// GenerativeEnabled reports whether a generative backend can be used. The
// hosted backend needs a credential; local ones need a base URL.
func (c *Config) GenerativeEnabled() bool {
	if c.GenAI.Backend == GenAIGemini {
		return c.GenAI.APIKey != ""
	}
	return c.GenAI.BaseURL != ""
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "room-analyzer", "config.yaml")
}
