// Package config resolves Eterna's runtime configuration from defaults, an
// optional YAML file and ETERNA_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the variable consulted when no --config flag is given.
const EnvConfigPath = "ETERNA_CONFIG"

// Config holds all Eterna configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Decay    DecayConfig    `yaml:"decay"`
	LLM      LLMConfig      `yaml:"llm"`
	Blob     BlobConfig     `yaml:"blob"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Bind string `yaml:"bind" env:"ETERNA_BIND"`
	Port int    `yaml:"port" env:"ETERNA_PORT"`
	// StaticDir, when set, is served as a single-page app at /.
	StaticDir string `yaml:"static_dir" env:"ETERNA_STATIC_DIR"`
	// MaxUploadBytes caps POST /api/uploads bodies.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"ETERNA_MAX_UPLOAD_BYTES"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"ETERNA_DB_DRIVER"` // "sqlite" or "postgres"
	Path   string `yaml:"path" env:"ETERNA_DB_PATH"`     // sqlite file, empty for ~/.eterna/eterna.db
	DSN    string `yaml:"dsn" env:"ETERNA_DATABASE_URL"` // postgres connection string
}

type DecayConfig struct {
	Enabled  bool          `yaml:"enabled" env:"ETERNA_DECAY_ENABLED"`
	Interval time.Duration `yaml:"interval" env:"ETERNA_DECAY_INTERVAL"`
	Workers  int           `yaml:"workers" env:"ETERNA_DECAY_WORKERS"`
}

type LLMConfig struct {
	Provider  string        `yaml:"provider" env:"ETERNA_LLM_PROVIDER"` // "anthropic", "openai", "ollama", "none"
	Model     string        `yaml:"model" env:"ETERNA_LLM_MODEL"`
	APIKey    string        `yaml:"api_key" env:"ETERNA_LLM_API_KEY"`
	BaseURL   string        `yaml:"base_url" env:"ETERNA_LLM_BASE_URL"`
	OllamaURL string        `yaml:"ollama_url" env:"ETERNA_OLLAMA_URL"`
	Timeout   time.Duration `yaml:"timeout" env:"ETERNA_LLM_TIMEOUT"`
}

type BlobConfig struct {
	Driver string `yaml:"driver" env:"ETERNA_BLOB_DRIVER"` // "fs" or "s3"
	Dir    string `yaml:"dir" env:"ETERNA_BLOB_DIR"`
	// PublicBaseURL prefixes returned image URLs. Empty means /uploads.
	PublicBaseURL string   `yaml:"public_base_url" env:"ETERNA_BLOB_PUBLIC_URL"`
	S3            S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket" env:"ETERNA_S3_BUCKET"`
	Region          string `yaml:"region" env:"ETERNA_S3_REGION"`
	Endpoint        string `yaml:"endpoint" env:"ETERNA_S3_ENDPOINT"`
	Prefix          string `yaml:"prefix" env:"ETERNA_S3_PREFIX"`
	UsePathStyle    bool   `yaml:"use_path_style" env:"ETERNA_S3_PATH_STYLE"`
	AccessKeyID     string `yaml:"access_key_id" env:"ETERNA_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"ETERNA_S3_SECRET_ACCESS_KEY"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"ETERNA_LOG_LEVEL"`
	Format string `yaml:"format" env:"ETERNA_LOG_FORMAT"` // "text" or "json"
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind:           "127.0.0.1",
			Port:           5000,
			MaxUploadBytes: 5 << 20,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
		},
		Decay: DecayConfig{
			Enabled:  true,
			Interval: 5 * time.Minute,
			Workers:  4,
		},
		LLM: LLMConfig{
			Provider:  "none",
			OllamaURL: "http://localhost:11434",
			Timeout:   30 * time.Second,
		},
		Blob: BlobConfig{
			Driver: "fs",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped when
// path is empty) and then with environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database.driver %q", c.Database.Driver))
	}
	if c.Decay.Interval <= 0 {
		errs = append(errs, fmt.Errorf("decay.interval must be positive, got %s", c.Decay.Interval))
	}
	if c.Decay.Workers < 1 {
		errs = append(errs, fmt.Errorf("decay.workers must be at least 1, got %d", c.Decay.Workers))
	}
	switch c.LLM.Provider {
	case "none", "anthropic", "openai", "ollama":
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("llm.timeout must be positive"))
	}
	switch c.Blob.Driver {
	case "fs":
	case "s3":
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("blob.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob.driver %q", c.Blob.Driver))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
