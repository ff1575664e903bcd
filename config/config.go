package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/privata-labs/privata/models"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Storage       StorageConfig
	Providers     ProvidersConfig
	Pipeline      PipelineConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// StorageConfig holds the saved-analyses store configuration
type StorageConfig struct {
	// Path is the SQLite database file. ":memory:" keeps everything in-process.
	Path string
}

// ProvidersConfig holds LLM provider configurations
type ProvidersConfig struct {
	OpenAI OpenAIConfig
}

// OpenAIConfig holds OpenAI provider configuration
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// PipelineConfig holds pipeline execution configuration
type PipelineConfig struct {
	Mode models.PipelineMode
	// MaxRetries is the number of corrective retries per stage; each stage
	// therefore makes at most MaxRetries+1 attempts.
	MaxRetries     int
	AttemptTimeout time.Duration
	// SampleCap bounds how many sample values per column the metadata
	// snapshot may carry. Zero means no samples leave the process at all.
	SampleCap int
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Path: getEnv("STORAGE_PATH", "privata.db"),
		},
		Providers: ProvidersConfig{
			OpenAI: OpenAIConfig{
				APIKey:  getEnv("OPENAI_API_KEY", ""),
				BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
				Timeout: getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
			},
		},
		Pipeline: PipelineConfig{
			Mode:           models.PipelineMode(getEnv("PIPELINE_MODE", string(models.PipelineModeMulti))),
			MaxRetries:     getEnvAsInt("PIPELINE_MAX_RETRIES", 3),
			AttemptTimeout: getEnvAsDuration("PIPELINE_ATTEMPT_TIMEOUT", 120*time.Second),
			SampleCap:      getEnvAsInt("PIPELINE_SAMPLE_CAP", 0),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}

	if c.Pipeline.Mode != models.PipelineModeMulti && c.Pipeline.Mode != models.PipelineModeMono {
		return fmt.Errorf("pipeline mode must be %q or %q", models.PipelineModeMulti, models.PipelineModeMono)
	}
	if c.Pipeline.MaxRetries < 0 {
		return fmt.Errorf("pipeline max retries cannot be negative")
	}
	if c.Pipeline.SampleCap < 0 {
		return fmt.Errorf("pipeline sample cap cannot be negative")
	}

	// Provider validation (key required in production)
	if c.IsProduction() && c.Providers.OpenAI.APIKey == "" {
		return fmt.Errorf("an LLM provider API key is required in production")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
