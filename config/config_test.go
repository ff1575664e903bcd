package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privata-labs/privata/models"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default configuration",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "privata.db", cfg.Storage.Path)
				assert.Equal(t, models.PipelineModeMulti, cfg.Pipeline.Mode)
				assert.Equal(t, 3, cfg.Pipeline.MaxRetries)
				assert.Equal(t, 0, cfg.Pipeline.SampleCap)
				assert.Equal(t, "info", cfg.Observability.LogLevel)
				assert.Equal(t, "json", cfg.Observability.LogFormat)
			},
		},
		{
			name: "custom server and pipeline settings",
			envVars: map[string]string{
				"SERVER_HOST":              "127.0.0.1",
				"SERVER_PORT":              "9000",
				"SERVER_READ_TIMEOUT":      "60s",
				"PIPELINE_MODE":            "mono",
				"PIPELINE_MAX_RETRIES":     "1",
				"PIPELINE_ATTEMPT_TIMEOUT": "30s",
				"PIPELINE_SAMPLE_CAP":      "5",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address())
				assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, models.PipelineModeMono, cfg.Pipeline.Mode)
				assert.Equal(t, 1, cfg.Pipeline.MaxRetries)
				assert.Equal(t, 30*time.Second, cfg.Pipeline.AttemptTimeout)
				assert.Equal(t, 5, cfg.Pipeline.SampleCap)
			},
		},
		{
			name: "provider configuration",
			envVars: map[string]string{
				"OPENAI_API_KEY":  "sk-test",
				"OPENAI_BASE_URL": "http://localhost:11434/v1",
				"OPENAI_MODEL":    "llama3",
				"OPENAI_TIMEOUT":  "90s",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "sk-test", cfg.Providers.OpenAI.APIKey)
				assert.Equal(t, "http://localhost:11434/v1", cfg.Providers.OpenAI.BaseURL)
				assert.Equal(t, "llama3", cfg.Providers.OpenAI.Model)
				assert.Equal(t, 90*time.Second, cfg.Providers.OpenAI.Timeout)
			},
		},
		{
			name: "invalid pipeline mode",
			envVars: map[string]string{
				"PIPELINE_MODE": "dual",
			},
			wantErr: true,
		},
		{
			name: "negative max retries",
			envVars: map[string]string{
				"PIPELINE_MAX_RETRIES": "-1",
			},
			wantErr: true,
		},
		{
			name: "negative sample cap",
			envVars: map[string]string{
				"PIPELINE_SAMPLE_CAP": "-2",
			},
			wantErr: true,
		},
		{
			name: "production requires a provider key",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
			},
			wantErr: true,
		},
		{
			name: "production with a provider key",
			envVars: map[string]string{
				"ENVIRONMENT":    "production",
				"OPENAI_API_KEY": "sk-prod",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsProduction())
				assert.False(t, cfg.IsDevelopment())
			},
		},
		{
			name: "malformed numeric values fall back to defaults",
			envVars: map[string]string{
				"SERVER_PORT":          "not-a-number",
				"PIPELINE_MAX_RETRIES": "many",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 3, cfg.Pipeline.MaxRetries)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := New(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestServerAddress(t *testing.T) {
	cfg := ServerConfig{Host: "localhost", Port: 8081}
	assert.Equal(t, "localhost:8081", cfg.Address())
}
