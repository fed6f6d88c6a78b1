package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("WORKER_URLS", "http://worker-1:9000,http://worker-2:9000")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())

	assert.Equal(t, []string{"http://worker-1:9000", "http://worker-2:9000"}, cfg.Workers.URLs)
	assert.Empty(t, cfg.Credentials.APIKeys)

	assert.Equal(t, 3, cfg.Routing.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Routing.UnhealthyWindow)
	assert.Equal(t, 20*time.Second, cfg.Routing.CallTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Routing.RetryWait)
	assert.Equal(t, "https://image.pollinations.ai", cfg.Routing.FallbackBaseURL)
	assert.Equal(t, 2000, cfg.Routing.MaxPromptLength)

	assert.Equal(t, "info", cfg.Observability.LogLevel)
	assert.Equal(t, "json", cfg.Observability.LogFormat)
	assert.True(t, cfg.Observability.MetricsEnabled)
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("WORKER_URLS", " http://a:9000 , http://b:9000 ,, ")
	t.Setenv("GEN_API_KEYS", "k1,k2")
	t.Setenv("PORT", "9999")
	t.Setenv("ROUTING_MAX_ATTEMPTS", "5")
	t.Setenv("ROUTING_UNHEALTHY_WINDOW", "30s")
	t.Setenv("ROUTING_RETRY_WAIT", "10ms")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := New()
	require.NoError(t, err)

	// List parsing trims spaces and drops empty entries.
	assert.Equal(t, []string{"http://a:9000", "http://b:9000"}, cfg.Workers.URLs)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Credentials.APIKeys)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Routing.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Routing.UnhealthyWindow)
	assert.Equal(t, 10*time.Millisecond, cfg.Routing.RetryWait)
	assert.False(t, cfg.Observability.MetricsEnabled)
	assert.True(t, cfg.IsProduction())
}

func TestNew_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("WORKER_URLS", "http://a:9000")
	t.Setenv("PORT", "not-a-number")
	t.Setenv("ROUTING_CALL_TIMEOUT", "soon")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 20*time.Second, cfg.Routing.CallTimeout)
}

func TestValidate_Failures(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment: "development",
			Workers:     WorkersConfig{URLs: []string{"http://a:9000"}},
			Routing: RoutingConfig{
				MaxAttempts:     3,
				UnhealthyWindow: 2 * time.Minute,
				CallTimeout:     20 * time.Second,
				FallbackBaseURL: "https://image.pollinations.ai",
				MaxPromptLength: 2000,
			},
			Observability: ObservabilityConfig{LogLevel: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing worker pool",
			mutate:  func(c *Config) { c.Workers.URLs = nil },
			wantErr: "WORKER_URLS",
		},
		{
			name:    "worker URL without scheme",
			mutate:  func(c *Config) { c.Workers.URLs = []string{"worker-1:9000"} },
			wantErr: "http",
		},
		{
			name:    "non-positive max attempts",
			mutate:  func(c *Config) { c.Routing.MaxAttempts = 0 },
			wantErr: "max attempts",
		},
		{
			name:    "non-positive unhealthy window",
			mutate:  func(c *Config) { c.Routing.UnhealthyWindow = 0 },
			wantErr: "unhealthy window",
		},
		{
			name:    "missing fallback base URL",
			mutate:  func(c *Config) { c.Routing.FallbackBaseURL = "" },
			wantErr: "fallback",
		},
		{
			name: "production without credentials",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.Credentials.APIKeys = nil
			},
			wantErr: "API key",
		},
		{
			name:    "missing log level",
			mutate:  func(c *Config) { c.Observability.LogLevel = "" },
			wantErr: "log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_EmptyCredentialsAllowedInDevelopment(t *testing.T) {
	cfg := &Config{
		Environment: "development",
		Workers:     WorkersConfig{URLs: []string{"http://a:9000"}},
		Routing: RoutingConfig{
			MaxAttempts:     3,
			UnhealthyWindow: 2 * time.Minute,
			CallTimeout:     20 * time.Second,
			FallbackBaseURL: "https://image.pollinations.ai",
			MaxPromptLength: 2000,
		},
		Observability: ObservabilityConfig{LogLevel: "info"},
	}

	assert.NoError(t, cfg.Validate())
}
