package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Workers       WorkersConfig
	Credentials   CredentialsConfig
	Routing       RoutingConfig
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
	CORSOrigins     []string
	RateLimitPerMin int
}

// WorkersConfig holds the backend worker pool configuration. The pool is
// fixed at startup; ordering is stable for the life of the process.
type WorkersConfig struct {
	URLs []string
}

// CredentialsConfig holds the outbound API key pool.
type CredentialsConfig struct {
	APIKeys []string
}

// RoutingConfig holds retry and fallback behavior for the router.
type RoutingConfig struct {
	MaxAttempts     int
	UnhealthyWindow time.Duration
	CallTimeout     time.Duration
	RetryWait       time.Duration
	FallbackBaseURL string
	MaxPromptLength int
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or console
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSOrigins:     getEnvAsList("CORS_ALLOW_ORIGINS", []string{"*"}),
			RateLimitPerMin: getEnvAsInt("RATE_LIMIT_PER_MIN", 30),
		},
		Workers: WorkersConfig{
			URLs: getEnvAsList("WORKER_URLS", nil),
		},
		Credentials: CredentialsConfig{
			APIKeys: getEnvAsList("GEN_API_KEYS", nil),
		},
		Routing: RoutingConfig{
			MaxAttempts:     getEnvAsInt("ROUTING_MAX_ATTEMPTS", 3),
			UnhealthyWindow: getEnvAsDuration("ROUTING_UNHEALTHY_WINDOW", 2*time.Minute),
			CallTimeout:     getEnvAsDuration("ROUTING_CALL_TIMEOUT", 20*time.Second),
			RetryWait:       getEnvAsDuration("ROUTING_RETRY_WAIT", 250*time.Millisecond),
			FallbackBaseURL: getEnv("FALLBACK_BASE_URL", "https://image.pollinations.ai"),
			MaxPromptLength: getEnvAsInt("MAX_PROMPT_LENGTH", 2000),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
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
	if len(c.Workers.URLs) == 0 {
		return fmt.Errorf("worker pool configuration required: set WORKER_URLS")
	}
	for _, u := range c.Workers.URLs {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("worker URL %q must start with http:// or https://", u)
		}
	}

	if c.Routing.MaxAttempts <= 0 {
		return fmt.Errorf("routing max attempts must be positive")
	}
	if c.Routing.UnhealthyWindow <= 0 {
		return fmt.Errorf("routing unhealthy window must be positive")
	}
	if c.Routing.CallTimeout <= 0 {
		return fmt.Errorf("routing call timeout must be positive")
	}
	if c.Routing.MaxPromptLength <= 0 {
		return fmt.Errorf("max prompt length must be positive")
	}
	if c.Routing.FallbackBaseURL == "" {
		return fmt.Errorf("fallback base URL is required")
	}

	// Credential pool may be empty in development; in production at least one
	// key must be configured or every outbound call aborts immediately.
	if c.IsProduction() && len(c.Credentials.APIKeys) == 0 {
		return fmt.Errorf("at least one API key must be configured in production")
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
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

// getEnvAsList splits a comma-separated value, trimming spaces and dropping
// empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
