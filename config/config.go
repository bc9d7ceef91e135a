package config

import (
	"context"
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
	Providers     ProvidersConfig
	Knowledge     KnowledgeConfig
	Fetch         FetchConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	CORSOrigins     []string
}

// ProvidersConfig holds generation provider configurations
type ProvidersConfig struct {
	OpenAI OpenAIConfig
}

// OpenAIConfig holds OpenAI provider configuration
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	UseResponsesAPI bool
	Timeout         time.Duration
	MaxRetries      int
}

// KnowledgeConfig holds knowledge base and chat settings
type KnowledgeConfig struct {
	MaxContextChars     int
	DefaultInstructions string
	DefaultSource       string
	ChatTimeout         time.Duration
}

// FetchConfig holds settings for retrieving URL content
type FetchConfig struct {
	Timeout           time.Duration
	MaxBytes          int64
	UserAgent         string
	RequestsPerSecond float64
	Burst             int
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or console
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			MaxBodyBytes:    getEnvAsInt64("MAX_BODY_BYTES", 2<<20),
			CORSOrigins:     getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Providers: ProvidersConfig{
			OpenAI: OpenAIConfig{
				APIKey:          getEnv("OPENAI_API_KEY", ""),
				BaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				Model:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
				UseResponsesAPI: getEnvAsBool("OPENAI_USE_RESPONSES_API", true),
				Timeout:         getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
				MaxRetries:      getEnvAsInt("OPENAI_MAX_RETRIES", 0),
			},
		},
		Knowledge: KnowledgeConfig{
			MaxContextChars:     getEnvAsInt("KB_MAX_CONTEXT_CHARS", 4000),
			DefaultInstructions: getEnv("KB_DEFAULT_INSTRUCTIONS", ""),
			DefaultSource:       getEnv("KB_DEFAULT_SOURCE", "manual"),
			ChatTimeout:         getEnvAsDuration("KB_CHAT_TIMEOUT", 0),
		},
		Fetch: FetchConfig{
			Timeout:           getEnvAsDuration("FETCH_TIMEOUT", 15*time.Second),
			MaxBytes:          getEnvAsInt64("FETCH_MAX_BYTES", 2<<20),
			UserAgent:         getEnv("FETCH_USER_AGENT", "kb-assistant/1.0 (+knowledge ingestion)"),
			RequestsPerSecond: getEnvAsFloat("FETCH_REQUESTS_PER_SECOND", 2),
			Burst:             getEnvAsInt("FETCH_BURST", 4),
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
	// Provider validation (API key required in production)
	if c.IsProduction() && c.Providers.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required in production")
	}
	if c.Providers.OpenAI.Model == "" {
		return fmt.Errorf("openai model is required")
	}
	if c.Providers.OpenAI.MaxRetries < 0 {
		return fmt.Errorf("openai max retries must not be negative")
	}

	if c.Knowledge.MaxContextChars <= 0 {
		return fmt.Errorf("KB_MAX_CONTEXT_CHARS must be positive, got %d", c.Knowledge.MaxContextChars)
	}

	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}

	// Observability validation
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

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 3001)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 3001
}

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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
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

// getEnvAsList splits a comma-separated value, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
