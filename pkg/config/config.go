package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Generation providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	RapidAPI    RapidAPIConfig
	Generation  GenerationConfig
	Gemini      GeminiConfig
	OpenAI      OpenAIConfig
	Redis       RedisConfig
	Events      EventsConfig
	OTEL        OTELConfig
	CORS        CORSConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RapidAPIConfig holds configuration for the symptom diagnosis API
type RapidAPIConfig struct {
	APIKey  string
	Host    string
	URL     string
	Timeout time.Duration
}

// GenerationConfig selects the generative text provider and prompt language
type GenerationConfig struct {
	Provider string
	Language string
}

// GeminiConfig holds Gemini configuration
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// OpenAIConfig holds OpenAI configuration
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// EventsConfig holds analysis event publishing configuration
type EventsConfig struct {
	Channel string
	// StreamPort is the listen port of the operator event stream (cmd/events)
	StreamPort int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// CORSConfig holds allowed origins for browser clients
type CORSConfig struct {
	AllowedOrigins []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		RapidAPI: RapidAPIConfig{
			APIKey:  getEnv("RAPIDAPI_KEY", ""),
			Host:    getEnv("RAPIDAPI_HOST", "ai-medical-diagnosis-api-symptoms-to-results.p.rapidapi.com"),
			URL:     getEnv("RAPIDAPI_URL", "https://ai-medical-diagnosis-api-symptoms-to-results.p.rapidapi.com/api/v1/diagnosis"),
			Timeout: getEnvAsDuration("RAPIDAPI_TIMEOUT", 30*time.Second),
		},
		Generation: GenerationConfig{
			Provider: strings.ToLower(getEnv("GENERATION_PROVIDER", ProviderGemini)),
			Language: strings.ToLower(getEnv("PROMPT_LANGUAGE", "ru")),
		},
		Gemini: GeminiConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			BaseURL: getEnv("GEMINI_BASE_URL", ""),
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
			Timeout: getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Events: EventsConfig{
			Channel:    getEnv("EVENTS_CHANNEL", "analysis:events"),
			StreamPort: getEnvAsInt("EVENTS_STREAM_PORT", 8081),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "medanalyzer"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
	}

	switch cfg.Generation.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return nil, fmt.Errorf("unknown GENERATION_PROVIDER %q (want %q or %q)", cfg.Generation.Provider, ProviderGemini, ProviderOpenAI)
	}

	switch cfg.Generation.Language {
	case "ru", "en":
	default:
		return nil, fmt.Errorf("unsupported PROMPT_LANGUAGE %q (want \"ru\" or \"en\")", cfg.Generation.Language)
	}

	return cfg, nil
}

// MissingCredentials returns the names of the required credentials that are
// not set. The generation credential depends on the selected provider.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.RapidAPI.APIKey == "" {
		missing = append(missing, "RAPIDAPI_KEY")
	}
	if c.GenerationAPIKey() == "" {
		missing = append(missing, c.GenerationKeyName())
	}
	return missing
}

// GenerationAPIKey returns the credential of the selected generation provider
func (c *Config) GenerationAPIKey() string {
	if c.Generation.Provider == ProviderOpenAI {
		return c.OpenAI.APIKey
	}
	return c.Gemini.APIKey
}

// GenerationKeyName returns the env var holding the generation credential
func (c *Config) GenerationKeyName() string {
	if c.Generation.Provider == ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
