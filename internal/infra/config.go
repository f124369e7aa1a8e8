package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderStatic = "static"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	LogLevel    string
	Port        string
	DatabaseURL string
	JWTSecret   string
	GeoIPDBPath string

	ModelProvider   string
	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	OpenAIOrg       string
	ProviderTimeout time.Duration
	BreakerFailures int

	WorkerConcurrency  int
	WorkerQueueSize    int
	WorkerPollInterval time.Duration
	MaxPromptLength    int

	PreviewBaseURL      string
	PreviewReadyTimeout time.Duration
	PreviewStoragePath  string

	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
	TracingEnabled     bool
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// DATABASE_URL and JWT_SECRET are optional: without them the service keeps its state in
// memory and accepts anonymous requests.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		Port:        port,
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),

		ModelProvider:   strings.ToLower(getEnv("MODEL_PROVIDER", ProviderStatic)),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:       os.Getenv("OPENAI_ORG"),
		ProviderTimeout: getEnvSeconds("PROVIDER_TIMEOUT_SECONDS", 60),
		BreakerFailures: getEnvInt("PROVIDER_BREAKER_FAILURES", 5),

		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 4),
		WorkerQueueSize:    getEnvInt("WORKER_QUEUE_SIZE", 64),
		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 2*time.Second),
		MaxPromptLength:    getEnvInt("MAX_PROMPT_LENGTH", 2000),

		PreviewBaseURL:      strings.TrimRight(getEnv("PREVIEW_BASE_URL", "http://localhost:"+port+"/v1/previews"), "/"),
		PreviewReadyTimeout: time.Millisecond * time.Duration(getEnvInt("PREVIEW_READY_TIMEOUT_MS", 5000)),
		PreviewStoragePath:  os.Getenv("PREVIEW_STORAGE_PATH"),

		HTTPReadTimeout:    getEnvSeconds("HTTP_READ_TIMEOUT_SECONDS", 15),
		HTTPWriteTimeout:   getEnvSeconds("HTTP_WRITE_TIMEOUT_SECONDS", 30),
		HTTPIdleTimeout:    getEnvSeconds("HTTP_IDLE_TIMEOUT_SECONDS", 60),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		TracingEnabled:     getEnvBool("TRACING_ENABLED", false),
	}

	switch cfg.ModelProvider {
	case ProviderGemini, ProviderOpenAI, ProviderStatic:
	default:
		return nil, fmt.Errorf("MODEL_PROVIDER %q is not one of gemini, openai, static", cfg.ModelProvider)
	}
	if cfg.MaxPromptLength <= 0 {
		return nil, fmt.Errorf("MAX_PROMPT_LENGTH must be positive")
	}
	if cfg.WorkerConcurrency < 0 {
		return nil, fmt.Errorf("WORKER_CONCURRENCY must not be negative")
	}

	return cfg, nil
}

// InMemory reports whether no database is configured.
func (c *Config) InMemory() bool {
	return c.DatabaseURL == ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Second * time.Duration(getEnvInt(key, fallback))
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
