// Package config provides environment configuration for the API server and the edge.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the API server.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ClientURL          string

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings
	JWTSecret string

	// LLM settings
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	DefaultLLM      string
	LLMModel        string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Lesson archive
	LessonDBPath string

	// PWA manifest
	PWA PWAConfig

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// PWAConfig describes the installable web app manifest.
type PWAConfig struct {
	Name            string `json:"name" toml:"name"`
	ShortName       string `json:"short_name" toml:"short_name"`
	Description     string `json:"description" toml:"description"`
	ThemeColor      string `json:"theme_color" toml:"theme_color"`
	BackgroundColor string `json:"background_color" toml:"background_color"`
	Display         string `json:"display" toml:"display"`
	Orientation     string `json:"orientation" toml:"orientation"`
	StartURL        string `json:"start_url" toml:"start_url"`
	Scope           string `json:"scope" toml:"scope"`
	Lang            string `json:"lang" toml:"lang"`
}

// DefaultPWA is the manifest shipped with the app.
var DefaultPWA = PWAConfig{
	Name:            "Teología Reformada Chat",
	ShortName:       "TeologíaChat",
	Description:     "Asistente de IA especializado en teología reformada",
	ThemeColor:      "#1e40af",
	BackgroundColor: "#ffffff",
	Display:         "standalone",
	Orientation:     "portrait-primary",
	StartURL:        "/",
	Scope:           "/",
	Lang:            "es",
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "3001"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),
		ClientURL:          getEnv("CLIENT_URL", "http://localhost:3000"),

		// NATS; history falls back to memory when unset
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// LLM
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		DefaultLLM:      getEnv("DEFAULT_LLM", "openai"),
		LLMModel:        getEnv("LLM_MODEL", ""),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Lessons
		LessonDBPath: getEnv("LESSON_DB_PATH", "lessons.db"),

		PWA: DefaultPWA,

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
