package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	BackendOllama = "ollama"
	BackendGemini = "gemini"
	BackendNone   = "none"
)

type Config struct {
	DatabaseURL       string
	HTTPPort          string
	LogLevel          string
	JWTSecret         string
	GenerativeBackend string
	OllamaBaseURL     string
	GeminiAPIKey      string
	DefaultModel      string
	GenerationTimeout time.Duration
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Info("No .env file found, relying on environment variables")
	}

	AppConfig = FromEnv()

	if err := AppConfig.Validate(); err != nil {
		log.Fatal(err)
	}
}

// FromEnv reads the configuration from the process environment without
// touching .env files or the global AppConfig.
func FromEnv() Config {
	return Config{
		DatabaseURL:       getEnv("DATABASE_URL", "dart_feedback.db"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		GenerativeBackend: strings.ToLower(getEnv("GENERATIVE_BACKEND", BackendOllama)),
		OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		DefaultModel:      getEnv("DEFAULT_MODEL", "llama3"),
		GenerationTimeout: getEnvAsDuration("GENERATION_TIMEOUT", 60*time.Second),
	}
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}

	switch c.GenerativeBackend {
	case BackendOllama, BackendNone:
	case BackendGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is required when GENERATIVE_BACKEND=gemini")
		}
	default:
		return fmt.Errorf("unknown GENERATIVE_BACKEND %q (want ollama, gemini or none)", c.GenerativeBackend)
	}

	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("45s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs := getEnvAsInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	log.Warnf("Invalid %s value %q, using default %s", key, valueStr, defaultValue)
	return defaultValue
}
