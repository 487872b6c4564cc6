package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "test.db")
	t.Setenv("GENERATIVE_BACKEND", "OLLAMA")
	t.Setenv("GENERATION_TIMEOUT", "")

	cfg := FromEnv()
	assert.Equal(t, "test.db", cfg.DatabaseURL)
	assert.Equal(t, BackendOllama, cfg.GenerativeBackend)
	assert.Equal(t, 60*time.Second, cfg.GenerationTimeout)
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("GEN_TIMEOUT_A", "45s")
	t.Setenv("GEN_TIMEOUT_B", "12")
	t.Setenv("GEN_TIMEOUT_C", "soon")

	assert.Equal(t, 45*time.Second, getEnvAsDuration("GEN_TIMEOUT_A", time.Minute))
	assert.Equal(t, 12*time.Second, getEnvAsDuration("GEN_TIMEOUT_B", time.Minute))
	assert.Equal(t, time.Minute, getEnvAsDuration("GEN_TIMEOUT_C", time.Minute))
	assert.Equal(t, time.Minute, getEnvAsDuration("GEN_TIMEOUT_MISSING", time.Minute))
}

func TestValidate(t *testing.T) {
	base := Config{JWTSecret: "s", GenerativeBackend: BackendNone, GenerationTimeout: time.Second}
	assert.NoError(t, base.Validate())

	noSecret := base
	noSecret.JWTSecret = ""
	assert.Error(t, noSecret.Validate())

	gemini := base
	gemini.GenerativeBackend = BackendGemini
	assert.Error(t, gemini.Validate())
	gemini.GeminiAPIKey = "key"
	assert.NoError(t, gemini.Validate())

	unknown := base
	unknown.GenerativeBackend = "openai"
	assert.Error(t, unknown.Validate())

	noTimeout := base
	noTimeout.GenerationTimeout = 0
	assert.Error(t, noTimeout.Validate())
}
