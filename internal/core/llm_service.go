package core

import (
	"context"
	"fmt"

	"amc.com/dart-feedback/internal/config"
	log "github.com/sirupsen/logrus"
)

type GenerationStatus int

const (
	GenerationOK GenerationStatus = iota
	GenerationUnavailable
	GenerationModelNotFound
	GenerationFailed
)

func (s GenerationStatus) String() string {
	switch s {
	case GenerationOK:
		return "ok"
	case GenerationUnavailable:
		return "unavailable"
	case GenerationModelNotFound:
		return "model_not_found"
	case GenerationFailed:
		return "failed"
	default:
		return fmt.Sprintf("GenerationStatus(%d)", int(s))
	}
}

// Messages shown to users for the non-OK statuses.
const (
	msgBackendUnavailable = "Generative backend is not available. Please make sure it is running."
	msgNoModels           = "No generative models found. Please pull a model (e.g., 'ollama pull llama3')."
	msgGenerationFailed   = "An error occurred while generating the response."
	msgNoResponse         = "No response from model."
)

// GenerationResult is the outcome of a Generate call. Callers branch on
// Status; Text is only meaningful when Status is GenerationOK.
type GenerationResult struct {
	Status GenerationStatus
	Text   string
	Err    error
}

func (r GenerationResult) OK() bool {
	return r.Status == GenerationOK
}

// Message is the text to display for the result.
func (r GenerationResult) Message() string {
	switch r.Status {
	case GenerationOK:
		return r.Text
	case GenerationUnavailable:
		return msgBackendUnavailable
	case GenerationModelNotFound:
		return msgNoModels
	default:
		return msgGenerationFailed
	}
}

func generationOK(text string) GenerationResult {
	return GenerationResult{Status: GenerationOK, Text: text}
}

func generationFailed(err error) GenerationResult {
	return GenerationResult{Status: GenerationFailed, Err: err}
}

// Generator is an optional text-generation backend. Implementations never
// return errors from Generate; failures are reported through the result status.
type Generator interface {
	Available() bool
	ListModels() []string
	Generate(ctx context.Context, model, prompt string) GenerationResult
	Close()
}

// NewGenerator builds the backend named by cfg.GenerativeBackend. A backend
// that cannot be reached still yields a usable, unavailable Generator.
func NewGenerator(ctx context.Context, cfg config.Config) Generator {
	switch cfg.GenerativeBackend {
	case config.BackendOllama:
		return NewOllamaBackend(ctx, cfg.OllamaBaseURL, cfg.GenerationTimeout)
	case config.BackendGemini:
		return NewGeminiBackend(ctx, cfg.GeminiAPIKey, cfg.GenerationTimeout)
	default:
		log.Info("Generative backend disabled; summaries will be extractive.")
		return NoopBackend{}
	}
}

// resolveModel returns the model to use from the listed ones, substituting
// the first listed model when the requested one is absent.
func resolveModel(requested string, models []string) (string, bool) {
	if len(models) == 0 {
		return "", false
	}
	for _, m := range models {
		if m == requested {
			return m, true
		}
	}
	log.Warnf("Model '%s' not found. Defaulting to %s.", requested, models[0])
	return models[0], true
}

// NoopBackend is used when generation is disabled.
type NoopBackend struct{}

func (NoopBackend) Available() bool      { return false }
func (NoopBackend) ListModels() []string { return []string{} }
func (NoopBackend) Close()               {}

func (NoopBackend) Generate(ctx context.Context, model, prompt string) GenerationResult {
	return GenerationResult{Status: GenerationUnavailable}
}
