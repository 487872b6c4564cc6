package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

// OllamaBackend talks to Ollama through its OpenAI-compatible API.
type OllamaBackend struct {
	client  *openai.Client
	models  []string
	timeout time.Duration
}

// NewOllamaBackend probes the server for its model list. When the probe fails
// the backend is returned unavailable.
func NewOllamaBackend(ctx context.Context, baseURL string, timeout time.Duration) *OllamaBackend {
	clientConfig := openai.DefaultConfig("ollama") // Ollama ignores the key
	clientConfig.BaseURL = strings.TrimSuffix(baseURL, "/") + "/v1"

	return newOllamaBackendWithClient(ctx, openai.NewClientWithConfig(clientConfig), timeout)
}

func newOllamaBackendWithClient(ctx context.Context, client *openai.Client, timeout time.Duration) *OllamaBackend {
	b := &OllamaBackend{models: []string{}, timeout: timeout}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	list, err := client.ListModels(probeCtx)
	if err != nil {
		log.Errorf("Failed to connect to Ollama. Please ensure it is running. Error: %v", err)
		return b
	}

	b.client = client
	for _, m := range list.Models {
		if m.ID != "" {
			b.models = append(b.models, m.ID)
		}
	}
	log.Printf("Ollama backend ready with %d models.", len(b.models))
	return b
}

func (b *OllamaBackend) Available() bool {
	return b.client != nil
}

func (b *OllamaBackend) ListModels() []string {
	return append([]string(nil), b.models...)
}

func (b *OllamaBackend) Close() {}

func (b *OllamaBackend) Generate(ctx context.Context, model, prompt string) GenerationResult {
	if b.client == nil {
		return GenerationResult{Status: GenerationUnavailable}
	}
	model, ok := resolveModel(model, b.models)
	if !ok {
		return GenerationResult{Status: GenerationModelNotFound}
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		log.Errorf("Error during Ollama generation: %v", err)
		return generationFailed(fmt.Errorf("ollama completion with %s failed: %w", model, err))
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return generationOK(msgNoResponse)
	}
	return generationOK(resp.Choices[0].Message.Content)
}
