package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const systemInstruction = "You are a helpful assistant working with feedback comments collected after an event. " +
	"Follow the request in the prompt and base your answer only on the comments it provides. " +
	"Do not make up information. If the comments are insufficient, say so."

type GeminiBackend struct {
	client  *genai.Client
	models  []string
	timeout time.Duration
}

func NewGeminiBackend(ctx context.Context, apiKey string, timeout time.Duration) *GeminiBackend {
	return newGeminiBackend(ctx, timeout, option.WithAPIKey(apiKey))
}

func newGeminiBackend(ctx context.Context, timeout time.Duration, opts ...option.ClientOption) *GeminiBackend {
	b := &GeminiBackend{models: []string{}, timeout: timeout}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		log.Errorf("Failed to create GenAI client: %v", err)
		return b
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	models, err := listGenerativeModels(probeCtx, client)
	if err != nil {
		log.Errorf("Failed to list Gemini models: %v", err)
		client.Close()
		return b
	}

	b.client = client
	b.models = models
	log.Printf("Gemini backend ready with %d models.", len(models))
	return b
}

// listGenerativeModels returns the short names ("gemini-1.5-flash") of models
// that support generateContent.
func listGenerativeModels(ctx context.Context, client *genai.Client) ([]string, error) {
	var models []string
	it := client.ListModels(ctx)
	for {
		m, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, method := range m.SupportedGenerationMethods {
			if method == "generateContent" {
				models = append(models, strings.TrimPrefix(m.Name, "models/"))
				break
			}
		}
	}
	return models, nil
}

func (b *GeminiBackend) Available() bool {
	return b.client != nil
}

func (b *GeminiBackend) ListModels() []string {
	return append([]string(nil), b.models...)
}

func (b *GeminiBackend) Close() {
	if b.client != nil {
		if err := b.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		} else {
			log.Println("GenAI client closed.")
		}
	}
}

func (b *GeminiBackend) Generate(ctx context.Context, modelName, prompt string) GenerationResult {
	if b.client == nil {
		return GenerationResult{Status: GenerationUnavailable}
	}
	modelName, ok := resolveModel(modelName, b.models)
	if !ok {
		return GenerationResult{Status: GenerationModelNotFound}
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	model := b.generativeModel(modelName)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Errorf("Error during Gemini generation: %v", err)
		return generationFailed(fmt.Errorf("gemini generation with %s failed: %w", modelName, err))
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		log.Println("Gemini response was empty or had no valid candidates/parts.")
		return generationOK(msgNoResponse)
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}

	if responseText.Len() == 0 {
		return generationOK(msgNoResponse)
	}
	return generationOK(responseText.String())
}

func (b *GeminiBackend) generativeModel(name string) *genai.GenerativeModel {
	model := b.client.GenerativeModel(name)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}
	temp := float32(0.3)
	model.GenerationConfig = genai.GenerationConfig{Temperature: &temp}
	return model
}
