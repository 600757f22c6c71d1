package services

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Generator is the capability interface over the language generation
// provider: one bounded, low-temperature completion per call.
type Generator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int32, temperature float32) (string, error)
}

// GeminiGenerator implements Generator using Google Gemini.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator wraps an existing genai client.
func NewGeminiGenerator(client *genai.Client, model string) *GeminiGenerator {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiGenerator{client: client, model: model}
}

// Complete sends a single-turn prompt and returns the concatenated text of
// the first candidate.
func (g *GeminiGenerator) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int32, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: maxTokens,
	}
	if contents := genai.Text(systemPrompt); len(contents) > 0 {
		config.SystemInstruction = contents[0]
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned an empty response")
	}

	var responseText strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p.Text != "" {
			responseText.WriteString(p.Text)
		}
	}
	return responseText.String(), nil
}
