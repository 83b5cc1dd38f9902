package translation

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"codeberg.org/snonux/polyglot/internal/apperr"
	"codeberg.org/snonux/polyglot/internal/credential"
	"codeberg.org/snonux/polyglot/internal/upstream"
)

// GeminiTranslator translates through the Gemini API
type GeminiTranslator struct {
	config *Config
	creds  *credential.Store
}

// NewGeminiTranslator creates a new Gemini translator
func NewGeminiTranslator(config *Config, creds *credential.Store) *GeminiTranslator {
	return &GeminiTranslator{config: config, creds: creds}
}

// Name returns the provider name
func (t *GeminiTranslator) Name() string {
	return "gemini"
}

// Translate translates req.Text to req.TargetLanguage
func (t *GeminiTranslator) Translate(ctx context.Context, req Request) (string, error) {
	client, err := upstream.NewGeminiClient(ctx, t.creds, t.config.BaseURL)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt(req.Text, req.TargetLanguage), genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt(req.TargetLanguage, req.InputType), genai.RoleUser),
		Temperature:       genai.Ptr(t.config.Temperature),
		MaxOutputTokens:   int32(t.config.MaxTokens),
	}

	resp, err := client.Models.GenerateContent(ctx, t.config.ModelFor(req.InputType), contents, config)
	if err != nil {
		return "", upstream.Classify(ServiceName, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &apperr.InvalidResponseError{Service: ServiceName}
	}
	return text, nil
}
