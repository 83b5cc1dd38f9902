// Package vision extracts readable text from images through an upstream
// multimodal model.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"codeberg.org/snonux/polyglot/internal/apperr"
	"codeberg.org/snonux/polyglot/internal/credential"
	"codeberg.org/snonux/polyglot/internal/upstream"
)

// ServiceName names the image processing service in errors and notifications
const ServiceName = "Image processing"

// ExtractionPrompt instructs the model to return only the text in the image
const ExtractionPrompt = "Extract all readable text from this image. Return only the text content, no explanations or formatting."

// Extractor returns the readable text in a base64 encoded image. An image
// without text yields an empty string and no error.
type Extractor interface {
	ExtractText(ctx context.Context, base64Image string) (string, error)
	Name() string
}

// Config holds extractor settings
type Config struct {
	Provider  string // "openai" or "gemini"
	Model     string
	MaxTokens int
	BaseURL   string
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:  "openai",
		Model:     openai.GPT4oMini,
		MaxTokens: 1000,
	}
}

// NewExtractor creates the extractor named by config.Provider
func NewExtractor(config *Config, creds *credential.Store) (Extractor, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case "openai", "":
		return &OpenAIExtractor{config: config, creds: creds}, nil
	case "gemini":
		return &GeminiExtractor{config: config, creds: creds}, nil
	default:
		return nil, fmt.Errorf("unknown vision provider: %s", config.Provider)
	}
}

// OpenAIExtractor uses an OpenAI vision capable chat model
type OpenAIExtractor struct {
	config *Config
	creds  *credential.Store
}

// Name returns the provider name
func (e *OpenAIExtractor) Name() string {
	return "openai"
}

// ExtractText sends the image as a JPEG data URL next to the extraction prompt
func (e *OpenAIExtractor) ExtractText(ctx context.Context, base64Image string) (string, error) {
	client, err := upstream.NewOpenAIClient(e.creds, e.config.BaseURL)
	if err != nil {
		return "", err
	}

	req := openai.ChatCompletionRequest{
		Model: e.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: ExtractionPrompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: "data:image/jpeg;base64," + base64Image},
					},
				},
			},
		},
		MaxTokens: e.config.MaxTokens,
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", upstream.Classify(ServiceName, err)
	}
	if len(resp.Choices) == 0 {
		return "", &apperr.InvalidResponseError{Service: ServiceName}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// GeminiExtractor uses a Gemini multimodal model
type GeminiExtractor struct {
	config *Config
	creds  *credential.Store
}

// Name returns the provider name
func (e *GeminiExtractor) Name() string {
	return "gemini"
}

// ExtractText sends the decoded image bytes inline with the extraction prompt
func (e *GeminiExtractor) ExtractText(ctx context.Context, base64Image string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(base64Image)
	if err != nil {
		return "", apperr.NewValidation("base64Image", "Invalid base64 format")
	}

	client, err := upstream.NewGeminiClient(ctx, e.creds, e.config.BaseURL)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(ExtractionPrompt),
			genai.NewPartFromBytes(data, "image/jpeg"),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{MaxOutputTokens: int32(e.config.MaxTokens)}

	resp, err := client.Models.GenerateContent(ctx, e.config.Model, contents, config)
	if err != nil {
		return "", upstream.Classify(ServiceName, err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
