package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/polyglot/internal/apperr"
	"codeberg.org/snonux/polyglot/internal/credential"
	"codeberg.org/snonux/polyglot/internal/upstream"
)

// ServiceName names the translation service in errors and notifications
const ServiceName = "Translation"

// InputType tags where the text to translate came from
type InputType string

const (
	InputText  InputType = "text"
	InputImage InputType = "image"
)

// ParseInputType validates an input type string. Empty means text.
func ParseInputType(s string) (InputType, error) {
	switch InputType(strings.ToLower(strings.TrimSpace(s))) {
	case InputText, "":
		return InputText, nil
	case InputImage:
		return InputImage, nil
	default:
		return "", fmt.Errorf("unknown input type: %s", s)
	}
}

// Request is a single translation request
type Request struct {
	Text           string    `json:"text"`
	TargetLanguage string    `json:"targetLanguage"`
	InputType      InputType `json:"inputType"`
}

// Translator translates text into a target language
type Translator interface {
	// Translate returns the translation of req.Text
	Translate(ctx context.Context, req Request) (string, error)

	// Name returns the provider name
	Name() string
}

// Config holds translation provider settings
type Config struct {
	Provider    string // "openai" or "gemini"
	TextModel   string // tier used for typed or spoken text
	ImageModel  string // tier used for text recognised in images
	Temperature float32
	MaxTokens   int
	BaseURL     string // optional API endpoint override
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:    "openai",
		TextModel:   openai.GPT4o,
		ImageModel:  openai.GPT4oMini,
		Temperature: 0.3,
		MaxTokens:   2000,
	}
}

// ModelFor maps an input type to a model tier: text uses TextModel, image
// uses ImageModel, and anything else falls back to TextModel.
func (c *Config) ModelFor(inputType InputType) string {
	switch inputType {
	case InputImage:
		return c.ImageModel
	default:
		return c.TextModel
	}
}

// NewTranslator creates the translator named by config.Provider
func NewTranslator(config *Config, creds *credential.Store) (Translator, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case "openai", "":
		return NewOpenAITranslator(config, creds), nil
	case "gemini":
		return NewGeminiTranslator(config, creds), nil
	default:
		return nil, fmt.Errorf("unknown translation provider: %s", config.Provider)
	}
}

func systemPrompt(targetLanguage string, inputType InputType) string {
	if inputType == "" {
		inputType = InputText
	}
	return fmt.Sprintf(`You are a professional translator. Your task is to:
1. Detect the source language of the input text
2. Translate the text accurately to %s
3. Maintain the original meaning, tone, and context
4. Only return the translation, no explanations or additional text

Input type: %s`, targetLanguage, inputType)
}

func userPrompt(text, targetLanguage string) string {
	return fmt.Sprintf("Translate this text to %s: \"%s\"", targetLanguage, text)
}

// OpenAITranslator translates through the OpenAI chat completions API
type OpenAITranslator struct {
	config *Config
	creds  *credential.Store
}

// NewOpenAITranslator creates a new OpenAI translator. The API key is read
// from creds on every call, so clearing the store takes effect immediately.
func NewOpenAITranslator(config *Config, creds *credential.Store) *OpenAITranslator {
	return &OpenAITranslator{config: config, creds: creds}
}

// Name returns the provider name
func (t *OpenAITranslator) Name() string {
	return "openai"
}

// Translate translates req.Text to req.TargetLanguage
func (t *OpenAITranslator) Translate(ctx context.Context, req Request) (string, error) {
	client, err := upstream.NewOpenAIClient(t.creds, t.config.BaseURL)
	if err != nil {
		return "", err
	}

	chatReq := openai.ChatCompletionRequest{
		Model: t.config.ModelFor(req.InputType),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt(req.TargetLanguage, req.InputType),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt(req.Text, req.TargetLanguage),
			},
		},
		MaxTokens:   t.config.MaxTokens,
		Temperature: t.config.Temperature,
	}

	resp, err := client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", upstream.Classify(ServiceName, err)
	}

	if len(resp.Choices) == 0 {
		return "", &apperr.InvalidResponseError{Service: ServiceName}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
