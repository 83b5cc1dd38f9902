// Package upstream builds clients for the model providers polyglot proxies
// to and turns their failures into apperr.ServiceError values.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"codeberg.org/snonux/polyglot/internal/apperr"
	"codeberg.org/snonux/polyglot/internal/credential"
)

// NewOpenAIClient creates an OpenAI client using the key currently held by creds.
// baseURL overrides the API endpoint when non-empty.
func NewOpenAIClient(creds *credential.Store, baseURL string) (*openai.Client, error) {
	if creds == nil {
		return nil, credential.ErrNoCredential
	}
	key, err := creds.APIKey()
	if err != nil {
		return nil, err
	}

	config := openai.DefaultConfig(key)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(config), nil
}

// NewGeminiClient creates a Gemini API client using the key held by creds
func NewGeminiClient(ctx context.Context, creds *credential.Store, baseURL string) (*genai.Client, error) {
	if creds == nil {
		return nil, credential.ErrNoCredential
	}
	key, err := creds.APIKey()
	if err != nil {
		return nil, err
	}

	config := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		config.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// StatusCode extracts the HTTP status from a provider error, or 0
func StatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return geminiErr.Code
	}
	return 0
}

// Classify maps a provider failure to a ServiceError. The message is for
// server logs; the HTTP layer decides what reaches the client.
func Classify(service string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, credential.ErrNoCredential) || errors.Is(err, context.Canceled) {
		return err
	}

	status := StatusCode(err)
	e := &apperr.ServiceError{Service: service, StatusCode: status, Err: err}

	switch {
	case status == http.StatusUnauthorized:
		e.Kind = apperr.ServiceUnauthorized
		e.Message = "Invalid API key. Please check your OpenAI API key."
	case status == http.StatusTooManyRequests:
		e.Kind = apperr.ServiceRateLimited
		e.Message = "Rate limit exceeded. Please try again later."
	case status >= 500:
		e.Kind = apperr.ServiceFailure
		e.Message = "Upstream service error. Please try again later."
	case status == 0:
		e.Kind = apperr.ServiceHTTPError
		e.Message = fmt.Sprintf("%s failed: %v", service, err)
	default:
		e.Kind = apperr.ServiceHTTPError
		e.Message = fmt.Sprintf("%s failed: %d", service, status)
	}
	return e
}
