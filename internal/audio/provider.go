package audio

import (
	"context"
	"fmt"

	"codeberg.org/snonux/polyglot/internal/credential"
)

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// Synthesize returns encoded audio for text
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// Config holds common configuration for audio providers
type Config struct {
	Provider     string // Provider name: "openai" or "espeak"
	OutputFormat string // "mp3", "wav", "opus", "aac" or "flac"

	// OpenAI-specific settings
	OpenAIModel       string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAIVoice       string  // "alloy", "ash", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer"
	OpenAISpeed       float64 // 0.25 to 4.0
	OpenAIInstruction string  // Voice instructions for gpt-4o-mini-tts model
	BaseURL           string  // optional API endpoint override

	// espeak-ng settings
	ESpeakVoice     string // espeak-ng voice, e.g. "en", "de", "es"
	ESpeakSpeed     int    // words per minute, 80 to 450
	ESpeakPitch     int    // 0 to 99
	ESpeakAmplitude int    // 0 to 200

	// Cache settings
	CacheDir    string
	EnableCache bool
}

// DefaultProviderConfig returns default configuration
func DefaultProviderConfig() *Config {
	return &Config{
		Provider:     "openai",
		OutputFormat: "mp3",
		OpenAIModel:  "tts-1",
		OpenAIVoice:  "nova",
		OpenAISpeed:  1.0,
	}
}

// NewProvider creates the appropriate audio provider based on configuration
func NewProvider(config *Config, creds *credential.Store) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}

	switch config.Provider {
	case "openai", "":
		return NewOpenAIProvider(config, creds)
	case "espeak":
		return NewESpeakProvider(config), nil
	default:
		return nil, fmt.Errorf("unknown audio provider: %s", config.Provider)
	}
}
