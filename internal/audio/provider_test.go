package audio

import (
	"testing"

	"codeberg.org/snonux/polyglot/internal/credential"
)

func TestDefaultProviderConfig(t *testing.T) {
	config := DefaultProviderConfig()

	if config.Provider != "openai" {
		t.Errorf("Expected provider 'openai', got '%s'", config.Provider)
	}

	if config.OutputFormat != "mp3" {
		t.Errorf("Expected output format 'mp3', got '%s'", config.OutputFormat)
	}

	if config.OpenAIModel != "tts-1" {
		t.Errorf("Expected OpenAI model 'tts-1', got '%s'", config.OpenAIModel)
	}

	if config.OpenAIVoice != "nova" {
		t.Errorf("Expected OpenAI voice 'nova', got '%s'", config.OpenAIVoice)
	}

	if config.OpenAISpeed != 1.0 {
		t.Errorf("Expected OpenAI speed 1.0, got %f", config.OpenAISpeed)
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		wantName string
		wantErr  bool
	}{
		{"openai", "openai", "openai", false},
		{"default", "", "openai", false},
		{"espeak", "espeak", "espeak", false},
		{"unknown", "polly", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultProviderConfig()
			config.Provider = tt.provider
			p, err := NewProvider(config, credential.NewStore())
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && p.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %s", p.Name(), tt.wantName)
			}
		})
	}
}
