package translation

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/polyglot/internal/apperr"
	"codeberg.org/snonux/polyglot/internal/credential"
	"codeberg.org/snonux/polyglot/internal/testutil"
)

func newCreds(t *testing.T, key string) *credential.Store {
	t.Helper()
	creds := credential.NewStore()
	if key != "" {
		if err := creds.Set(key); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	return creds
}

func TestParseInputType(t *testing.T) {
	tests := []struct {
		input   string
		want    InputType
		wantErr bool
	}{
		{"text", InputText, false},
		{"", InputText, false},
		{" IMAGE ", InputImage, false},
		{"video", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInputType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseInputType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseInputType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestModelFor(t *testing.T) {
	config := DefaultConfig()

	tests := []struct {
		inputType InputType
		want      string
	}{
		{InputText, "gpt-4o"},
		{InputImage, "gpt-4o-mini"},
		{"", "gpt-4o"},
		{"other", "gpt-4o"},
	}

	for _, tt := range tests {
		t.Run(string(tt.inputType), func(t *testing.T) {
			if got := config.ModelFor(tt.inputType); got != tt.want {
				t.Errorf("ModelFor(%q) = %q, want %q", tt.inputType, got, tt.want)
			}
		})
	}
}

func TestNewTranslator(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
		wantErr  bool
	}{
		{"openai", "openai", false},
		{"", "openai", false},
		{"gemini", "gemini", false},
		{"deepl", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			config := DefaultConfig()
			config.Provider = tt.provider
			tr, err := NewTranslator(config, newCreds(t, "k"))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTranslator() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tr.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", tr.Name(), tt.wantName)
			}
		})
	}
}

func TestOpenAITranslator_Translate(t *testing.T) {
	fake := testutil.NewFakeOpenAI(t)
	fake.SetChatReply("  Hola mundo \n")

	config := DefaultConfig()
	config.BaseURL = fake.BaseURL()
	tr := NewOpenAITranslator(config, newCreds(t, "sk-test"))

	got, err := tr.Translate(context.Background(), Request{
		Text:           "Hello world",
		TargetLanguage: "Spanish",
		InputType:      InputImage,
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "Hola mundo" {
		t.Errorf("Expected trimmed translation 'Hola mundo', got %q", got)
	}

	req := fake.LastChatRequest(t)
	if req.Model != "gpt-4o-mini" {
		t.Errorf("Expected image tier model gpt-4o-mini, got %s", req.Model)
	}
	if req.MaxTokens != 2000 {
		t.Errorf("Expected max tokens 2000, got %d", req.MaxTokens)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("Expected system + user messages, got %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[0].Content, "Input type: image") {
		t.Errorf("System prompt does not name the input type: %q", req.Messages[0].Content)
	}
	if req.Messages[1].Content != `Translate this text to Spanish: "Hello world"` {
		t.Errorf("Unexpected user prompt: %q", req.Messages[1].Content)
	}
	if reqs := fake.Requests(); reqs[0].Auth != "Bearer sk-test" {
		t.Errorf("Expected bearer auth, got %q", reqs[0].Auth)
	}
}

func TestOpenAITranslator_Errors(t *testing.T) {
	t.Run("no credential", func(t *testing.T) {
		tr := NewOpenAITranslator(DefaultConfig(), newCreds(t, ""))
		_, err := tr.Translate(context.Background(), Request{Text: "a", TargetLanguage: "b"})
		if !errors.Is(err, credential.ErrNoCredential) {
			t.Errorf("Expected ErrNoCredential, got %v", err)
		}
	})

	t.Run("empty choices", func(t *testing.T) {
		fake := testutil.NewFakeOpenAI(t)
		fake.SetChatReply("")
		config := DefaultConfig()
		config.BaseURL = fake.BaseURL()

		_, err := NewOpenAITranslator(config, newCreds(t, "k")).Translate(context.Background(), Request{Text: "a", TargetLanguage: "b"})
		var invalid *apperr.InvalidResponseError
		if !errors.As(err, &invalid) {
			t.Errorf("Expected InvalidResponseError, got %v", err)
		}
	})

	statusTests := []struct {
		status int
		kind   apperr.ServiceKind
	}{
		{401, apperr.ServiceUnauthorized},
		{429, apperr.ServiceRateLimited},
		{500, apperr.ServiceFailure},
		{403, apperr.ServiceHTTPError},
	}
	for _, tt := range statusTests {
		t.Run(strings.ToLower(tt.kind.String()), func(t *testing.T) {
			fake := testutil.NewFakeOpenAI(t)
			fake.SetStatus(tt.status)
			config := DefaultConfig()
			config.BaseURL = fake.BaseURL()

			_, err := NewOpenAITranslator(config, newCreds(t, "k")).Translate(context.Background(), Request{Text: "a", TargetLanguage: "b"})
			var se *apperr.ServiceError
			if !errors.As(err, &se) {
				t.Fatalf("Expected ServiceError, got %v", err)
			}
			if se.Kind != tt.kind || se.StatusCode != tt.status {
				t.Errorf("Got kind %v status %d, want %v %d", se.Kind, se.StatusCode, tt.kind, tt.status)
			}
		})
	}
}

func TestOpenAITranslator_Integration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	tr := NewOpenAITranslator(DefaultConfig(), newCreds(t, apiKey))
	got, err := tr.Translate(context.Background(), Request{Text: "apple", TargetLanguage: "German", InputType: InputText})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got == "" {
		t.Error("Got empty translation")
	}
	t.Logf("Translation of 'apple': %s", got)
}

func TestGeminiTranslator_NoCredential(t *testing.T) {
	tr := NewGeminiTranslator(DefaultConfig(), newCreds(t, ""))
	_, err := tr.Translate(context.Background(), Request{Text: "a", TargetLanguage: "b"})
	if !errors.Is(err, credential.ErrNoCredential) {
		t.Errorf("Expected ErrNoCredential, got %v", err)
	}
}
