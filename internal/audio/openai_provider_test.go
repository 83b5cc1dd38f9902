package audio

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/snonux/polyglot/internal/apperr"
	"codeberg.org/snonux/polyglot/internal/credential"
	"codeberg.org/snonux/polyglot/internal/testutil"
)

func storeWith(key string) *credential.Store {
	s := credential.NewStore()
	if key != "" {
		_ = s.Set(key)
	}
	return s
}

func TestNewOpenAIProvider(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		creds   *credential.Store
		wantErr bool
	}{
		{
			name:    "missing credential store",
			config:  &Config{},
			creds:   nil,
			wantErr: true,
		},
		{
			name: "valid config with cache",
			config: &Config{
				EnableCache: true,
				CacheDir:    filepath.Join(t.TempDir(), "cache"),
			},
			creds: storeWith("test-key"),
		},
		{
			name:   "valid config without cache",
			config: &Config{EnableCache: false},
			creds:  storeWith("test-key"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewOpenAIProvider(tt.config, tt.creds)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewOpenAIProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if provider.Name() != "openai" {
				t.Errorf("Name() = %v, want %v", provider.Name(), "openai")
			}
			if tt.config.EnableCache {
				testutil.AssertFileExists(t, tt.config.CacheDir)
			}
		})
	}
}

func TestOpenAIProviderIsAvailable(t *testing.T) {
	p, _ := NewOpenAIProvider(DefaultProviderConfig(), storeWith("k"))
	if err := p.IsAvailable(); err != nil {
		t.Errorf("IsAvailable() = %v, want nil", err)
	}

	p, _ = NewOpenAIProvider(DefaultProviderConfig(), storeWith(""))
	if err := p.IsAvailable(); !errors.Is(err, credential.ErrNoCredential) {
		t.Errorf("IsAvailable() = %v, want ErrNoCredential", err)
	}
}

func TestOpenAIProviderSynthesize(t *testing.T) {
	fake := testutil.NewFakeOpenAI(t)
	fake.SetAudio([]byte("ID3 fake mp3"))

	config := DefaultProviderConfig()
	config.BaseURL = fake.BaseURL()
	p, _ := NewOpenAIProvider(config, storeWith("sk-test"))

	data, err := p.Synthesize(context.Background(), "Hola mundo")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(data) != "ID3 fake mp3" {
		t.Errorf("Unexpected audio %q", data)
	}

	reqs := fake.Requests()
	if len(reqs) != 1 || !strings.HasSuffix(reqs[0].Path, "/audio/speech") {
		t.Fatalf("Expected one speech request, got %+v", reqs)
	}
	for _, want := range []string{`"model":"tts-1"`, `"voice":"nova"`, `"response_format":"mp3"`, `"input":"Hola mundo"`} {
		if !bytes.Contains(reqs[0].Body, []byte(want)) {
			t.Errorf("Request body %s does not contain %s", reqs[0].Body, want)
		}
	}
}

func TestOpenAIProviderSynthesizeCache(t *testing.T) {
	fake := testutil.NewFakeOpenAI(t)

	config := DefaultProviderConfig()
	config.BaseURL = fake.BaseURL()
	config.EnableCache = true
	config.CacheDir = t.TempDir()
	p, _ := NewOpenAIProvider(config, storeWith("k"))

	for i := 0; i < 3; i++ {
		if _, err := p.Synthesize(context.Background(), "cached phrase"); err != nil {
			t.Fatalf("Synthesize failed: %v", err)
		}
	}
	if n := len(fake.Requests()); n != 1 {
		t.Errorf("Expected one upstream request, got %d", n)
	}

	count, size, err := p.GetCacheStats()
	if err != nil || count != 1 || size == 0 {
		t.Errorf("GetCacheStats() = %d, %d, %v", count, size, err)
	}

	if err := p.ClearCache(); err != nil {
		t.Fatalf("ClearCache failed: %v", err)
	}
	if _, err := os.Stat(config.CacheDir); !os.IsNotExist(err) {
		t.Error("Expected cache dir to be removed")
	}

	count, size, err = p.GetCacheStats()
	if err != nil || count != 0 || size != 0 {
		t.Errorf("GetCacheStats() after clear = %d, %d, %v", count, size, err)
	}

	if _, err := p.Synthesize(context.Background(), "cached phrase"); err != nil {
		t.Fatalf("Synthesize after clear failed: %v", err)
	}
	if n := len(fake.Requests()); n != 2 {
		t.Errorf("Expected a fresh upstream request after clear, got %d total", n)
	}
}

func TestOpenAIProviderInstructions(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{"instruction model", "gpt-4o-mini-tts", true},
		{"classic model", "tts-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeOpenAI(t)

			config := DefaultProviderConfig()
			config.BaseURL = fake.BaseURL()
			config.OpenAIModel = tt.model
			config.OpenAIInstruction = "Speak slowly"
			p, _ := NewOpenAIProvider(config, storeWith("k"))

			if _, err := p.Synthesize(context.Background(), "Hola"); err != nil {
				t.Fatalf("Synthesize failed: %v", err)
			}
			reqs := fake.Requests()
			if len(reqs) != 1 {
				t.Fatalf("Expected one request, got %d", len(reqs))
			}
			got := bytes.Contains(reqs[0].Body, []byte(`"instructions":"Speak slowly"`))
			if got != tt.want {
				t.Errorf("instructions sent = %v, want %v (body %s)", got, tt.want, reqs[0].Body)
			}
		})
	}
}

func TestOpenAIProviderSynthesizeErrors(t *testing.T) {
	p, _ := NewOpenAIProvider(DefaultProviderConfig(), storeWith("k"))

	_, err := p.Synthesize(context.Background(), "   ")
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("Expected ValidationError for blank text, got %v", err)
	}

	fake := testutil.NewFakeOpenAI(t)
	fake.SetStatus(500)
	config := DefaultProviderConfig()
	config.BaseURL = fake.BaseURL()
	p, _ = NewOpenAIProvider(config, storeWith("k"))

	_, err = p.Synthesize(context.Background(), "hello")
	var se *apperr.ServiceError
	if !errors.As(err, &se) || se.Kind != apperr.ServiceFailure {
		t.Errorf("Expected service failure, got %v", err)
	}
}

func TestGetCacheFilePath(t *testing.T) {
	provider := &OpenAIProvider{
		config: &Config{
			OpenAIModel:  "tts-1",
			OpenAIVoice:  "nova",
			OpenAISpeed:  1.0,
			OutputFormat: "mp3",
		},
		cacheDir: "test_cache",
	}

	path1 := provider.getCacheFilePath("hello")
	if !strings.HasPrefix(path1, "test_cache/") {
		t.Errorf("Cache path should start with cache dir, got %s", path1)
	}
	if !strings.HasSuffix(path1, ".mp3") {
		t.Errorf("Cache path should end with .mp3, got %s", path1)
	}

	if path1 != provider.getCacheFilePath("hello") {
		t.Error("Same input should produce same cache path")
	}

	if path1 == provider.getCacheFilePath("goodbye") {
		t.Error("Different input should produce different cache path")
	}

	provider.config.OpenAIVoice = "alloy"
	if path1 == provider.getCacheFilePath("hello") {
		t.Error("Different voice should produce different cache path")
	}
}
