package audio

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/polyglot/internal/credential"
	"codeberg.org/snonux/polyglot/internal/upstream"
)

// ServiceName names the text-to-speech service in errors and notifications
const ServiceName = "Text-to-speech"

// OpenAIProvider implements Provider interface for OpenAI TTS
type OpenAIProvider struct {
	creds       *credential.Store
	config      *Config
	cacheDir    string
	enableCache bool
}

// NewOpenAIProvider creates a new OpenAI TTS provider
func NewOpenAIProvider(config *Config, creds *credential.Store) (*OpenAIProvider, error) {
	if creds == nil {
		return nil, fmt.Errorf("credential store is required")
	}

	provider := &OpenAIProvider{
		creds:       creds,
		config:      config,
		cacheDir:    config.CacheDir,
		enableCache: config.EnableCache && config.CacheDir != "",
	}

	// Create cache directory if caching is enabled
	if provider.enableCache {
		if err := os.MkdirAll(provider.cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	return provider, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks that an API key is configured
func (p *OpenAIProvider) IsAvailable() error {
	if !p.creds.IsSet() {
		return credential.ErrNoCredential
	}
	return nil
}

// Synthesize generates audio using OpenAI TTS
func (p *OpenAIProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if err := ValidateSpeechText(text); err != nil {
		return nil, err
	}

	// Check cache first
	if p.enableCache {
		if data, err := os.ReadFile(p.getCacheFilePath(text)); err == nil && len(data) > 0 {
			log.Debug().Int("bytes", len(data)).Msg("TTS cache hit")
			return data, nil
		}
	}

	client, err := upstream.NewOpenAIClient(p.creds, p.config.BaseURL)
	if err != nil {
		return nil, err
	}

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.config.OpenAIModel),
		Input:          text,
		Voice:          openai.SpeechVoice(p.config.OpenAIVoice),
		Speed:          p.config.OpenAISpeed,
		ResponseFormat: responseFormat(p.config.OutputFormat),
	}

	// Only gpt-4o-mini-tts understands voice instructions
	if p.config.OpenAIInstruction != "" && p.config.OpenAIModel == "gpt-4o-mini-tts" {
		req.Instructions = p.config.OpenAIInstruction
	}

	log.Debug().
		Str("model", p.config.OpenAIModel).
		Str("voice", p.config.OpenAIVoice).
		Float64("speed", p.config.OpenAISpeed).
		Int("chars", len(text)).
		Msg("OpenAI TTS request")

	response, err := client.CreateSpeech(ctx, req)
	if err != nil {
		return nil, upstream.Classify(ServiceName, err)
	}
	defer response.Close()

	data, err := io.ReadAll(response)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("no audio data received from OpenAI")
	}

	// Cache the result if caching is enabled
	if p.enableCache {
		if err := p.writeCache(text, data); err != nil {
			log.Warn().Err(err).Msg("Failed to cache audio")
		}
	}

	return data, nil
}

func responseFormat(format string) openai.SpeechResponseFormat {
	switch strings.ToLower(format) {
	case "wav":
		return openai.SpeechResponseFormatWav
	case "opus":
		return openai.SpeechResponseFormatOpus
	case "aac":
		return openai.SpeechResponseFormatAac
	case "flac":
		return openai.SpeechResponseFormatFlac
	default:
		return openai.SpeechResponseFormatMp3
	}
}

// getCacheFilePath generates a cache file path for the given text
func (p *OpenAIProvider) getCacheFilePath(text string) string {
	// Create a hash of the text and settings
	h := md5.New()
	h.Write([]byte(text))
	h.Write([]byte(p.config.OpenAIModel))
	h.Write([]byte(p.config.OpenAIVoice))
	h.Write([]byte(fmt.Sprintf("%.2f", p.config.OpenAISpeed)))
	h.Write([]byte(p.config.OutputFormat))
	if p.config.OpenAIModel == "gpt-4o-mini-tts" && p.config.OpenAIInstruction != "" {
		h.Write([]byte(p.config.OpenAIInstruction))
	}
	hash := hex.EncodeToString(h.Sum(nil))

	// Use first 2 chars as subdirectory for better file system performance
	ext := string(responseFormat(p.config.OutputFormat))
	return filepath.Join(p.cacheDir, hash[:2], hash[2:]+"."+ext)
}

func (p *OpenAIProvider) writeCache(text string, data []byte) error {
	path := p.getCacheFilePath(text)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ClearCache removes all cached audio files
func (p *OpenAIProvider) ClearCache() error {
	if p.cacheDir == "" {
		return nil
	}
	return os.RemoveAll(p.cacheDir)
}

// GetCacheStats returns cache statistics
func (p *OpenAIProvider) GetCacheStats() (fileCount int, totalSize int64, err error) {
	if !p.enableCache {
		return 0, 0, nil
	}

	err = filepath.Walk(p.cacheDir, func(path string, info os.FileInfo, err error) error {
		if os.IsNotExist(err) && path == p.cacheDir {
			return filepath.SkipDir
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			fileCount++
			totalSize += info.Size()
		}
		return nil
	})

	return fileCount, totalSize, err
}
