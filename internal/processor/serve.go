package processor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/polyglot/internal/audio"
	"codeberg.org/snonux/polyglot/internal/cli"
	"codeberg.org/snonux/polyglot/internal/credential"
	"codeberg.org/snonux/polyglot/internal/models"
	"codeberg.org/snonux/polyglot/internal/server"
	"codeberg.org/snonux/polyglot/internal/translation"
	"codeberg.org/snonux/polyglot/internal/vision"
)

// credentials holds one store per upstream provider
type credentials struct {
	openai *credential.Store
	gemini *credential.Store
}

func loadCredentials() *credentials {
	c := &credentials{openai: credential.NewStore(), gemini: credential.NewStore()}
	if key := cli.GetOpenAIKey(); key != "" {
		_ = c.openai.Set(key)
	}
	if key := cli.GetGeminiKey(); key != "" {
		_ = c.gemini.Set(key)
	}
	return c
}

func (c *credentials) forProvider(provider string) *credential.Store {
	if provider == "gemini" {
		return c.gemini
	}
	return c.openai
}

// buildBackends creates the upstream providers from configuration
func buildBackends(config *cli.Config, creds *credentials) (server.Backends, error) {
	translationConfig := translation.DefaultConfig()
	translationConfig.Provider = config.Translation.Provider
	translationConfig.TextModel = config.Translation.TextModel
	translationConfig.ImageModel = config.Translation.ImageModel

	translator, err := translation.NewTranslator(translationConfig, creds.forProvider(config.Translation.Provider))
	if err != nil {
		return server.Backends{}, err
	}
	if config.Translation.Cache {
		translator = translation.NewCachedTranslator(translator, translation.NewCache())
	}

	visionConfig := vision.DefaultConfig()
	visionConfig.Provider = config.Vision.Provider
	visionConfig.Model = config.Vision.Model

	extractor, err := vision.NewExtractor(visionConfig, creds.forProvider(config.Vision.Provider))
	if err != nil {
		return server.Backends{}, err
	}

	audioConfig := audio.DefaultProviderConfig()
	audioConfig.Provider = config.TTS.Provider
	audioConfig.OpenAIModel = config.TTS.Model
	audioConfig.OpenAIVoice = config.TTS.Voice
	audioConfig.OpenAISpeed = config.TTS.Speed
	audioConfig.CacheDir = config.TTS.CacheDir
	audioConfig.EnableCache = config.TTS.CacheDir != ""
	audioConfig.OpenAIInstruction = config.TTS.Instructions
	audioConfig.ESpeakVoice = config.TTS.ESpeakVoice

	speech, err := audio.NewProvider(audioConfig, creds.openai)
	if err != nil {
		return server.Backends{}, err
	}

	relay := server.DefaultRelayConfig(creds.openai)
	relay.Model = config.Speech.Model

	return server.Backends{
		Translator: translator,
		Extractor:  extractor,
		Speech:     speech,
		Relay:      relay,
	}, nil
}

// speechCache is implemented by speech providers that keep audio on disk
type speechCache interface {
	ClearCache() error
	GetCacheStats() (fileCount int, totalSize int64, err error)
}

// reportSpeechCache optionally clears the speech cache and prints its size
func reportSpeechCache(out io.Writer, speech audio.Provider, clear bool) error {
	cache, ok := speech.(speechCache)
	if !ok {
		return nil
	}

	if clear {
		if err := cache.ClearCache(); err != nil {
			return fmt.Errorf("failed to clear TTS cache: %w", err)
		}
		fmt.Fprintln(out, "TTS cache cleared")
	}

	files, size, err := cache.GetCacheStats()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read TTS cache")
		return nil
	}
	if files > 0 {
		fmt.Fprintf(out, "TTS cache: %d files, %.1f KB\n", files, float64(size)/1024)
	}
	return nil
}

// Serve runs the proxy service until ctx is cancelled
func (p *Processor) Serve(ctx context.Context) error {
	creds := loadCredentials()

	if p.flags.ListModels {
		lister, err := models.NewLister(creds.openai, "")
		if err != nil {
			return err
		}
		catalog, err := lister.List(ctx)
		if err != nil {
			return err
		}
		catalog.Print(p.out)
		return nil
	}

	if !creds.openai.IsSet() {
		log.Warn().Msg("OPENAI_API_KEY not set; upstream calls will fail until it is configured")
	}

	backends, err := buildBackends(p.config, creds)
	if err != nil {
		return err
	}
	if err := reportSpeechCache(p.out, backends.Speech, p.flags.ClearTTSCache); err != nil {
		return err
	}

	serverConfig := server.DefaultConfig()
	serverConfig.Addr = p.config.Server.Addr
	if p.flags.Addr != "" {
		serverConfig.Addr = p.flags.Addr
	}
	serverConfig.RequestTimeout = p.config.Server.Timeout()
	serverConfig.BreakerMaxFailures = p.config.Breaker.MaxFailures
	serverConfig.BreakerOpenTimeout = time.Duration(p.config.Breaker.OpenSeconds) * time.Second

	svc, err := server.NewService(serverConfig, backends)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	if err := svc.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return svc.Stop()
}
