package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"codeberg.org/snonux/polyglot/internal/api"
	"codeberg.org/snonux/polyglot/internal/audio"
	"codeberg.org/snonux/polyglot/internal/translation"
	"codeberg.org/snonux/polyglot/internal/vision"
)

// Advertised per-endpoint request budgets per hour
const (
	TranslateRateLimit = 100
	ExtractRateLimit   = 20
	SpeechRateLimit    = 50
)

// Backends are the upstream adapters the service fronts
type Backends struct {
	Translator translation.Translator
	Extractor  vision.Extractor
	Speech     audio.Provider
	Relay      *RelayConfig // nil disables the transcription stream
}

// Service is the HTTP service holding the upstream credential
type Service struct {
	config   *Config
	backends Backends

	router *gin.Engine
	server *http.Server

	translateBreaker *gobreaker.CircuitBreaker
	extractBreaker   *gobreaker.CircuitBreaker
	speechBreaker    *gobreaker.CircuitBreaker
}

// NewService creates the service and registers its routes
func NewService(config *Config, backends Backends) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if backends.Translator == nil || backends.Extractor == nil || backends.Speech == nil {
		return nil, errors.New("translator, extractor and speech backends are required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if err := router.SetTrustedProxies(nil); err != nil {
		log.Err(err).Msg("Failed to set trusted proxies")
	}

	router.Use(
		gin.Recovery(),
		loggerMiddleware(api.HealthPath),
		corsMiddleware(),
	)

	s := &Service{
		config:           config,
		backends:         backends,
		router:           router,
		translateBreaker: newBreaker("translate", config),
		extractBreaker:   newBreaker("extract", config),
		speechBreaker:    newBreaker("speech", config),
	}

	s.initRouter()
	return s, nil
}

func (s *Service) initRouter() {
	s.router.GET(api.HealthPath, s.handleHealth)
	s.router.POST(api.TranslatePath, rateLimitHeaders(TranslateRateLimit), s.handleTranslate)
	s.router.POST(api.ExtractPath, rateLimitHeaders(ExtractRateLimit), s.handleExtract)
	s.router.POST(api.SpeechPath, rateLimitHeaders(SpeechRateLimit), s.handleSpeech)
	s.router.GET(api.TranscriptionStreamPath, s.handleTranscriptionStream)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}

// Start serves in the background
func (s *Service) Start() error {
	s.server = &http.Server{
		Addr:    s.config.Addr,
		Handler: s.router,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Msg("Failed to start HTTP server")
		}
	}()

	log.Info().Msg("Starting HTTP server on " + s.config.Addr)
	return nil
}

// ListenAndServe serves in the foreground until the server is stopped
func (s *Service) ListenAndServe() error {
	s.server = &http.Server{
		Addr:    s.config.Addr,
		Handler: s.router,
	}

	log.Info().Msg("Starting HTTP server on " + s.config.Addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the server down gracefully
func (s *Service) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Debug().Err(err).Msg("Failed to shutdown HTTP server")
		return nil
	}

	log.Info().Msg("HTTP server stopped")
	return nil
}

// Router returns the HTTP handler, mainly for tests
func (s *Service) Router() *gin.Engine {
	return s.router
}
