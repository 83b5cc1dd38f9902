package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"codeberg.org/snonux/polyglot/internal"
	"codeberg.org/snonux/polyglot/internal/apperr"
	"codeberg.org/snonux/polyglot/internal/languages"
	"codeberg.org/snonux/polyglot/internal/translation"
)

// Messages returned for any failure that is not caused by the request itself
const (
	TranslateUnavailable = "Translation service temporarily unavailable"
	ExtractUnavailable   = "Image processing service temporarily unavailable"
	SpeechUnavailable    = "Text-to-speech service temporarily unavailable"
)

// decodeBody reads the JSON object body of a request
func decodeBody(c *gin.Context, maxBytes int64) (map[string]any, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	var body map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.NewValidation("body", "Request body too large")
		}
		return nil, apperr.NewValidation("body", "Invalid request body")
	}
	if body == nil {
		return nil, apperr.NewValidation("body", "Invalid request body")
	}
	return body, nil
}

// respondError writes the collapsed error response. Validation failures are
// returned verbatim; everything else becomes the endpoint's generic message.
func respondError(c *gin.Context, err error, generic string) {
	status := http.StatusInternalServerError
	message := generic

	var ve *apperr.ValidationError
	var se *apperr.ServiceError
	switch {
	case errors.As(err, &ve):
		status, message = http.StatusBadRequest, ve.Message
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = http.StatusServiceUnavailable
	case errors.As(err, &se) && se.Kind == apperr.ServiceUnauthorized:
		status = http.StatusUnauthorized
	case errors.As(err, &se) && se.Kind == apperr.ServiceRateLimited:
		status = http.StatusTooManyRequests
	}

	if status != http.StatusBadRequest {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Int("status", status).Msg("Request failed")
	}
	c.JSON(status, gin.H{"error": message})
}

func (s *Service) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.config.RequestTimeout)
}

func (s *Service) handleTranslate(c *gin.Context) {
	body, err := decodeBody(c, s.config.MaxBodyBytes)
	if err != nil {
		respondError(c, err, TranslateUnavailable)
		return
	}

	params, err := validateTranslate(body)
	if err != nil {
		respondError(c, err, TranslateUnavailable)
		return
	}

	inputType, err := translation.ParseInputType(params.inputType)
	if err != nil {
		// Unknown tags fall back to the default tier
		inputType = translation.InputText
	}

	req := translation.Request{
		Text:           params.text,
		TargetLanguage: languages.Resolve(params.targetLanguage),
		InputType:      inputType,
	}
	log.Debug().
		Str("text", internal.Truncate(req.Text, 100)).
		Str("target", req.TargetLanguage).
		Str("input_type", string(req.InputType)).
		Msg("Translate request")

	ctx, cancel := s.requestContext(c)
	defer cancel()

	translated, err := execute(s.translateBreaker, func() (string, error) {
		return s.backends.Translator.Translate(ctx, req)
	})
	if err != nil {
		respondError(c, err, TranslateUnavailable)
		return
	}

	c.JSON(http.StatusOK, gin.H{"translatedText": translated})
}

func (s *Service) handleExtract(c *gin.Context) {
	body, err := decodeBody(c, s.config.MaxBodyBytes)
	if err != nil {
		respondError(c, err, ExtractUnavailable)
		return
	}

	image, err := validateExtract(body)
	if err != nil {
		respondError(c, err, ExtractUnavailable)
		return
	}
	log.Debug().Int("base64_chars", len(image)).Msg("Extract image text request")

	ctx, cancel := s.requestContext(c)
	defer cancel()

	text, err := execute(s.extractBreaker, func() (string, error) {
		return s.backends.Extractor.ExtractText(ctx, image)
	})
	if err != nil {
		respondError(c, err, ExtractUnavailable)
		return
	}

	c.JSON(http.StatusOK, gin.H{"extractedText": text})
}

func (s *Service) handleSpeech(c *gin.Context) {
	body, err := decodeBody(c, s.config.MaxBodyBytes)
	if err != nil {
		respondError(c, err, SpeechUnavailable)
		return
	}

	text, err := validateSpeech(body)
	if err != nil {
		respondError(c, err, SpeechUnavailable)
		return
	}
	log.Debug().Str("text", internal.Truncate(text, 100)).Msg("Text-to-speech request")

	ctx, cancel := s.requestContext(c)
	defer cancel()

	audio, err := execute(s.speechBreaker, func() ([]byte, error) {
		return s.backends.Speech.Synthesize(ctx, text)
	})
	if err != nil {
		respondError(c, err, SpeechUnavailable)
		return
	}

	c.JSON(http.StatusOK, gin.H{"audioContent": base64.StdEncoding.EncodeToString(audio)})
}

func (s *Service) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
