package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/polyglot/internal"
	"codeberg.org/snonux/polyglot/internal/api"
	"codeberg.org/snonux/polyglot/internal/apperr"
	"codeberg.org/snonux/polyglot/internal/audio"
	"codeberg.org/snonux/polyglot/internal/translation"
	"codeberg.org/snonux/polyglot/internal/vision"
)

// DefaultBaseURL is where `polyglot serve` listens by default
const DefaultBaseURL = "http://localhost:8787"

// Config holds client settings
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeout: 90 * time.Second,
	}
}

// Client talks to the polyglot proxy service
type Client struct {
	baseURL    string
	httpClient *http.Client
	player     audio.Player
}

// New creates a client. player may be nil when Speak is not used.
func New(config *Config, player audio.Player) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: config.Timeout},
		player:     player,
	}
}

// StreamURL returns the websocket URL of the transcription stream
func (c *Client) StreamURL(language string) (string, error) {
	u, err := url.Parse(c.baseURL + api.TranscriptionStreamPath)
	if err != nil {
		return "", fmt.Errorf("invalid service URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported service URL scheme: %s", u.Scheme)
	}
	if language != "" {
		q := u.Query()
		q.Set("language", language)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

type errorBody struct {
	Error string `json:"error"`
}

// postJSON sends payload and decodes a 2xx body into out. Failures are
// classified for the named service.
func (c *Client) postJSON(ctx context.Context, service, path string, payload, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-Info", "polyglot/"+internal.Version)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Transport(service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Transport(service, err)
	}
	log.Debug().Str("path", path).Int("status", resp.StatusCode).Dur("latency", time.Since(start)).Msg("Service call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		return apperr.ClassifyStatus(service, resp.StatusCode, eb.Error)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &apperr.InvalidResponseError{Service: service}
	}
	return nil
}

type translateResponse struct {
	TranslatedText *string `json:"translatedText"`
}

// Translate sends one translation request to the service
func (c *Client) Translate(ctx context.Context, req translation.Request) (string, error) {
	if req.InputType == "" {
		req.InputType = translation.InputText
	}

	var resp translateResponse
	if err := c.postJSON(ctx, translation.ServiceName, api.TranslatePath, req, &resp); err != nil {
		return "", err
	}
	if resp.TranslatedText == nil || *resp.TranslatedText == "" {
		return "", &apperr.InvalidResponseError{Service: translation.ServiceName}
	}
	return *resp.TranslatedText, nil
}

// Name returns the adapter name
func (c *Client) Name() string {
	return "polyglot service at " + c.baseURL
}

type extractRequest struct {
	Base64Image string `json:"base64Image"`
}

type extractResponse struct {
	ExtractedText *string `json:"extractedText"`
}

// ExtractText asks the service to read the text in a base64 encoded image.
// An empty string is a valid result meaning no text was found.
func (c *Client) ExtractText(ctx context.Context, base64Image string) (string, error) {
	var resp extractResponse
	if err := c.postJSON(ctx, vision.ServiceName, api.ExtractPath, extractRequest{Base64Image: base64Image}, &resp); err != nil {
		return "", err
	}
	if resp.ExtractedText == nil {
		return "", &apperr.InvalidResponseError{Service: vision.ServiceName}
	}
	return *resp.ExtractedText, nil
}

type speechRequest struct {
	Text string `json:"text"`
}

type speechResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesize returns the decoded audio for text
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	var resp speechResponse
	if err := c.postJSON(ctx, audio.ServiceName, api.SpeechPath, speechRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	if resp.AudioContent == "" {
		return nil, &apperr.InvalidResponseError{Service: audio.ServiceName}
	}

	data, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, &apperr.InvalidResponseError{Service: audio.ServiceName}
	}
	return data, nil
}

// Speak synthesizes text and plays it, returning once playback has ended
func (c *Client) Speak(ctx context.Context, text string) error {
	if c.player == nil {
		return fmt.Errorf("no audio player configured")
	}

	data, err := c.Synthesize(ctx, text)
	if err != nil {
		return err
	}

	if err := c.player.Play(ctx, data); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}
