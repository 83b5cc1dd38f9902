package realtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/polyglot/internal/speech"
	"codeberg.org/snonux/polyglot/internal/speech/mic"
)

// Config configures the engine
type Config struct {
	// StreamURL returns the websocket URL for a recognition language
	StreamURL func(language string) (string, error)

	// OpenSource opens the audio input. It is called when microphone
	// access is requested.
	OpenSource func() (io.ReadCloser, error)

	FrameDuration    time.Duration // audio per append event
	Paced            bool          // send audio no faster than real time
	StopGrace        time.Duration // how long Stop waits for pending transcriptions
	HandshakeTimeout time.Duration

	// SettleWindow is how long the stream must stay quiet after every
	// known item completed before the recognizer ends. A commit made by
	// server VAD can reach us after our own commit was sent, so the first
	// ack seen is not necessarily ours.
	SettleWindow time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		FrameDuration:    100 * time.Millisecond,
		Paced:            true,
		StopGrace:        5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		SettleWindow:     500 * time.Millisecond,
	}
}

// Platform implements speech.Platform
type Platform struct {
	config Config

	mu     sync.Mutex
	source io.ReadCloser
}

// NewPlatform creates the platform
func NewPlatform(config Config) *Platform {
	defaults := DefaultConfig()
	if config.FrameDuration <= 0 {
		config.FrameDuration = defaults.FrameDuration
	}
	if config.StopGrace <= 0 {
		config.StopGrace = defaults.StopGrace
	}
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if config.SettleWindow <= 0 {
		config.SettleWindow = defaults.SettleWindow
	}
	return &Platform{config: config}
}

func (p *Platform) Supported() bool {
	return p.config.StreamURL != nil && p.config.OpenSource != nil
}

// RequestMicrophone opens the audio source and keeps it for the next
// recognizer. Any failure to open it counts as a denial.
func (p *Platform) RequestMicrophone(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := p.config.OpenSource()
	if err != nil {
		return fmt.Errorf("failed to open audio input: %w", err)
	}

	p.mu.Lock()
	old := p.source
	p.source = src
	p.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

func (p *Platform) NewRecognizer(opts speech.RecognizerOptions) (speech.Recognizer, error) {
	p.mu.Lock()
	src := p.source
	p.source = nil
	p.mu.Unlock()

	if src == nil {
		return nil, errors.New("no audio input open")
	}

	url, err := p.config.StreamURL(opts.Language)
	if err != nil {
		src.Close()
		return nil, err
	}

	return newRecognizer(url, src, p.config), nil
}

// Close releases an audio source that was opened but never used
func (p *Platform) Close() error {
	p.mu.Lock()
	src := p.source
	p.source = nil
	p.mu.Unlock()

	if src != nil {
		return src.Close()
	}
	return nil
}

func frameBytes(d time.Duration) int {
	n := int(int64(mic.BytesPerSecond) * int64(d) / int64(time.Second))
	return n &^ 1
}

func dial(url string, timeout time.Duration) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, resp, err := dialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("transcription stream rejected: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("failed to connect transcription stream: %w", err)
	}
	log.Debug().Str("url", url).Msg("Transcription stream connected")
	return conn, nil
}
