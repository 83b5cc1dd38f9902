package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ESpeakProvider synthesises speech offline through espeak-ng. It needs no
// credentials and returns WAV audio.
type ESpeakProvider struct {
	voice     string
	speed     int
	pitch     int
	amplitude int

	lookPath func(string) (string, error)
	command  func(ctx context.Context, name string, args ...string) *exec.Cmd
}

const espeakBinary = "espeak-ng"

// NewESpeakProvider creates an espeak-ng provider from config. Out of
// range settings are clamped to what espeak-ng accepts.
func NewESpeakProvider(config *Config) *ESpeakProvider {
	voice := config.ESpeakVoice
	if voice == "" {
		voice = "en"
	}
	return &ESpeakProvider{
		voice:     voice,
		speed:     clamp(config.ESpeakSpeed, 80, 450, 175),
		pitch:     clamp(config.ESpeakPitch, 0, 99, 50),
		amplitude: clamp(config.ESpeakAmplitude, 0, 200, 100),
		lookPath:  exec.LookPath,
		command:   exec.CommandContext,
	}
}

// clamp bounds v to [lo, hi]; zero selects def
func clamp(v, lo, hi, def int) int {
	switch {
	case v == 0:
		return def
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

// Name returns the provider name
func (p *ESpeakProvider) Name() string {
	return "espeak"
}

// IsAvailable checks that espeak-ng is installed
func (p *ESpeakProvider) IsAvailable() error {
	if _, err := p.lookPath(espeakBinary); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", espeakBinary, err)
	}
	return nil
}

// Synthesize runs espeak-ng and returns the WAV it writes to stdout
func (p *ESpeakProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("text cannot be empty")
	}
	if err := p.IsAvailable(); err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd := p.command(ctx, espeakBinary, p.args(text)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("espeak-ng failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("espeak-ng produced no audio")
	}
	return stdout.Bytes(), nil
}

func (p *ESpeakProvider) args(text string) []string {
	return []string{
		"--stdout",
		"-v", p.voice,
		"-s", strconv.Itoa(p.speed),
		"-p", strconv.Itoa(p.pitch),
		"-a", strconv.Itoa(p.amplitude),
		"--", text,
	}
}
