package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/gabriel-vasile/mimetype"
)

// Player plays an encoded audio buffer and returns when playback has ended
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// CommandPlayer plays audio through an external player program. Each
// buffer is written to a temporary file that is removed when Play
// returns, whether playback finished, failed or was cancelled.
type CommandPlayer struct {
	// Command overrides player detection. The audio file path is appended
	// as the last argument.
	Command []string

	// TempDir holds the transient audio files (default: os.TempDir())
	TempDir string
}

// NewCommandPlayer creates a player that auto-detects the system player
func NewCommandPlayer() *CommandPlayer {
	return &CommandPlayer{}
}

// Play writes audio to a temporary file and runs the player on it
func (p *CommandPlayer) Play(ctx context.Context, audio []byte) error {
	if len(audio) == 0 {
		return fmt.Errorf("no audio to play")
	}

	args, err := p.command()
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(p.TempDir, "polyglot-*"+bufferExt(audio))
	if err != nil {
		return fmt.Errorf("failed to create audio buffer: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(audio); err != nil {
		f.Close()
		return fmt.Errorf("failed to write audio buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write audio buffer: %w", err)
	}

	args = append(args, path)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("failed to play audio: %w", err)
	}
	return nil
}

// bufferExt picks the temp file extension from the audio content so
// players that dispatch on the suffix pick the right decoder
func bufferExt(audio []byte) string {
	if ext := mimetype.Detect(audio).Extension(); ext != "" && ext != ".txt" {
		return ext
	}
	return ".mp3"
}

// command returns the player command line without the file argument
func (p *CommandPlayer) command() ([]string, error) {
	if len(p.Command) > 0 {
		return append([]string(nil), p.Command...), nil
	}

	switch runtime.GOOS {
	case "darwin":
		return []string{"afplay"}, nil
	case "linux", "freebsd", "openbsd":
		// mpg123 first since it handles MP3 files best
		candidates := [][]string{
			{"mpg123", "-q"},
			{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
			{"play", "-q"},
			{"paplay"},
		}
		for _, c := range candidates {
			if _, err := exec.LookPath(c[0]); err == nil {
				return append([]string(nil), c...), nil
			}
		}
		return nil, errors.New("no audio player found. Install mpg123, ffplay, sox or paplay")
	default:
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}
