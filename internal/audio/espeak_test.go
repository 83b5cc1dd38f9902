package audio

import (
	"context"
	"errors"
	"os/exec"
	"reflect"
	"strings"
	"testing"
)

func TestNewESpeakProviderClamps(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantVoice string
		wantSpeed int
		wantPitch int
		wantAmp   int
	}{
		{"defaults", Config{}, "en", 175, 50, 100},
		{"in range", Config{ESpeakVoice: "de", ESpeakSpeed: 200, ESpeakPitch: 30, ESpeakAmplitude: 150}, "de", 200, 30, 150},
		{"too slow", Config{ESpeakSpeed: 10}, "en", 80, 50, 100},
		{"too fast", Config{ESpeakSpeed: 900, ESpeakPitch: 120, ESpeakAmplitude: 500}, "en", 450, 99, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewESpeakProvider(&tt.config)
			if p.voice != tt.wantVoice || p.speed != tt.wantSpeed || p.pitch != tt.wantPitch || p.amplitude != tt.wantAmp {
				t.Errorf("got voice=%s speed=%d pitch=%d amplitude=%d", p.voice, p.speed, p.pitch, p.amplitude)
			}
		})
	}
}

func TestESpeakArgs(t *testing.T) {
	p := NewESpeakProvider(&Config{ESpeakVoice: "es"})
	got := p.args("-hola")
	want := []string{"--stdout", "-v", "es", "-s", "175", "-p", "50", "-a", "100", "--", "-hola"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args() = %v, want %v", got, want)
	}
}

func TestESpeakUnavailable(t *testing.T) {
	p := NewESpeakProvider(&Config{})
	p.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	if err := p.IsAvailable(); err == nil {
		t.Fatal("IsAvailable() should fail without espeak-ng")
	}
	if _, err := p.Synthesize(context.Background(), "hello"); !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("Synthesize() error = %v, want ErrNotFound", err)
	}
}

func TestESpeakSynthesize(t *testing.T) {
	requireShell(t)

	tests := []struct {
		name    string
		script  string
		text    string
		want    string
		wantErr string
	}{
		{"stdout", `printf RIFFdata`, "hello", "RIFFdata", ""},
		{"empty text", `printf x`, "   ", "", "text cannot be empty"},
		{"no audio", `true`, "hello", "", "no audio"},
		{"failure", `echo bad voice >&2; exit 1`, "hello", "", "bad voice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewESpeakProvider(&Config{})
			p.lookPath = func(string) (string, error) { return "/bin/sh", nil }
			p.command = func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
				return exec.CommandContext(ctx, "sh", "-c", tt.script)
			}

			got, err := p.Synthesize(context.Background(), tt.text)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Synthesize() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Synthesize() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Synthesize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestESpeakIntegration(t *testing.T) {
	if _, err := exec.LookPath(espeakBinary); err != nil {
		t.Skip("espeak-ng not installed, skipping integration test")
	}

	p := NewESpeakProvider(&Config{})
	got, err := p.Synthesize(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if ext := bufferExt(got); ext != ".wav" {
		t.Errorf("expected WAV output, detected %s", ext)
	}
}
