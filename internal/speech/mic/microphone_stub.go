//go:build !portaudio

package mic

import (
	"io"

	"codeberg.org/snonux/polyglot/internal/apperr"
)

// NewMicrophone is unavailable without the portaudio build tag
func NewMicrophone() (io.ReadCloser, error) {
	return nil, &apperr.UnsupportedPlatformError{
		Message: "This build has no microphone support. Rebuild with -tags portaudio or pass an audio file with --input.",
	}
}
