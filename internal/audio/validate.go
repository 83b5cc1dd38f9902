package audio

import (
	"strings"
	"unicode/utf8"

	"codeberg.org/snonux/polyglot/internal/apperr"
)

// MaxSpeechChars is the longest text accepted for speech synthesis
const MaxSpeechChars = 5000

// ValidateSpeechText checks that text can be sent to a TTS provider
func ValidateSpeechText(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperr.NewValidation("text", "Missing required parameters")
	}

	if utf8.RuneCountInString(text) > MaxSpeechChars {
		return apperr.NewValidation("text", "Text length exceeds maximum limit for speech synthesis")
	}

	return nil
}
