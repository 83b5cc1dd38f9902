package server

import (
	"regexp"
	"unicode/utf8"

	"codeberg.org/snonux/polyglot/internal/apperr"
	"codeberg.org/snonux/polyglot/internal/audio"
)

// Request bounds enforced at the service boundary
const (
	MaxTranslateChars   = 10000
	MaxTargetLangChars  = 100
	MaxBase64ImageChars = 14000000
)

var (
	suspiciousPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<script`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)vbscript:`),
		regexp.MustCompile(`(?i)onload=`),
		regexp.MustCompile(`(?i)onerror=`),
	}
	base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)
)

func containsScript(text string) bool {
	for _, p := range suspiciousPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// stringField reads a required string parameter from a decoded JSON body.
// ok is false when the field is absent or empty; the error reports a wrong type.
func stringField(body map[string]any, name string) (value string, ok bool, err error) {
	raw, present := body[name]
	if !present || raw == nil {
		return "", false, nil
	}
	s, isString := raw.(string)
	if !isString {
		return "", true, apperr.NewValidation(name, "Invalid parameter types")
	}
	return s, s != "", nil
}

type translateParams struct {
	text, targetLanguage, inputType string
}

func validateTranslate(body map[string]any) (translateParams, error) {
	var p translateParams

	text, hasText, textErr := stringField(body, "text")
	target, hasTarget, targetErr := stringField(body, "targetLanguage")
	if (!hasText && textErr == nil) || (!hasTarget && targetErr == nil) {
		return p, apperr.NewValidation("text", "Missing required parameters")
	}
	if textErr != nil || targetErr != nil {
		return p, apperr.NewValidation("text", "Invalid parameter types")
	}

	if utf8.RuneCountInString(text) > MaxTranslateChars {
		return p, apperr.NewValidation("text", "Text length exceeds maximum limit")
	}
	if utf8.RuneCountInString(target) > MaxTargetLangChars {
		return p, apperr.NewValidation("targetLanguage", "Target language parameter too long")
	}
	if containsScript(text) {
		return p, apperr.NewValidation("text", "Invalid content detected")
	}

	// inputType is optional; a non-string value is treated as absent
	inputType, _ := body["inputType"].(string)

	return translateParams{text: text, targetLanguage: target, inputType: inputType}, nil
}

func validateExtract(body map[string]any) (string, error) {
	image, ok, err := stringField(body, "base64Image")
	if err != nil {
		return "", apperr.NewValidation("base64Image", "Invalid parameter type")
	}
	if !ok {
		return "", apperr.NewValidation("base64Image", "Missing base64Image parameter")
	}
	if len(image) > MaxBase64ImageChars {
		return "", apperr.NewValidation("base64Image", "Image size exceeds maximum limit")
	}
	if !base64Pattern.MatchString(image) {
		return "", apperr.NewValidation("base64Image", "Invalid base64 format")
	}
	return image, nil
}

func validateSpeech(body map[string]any) (string, error) {
	text, ok, err := stringField(body, "text")
	if err != nil {
		return "", apperr.NewValidation("text", "Invalid parameter type")
	}
	if !ok {
		return "", apperr.NewValidation("text", "Missing required parameters")
	}
	if err := audio.ValidateSpeechText(text); err != nil {
		return "", err
	}
	if containsScript(text) {
		return "", apperr.NewValidation("text", "Invalid content detected")
	}
	return text, nil
}
