// Package languages lists the target languages polyglot offers and
// detects the user's locale for speech recognition.
package languages

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a selectable translation target
type Language struct {
	Code string // BCP 47 tag, e.g. "es" or "zh-Hans"
	Name string // English display name
}

var supportedCodes = []string{
	"ar", "bg", "cs", "da", "de", "el", "en", "es", "fi", "fr",
	"he", "hi", "hu", "id", "it", "ja", "ko", "nl", "no", "pl",
	"pt", "ro", "ru", "sv", "th", "tr", "uk", "vi", "zh-Hans", "zh-Hant",
}

var supported = buildSupported()

func buildSupported() []Language {
	namer := display.English.Tags()
	langs := make([]Language, 0, len(supportedCodes))
	for _, code := range supportedCodes {
		tag := language.MustParse(code)
		langs = append(langs, Language{Code: code, Name: namer.Name(tag)})
	}
	return langs
}

// Supported returns a copy of the supported target languages
func Supported() []Language {
	result := make([]Language, len(supported))
	copy(result, supported)
	return result
}

// Lookup finds a supported language by code or English name, case-insensitively
func Lookup(nameOrCode string) (Language, bool) {
	needle := strings.TrimSpace(nameOrCode)
	if needle == "" {
		return Language{}, false
	}

	for _, l := range supported {
		if strings.EqualFold(l.Code, needle) || strings.EqualFold(l.Name, needle) {
			return l, true
		}
	}
	return Language{}, false
}

// Resolve returns the display name for a known language, or the input
// unchanged. Unknown names are still valid targets for the translator.
func Resolve(nameOrCode string) string {
	if l, ok := Lookup(nameOrCode); ok {
		return l.Name
	}
	return strings.TrimSpace(nameOrCode)
}

// DefaultLocale returns the user's locale as a BCP 47 tag, read from
// LC_ALL, LC_MESSAGES or LANG. It falls back to en-US.
func DefaultLocale() string {
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if tag, ok := ParseLocale(os.Getenv(env)); ok {
			return tag
		}
	}
	return "en-US"
}

// ParseLocale converts a POSIX locale such as "de_DE.UTF-8" to a BCP 47 tag
func ParseLocale(locale string) (string, bool) {
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	if locale == "" || locale == "C" || locale == "POSIX" {
		return "", false
	}

	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return "", false
	}
	return tag.String(), true
}

// BaseCode returns the ISO 639 language part of a tag ("de-DE" -> "de")
func BaseCode(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return ""
	}
	base, _ := t.Base()
	return base.String()
}
