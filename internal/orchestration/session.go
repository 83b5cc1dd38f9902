package orchestration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/polyglot/internal/apperr"
	"codeberg.org/snonux/polyglot/internal/history"
	"codeberg.org/snonux/polyglot/internal/notify"
	"codeberg.org/snonux/polyglot/internal/translation"
)

// ErrInFlight is returned when a translation is requested while another
// one is still running
var ErrInFlight = errors.New("translation already in progress")

// ErrNothingToSpeak is returned by Speak and CopyResult before the first
// successful translation
var ErrNothingToSpeak = errors.New("no translation available")

// Speaker reads text aloud and returns when playback has finished
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Recorder stores completed translations
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Options wires a Session to its collaborators. Translator and Notifier
// are required.
type Options struct {
	Translator translation.Translator
	Speaker    Speaker
	Clipboard  func(text string) error
	History    Recorder
	Notifier   notify.Notifier
}

// Session is the translation state behind one user interface
type Session struct {
	opts    Options
	loading atomic.Bool

	mu        sync.Mutex
	text      string
	inputType translation.InputType
	target    string
	result    string
}

// NewSession creates a session translating into target
func NewSession(opts Options, target string) *Session {
	if opts.Notifier == nil {
		opts.Notifier = notify.Func(func(notify.Notification) {})
	}
	return &Session{opts: opts, target: target, inputType: translation.InputText}
}

// Loading reports whether a translation is in flight
func (s *Session) Loading() bool {
	return s.loading.Load()
}

// Input returns the current input text and type
func (s *Session) Input() (string, translation.InputType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text, s.inputType
}

// SetInput replaces the input text
func (s *Session) SetInput(text string, inputType translation.InputType) {
	s.mu.Lock()
	s.text, s.inputType = text, inputType
	s.mu.Unlock()
}

// SwitchInput changes the input type. Switching to image input clears
// typed or spoken text.
func (s *Session) SwitchInput(inputType translation.InputType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inputType == translation.InputImage && s.inputType != translation.InputImage {
		s.text = ""
	}
	s.inputType = inputType
}

// Target returns the target language
func (s *Session) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// SetTarget changes the target language
func (s *Session) SetTarget(target string) {
	s.mu.Lock()
	s.target = target
	s.mu.Unlock()
}

// Result returns the last translation
func (s *Session) Result() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// OnVoiceTranscription takes a finished speech transcript as input
func (s *Session) OnVoiceTranscription(text string) {
	s.SetInput(text, translation.InputText)
	s.opts.Notifier.Notify(notify.Info("Voice Captured", "Your speech has been transcribed."))
}

// OnImageText takes text extracted from an image as input
func (s *Session) OnImageText(text string) {
	s.SetInput(text, translation.InputImage)
	s.opts.Notifier.Notify(notify.Info("Text Extracted", "Text has been extracted from the image."))
}

// TranslateCurrent translates the current input into the current target
func (s *Session) TranslateCurrent(ctx context.Context) (string, error) {
	s.mu.Lock()
	text, inputType, target := s.text, s.inputType, s.target
	s.mu.Unlock()
	return s.Translate(ctx, text, target, inputType)
}

// Translate sends exactly one translation request. Validation failures
// return before any network call. A call made while another is in flight
// fails with ErrInFlight and changes nothing.
func (s *Session) Translate(ctx context.Context, text, target string, inputType translation.InputType) (string, error) {
	text = strings.TrimSpace(text)
	target = strings.TrimSpace(target)

	var err error
	switch {
	case text == "":
		err = apperr.NewValidation("text", "Please enter text to translate")
	case target == "":
		err = apperr.NewValidation("targetLanguage", "Please select a target language")
	}
	if err != nil {
		s.failed(err)
		return "", err
	}
	if inputType == "" {
		inputType = translation.InputText
	}

	if !s.loading.CompareAndSwap(false, true) {
		return "", ErrInFlight
	}
	defer s.loading.Store(false)

	req := translation.Request{Text: text, TargetLanguage: target, InputType: inputType}
	log.Debug().Str("target", target).Str("input_type", string(inputType)).Int("chars", len(text)).Msg("Translating")

	result, err := s.opts.Translator.Translate(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("provider", s.opts.Translator.Name()).Msg("Translation failed")
		s.failed(err)
		return "", err
	}

	s.mu.Lock()
	s.result = result
	s.mu.Unlock()

	if s.opts.History != nil {
		entry := history.Entry{
			InputType:      string(inputType),
			SourceText:     text,
			TargetLanguage: target,
			TranslatedText: result,
		}
		if err := s.opts.History.Record(ctx, entry); err != nil {
			log.Warn().Err(err).Msg("Failed to record translation history")
		}
	}
	return result, nil
}

func (s *Session) failed(err error) {
	_, desc := apperr.Describe(err)
	s.opts.Notifier.Notify(notify.Notification{Title: "Translation Error", Description: desc, Destructive: true})
}

// Speak reads the last translation aloud
func (s *Session) Speak(ctx context.Context) error {
	result := s.Result()
	if result == "" {
		return ErrNothingToSpeak
	}
	if s.opts.Speaker == nil {
		return errors.New("text-to-speech is not configured")
	}

	if err := s.opts.Speaker.Speak(ctx, result); err != nil {
		s.opts.Notifier.Notify(notify.Error(err))
		return err
	}
	return nil
}

// CopyResult writes the last translation to the clipboard
func (s *Session) CopyResult() error {
	result := s.Result()
	if result == "" {
		return ErrNothingToSpeak
	}
	if s.opts.Clipboard == nil {
		return errors.New("clipboard is not configured")
	}

	if err := s.opts.Clipboard(result); err != nil {
		s.opts.Notifier.Notify(notify.Notification{
			Title:       "Copy Failed",
			Description: "Could not copy the translation to the clipboard.",
			Destructive: true,
		})
		return err
	}
	s.opts.Notifier.Notify(notify.Info("Copied", "Translation copied to clipboard."))
	return nil
}
