package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/polyglot/internal/notify"
	"codeberg.org/snonux/polyglot/internal/orchestration"
	"codeberg.org/snonux/polyglot/internal/speech"
	"codeberg.org/snonux/polyglot/internal/speech/mic"
	"codeberg.org/snonux/polyglot/internal/speech/realtime"
)

// stopTimeout bounds the wait for the final transcript after Ctrl+C
const stopTimeout = 15 * time.Second

// countdownTick is how often the auto-stop countdown is refreshed
const countdownTick = 250 * time.Millisecond

// errNoSpeech is returned when capture ended without a transcript
var errNoSpeech = errors.New("no speech was transcribed")

func (p *Processor) speechConfig() speech.Config {
	config := speech.Config{
		Language:         p.config.Speech.Language,
		SilenceDuration:  p.config.Speech.Silence(),
		Streaming:        p.config.Speech.Streaming,
		DebounceInterval: p.config.Speech.Debounce(),
		MinStreamChars:   p.config.Speech.MinStreamChars,
	}
	if p.flags.Silence > 0 {
		config.SilenceDuration = p.flags.Silence
	}
	return config
}

// openSource opens the configured audio input
func (p *Processor) openSource() (io.ReadCloser, error) {
	var (
		src io.ReadCloser
		err error
	)
	if p.flags.Mic {
		src, err = mic.NewMicrophone()
	} else {
		src, err = mic.Open(p.flags.Input)
	}
	if err != nil {
		return nil, err
	}

	if p.flags.Record != "" {
		src = mic.NewRecorder(src, p.flags.Record)
	}
	return src, nil
}

// showCountdown prints the whole seconds left before capture stops on
// silence each time the value changes, until done is closed
func showCountdown(w io.Writer, remaining func() time.Duration, tick <-chan time.Time, done <-chan struct{}) {
	last, printed := -1, false
	for {
		select {
		case <-done:
			if printed {
				fmt.Fprintln(w)
			}
			return
		case <-tick:
			secs := int(math.Ceil(remaining().Seconds()))
			if secs == last {
				continue
			}
			last = secs
			if secs > 0 {
				fmt.Fprintf(w, "\rAuto-stop in %ds ", secs)
				printed = true
			}
		}
	}
}

// captureOutcome is how a capture session ended
type captureOutcome struct {
	transcript string
	err        error
}

// Listen captures speech until silence or Ctrl+C and translates the
// transcript when a target language is given
func (p *Processor) Listen(ctx context.Context) error {
	var session *orchestration.Session
	if p.flags.To != "" {
		s, closeSession, err := p.newSession(p.target())
		if err != nil {
			return err
		}
		defer closeSession()
		session = s
	}

	platform := realtime.NewPlatform(realtime.Config{
		StreamURL:  p.client.StreamURL,
		OpenSource: p.openSource,
		Paced:      true,
	})
	defer platform.Close()

	outcome := make(chan captureOutcome, 1)
	report := func(o captureOutcome) {
		select {
		case outcome <- o:
		default:
		}
	}

	started := false
	handlers := speech.Handlers{
		OnStateChange: func(state speech.State) {
			log.Debug().Str("state", state.String()).Msg("Capture state")
			switch state {
			case speech.StateListening:
				started = true
			case speech.StateIdle:
				if started {
					report(captureOutcome{err: errNoSpeech})
				}
			}
		},
		OnNotice: func(title, description string) {
			p.notifier.Notify(notify.Info(title, description))
		},
		OnError: func(err error) {
			p.notifier.Notify(notify.Error(err))
			report(captureOutcome{err: err})
		},
		OnIntermediate: func(text string) {
			fmt.Fprintf(p.out, "… %s\n", text)
			if session == nil {
				return
			}
			result, err := session.Translate(ctx, text, session.Target(), "")
			if err == nil {
				fmt.Fprintf(p.out, "  → %s\n", result)
			}
		},
		OnTranscription: func(text string) {
			report(captureOutcome{transcript: text})
		},
	}

	capture := speech.NewCapture(platform, p.speechConfig(), handlers)
	defer capture.Close()

	// Start failures reach the user through OnError
	if err := capture.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintln(p.out, "Listening... press Ctrl+C to stop")

	ticker := time.NewTicker(countdownTick)
	countdownDone := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		showCountdown(p.status, capture.SilenceRemaining, ticker.C, countdownDone)
	}()
	stopCountdown := func() {
		ticker.Stop()
		close(countdownDone)
		wg.Wait()
	}

	var result captureOutcome
	select {
	case result = <-outcome:
	case <-ctx.Done():
		capture.Stop()
		select {
		case result = <-outcome:
		case <-time.After(stopTimeout):
			stopCountdown()
			return errors.New("timed out waiting for the final transcript")
		}
	}
	stopCountdown()
	if result.err != nil {
		return result.err
	}

	fmt.Fprintf(p.out, "\nTranscript:\n%s\n", result.transcript)
	if session == nil {
		return nil
	}

	// ctx may already be cancelled by Ctrl+C, which only ends capture
	translateCtx := context.WithoutCancel(ctx)
	session.OnVoiceTranscription(result.transcript)
	translated, err := session.TranslateCurrent(translateCtx)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "\nTranslation (%s):\n%s\n", session.Target(), translated)

	return p.finish(translateCtx, session)
}
