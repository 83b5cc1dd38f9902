package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/polyglot/internal/apperr"
	"codeberg.org/snonux/polyglot/internal/languages"
)

var (
	// ErrClosed is returned by commands issued after Close
	ErrClosed = errors.New("speech capture closed")

	// ErrStopped means Stop was called before the session got going
	ErrStopped = errors.New("speech capture stopped before it started")

	// ErrSuperseded means a newer Start replaced the session
	ErrSuperseded = errors.New("speech capture superseded by a newer session")
)

// Config holds capture settings
type Config struct {
	Language        string        // BCP 47 tag for the recognizer
	SilenceDuration time.Duration // idle time before auto-stop

	// Streaming forwards intermediate transcripts longer than
	// MinStreamChars once no newer result arrived for DebounceInterval
	Streaming        bool
	DebounceInterval time.Duration
	MinStreamChars   int
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Language:         languages.DefaultLocale(),
		SilenceDuration:  5 * time.Second,
		DebounceInterval: 1500 * time.Millisecond,
		MinStreamChars:   10,
	}
}

// Handlers receive capture output. All are optional and run in order on
// a dedicated goroutine.
type Handlers struct {
	OnTranscription func(text string)
	OnIntermediate  func(text string)
	OnStateChange   func(state State)
	OnError         func(err error)
	OnNotice        func(title, description string)
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdStop
	cmdClose
	cmdFlush
)

type command struct {
	kind  commandKind
	ctx   context.Context
	reply chan error
}

type permissionResult struct {
	session uint64
	err     error
}

// Capture is the speech capture state machine
type Capture struct {
	platform Platform
	config   Config
	handlers Handlers
	clock    clock

	commands    chan command
	permissions chan permissionResult
	fires       chan timerFire
	done        chan struct{}
	closeOnce   sync.Once
	dispatch    *dispatcher

	// Owned by the loop goroutine
	session      uint64
	state        State
	recognizer   Recognizer
	events       <-chan Event
	finals       []string
	interim      string
	pending      string // transcript captured for the armed debounce
	startReplies []chan error
	timers       *timerArena

	// Read by the accessors
	mu       sync.RWMutex
	snapshot snapshot
}

type snapshot struct {
	state      State
	transcript string
	deadline   time.Time
}

// NewCapture creates a capture and starts its loop. Call Close to release it.
func NewCapture(platform Platform, config Config, handlers Handlers) *Capture {
	return newCapture(platform, config, handlers, realClock{})
}

func newCapture(platform Platform, config Config, handlers Handlers, c clock) *Capture {
	defaults := DefaultConfig()
	if config.SilenceDuration <= 0 {
		config.SilenceDuration = defaults.SilenceDuration
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = defaults.DebounceInterval
	}
	if config.MinStreamChars <= 0 {
		config.MinStreamChars = defaults.MinStreamChars
	}
	if config.Language == "" {
		config.Language = defaults.Language
	}

	cp := &Capture{
		platform:    platform,
		config:      config,
		handlers:    handlers,
		clock:       c,
		commands:    make(chan command),
		permissions: make(chan permissionResult),
		fires:       make(chan timerFire),
		done:        make(chan struct{}),
		dispatch:    newDispatcher(),
	}
	cp.timers = newTimerArena(c, cp.postFire)

	go cp.loop()
	return cp
}

func (c *Capture) postFire(f timerFire) {
	select {
	case c.fires <- f:
	case <-c.done:
	}
}

// Start begins a new session, tearing down any previous one. It returns
// once the recognizer is listening or the session failed to start.
func (c *Capture) Start(ctx context.Context) error {
	return c.send(ctx, cmdStart)
}

// Retry clears an error and the transcript and starts again
func (c *Capture) Retry(ctx context.Context) error {
	log.Debug().Msg("Retrying speech capture")
	return c.send(ctx, cmdStart)
}

// Stop cancels the timers and asks the recognizer to end. The transcript
// is delivered to OnTranscription when the recognizer has ended, not here.
func (c *Capture) Stop() {
	_ = c.send(context.Background(), cmdStop)
}

// Close aborts any session and stops the capture. Handlers already queued
// still run. Idempotent.
func (c *Capture) Close() {
	c.closeOnce.Do(func() {
		reply := make(chan error, 1)
		c.commands <- command{kind: cmdClose, reply: reply}
		<-reply
	})
}

// State returns the current state
func (c *Capture) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.state
}

// Transcript returns the transcript accumulated so far
func (c *Capture) Transcript() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.transcript
}

// SilenceRemaining returns the time left before the silence auto-stop, or
// zero when no silence timer is armed
func (c *Capture) SilenceRemaining() time.Duration {
	c.mu.RLock()
	deadline := c.snapshot.deadline
	c.mu.RUnlock()

	if deadline.IsZero() {
		return 0
	}
	if d := deadline.Sub(c.clock.Now()); d > 0 {
		return d
	}
	return 0
}

func (c *Capture) send(ctx context.Context, kind commandKind) error {
	reply := make(chan error, 1)
	select {
	case c.commands <- command{kind: kind, ctx: ctx, reply: reply}:
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// flush waits until every message posted so far and every handler queued
// so far has been processed
func (c *Capture) flush() {
	reply := make(chan error, 1)
	select {
	case c.commands <- command{kind: cmdFlush, reply: reply}:
		<-reply
	case <-c.done:
	}
}

func (c *Capture) loop() {
	for {
		select {
		case cmd := <-c.commands:
			if c.handleCommand(cmd) {
				return
			}
		case res := <-c.permissions:
			c.handlePermission(res)
		case ev, ok := <-c.events:
			if !ok {
				c.handleEnd()
				continue
			}
			c.handleEvent(ev)
		case f := <-c.fires:
			c.handleFire(f)
		}
	}
}

func (c *Capture) handleCommand(cmd command) (exit bool) {
	switch cmd.kind {
	case cmdStart:
		c.handleStart(cmd)
	case cmdStop:
		c.handleStop()
		cmd.reply <- nil
	case cmdFlush:
		c.post(func() { cmd.reply <- nil })
	case cmdClose:
		c.teardown(ErrClosed)
		c.timers.cancelAll()
		close(c.done)
		c.dispatch.close()
		cmd.reply <- nil
		return true
	}
	return false
}

func (c *Capture) handleStart(cmd command) {
	c.teardown(ErrSuperseded)
	c.session++
	c.finals, c.interim, c.pending = nil, "", ""
	c.publish()

	if !c.platform.Supported() {
		err := &apperr.UnsupportedPlatformError{
			Message: "Your platform doesn't support speech recognition. Configure a transcription service or audio input.",
		}
		c.fail(err)
		cmd.reply <- err
		return
	}

	c.setState(StateRequestingPermission)
	c.startReplies = append(c.startReplies, cmd.reply)

	session := c.session
	ctx := cmd.ctx
	go func() {
		err := c.platform.RequestMicrophone(ctx)
		select {
		case c.permissions <- permissionResult{session: session, err: err}:
		case <-c.done:
		}
	}()
}

func (c *Capture) handlePermission(res permissionResult) {
	if res.session != c.session || c.state != StateRequestingPermission {
		return
	}

	if res.err != nil {
		log.Warn().Err(res.err).Msg("Microphone permission denied")
		c.finishStart(c.fail(&apperr.PermissionError{Message: "microphone access denied", Err: res.err}))
		return
	}

	rec, err := c.platform.NewRecognizer(RecognizerOptions{
		Language:       c.config.Language,
		Continuous:     true,
		InterimResults: true,
	})
	if err == nil {
		if err = rec.Start(); err != nil {
			rec.Abort()
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to start speech recognition")
		c.finishStart(c.fail(&apperr.RecognitionError{
			Kind:    apperr.RecognitionGeneric,
			Code:    "start-failed",
			Message: "Failed to start voice recognition. Please try again.",
		}))
		return
	}

	c.recognizer = rec
	c.events = rec.Events()
	c.setState(StateListening)
	c.armSilence()
	c.finishStart(nil)
	log.Debug().Uint64("session", c.session).Str("language", c.config.Language).Msg("Speech capture listening")
}

func (c *Capture) finishStart(err error) {
	for _, reply := range c.startReplies {
		reply <- err
	}
	c.startReplies = nil
}

func (c *Capture) handleStop() {
	c.timers.cancelSession(c.session)
	c.clearDeadline()

	switch c.state {
	case StateRequestingPermission:
		c.finishStart(ErrStopped)
		c.setState(StateIdle)
	case StateListening:
		c.setState(StateProcessing)
		c.recognizer.Stop()
	}
}

func (c *Capture) handleEvent(ev Event) {
	switch ev.Type {
	case EventStart:
		c.notice("Recording Started",
			fmt.Sprintf("Speak now. Recording will stop after %s of silence.", formatSeconds(c.config.SilenceDuration)))
	case EventResult:
		c.handleResult(ev)
	case EventError:
		c.handleError(ev)
	case EventEnd:
		c.handleEnd()
	}
}

func (c *Capture) handleResult(ev Event) {
	if ev.Final {
		c.finals = append(c.finals, ev.Text)
		c.interim = ""
	} else {
		c.interim = ev.Text
	}
	transcript := c.transcript()
	c.publish()

	if c.state != StateListening {
		return
	}
	c.armSilence()

	if !c.config.Streaming {
		return
	}
	debounce := timerKey{session: c.session, kind: timerDebounce}
	c.timers.cancel(debounce)
	if utf8.RuneCountInString(strings.TrimSpace(transcript)) > c.config.MinStreamChars {
		c.pending = transcript
		c.timers.arm(debounce, c.config.DebounceInterval)
	}
}

func (c *Capture) handleError(ev Event) {
	recErr := apperr.ClassifyRecognition(ev.Code)
	log.Debug().Str("code", ev.Code).Str("kind", recErr.Kind.String()).Msg("Speech recognition error")

	if !recErr.Fatal() {
		if recErr.Kind == apperr.RecognitionNoSpeech {
			c.notice("Voice Input Error", recErr.Message)
		}
		return
	}

	c.teardown(ErrStopped)
	c.fail(recErr)
}

func (c *Capture) handleEnd() {
	c.timers.cancelSession(c.session)
	c.recognizer, c.events = nil, nil
	c.clearDeadline()

	if c.state == StateError {
		return
	}

	transcript := strings.TrimSpace(c.transcript())
	if transcript == "" {
		c.setState(StateIdle)
		return
	}

	c.setState(StateComplete)
	if h := c.handlers.OnTranscription; h != nil {
		c.post(func() { h(transcript) })
	}
	c.notice("Recording Complete", "Audio transcribed successfully. Ready for translation.")
	log.Debug().Int("chars", len(transcript)).Msg("Speech capture complete")
}

func (c *Capture) handleFire(f timerFire) {
	if f.key.session != c.session || !c.timers.claim(f) {
		return
	}

	switch f.key.kind {
	case timerSilence:
		log.Debug().Dur("silence", c.config.SilenceDuration).Msg("Silence detected, stopping capture")
		c.handleStop()
	case timerDebounce:
		if h := c.handlers.OnIntermediate; h != nil && c.state == StateListening {
			text := strings.TrimSpace(c.pending)
			c.post(func() { h(text) })
		}
	}
}

// teardown releases the recognizer and timers of the current session
func (c *Capture) teardown(reason error) {
	c.timers.cancelSession(c.session)
	c.clearDeadline()
	c.finishStart(reason)
	if c.recognizer != nil {
		c.recognizer.Abort()
		c.recognizer, c.events = nil, nil
	}
}

func (c *Capture) fail(err error) error {
	c.setState(StateError)
	if h := c.handlers.OnError; h != nil {
		c.post(func() { h(err) })
	}
	return err
}

func (c *Capture) armSilence() {
	deadline := c.timers.arm(timerKey{session: c.session, kind: timerSilence}, c.config.SilenceDuration)
	c.mu.Lock()
	c.snapshot.deadline = deadline
	c.mu.Unlock()
}

func (c *Capture) clearDeadline() {
	c.mu.Lock()
	c.snapshot.deadline = time.Time{}
	c.mu.Unlock()
}

func (c *Capture) transcript() string {
	return strings.Join(c.finals, "") + c.interim
}

func (c *Capture) setState(s State) {
	if c.state == s {
		return
	}
	log.Debug().Str("from", c.state.String()).Str("to", s.String()).Msg("Speech capture state")
	c.state = s
	c.publish()
	if h := c.handlers.OnStateChange; h != nil {
		c.post(func() { h(s) })
	}
}

func (c *Capture) publish() {
	c.mu.Lock()
	c.snapshot.state = c.state
	c.snapshot.transcript = c.transcript()
	c.mu.Unlock()
}

func (c *Capture) notice(title, description string) {
	if h := c.handlers.OnNotice; h != nil {
		c.post(func() { h(title, description) })
	}
}

func (c *Capture) post(f func()) {
	c.dispatch.post(f)
}

func formatSeconds(d time.Duration) string {
	if d%time.Second == 0 {
		n := int(d / time.Second)
		if n == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", n)
	}
	return d.String()
}
