package speech

import (
	"context"
	"sort"
	"sync"
	"time"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	when  time.Time
	f     func()
	done  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, when: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.done
	t.done = true
	return active
}

// Advance moves time forward and runs the timers that became due, in
// deadline order
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.done && !t.when.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].when.Before(due[j].when) })
	for _, t := range due {
		t.f()
	}
}

type fakeRecognizer struct {
	opts   RecognizerOptions
	events chan Event

	// afterEvent, when set, waits until the capture has handled an event
	afterEvent func()

	mu       sync.Mutex
	startErr error
	started  int
	stopped  int
	aborted  int
}

func (r *fakeRecognizer) Events() <-chan Event { return r.events }

func (r *fakeRecognizer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
	return r.startErr
}

func (r *fakeRecognizer) Stop() {
	r.mu.Lock()
	r.stopped++
	r.mu.Unlock()
}

func (r *fakeRecognizer) Abort() {
	r.mu.Lock()
	r.aborted++
	r.mu.Unlock()
}

func (r *fakeRecognizer) counts() (started, stopped, aborted int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started, r.stopped, r.aborted
}

// emit blocks until the capture loop has received ev, and with
// afterEvent set until it has also handled it
func (r *fakeRecognizer) emit(ev Event) {
	r.events <- ev
	if r.afterEvent != nil {
		r.afterEvent()
	}
}

func (r *fakeRecognizer) interim(text string) {
	r.emit(Event{Type: EventResult, Text: text})
}

func (r *fakeRecognizer) final(text string) {
	r.emit(Event{Type: EventResult, Text: text, Final: true})
}

type fakePlatform struct {
	mu          sync.Mutex
	supported   bool
	permErr     error
	gate        chan struct{} // when set, RequestMicrophone waits for it
	startErr    error
	afterEvent  func()
	requests    int
	recognizers []*fakeRecognizer
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{supported: true}
}

func (p *fakePlatform) Supported() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.supported
}

func (p *fakePlatform) RequestMicrophone(ctx context.Context) error {
	p.mu.Lock()
	p.requests++
	gate, err := p.gate, p.permErr
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (p *fakePlatform) NewRecognizer(opts RecognizerOptions) (Recognizer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r := &fakeRecognizer{opts: opts, events: make(chan Event), startErr: p.startErr, afterEvent: p.afterEvent}
	p.recognizers = append(p.recognizers, r)
	return r, nil
}

func (p *fakePlatform) recognizer(i int) *fakeRecognizer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i >= len(p.recognizers) {
		return nil
	}
	return p.recognizers[i]
}

func (p *fakePlatform) recognizerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.recognizers)
}

type notice struct {
	title, description string
}

// recorder collects handler calls
type recorder struct {
	mu             sync.Mutex
	transcriptions []string
	intermediates  []string
	states         []State
	errs           []error
	notices        []notice
}

func (r *recorder) handlers() Handlers {
	return Handlers{
		OnTranscription: func(text string) {
			r.mu.Lock()
			r.transcriptions = append(r.transcriptions, text)
			r.mu.Unlock()
		},
		OnIntermediate: func(text string) {
			r.mu.Lock()
			r.intermediates = append(r.intermediates, text)
			r.mu.Unlock()
		},
		OnStateChange: func(s State) {
			r.mu.Lock()
			r.states = append(r.states, s)
			r.mu.Unlock()
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
		OnNotice: func(title, description string) {
			r.mu.Lock()
			r.notices = append(r.notices, notice{title, description})
			r.mu.Unlock()
		},
	}
}

func (r *recorder) Transcriptions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.transcriptions...)
}

func (r *recorder) Intermediates() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.intermediates...)
}

func (r *recorder) States() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func (r *recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func (r *recorder) NoticeTitles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var titles []string
	for _, n := range r.notices {
		titles = append(titles, n.title)
	}
	return titles
}
