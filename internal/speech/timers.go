package speech

import "time"

type timerKind int

const (
	timerSilence timerKind = iota
	timerDebounce
)

func (k timerKind) String() string {
	if k == timerSilence {
		return "silence"
	}
	return "debounce"
}

type timerKey struct {
	session uint64
	kind    timerKind
}

// timerFire is posted to the capture loop when a timer elapses
type timerFire struct {
	key        timerKey
	generation uint64
}

type stopper interface {
	Stop() bool
}

type clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) stopper
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

type armedTimer struct {
	timer      stopper
	generation uint64
	deadline   time.Time
}

// timerArena tracks outstanding timers. It is only used from the capture
// loop, so it needs no locking; firings arrive through post.
type timerArena struct {
	clock      clock
	post       func(timerFire)
	generation uint64
	timers     map[timerKey]*armedTimer
}

func newTimerArena(c clock, post func(timerFire)) *timerArena {
	return &timerArena{
		clock:  c,
		post:   post,
		timers: make(map[timerKey]*armedTimer),
	}
}

// arm (re)starts the timer for key. Any earlier timer for the same key is
// cancelled and its pending firing becomes stale.
func (a *timerArena) arm(key timerKey, d time.Duration) time.Time {
	a.cancel(key)

	a.generation++
	fire := timerFire{key: key, generation: a.generation}
	deadline := a.clock.Now().Add(d)
	a.timers[key] = &armedTimer{
		timer:      a.clock.AfterFunc(d, func() { a.post(fire) }),
		generation: fire.generation,
		deadline:   deadline,
	}
	return deadline
}

func (a *timerArena) cancel(key timerKey) {
	if t, ok := a.timers[key]; ok {
		t.timer.Stop()
		delete(a.timers, key)
	}
}

// cancelSession cancels every timer of a session
func (a *timerArena) cancelSession(session uint64) {
	for key := range a.timers {
		if key.session == session {
			a.cancel(key)
		}
	}
}

func (a *timerArena) cancelAll() {
	for key := range a.timers {
		a.cancel(key)
	}
}

// claim reports whether f belongs to a live timer and retires that timer
func (a *timerArena) claim(f timerFire) bool {
	t, ok := a.timers[f.key]
	if !ok || t.generation != f.generation {
		return false
	}
	delete(a.timers, f.key)
	return true
}

func (a *timerArena) deadline(key timerKey) (time.Time, bool) {
	t, ok := a.timers[key]
	if !ok {
		return time.Time{}, false
	}
	return t.deadline, true
}

func (a *timerArena) len() int {
	return len(a.timers)
}
