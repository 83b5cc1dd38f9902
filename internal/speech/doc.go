// Package speech implements continuous speech capture on top of a
// platform recognition engine.
//
// A Capture runs as a single goroutine that owns the session state.
// Commands (Start, Stop, Retry, Close), recognizer events and timer
// firings all reach it as messages, so transitions never race. Handlers
// run in order on a separate goroutine and may call back into the Capture.
//
// Silence detection and the streaming debounce use timers registered in
// an arena keyed by session. Starting a new session invalidates every
// timer of the previous one, and a firing from a stale session or a
// superseded timer is dropped.
package speech
