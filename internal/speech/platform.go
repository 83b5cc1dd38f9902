package speech

import "context"

// EventType identifies a recognition engine event
type EventType int

const (
	EventStart EventType = iota
	EventResult
	EventError
	EventEnd
)

// String returns the string representation of an EventType
func (t EventType) String() string {
	switch t {
	case EventStart:
		return "start"
	case EventResult:
		return "result"
	case EventError:
		return "error"
	case EventEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Event is emitted by a Recognizer
type Event struct {
	Type EventType

	// Result events. Text is one segment; Final marks it as no longer
	// subject to revision.
	Text  string
	Final bool

	// Error events carry the engine error code ("no-speech", "network", ...)
	Code string
}

// RecognizerOptions configures a recognition stream
type RecognizerOptions struct {
	Language       string
	Continuous     bool
	InterimResults bool
}

// Recognizer is a single recognition stream.
//
// Events are delivered in order and the channel is closed after EventEnd.
// After Stop the recognizer keeps delivering pending results and then
// EventEnd. After Abort nobody reads Events any more; implementations
// must not block on it.
type Recognizer interface {
	Events() <-chan Event
	Start() error
	Stop()
	Abort()
}

// Platform provides the speech engine and microphone access
type Platform interface {
	// Supported reports whether speech recognition is available at all
	Supported() bool

	// RequestMicrophone asks for microphone access. A non-nil error is a denial.
	RequestMicrophone(ctx context.Context) error

	// NewRecognizer creates a recognition stream
	NewRecognizer(opts RecognizerOptions) (Recognizer, error)
}
