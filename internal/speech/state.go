package speech

// State is the state of a capture session
type State int

const (
	StateIdle State = iota
	StateRequestingPermission
	StateListening
	StateProcessing
	StateComplete
	StateError
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequestingPermission:
		return "requesting-permission"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	case StateComplete:
		return "complete"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Active reports whether a session is in progress
func (s State) Active() bool {
	return s == StateRequestingPermission || s == StateListening || s == StateProcessing
}
