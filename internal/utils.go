package internal

import "github.com/google/uuid"

// GenerateEventID creates a short unique ID for a streaming protocol event
// Format: evt_<first 12 chars of a random UUID>
func GenerateEventID() string {
	return "evt_" + uuid.New().String()[:12]
}

// GenerateRequestID creates a unique ID used to correlate a request across logs
func GenerateRequestID() string {
	return uuid.NewString()
}

// Truncate shortens s to at most n runes, appending "..." when it was cut
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
