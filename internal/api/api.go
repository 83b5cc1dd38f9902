// Package api holds the HTTP surface shared by the polyglot service and
// its clients.
package api

// Endpoint paths
const (
	TranslatePath           = "/translate-multimodal"
	ExtractPath             = "/extract-image-text"
	SpeechPath              = "/text-to-speech"
	TranscriptionStreamPath = "/transcription-stream"
	HealthPath              = "/healthz"
)
