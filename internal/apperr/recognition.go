package apperr

import "fmt"

// RecognitionKind classifies speech recognition engine errors
type RecognitionKind int

const (
	RecognitionGeneric RecognitionKind = iota
	RecognitionNoSpeech
	RecognitionAborted
	RecognitionPermissionDenied
	RecognitionAudioCapture
	RecognitionNetwork
)

// String returns the string representation of a RecognitionKind
func (k RecognitionKind) String() string {
	switch k {
	case RecognitionNoSpeech:
		return "no-speech"
	case RecognitionAborted:
		return "aborted"
	case RecognitionPermissionDenied:
		return "permission-denied"
	case RecognitionAudioCapture:
		return "audio-capture"
	case RecognitionNetwork:
		return "network"
	default:
		return "generic"
	}
}

// RecognitionError is an error raised by a speech recognition engine
type RecognitionError struct {
	Kind    RecognitionKind
	Code    string // raw engine code
	Message string
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("speech recognition error (%s): %s", e.Code, e.Message)
}

// Fatal reports whether the error should move the capture into the error state.
// No speech and an aborted session are expected outcomes, not failures.
func (e *RecognitionError) Fatal() bool {
	return e.Kind != RecognitionNoSpeech && e.Kind != RecognitionAborted
}

// ClassifyRecognition maps an engine error code to a RecognitionError
func ClassifyRecognition(code string) *RecognitionError {
	switch code {
	case "not-allowed", "service-not-allowed":
		return &RecognitionError{
			Kind:    RecognitionPermissionDenied,
			Code:    code,
			Message: "Microphone access denied. Please allow microphone access and try again.",
		}
	case "no-speech":
		return &RecognitionError{
			Kind:    RecognitionNoSpeech,
			Code:    code,
			Message: "No speech detected. Please speak more clearly.",
		}
	case "aborted":
		return &RecognitionError{
			Kind:    RecognitionAborted,
			Code:    code,
			Message: "Voice recognition was aborted.",
		}
	case "audio-capture":
		return &RecognitionError{
			Kind:    RecognitionAudioCapture,
			Code:    code,
			Message: "Couldn't capture audio. Check your microphone connection.",
		}
	case "network":
		return &RecognitionError{
			Kind:    RecognitionNetwork,
			Code:    code,
			Message: "Network error. Check your internet connection.",
		}
	default:
		return &RecognitionError{
			Kind:    RecognitionGeneric,
			Code:    code,
			Message: "Voice recognition failed. Please try again.",
		}
	}
}
