package apperr

import "errors"

// Validation fields with a more specific notification title
var validationTitles = map[string]string{
	"file_type": "Invalid File Type",
	"file_size": "File Too Large",
}

// Describe returns the notification title and description for err
func Describe(err error) (title, description string) {
	if err == nil {
		return "", ""
	}

	var (
		validation  *ValidationError
		permission  *PermissionError
		unsupported *UnsupportedPlatformError
		recognition *RecognitionError
		service     *ServiceError
		invalid     *InvalidResponseError
		processing  *ProcessingError
	)

	switch {
	case errors.As(err, &validation):
		if title, ok := validationTitles[validation.Field]; ok {
			return title, validation.Message
		}
		return "Invalid Input", validation.Message
	case errors.As(err, &permission):
		return "Microphone Access Required", "Please allow microphone access to use voice input."
	case errors.As(err, &unsupported):
		return "Speech Recognition Not Supported", unsupported.Message
	case errors.As(err, &recognition):
		return "Voice Input Error", recognition.Message
	case errors.As(err, &processing):
		return "Image Processing Failed", processing.Message
	case errors.As(err, &service):
		return service.Service + " Error", service.Message
	case errors.As(err, &invalid):
		return invalid.Service + " Error", invalid.Error()
	default:
		return "Error", "Something went wrong. Please try again."
	}
}
