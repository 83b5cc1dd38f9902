package apperr

import (
	"fmt"
	"net/http"
)

// ServiceKind classifies a failed remote service call
type ServiceKind int

const (
	ServiceHTTPError ServiceKind = iota
	ServiceUnauthorized
	ServiceRateLimited
	ServiceFailure
)

// String returns the string representation of a ServiceKind
func (k ServiceKind) String() string {
	switch k {
	case ServiceUnauthorized:
		return "unauthorized"
	case ServiceRateLimited:
		return "rate-limited"
	case ServiceFailure:
		return "service-error"
	default:
		return "http-error"
	}
}

// ServiceError reports a failed call to a remote service
type ServiceError struct {
	Service    string // "Translation", "Image processing", "Text-to-speech"
	Kind       ServiceKind
	StatusCode int // 0 for transport failures
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// ClassifyStatus builds a ServiceError from an HTTP status. bodyMessage is the
// service's own error text, used for everything except 401 and 429.
func ClassifyStatus(service string, status int, bodyMessage string) *ServiceError {
	e := &ServiceError{Service: service, StatusCode: status}

	switch {
	case status == http.StatusUnauthorized:
		e.Kind = ServiceUnauthorized
		e.Message = "Invalid API key. The service rejected its OpenAI API key."
	case status == http.StatusTooManyRequests:
		e.Kind = ServiceRateLimited
		e.Message = "Rate limit exceeded. Please try again later."
	case status >= 500:
		e.Kind = ServiceFailure
		e.Message = bodyMessage
		if e.Message == "" {
			e.Message = fmt.Sprintf("%s service error. Please try again later.", service)
		}
	default:
		e.Kind = ServiceHTTPError
		e.Message = bodyMessage
		if e.Message == "" {
			e.Message = fmt.Sprintf("%s failed: %d %s", service, status, http.StatusText(status))
		}
	}

	return e
}

// Transport wraps a network-level failure that never produced a status
func Transport(service string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Kind:    ServiceHTTPError,
		Message: err.Error(),
		Err:     err,
	}
}
