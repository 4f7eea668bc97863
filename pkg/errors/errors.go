package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures by how they are handled and reported.
type ErrorType string

const (
	// ErrorTypeValidation covers malformed parameters and non-matching
	// post links. Local, user-correctable, never retried.
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeUpstreamHTTP is a non-200 response from an upstream
	// service. Carries the numeric status and reason for reporting.
	ErrorTypeUpstreamHTTP ErrorType = "upstream_http"

	// ErrorTypeNetwork is a transport-level failure before any HTTP
	// status was received.
	ErrorTypeNetwork ErrorType = "network"

	// ErrorTypeExtractionGap marks a feed leaf without the expected
	// candidate data. Skipped at item granularity, never aborts a page.
	ErrorTypeExtractionGap ErrorType = "extraction_gap"

	// ErrorTypeTransportDelivery is a batch flush rejected by the chat
	// transport. Delivery continues with the next batch.
	ErrorTypeTransportDelivery ErrorType = "transport_delivery"

	// ErrorTypeConfiguration covers missing or unparseable credentials,
	// such as a cookie without a CSRF token.
	ErrorTypeConfiguration ErrorType = "configuration"
)

// Error is the outcome type used across the engine. Callers branch on
// Type; StatusCode and Reason are populated for upstream HTTP errors.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Reason     string
}

func (e *Error) Error() string {
	if e.Type == ErrorTypeUpstreamHTTP {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// NewValidation creates a local validation error.
func NewValidation(format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeValidation, Message: fmt.Sprintf(format, args...)}
}

// NewUpstreamHTTP creates an error for a non-200 upstream response.
func NewUpstreamHTTP(statusCode int, reason string) *Error {
	return &Error{
		Type:       ErrorTypeUpstreamHTTP,
		Message:    fmt.Sprintf("status code %d: %s", statusCode, reason),
		StatusCode: statusCode,
		Reason:     reason,
	}
}

// NewNetwork creates a transport-level network error.
func NewNetwork(format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeNetwork, Message: fmt.Sprintf(format, args...)}
}

// NewExtractionGap marks a feed leaf that lacked usable candidates.
func NewExtractionGap(format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeExtractionGap, Message: fmt.Sprintf(format, args...)}
}

// NewTransportDelivery creates an error for a rejected batch flush.
func NewTransportDelivery(format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeTransportDelivery, Message: fmt.Sprintf(format, args...)}
}

// NewConfiguration creates a configuration error.
func NewConfiguration(format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeConfiguration, Message: fmt.Sprintf(format, args...)}
}

// IsType reports whether err is an *Error of the given type.
func IsType(err error, t ErrorType) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == t
}

// AsError unwraps err into an *Error when possible.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// IsRetryable reports whether err is worth retrying. Only network-level
// failures qualify; upstream HTTP errors are surfaced to the user instead
// of being retried automatically.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == ErrorTypeNetwork
}
