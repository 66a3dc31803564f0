package client

import (
	"errors"
	"fmt"
)

// Messages shown to the user for failures that carry no service message.
const (
	MessageUnexpected = "An unexpected error occurred."
	MessageTransport  = "Failed to connect to the server. Please try again."
	MessageMalformed  = "The server returned an unexpected response."
)

var (
	ErrNoFile         = errors.New("client: no file selected")
	ErrSubmitInFlight = errors.New("client: a submission is already in progress")
)

// ServiceError is a non-2xx answer from the analysis endpoint.
type ServiceError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("analysis service returned %d: %s", e.StatusCode, e.Message)
}

// TransportError means the request never produced a readable response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("analysis request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is a 2xx answer whose body is not a valid analysis
// result.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed analysis response: %s: %v", e.Reason, e.Err)
	}
	return "malformed analysis response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// UserMessage maps err to the text displayed in the error alert.
func UserMessage(err error) string {
	var svc *ServiceError
	var transport *TransportError
	var malformed *MalformedResponseError

	switch {
	case errors.As(err, &svc):
		return svc.Message
	case errors.As(err, &transport):
		return MessageTransport
	case errors.As(err, &malformed):
		return MessageMalformed
	default:
		return MessageUnexpected
	}
}
