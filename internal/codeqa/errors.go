package codeqa

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors returned by Submit when a question is rejected before any network activity.
var (
	ErrInvalidInput = errors.New("question must not be empty")
	ErrTurnInFlight = errors.New("a question is already being answered")
)

// TransportError reports that the answer stream could not be opened: the request failed
// to send, or the server answered with a non-success HTTP status.
type TransportError struct {
	StatusCode int    // 0 when no response was received
	Message    string // server detail or a short description of the failing step
	Cause      error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		if e.Message != "" {
			return fmt.Sprintf("HTTP error, status: %d (%s)", e.StatusCode, e.Message)
		}
		return fmt.Sprintf("HTTP error, status: %d", e.StatusCode)
	}
	if e.Cause != nil {
		if e.Message != "" {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Cause.Error()
	}
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// StreamReadError reports a failure while reading the answer stream after it was opened.
type StreamReadError struct {
	Cause error
}

func (e *StreamReadError) Error() string {
	return "reading answer stream: " + e.Cause.Error()
}

func (e *StreamReadError) Unwrap() error {
	return e.Cause
}

// ErrorText converts a turn failure into the text shown in place of the answer.
//
// Example:
//
//	ErrorText(&TransportError{StatusCode: 500})
//	// "Error: HTTP error, status: 500"
func ErrorText(err error) string {
	switch {
	case err == nil:
		return "Error: An unknown error occurred"
	case errors.Is(err, context.Canceled):
		return "Error: request cancelled"
	default:
		return "Error: " + err.Error()
	}
}
