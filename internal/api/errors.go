package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call
type Kind int

const (
	// KindTransport covers network errors and responses without a structured error body
	KindTransport Kind = iota
	// KindRejected means the server answered with a structured {"error": ...} body
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	default:
		return "transport"
	}
}

// ErrorBody is the structured error payload returned by the service
type ErrorBody struct {
	Error string `json:"error"`
}

// Error is returned by every Client method that fails
type Error struct {
	Op         string
	Method     string
	Path       string
	StatusCode int        // 0 when no response was received
	Body       *ErrorBody // nil unless the server sent a structured error
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Body != nil:
		return fmt.Sprintf("%s: %s %s: %d %s", e.Op, e.Method, e.Path, e.StatusCode, e.Body.Error)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s %s: unexpected status %d", e.Op, e.Method, e.Path, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.Path, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Kind reports whether the failure was a server rejection or a transport problem
func (e *Error) Kind() Kind {
	if e.Body != nil {
		return KindRejected
	}
	return KindTransport
}

// Reason returns the server's message when there is one
func (e *Error) Reason() string {
	if e.Body != nil {
		return e.Body.Error
	}
	return ""
}

// KindOf returns the kind of err, or KindTransport when err is not an *Error
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind()
	}
	return KindTransport
}

// IsNotFound reports whether err is a 404 from the service
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
