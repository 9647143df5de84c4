package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable means the request never got a usable answer: the
	// backend could not be reached, timed out, or sent an unreadable body.
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized marks 401/403 answers.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRejected marks every other non-2xx answer.
	ErrRejected = errors.New("rejected by server")
)

// StatusError is a non-2xx answer from the backend. Message is the
// backend's error message and may be empty when the body carried none.
type StatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Status)
}

// Unwrap lets callers match with errors.Is(err, ErrUnauthorized) or
// errors.Is(err, ErrRejected).
func (e *StatusError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return ErrRejected
	}
}
