package api

import (
	"errors"
	"fmt"
)

// Auth errors.
var (
	// ErrInvalidCredentials is returned by Login when the backend rejects
	// the email/password pair (HTTP 401).
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthenticated is returned when the backend rejects the bearer
	// token (HTTP 401/403). Callers force a sign-out when they see it.
	ErrUnauthenticated = errors.New("not authenticated")
)

// Response errors.
var (
	// ErrInvalidResponse is returned when a 2xx response is missing fields
	// the client depends on.
	ErrInvalidResponse = errors.New("invalid response from server")
)

// Error is a non-2xx response from the backend that is not an auth failure.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Detail)
}
