package gateway

import (
	"errors"
	"fmt"
)

// Error kinds. Every gateway error matches exactly one of them with errors.Is.
var (
	ErrNetwork    = errors.New("network error")
	ErrServer     = errors.New("server error")
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

// NetworkError reports a transport failure where no usable response arrived.
type NetworkError struct {
	Op        string
	RequestID string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request %s failed: %v", e.Op, e.RequestID, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ServerError reports a non-success response.
type ServerError struct {
	Op        string
	RequestID string
	Status    int
	Message   string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: api returned status %d (request %s)", e.Op, e.Status, e.RequestID)
	}
	return fmt.Sprintf("%s: api returned status %d: %s (request %s)", e.Op, e.Status, e.Message, e.RequestID)
}

func (e *ServerError) Is(target error) bool { return target == ErrServer }

// ValidationError reports a payload the server rejected.
type ValidationError struct {
	Op      string
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: rejected by server (status %d)", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: rejected by server: %s", e.Op, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an id that no longer exists server-side.
type NotFoundError struct {
	Op string
	ID ID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: question %s not found", e.Op, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
