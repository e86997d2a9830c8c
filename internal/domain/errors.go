package domain

import (
	"errors"
	"fmt"
)

var (
	ErrKeyNotFound         = errors.New("key not found")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrAlreadyBootstrapped = errors.New("session already bootstrapped")
	ErrSessionExpired      = errors.New("session expired, please log in again")
	ErrEmptyQuery          = errors.New("query is empty")
	ErrQueryInFlight       = errors.New("a query is already in flight for this conversation")
	ErrStaleResponse       = errors.New("response arrived after its session ended")
)

// AuthError carries the server's rejection reason verbatim.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return e.Reason
}

// TransportError means the backend could not be reached or answered with
// something that is not JSON.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type ResourceFetchError struct {
	Kind ResourceKind
	Err  error
}

func (e *ResourceFetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Kind, e.Err)
}

func (e *ResourceFetchError) Unwrap() error {
	return e.Err
}

// MalformedFieldError is recorded per field and never aborts a record.
type MalformedFieldError struct {
	Field string
	Err   error
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *MalformedFieldError) Unwrap() error {
	return e.Err
}
