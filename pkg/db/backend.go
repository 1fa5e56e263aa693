package db

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
)

var (
	ErrFetchFailed      = errors.New("fetch failed")
	ErrMutationFailed   = errors.New("mutation failed")
	ErrValidationFailed = errors.New("validation failed")
	ErrStaleResponse    = errors.New("stale response")

	ErrNoEntryFound = errors.New("no entry found")
	ErrNotConfirmed = errors.New("delete not confirmed")
	ErrDisposed     = errors.New("collection disposed")
)

// Kind classifies every error a list controller can surface.
type Kind int

const (
	KindUnknown Kind = iota
	KindFetchFailed
	KindMutationFailed
	KindValidationFailed
	KindStaleResponse
)

func (k Kind) String() string {
	switch k {
	case KindFetchFailed:
		return "fetch failed"
	case KindMutationFailed:
		return "mutation failed"
	case KindValidationFailed:
		return "validation failed"
	case KindStaleResponse:
		return "stale response"
	default:
		return "unknown error"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindFetchFailed:
		return ErrFetchFailed
	case KindMutationFailed:
		return ErrMutationFailed
	case KindValidationFailed:
		return ErrValidationFailed
	case KindStaleResponse:
		return ErrStaleResponse
	}
	return nil
}

// Error is the error type returned at the store and dispatcher boundary.
// errors.Is matches it against the Kind sentinels above as well as any
// wrapped cause.
type Error struct {
	Kind   Kind
	Op     string
	Entity string
	// Status is the HTTP status code, 0 when no response was received.
	Status int
	// Message is the server supplied message, if any.
	Message string
	// Fields holds per-field messages for KindValidationFailed.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" || e.Entity != "" {
		fmt.Fprintf(&b, ": %s", strings.TrimSpace(e.Op+" "+e.Entity))
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf reports the Kind of err, KindUnknown if it is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsStale is true for results that must be dropped silently.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleResponse)
}

// FetchError builds a KindFetchFailed error.
func FetchError(entity string, status int, message string, cause error) *Error {
	return &Error{Kind: KindFetchFailed, Op: "list", Entity: entity, Status: status, Message: message, Err: cause}
}

// MutationError builds a KindMutationFailed error for op.
func MutationError(op, entity string, status int, message string, cause error) *Error {
	return &Error{Kind: KindMutationFailed, Op: op, Entity: entity, Status: status, Message: message, Err: cause}
}

// ValidationError builds a KindValidationFailed error from per-field messages.
func ValidationError(entity string, fields map[string]string) *Error {
	return &Error{Kind: KindValidationFailed, Op: "validate", Entity: entity, Fields: fields}
}

// StaleError builds a KindStaleResponse error.
func StaleError(op, entity string, cause error) *Error {
	return &Error{Kind: KindStaleResponse, Op: op, Entity: entity, Err: cause}
}

// UserMessage returns the text to show for err: the server message when one
// was sent, otherwise a generic message for the error kind.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return "Something went wrong"
	}
	if e.Message != "" {
		return e.Message
	}
	switch e.Kind {
	case KindFetchFailed:
		if e.Status != 0 {
			return fmt.Sprintf("Couldn’t load %s (%s)", e.Entity, http.StatusText(e.Status))
		}
		return fmt.Sprintf("Couldn’t load %s", e.Entity)
	case KindMutationFailed:
		return fmt.Sprintf("Couldn’t %s %s", e.Op, e.Entity)
	case KindValidationFailed:
		return "Please fix the highlighted fields"
	}
	return "Something went wrong"
}

// GenericStatusMessage is the fallback when a non-2xx body carries no error.
func GenericStatusMessage(status int) string {
	return fmt.Sprintf("request failed with status %d", status)
}
