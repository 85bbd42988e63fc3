package api

import (
	"context"
	"errors"
	"sort"

	"github.com/fishlogapp/fishlog-go/pkg/recordstore"
)

// ErrNotAuthenticated is returned by mutations that require a signed-in user,
// before any network call is made.
var ErrNotAuthenticated = errors.New("user must be authenticated")

// Error is the normalized failure every service returns. Message summarizes
// what went wrong for display; Details carries the backend's field-level
// validation messages when present; IsAbort marks deliberately cancelled
// requests that callers should ignore rather than surface.
type Error struct {
	Message string
	IsAbort bool
	Details map[string][]string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Normalize wraps a raw record-store failure into an *Error. When the backend
// reported field-level detail, the message is extended with the first field's
// first message (fields ordered by name, since the wire map is unordered).
func Normalize(message string, err error) *Error {
	norm := &Error{Message: message, Err: err}

	var re *recordstore.ResponseError
	if errors.As(err, &re) {
		norm.IsAbort = re.IsAbort
		if len(re.Data) > 0 {
			norm.Details = re.Data
			fields := make([]string, 0, len(re.Data))
			for field := range re.Data {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			if msgs := re.Data[fields[0]]; len(msgs) > 0 {
				norm.Message = message + ": " + msgs[0]
			}
		}
		return norm
	}

	if errors.Is(err, context.Canceled) {
		norm.IsAbort = true
	}
	return norm
}

// validationError builds a client-side validation failure for field without
// involving the backend.
func validationError(message, field, detail string) *Error {
	return &Error{
		Message: message + ": " + detail,
		Details: map[string][]string{field: {detail}},
	}
}

// IsAbort reports whether err represents a cancelled request.
func IsAbort(err error) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.IsAbort
	}
	var re *recordstore.ResponseError
	if errors.As(err, &re) {
		return re.IsAbort
	}
	return errors.Is(err, context.Canceled)
}
