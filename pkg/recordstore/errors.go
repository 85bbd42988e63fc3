package recordstore

import (
	"context"
	"errors"
	"fmt"
)

// ResponseError is the raw failure shape returned by every client method.
// Status and Data are only populated when the backend produced a response;
// transport-level failures carry the underlying error alone.
type ResponseError struct {
	URL     string
	Status  int
	Message string
	// Data maps field names to their validation messages, as reported by the
	// backend for 400-level record failures.
	Data map[string][]string
	// IsAbort is true when the request was cancelled, either through its
	// context or via Client.CancelRequest.
	IsAbort bool
	Err     error
}

func (e *ResponseError) Error() string {
	if e.IsAbort {
		return fmt.Sprintf("recordstore: request to %s aborted", e.URL)
	}
	if e.Status != 0 {
		return fmt.Sprintf("recordstore: %s (status %d)", e.Message, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("recordstore: %s: %v", e.Message, e.Err)
	}
	return "recordstore: " + e.Message
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// newAbortError classifies a transport failure caused by cancellation.
func newAbortError(url string, err error) *ResponseError {
	return &ResponseError{URL: url, Message: "request aborted", IsAbort: true, Err: err}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}
