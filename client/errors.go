package client

import (
	"context"
	"errors"
	"fmt"
)

// RequestError is any non-2xx response that was not suppressed by a
// not-found allowance. Body carries the best-effort response text.
type RequestError struct {
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Body)
}

// IsUnauthorized reports whether err is a 401 rejection.
func IsUnauthorized(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Status == 401
}

// IsAborted reports whether err is the caller's own cancellation rather
// than a failure. Aborted requests are normally suppressed from
// user-facing error display.
func IsAborted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
