package httpclient

import (
	"fmt"
	"time"
)

// RetryableError reports that the retry budget was consumed for a request.
type RetryableError struct {
	StatusCode int
	RetryAfter time.Duration
	Message    string
	Err        error
}

func (e *RetryableError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}
