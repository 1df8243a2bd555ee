package upstream

import "fmt"

// TransportError reports a non-2xx status or a network-level failure.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream transport error: %v", e.Err)
	}
	return fmt.Sprintf("upstream returned status %d", e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError reports an in-band upstream error for the given parameters.
// The upstream signals these alongside HTTP 200, so the body must be
// inspected even on HTTP success.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream API error: %s", e.Message)
}

// RateLimitError reports an in-band quota-exhaustion note.
type RateLimitError struct {
	Note string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("upstream rate limited: %s", e.Note)
}
