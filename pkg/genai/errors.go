package genai

import (
	"errors"
	"fmt"
)

// TransientError is a server-side (5xx) failure. The same request is
// expected to succeed on retry.
type TransientError struct {
	Status int
	Body   string
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("genai: server error %d: %s", e.Status, e.Body)
}

// FatalError is a non-retryable upstream failure: bad request, bad
// credentials, unknown model. Retrying with the same request cannot
// help.
type FatalError struct {
	Status int
	Body   string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("genai: request rejected %d: %s", e.Status, e.Body)
}

// ErrSessionClosed marks a live session torn down by a transport drop
// or server-side close.
var ErrSessionClosed = errors.New("genai: live session closed")

// classifyStatus maps an HTTP status to the error kind the retry
// policy understands.
func classifyStatus(status int, body []byte) error {
	if status >= 500 {
		return &TransientError{Status: status, Body: truncate(string(body), 200)}
	}
	return &FatalError{Status: status, Body: truncate(string(body), 200)}
}

// IsTransient reports whether err is a retryable upstream failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsAuth reports whether err is a credential failure. Auth failures
// terminate the control loop instead of degrading tick by tick.
func IsAuth(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe) && (fe.Status == 401 || fe.Status == 403)
}

// truncate shortens a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
