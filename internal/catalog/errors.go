package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingEntry means the response did not contain the requested app id.
	ErrMissingEntry = errors.New("response has no entry for app")
	// ErrRemoteFailure means the store answered with success=false.
	ErrRemoteFailure = errors.New("store reported failure")
	// ErrMissingPayload means the entry reported success but carried no data.
	ErrMissingPayload = errors.New("entry has no data")
)

// maxBodyInMessage bounds how much of the raw body Error() renders.
const maxBodyInMessage = 2048

// ResponseFormatError reports a body that could not be decoded into the
// appdetails envelope. Body holds the raw response for diagnostics.
type ResponseFormatError struct {
	AppID      uint64
	StatusCode int
	Body       string
	Err        error
}

func (e *ResponseFormatError) Error() string {
	body := e.Excerpt()
	if e.Err != nil {
		return fmt.Sprintf("app %d: unexpected response (status %d): %v: %s", e.AppID, e.StatusCode, e.Err, body)
	}
	return fmt.Sprintf("app %d: unexpected response (status %d): %s", e.AppID, e.StatusCode, body)
}

func (e *ResponseFormatError) Unwrap() error { return e.Err }

// Excerpt returns Body cut to the size rendered by Error.
func (e *ResponseFormatError) Excerpt() string {
	if len(e.Body) <= maxBodyInMessage {
		return e.Body
	}
	return e.Body[:maxBodyInMessage] + "…"
}
