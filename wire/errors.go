package wire

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Request errors
	ErrInvalidRequest = errors.New("wire: invalid request")
	ErrBodyTooLarge   = errors.New("wire: response body exceeds configured limit")

	// Stream errors
	ErrTruncatedStream = errors.New("wire: stream closed without terminal event")
)

// StatusError reports a response whose status the caller did not accept
type StatusError struct {
	Status int     // HTTP status code
	Header *Header // Response headers
	Body   []byte  // Buffered response body
	URL    string  // Final request URL
}

func (e *StatusError) Error() string {
	text := http.StatusText(e.Status)
	if text == "" {
		return fmt.Sprintf("wire: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("wire: unexpected status %d %s", e.Status, text)
}

// IsStatus reports whether err carries a StatusError with the given code
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

// IsPermanentStatus reports whether a status indicates a failure that will
// not change on retry. 4xx statuses are permanent except 429.
func IsPermanentStatus(status int) bool {
	if status == http.StatusTooManyRequests {
		return false
	}
	return status >= 400 && status < 500
}
