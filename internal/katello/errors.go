package katello

import (
	"errors"
	"fmt"
)

var errInvalidJSON = errors.New("response body is not valid JSON")

// ConnectionError reports a transport-level failure reaching the server:
// DNS, refused connection, TLS handshake, or a cancelled context.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("katello: connect %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// UpstreamError reports a response with a status other than 200 OK.
type UpstreamError struct {
	URL        string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("katello: call to url %s failed with status: %d", e.URL, e.StatusCode)
}

// DecodeError reports a 200 OK response whose body is not JSON.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("katello: decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
