package transport

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// StatusError reports a response status the remote service rejected with.
// SMTP reply codes use it too.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d", e.Code)
}

// NetworkError reports a request that never produced a response: DNS, dial,
// TLS or timeout failures.
type NetworkError struct {
	Reason string
	Err    error
}

func (e *NetworkError) Error() string {
	return e.Reason
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// reason strips the "Get <url>:" prefix net/http adds, since URLs can carry
// tokens.
func reason(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Err != nil {
		return fmt.Sprintf("%s %s: %v", opErr.Op, opErr.Net, opErr.Err)
	}
	return err.Error()
}
