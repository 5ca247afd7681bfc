package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/eugenenazirov/sendmessage/internal/channel"
	"github.com/eugenenazirov/sendmessage/internal/transport"
)

// Result is the outcome of one channel send.
type Result struct {
	Channel  string
	Response string
	Err      error
}

// Text is the raw response on success and the rendered error otherwise.
func (r Result) Text() string {
	if r.Err != nil {
		return Describe(r.Err)
	}
	return r.Response
}

func (r Result) String() string {
	return r.Channel + ": " + r.Text()
}

// Describe renders a send error the way it is reported to the user.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var (
		cfgErr    *channel.ConfigError
		authErr   *channel.AuthError
		statusErr *transport.StatusError
		netErr    *transport.NetworkError
	)
	switch {
	case errors.As(err, &cfgErr):
		return "Config error: " + cfgErr.Error()
	case errors.As(err, &authErr):
		return "Auth error: " + authErr.Error()
	case errors.As(err, &statusErr):
		return fmt.Sprintf("Error code: %d", statusErr.Code)
	case errors.As(err, &netErr):
		return "Reason: " + netErr.Reason
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Reason: " + err.Error()
	default:
		return "Unknown error: " + err.Error()
	}
}

// Print writes one "channel: result" line per result.
func Print(w io.Writer, results []Result) error {
	for _, r := range results {
		if _, err := fmt.Fprintln(w, r.String()); err != nil {
			return err
		}
	}
	return nil
}
