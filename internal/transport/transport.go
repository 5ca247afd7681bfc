// Package transport builds the HTTP clients channels send through and turns
// transport failures into typed errors.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// MaxResponseSize caps how much of a response body is kept as the result.
const MaxResponseSize = 64 * 1024

// DefaultTimeout applies when neither the caller nor the channel sets one.
const DefaultTimeout = 10 * time.Second

// Options tunes a single client.
type Options struct {
	// Timeout bounds the whole request. Zero uses the factory default.
	Timeout time.Duration
	// Verify enables TLS certificate verification.
	Verify bool
}

// Factory hands out HTTP clients. Every client owns its transport, so turning
// verification off for one channel never affects another.
type Factory struct {
	timeout time.Duration
}

// NewFactory returns a Factory whose clients time out after timeout.
func NewFactory(timeout time.Duration) *Factory {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Factory{timeout: timeout}
}

// Timeout returns the default request timeout.
func (f *Factory) Timeout() time.Duration {
	return f.timeout
}

// Client builds an *http.Client for opts.
func (f *Factory) Client(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = f.timeout
	}

	tr := cleanhttp.DefaultTransport()
	if !opts.Verify {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opted out per channel
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}
}

// Get issues a GET and returns the response body.
func Get(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	return Do(client, req)
}

// PostJSON marshals payload and POSTs it with the given headers.
func PostJSON(ctx context.Context, client *http.Client, rawURL string, payload any, headers map[string]string) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return Do(client, req)
}

// Do executes req. Network failures come back as *NetworkError, HTTP status
// codes of 400 and above as *StatusError.
func Do(client *http.Client, req *http.Request) (string, error) {
	resp, err := client.Do(req)
	if err != nil {
		return "", &NetworkError{Reason: reason(err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return "", &NetworkError{Reason: reason(err), Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return "", &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	return string(body), nil
}
