package channel

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/sendmessage/internal/message"
	"github.com/eugenenazirov/sendmessage/internal/tailoring"
	"github.com/eugenenazirov/sendmessage/internal/transport"
)

var fixedNow = time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)

// capturedRequest is what a fake service saw.
type capturedRequest struct {
	Method      string
	EscapedPath string
	RawQuery    string
	Header      http.Header
	Body        []byte
}

// recordingServer answers every request with reply and keeps what it saw.
type recordingServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []capturedRequest
}

func newRecordingServer(t *testing.T, status int, reply string) *recordingServer {
	t.Helper()

	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		rs.mu.Lock()
		rs.requests = append(rs.requests, capturedRequest{
			Method:      r.Method,
			EscapedPath: r.URL.EscapedPath(),
			RawQuery:    r.URL.RawQuery,
			Header:      r.Header.Clone(),
			Body:        body,
		})
		rs.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) only(t *testing.T) capturedRequest {
	t.Helper()
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if len(rs.requests) != 1 {
		t.Fatalf("expected exactly one request, got %d", len(rs.requests))
	}
	return rs.requests[0]
}

func newTestRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(zaptest.NewLogger(t)),
	}, opts...)
	return NewRegistry(transport.NewFactory(time.Second), opts...)
}

// send builds msg the way the channel formats it and pushes it.
func send(t *testing.T, r *Registry, name string, cfg tailoring.Values, msg message.Message) (string, error) {
	t.Helper()
	adapter, ok := r.Lookup(name)
	if !ok {
		t.Fatalf("adapter %s not registered", name)
	}
	resolved := tailoring.Resolve(cfg, msg.Title)
	title, body := message.Build(msg, adapter.Format())
	return adapter.Send(context.Background(), resolved, title, body)
}

func TestRegistryKnowsAllChannels(t *testing.T) {
	r := newTestRegistry(t)

	want := []string{Bark, ServerChan, PushPlus, Iyuu, SMTP, DingTalk, FeiShu, WxBot, WxApp, Telegram}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("expected %d channels, got %v", len(want), got)
	}
	for i, name := range want {
		if got[i] != name {
			t.Fatalf("expected %s at position %d, got %s", name, i, got[i])
		}
		if _, ok := r.Lookup(name); !ok {
			t.Fatalf("expected %s to be registered", name)
		}
	}
	if _, ok := r.Lookup("carrier-pigeon"); ok {
		t.Fatalf("unexpected adapter for unknown channel")
	}
}

func TestFormatsPerChannel(t *testing.T) {
	r := newTestRegistry(t)

	tests := map[string]message.Format{
		Bark:       {Delimiter: "\n", MaxLength: 5000},
		ServerChan: {Delimiter: "\n\n"},
		PushPlus:   {Delimiter: "\n\n"},
		Iyuu:       {Delimiter: "\n\n"},
		SMTP:       {Delimiter: "\n\n"},
		DingTalk:   {Delimiter: "\n\n", MaxLength: 5000},
		FeiShu:     {Delimiter: "\n\n", MaxLength: 5000},
		WxBot:      {Delimiter: "\n\n", MaxLength: 5000},
		WxApp:      {Delimiter: "\n\n", MaxLength: 5000},
		Telegram:   {Delimiter: "\n\n"},
	}
	for name, want := range tests {
		adapter, _ := r.Lookup(name)
		if got := adapter.Format(); got != want {
			t.Fatalf("%s: expected format %+v, got %+v", name, want, got)
		}
	}
}

func TestMissingRequiredFieldIsConfigError(t *testing.T) {
	r := newTestRegistry(t, WithMailSender(&fakeMailSender{}))
	msg := message.New("t", "l")

	for _, name := range r.Names() {
		_, err := send(t, r, name, tailoring.Values{}, msg)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("%s: expected ConfigError for empty config, got %v", name, err)
		}
		if cfgErr.Channel != name {
			t.Fatalf("%s: config error names channel %q", name, cfgErr.Channel)
		}
	}
}

func TestInvalidTimeoutIsConfigError(t *testing.T) {
	r := newTestRegistry(t)
	_, err := send(t, r, Telegram, tailoring.Values{"token": "T", "chatid": 1, "timeout": "soon"}, message.New("t", "l"))

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "timeout" {
		t.Fatalf("expected timeout ConfigError, got %v", err)
	}
}

func TestStatusErrorPropagates(t *testing.T) {
	srv := newRecordingServer(t, http.StatusForbidden, "denied")
	r := newTestRegistry(t)

	_, err := send(t, r, WxBot, tailoring.Values{"url": srv.URL}, message.New("t", "l"))

	var statusErr *transport.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 StatusError, got %v", err)
	}
}

func TestVerifyFalseReachesSelfSignedServer(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()
	r := newTestRegistry(t)

	got, err := send(t, r, WxBot, tailoring.Values{"url": srv.URL, "verify": false}, message.New("t", "l"))
	if err != nil || got != "ok" {
		t.Fatalf("expected success with verify disabled, got %q, %v", got, err)
	}

	_, err = send(t, r, WxBot, tailoring.Values{"url": srv.URL}, message.New("t", "l"))
	var netErr *transport.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected certificate failure with verify enabled, got %v", err)
	}
}
