// Package channel implements one Adapter per supported messaging service.
//
// Adapters are stateless: they receive the effective configuration and the
// already built title and body, perform exactly one outbound call (two for the
// WeCom application channel, which fetches an access token first) and return
// the raw response text.
package channel

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/sendmessage/internal/message"
	"github.com/eugenenazirov/sendmessage/internal/tailoring"
	"github.com/eugenenazirov/sendmessage/internal/transport"
)

// Channel names as they appear at the top level of the config file.
const (
	Bark       = "bark"
	ServerChan = "serverchan"
	PushPlus   = "pushplus"
	Iyuu       = "iyuu"
	SMTP       = "smtp"
	DingTalk   = "dingtalk"
	FeiShu     = "feishu"
	WxBot      = "wxbot"
	WxApp      = "wxapp"
	Telegram   = "telegram"
)

// maxBodyLength is the body cap of the channels that enforce one.
const maxBodyLength = 5000

var (
	plainFormat  = message.Format{Delimiter: "\n\n"}
	cappedFormat = message.Format{Delimiter: "\n\n", MaxLength: maxBodyLength}
)

// Adapter translates a built message into one channel's wire format.
type Adapter interface {
	Name() string
	Format() message.Format
	Send(ctx context.Context, cfg tailoring.Values, title, body string) (string, error)
}

// Option configures the dependencies shared by all adapters.
type Option func(*Deps)

// WithClock overrides the time source used for request signatures and token
// expiry, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(d *Deps) {
		d.clock = clock
	}
}

// WithMailSender replaces the SMTP implementation.
func WithMailSender(sender MailSender) Option {
	return func(d *Deps) {
		d.mail = sender
	}
}

// WithTokenCache replaces the WeCom access token cache.
func WithTokenCache(cache TokenCache) Option {
	return func(d *Deps) {
		d.tokens = cache
	}
}

// WithLogger sets the logger adapters report diagnostics to.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Deps) {
		d.logger = logger
	}
}

// Deps carries what adapters need from the outside world.
type Deps struct {
	http   *transport.Factory
	mail   MailSender
	tokens TokenCache
	clock  func() time.Time
	logger *zap.Logger
}

// common holds the settings every channel understands.
type common struct {
	// Verify toggles TLS certificate verification; nil means enabled.
	Verify *bool `yaml:"verify"`
	// Timeout overrides the global request timeout, e.g. "5s".
	Timeout string `yaml:"timeout"`
	// API overrides the base URL of channels with a fixed service host.
	API string `yaml:"api"`
}

func (c common) verify() bool {
	return c.Verify == nil || *c.Verify
}

func (d *Deps) timeout(name string, c common) (time.Duration, error) {
	if strings.TrimSpace(c.Timeout) == "" {
		return d.http.Timeout(), nil
	}
	timeout, err := time.ParseDuration(strings.TrimSpace(c.Timeout))
	if err != nil || timeout <= 0 {
		return 0, &ConfigError{Channel: name, Field: "timeout", Reason: "must be a positive duration"}
	}
	return timeout, nil
}

func (d *Deps) client(name string, c common) (*http.Client, error) {
	timeout, err := d.timeout(name, c)
	if err != nil {
		return nil, err
	}
	if !c.verify() {
		d.logger.Debug("TLS verification disabled", zap.String("channel", name))
	}
	return d.http.Client(transport.Options{Timeout: timeout, Verify: c.verify()}), nil
}

// decode maps the effective configuration onto a channel's settings struct.
func decode(name string, cfg tailoring.Values, out any) error {
	if err := cfg.Decode(out); err != nil {
		return &ConfigError{Channel: name, Reason: err.Error(), Err: err}
	}
	return nil
}

// required takes field name/value pairs and reports the first empty value.
func required(name string, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return &ConfigError{Channel: name, Field: pairs[i], Reason: "is required"}
		}
	}
	return nil
}

// baseURL returns the configured API override or def, with a trailing slash.
func baseURL(c common, def string) string {
	base := def
	if api := strings.TrimSpace(c.API); api != "" {
		base = api
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
