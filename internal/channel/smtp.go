package channel

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/sendmessage/internal/message"
	"github.com/eugenenazirov/sendmessage/internal/tailoring"
)

const (
	defaultSMTPPort = 465
	smtpSuccess     = "successful!"
)

// smtpMail delivers the message as an email over implicit-TLS SMTP.
type smtpMail struct {
	deps *Deps
}

type smtpSettings struct {
	common    `yaml:",inline"`
	Server    string     `yaml:"server"`
	Port      int        `yaml:"port"`
	Sender    string     `yaml:"sender"`
	AuthCode  string     `yaml:"authcode"`
	Recipient recipients `yaml:"recipient"`
}

// recipients accepts a single address, a comma separated list or a YAML
// sequence.
type recipients []string

func (r *recipients) UnmarshalYAML(node *yaml.Node) error {
	var raw []string
	switch node.Kind {
	case yaml.ScalarNode:
		raw = strings.Split(node.Value, ",")
	case yaml.SequenceNode:
		if err := node.Decode(&raw); err != nil {
			return err
		}
	default:
		return fmt.Errorf("line %d: recipient must be an address or a list of addresses", node.Line)
	}

	out := make([]string, 0, len(raw))
	for _, addr := range raw {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	*r = out
	return nil
}

func (m *smtpMail) Name() string { return SMTP }

func (m *smtpMail) Format() message.Format { return plainFormat }

func (m *smtpMail) Send(ctx context.Context, cfg tailoring.Values, title, body string) (string, error) {
	var s smtpSettings
	if err := decode(SMTP, cfg, &s); err != nil {
		return "", err
	}
	if err := required(SMTP, "server", s.Server, "sender", s.Sender, "authcode", s.AuthCode); err != nil {
		return "", err
	}
	if len(s.Recipient) == 0 {
		return "", &ConfigError{Channel: SMTP, Field: "recipient", Reason: "is required"}
	}
	if s.Port == 0 {
		s.Port = defaultSMTPPort
	}

	timeout, err := m.deps.timeout(SMTP, s.common)
	if err != nil {
		return "", err
	}

	req := MailRequest{
		Server:   s.Server,
		Port:     s.Port,
		Username: s.Sender,
		Password: s.AuthCode,
		From:     s.Sender,
		To:       s.Recipient,
		Subject:  title,
		Body:     body,
		Verify:   s.verify(),
		Timeout:  timeout,
	}
	if err := m.deps.mail.SendMail(ctx, req); err != nil {
		return "", err
	}
	return smtpSuccess, nil
}
