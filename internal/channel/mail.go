package channel

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/eugenenazirov/sendmessage/internal/transport"
)

// MailRequest is one email to deliver.
type MailRequest struct {
	Server   string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Subject  string
	Body     string
	Verify   bool
	Timeout  time.Duration
}

// MailSender delivers email.
type MailSender interface {
	SendMail(ctx context.Context, req MailRequest) error
}

// SMTPSender talks implicit-TLS SMTP (usually port 465). The login runs as its
// own step so a rejected credential surfaces as *AuthError.
type SMTPSender struct{}

// SendMail composes req as a MIME message and delivers it.
func (SMTPSender) SendMail(ctx context.Context, req MailRequest) error {
	msg, err := composeMail(req)
	if err != nil {
		return &ConfigError{Channel: SMTP, Reason: err.Error(), Err: err}
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = transport.DefaultTimeout
	}
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config: &tls.Config{
			ServerName:         req.Server,
			InsecureSkipVerify: !req.Verify, //nolint:gosec // opted out per channel
		},
	}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(req.Server, strconv.Itoa(req.Port)))
	if err != nil {
		return &transport.NetworkError{Reason: err.Error(), Err: err}
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(timeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return &transport.NetworkError{Reason: err.Error(), Err: err}
	}

	client, err := smtp.NewClient(conn, req.Server)
	if err != nil {
		_ = conn.Close()
		return smtpError(err)
	}
	defer client.Close()

	if err := client.Auth(smtp.PlainAuth("", req.Username, req.Password, req.Server)); err != nil {
		return &AuthError{Channel: SMTP, Err: err}
	}
	if err := client.Mail(req.From); err != nil {
		return smtpError(err)
	}
	for _, to := range req.To {
		if err := client.Rcpt(to); err != nil {
			return smtpError(err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return smtpError(err)
	}
	if _, err := msg.WriteTo(w); err != nil {
		_ = w.Close()
		return smtpError(err)
	}
	if err := w.Close(); err != nil {
		return smtpError(err)
	}
	return smtpError(client.Quit())
}

// composeMail renders req as a UTF-8 text/plain MIME message.
func composeMail(req MailRequest) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(req.From); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	if err := msg.To(req.To...); err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	msg.Subject(req.Subject)
	msg.SetBodyString(mail.TypeTextPlain, req.Body)
	return msg, nil
}

// smtpError maps SMTP reply codes onto StatusError and everything else onto
// NetworkError.
func smtpError(err error) error {
	if err == nil {
		return nil
	}
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return &transport.StatusError{Code: tpErr.Code, Body: tpErr.Msg}
	}
	return &transport.NetworkError{Reason: err.Error(), Err: err}
}
