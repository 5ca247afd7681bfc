package channel

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/eugenenazirov/sendmessage/internal/message"
	"github.com/eugenenazirov/sendmessage/internal/tailoring"
	"github.com/eugenenazirov/sendmessage/internal/transport"
)

type fakeMailSender struct {
	req   MailRequest
	calls int
	err   error
}

func (f *fakeMailSender) SendMail(_ context.Context, req MailRequest) error {
	f.calls++
	f.req = req
	return f.err
}

func smtpConfig() tailoring.Values {
	return tailoring.Values{
		"server":    "smtp.example.com",
		"sender":    "a@example.com",
		"authcode":  "code",
		"recipient": "b@example.com, c@example.com",
	}
}

func TestSMTPBuildsMailRequest(t *testing.T) {
	sender := &fakeMailSender{}
	r := newTestRegistry(t, WithMailSender(sender))

	got, err := send(t, r, SMTP, smtpConfig(), message.New("Backup", "done"))
	if err != nil {
		t.Fatalf("send returned error: %v", err)
	}
	if got != "successful!" {
		t.Fatalf("unexpected response %q", got)
	}

	req := sender.req
	if req.Server != "smtp.example.com" || req.Port != 465 {
		t.Fatalf("unexpected server %s:%d", req.Server, req.Port)
	}
	if req.Username != "a@example.com" || req.Password != "code" || req.From != "a@example.com" {
		t.Fatalf("unexpected credentials %+v", req)
	}
	if len(req.To) != 2 || req.To[0] != "b@example.com" || req.To[1] != "c@example.com" {
		t.Fatalf("unexpected recipients %v", req.To)
	}
	if req.Subject != "Backup" || req.Body != "done\n\n" {
		t.Fatalf("unexpected content %q / %q", req.Subject, req.Body)
	}
	if !req.Verify || req.Timeout != time.Second {
		t.Fatalf("unexpected transport settings verify=%v timeout=%s", req.Verify, req.Timeout)
	}
}

func TestSMTPAcceptsRecipientListAndPort(t *testing.T) {
	sender := &fakeMailSender{}
	r := newTestRegistry(t, WithMailSender(sender))

	cfg := smtpConfig()
	cfg["recipient"] = []any{"b@example.com", " c@example.com "}
	cfg["port"] = 587
	cfg["verify"] = false
	if _, err := send(t, r, SMTP, cfg, message.New("t", "l")); err != nil {
		t.Fatalf("send returned error: %v", err)
	}
	if sender.req.Port != 587 || sender.req.Verify {
		t.Fatalf("unexpected request %+v", sender.req)
	}
	if len(sender.req.To) != 2 || sender.req.To[1] != "c@example.com" {
		t.Fatalf("unexpected recipients %v", sender.req.To)
	}
}

func TestSMTPPassesAuthErrorThrough(t *testing.T) {
	sender := &fakeMailSender{err: &AuthError{Channel: SMTP, Err: errors.New("535 bad credentials")}}
	r := newTestRegistry(t, WithMailSender(sender))

	_, err := send(t, r, SMTP, smtpConfig(), message.New("t", "l"))
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestComposeMail(t *testing.T) {
	msg, err := composeMail(MailRequest{
		From:    "a@example.com",
		To:      []string{"b@example.com"},
		Subject: "Backup",
		Body:    "all done",
	})
	if err != nil {
		t.Fatalf("compose returned error: %v", err)
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Subject: Backup", "all done", "b@example.com", "text/plain", "charset=UTF-8"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in message:\n%s", want, out)
		}
	}
}

func TestSMTPSenderRejectsInvalidSender(t *testing.T) {
	err := SMTPSender{}.SendMail(context.Background(), MailRequest{
		Server: "127.0.0.1",
		Port:   1,
		From:   "not an address",
		To:     []string{"b@example.com"},
	})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestSMTPSenderUnreachableServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	err = SMTPSender{}.SendMail(context.Background(), MailRequest{
		Server:  "127.0.0.1",
		Port:    port,
		From:    "a@example.com",
		To:      []string{"b@example.com"},
		Timeout: time.Second,
	})
	var netErr *transport.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

// smtpSession is what the fake server received.
type smtpSession struct {
	from string
	rcpt []string
	data []string
}

// startFakeSMTP serves one implicit-TLS SMTP session on a loopback port.
func startFakeSMTP(t *testing.T, acceptAuth bool) (int, <-chan smtpSession) {
	t.Helper()

	certSource := httptest.NewTLSServer(nil)
	t.Cleanup(certSource.Close)
	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: certSource.TLS.Certificates})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	done := make(chan smtpSession, 1)
	go func() {
		var session smtpSession
		defer func() { done <- session }()

		conn, err := ln.Accept()
		if err != nil {
			return
		}
		tp := textproto.NewConn(conn)
		defer tp.Close()

		_ = tp.PrintfLine("220 localhost ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			switch strings.ToUpper(fields[0]) {
			case "EHLO", "HELO":
				_ = tp.PrintfLine("250-localhost")
				_ = tp.PrintfLine("250 AUTH PLAIN")
			case "AUTH":
				if acceptAuth {
					_ = tp.PrintfLine("235 2.7.0 Authentication successful")
				} else {
					_ = tp.PrintfLine("535 5.7.8 Authentication credentials invalid")
				}
			case "MAIL":
				session.from = line
				_ = tp.PrintfLine("250 OK")
			case "RCPT":
				session.rcpt = append(session.rcpt, line)
				_ = tp.PrintfLine("250 OK")
			case "DATA":
				_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
				session.data, _ = tp.ReadDotLines()
				_ = tp.PrintfLine("250 OK: queued")
			case "QUIT":
				_ = tp.PrintfLine("221 Bye")
				return
			default:
				_ = tp.PrintfLine("502 Command not implemented")
			}
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port, done
}

func fakeSMTPRequest(port int) MailRequest {
	return MailRequest{
		Server:   "127.0.0.1",
		Port:     port,
		Username: "a@example.com",
		Password: "code",
		From:     "a@example.com",
		To:       []string{"b@example.com"},
		Subject:  "Backup",
		Body:     "disk usage 2K",
		Timeout:  5 * time.Second,
	}
}

func TestSMTPSenderDeliversOverTLS(t *testing.T) {
	port, done := startFakeSMTP(t, true)

	if err := (SMTPSender{}).SendMail(context.Background(), fakeSMTPRequest(port)); err != nil {
		t.Fatalf("send returned error: %v", err)
	}

	session := <-done
	if !strings.Contains(session.from, "<a@example.com>") {
		t.Fatalf("unexpected MAIL FROM %q", session.from)
	}
	if len(session.rcpt) != 1 || !strings.Contains(session.rcpt[0], "<b@example.com>") {
		t.Fatalf("unexpected RCPT %v", session.rcpt)
	}
	data := strings.Join(session.data, "\n")
	if !strings.Contains(data, "Subject: Backup") || !strings.Contains(data, "disk usage 2K") {
		t.Fatalf("unexpected DATA:\n%s", data)
	}
}

func TestSMTPSenderRejectedLoginIsAuthError(t *testing.T) {
	port, done := startFakeSMTP(t, false)

	err := SMTPSender{}.SendMail(context.Background(), fakeSMTPRequest(port))
	<-done

	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Channel != SMTP {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestSMTPErrorMapping(t *testing.T) {
	if smtpError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}

	var statusErr *transport.StatusError
	if err := smtpError(&textproto.Error{Code: 550, Msg: "mailbox unavailable"}); !errors.As(err, &statusErr) || statusErr.Code != 550 {
		t.Fatalf("expected StatusError 550, got %v", err)
	}

	var netErr *transport.NetworkError
	if err := smtpError(errors.New("connection reset")); !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}
