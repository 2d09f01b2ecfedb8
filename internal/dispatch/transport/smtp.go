package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/corvusHold/postal/internal/dispatch/domain"
)

// SMTPTransport sends one message per SMTP session. The value is built
// once per dispatch run; auth and connection failures surface to the
// engine unretried.
type SMTPTransport struct {
	host     string
	port     int
	ssl      bool
	from     string
	username string
	password string
	timeout  time.Duration
}

func (t *SMTPTransport) addr() string {
	return net.JoinHostPort(t.host, fmt.Sprintf("%d", t.port))
}

func (t *SMTPTransport) Send(ctx context.Context, msg domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if !t.ssl {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: t.host}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}
	if auth := t.auth(client); auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(t.from); err != nil {
		return err
	}
	if err := client.Rcpt(msg.To.Email); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	body, err := buildMessage(t.from, msg)
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// dial opens the connection within the configured timeout and pins a
// deadline on the socket for the whole session.
func (t *SMTPTransport) dial(ctx context.Context) (*smtp.Client, error) {
	d := net.Dialer{Timeout: t.timeout}
	raw, err := d.DialContext(ctx, "tcp", t.addr())
	if err != nil {
		return nil, err
	}
	_ = raw.SetDeadline(time.Now().Add(t.timeout))

	conn := raw
	if t.ssl {
		tlsConn := tls.Client(raw, &tls.Config{ServerName: t.host})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			raw.Close()
			return nil, err
		}
		conn = tlsConn
	}
	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return client, nil
}

func (t *SMTPTransport) auth(client *smtp.Client) smtp.Auth {
	if t.username == "" {
		return nil
	}
	if ok, mechs := client.Extension("AUTH"); ok {
		switch {
		case contains(mechs, "PLAIN"):
			return smtp.PlainAuth("", t.username, t.password, t.host)
		case contains(mechs, "LOGIN"):
			return &loginAuth{username: t.username, password: t.password}
		case contains(mechs, "CRAM-MD5"):
			return smtp.CRAMMD5Auth(t.username, t.password)
		}
	}
	return smtp.PlainAuth("", t.username, t.password, t.host)
}

func contains(mechs, want string) bool {
	for _, m := range strings.Fields(mechs) {
		if m == want {
			return true
		}
	}
	return false
}

func (t *SMTPTransport) Close() error { return nil }

// loginAuth implements the legacy LOGIN mechanism some providers still
// require instead of PLAIN.
type loginAuth struct {
	username string
	password string
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", []byte{}, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch string(fromServer) {
	case "Username:":
		return []byte(a.username), nil
	case "Password:":
		return []byte(a.password), nil
	}
	return nil, errors.New("unexpected server challenge")
}
