package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/njprem/fitcity-auth/internal/domain"
)

var resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Password reset</h2>
  <p>Hi {{.Name}},</p>
  <p>We received a request to reset the password for your FitCity account.</p>
  <p><a href="{{.ResetURL}}" style="display:inline-block;padding:12px 24px;background:#4a90e2;color:#fff;text-decoration:none;border-radius:4px;">Reset password</a></p>
  <p>This link expires at {{.Expires}}.</p>
  <p>If you did not request this, ignore this email.</p>
</body>
</html>`))

type PasswordResetMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	useTLS   bool
}

func NewPasswordResetMailer(host, port, username, password, from string, useTLS bool) *PasswordResetMailer {
	return &PasswordResetMailer{
		host:     strings.TrimSpace(host),
		port:     strings.TrimSpace(port),
		username: username,
		password: password,
		from:     strings.TrimSpace(from),
		useTLS:   useTLS,
	}
}

func (m *PasswordResetMailer) SendPasswordReset(ctx context.Context, notice domain.PasswordResetNotice) error {
	if m == nil {
		return errors.New("mailer not configured")
	}
	if m.host == "" || m.port == "" || m.from == "" {
		return errors.New("mailer missing configuration")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	message, err := m.buildMessage(notice)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.username != "" || m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	addr := net.JoinHostPort(m.host, m.port)
	if !m.useTLS {
		return smtp.SendMail(addr, auth, m.from, []string{notice.Email}, message)
	}
	return m.sendTLS(addr, auth, notice.Email, message)
}

func (m *PasswordResetMailer) buildMessage(notice domain.PasswordResetNotice) ([]byte, error) {
	if strings.ContainsAny(notice.Email, "\r\n") {
		return nil, errors.New("invalid recipient address")
	}

	name := notice.Name
	if name == "" {
		name = "there"
	}
	var body bytes.Buffer
	err := resetTemplate.Execute(&body, struct {
		Name     string
		ResetURL string
		Expires  string
	}{
		Name:     name,
		ResetURL: notice.ResetURL,
		Expires:  notice.ExpiresAt.UTC().Format(time.RFC1123),
	})
	if err != nil {
		return nil, fmt.Errorf("render reset email: %w", err)
	}

	message := strings.Builder{}
	message.WriteString(fmt.Sprintf("From: %s\r\n", m.from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", notice.Email))
	message.WriteString("Subject: Reset your FitCity password\r\n")
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	message.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	message.Write(body.Bytes())
	message.WriteString("\r\n")
	return []byte(message.String()), nil
}

// sendTLS delivers over an implicitly encrypted connection (port 465 style),
// which smtp.SendMail does not support.
func (m *PasswordResetMailer) sendTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(m.from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(message); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
