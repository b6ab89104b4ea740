package mailer

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/kysclient/IMBA/internal/lib/jwt"
	"github.com/kysclient/IMBA/internal/models"
)

const resetSubject = "[IMBA] 비밀번호 재설정 안내"

var ErrUnknownPurpose = errors.New("unknown message purpose")

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	log    *slog.Logger
	from   string
	dialer dialer
}

func New(log *slog.Logger, host string, port int, username, password, from string) *Mailer {
	if from == "" {
		from = username
	}

	return &Mailer{
		log:    log,
		from:   from,
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

func (m *Mailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.from)
	msg.SetHeader("Subject", subject)

	msg.SetBody("text/html", body)

	return m.dialer.DialAndSend(msg)
}

// Handle decodes a queued models.Message and sends the matching email. It has the
// shape of a queue consumer callback.
func (m *Mailer) Handle(_ context.Context, body []byte) error {
	const op = "mailer.Handle"

	var msg models.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var (
		subject string
		html    string
		err     error
	)

	switch msg.Purpose {
	case jwt.PurposePasswordReset:
		subject = resetSubject
		html, err = RenderPasswordReset(msg.Name, msg.Link)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownPurpose, msg.Purpose)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := m.Send(msg.Email, subject, html); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.log.Info("email sent", slog.String("purpose", msg.Purpose))

	return nil
}

// RenderPasswordReset builds the HTML body of the reset email.
func RenderPasswordReset(name, link string) (string, error) {
	var buf bytes.Buffer

	err := templates.ExecuteTemplate(&buf, "password_reset.html", struct {
		Name      string
		Link      template.URL
		ExpiresIn string
	}{
		Name:      name,
		Link:      template.URL(link),
		ExpiresIn: "15분",
	})
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}
