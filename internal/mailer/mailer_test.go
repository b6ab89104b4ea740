package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/kysclient/IMBA/internal/lib/jwt"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/models"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func newTestMailer(d dialer) *Mailer {
	return &Mailer{log: sl.NewDiscardLogger(), from: "IMBA <no-reply@imba.or.kr>", dialer: d}
}

func TestRenderPasswordReset(t *testing.T) {
	html, err := RenderPasswordReset("<김민지>", "https://imba.or.kr/reset-password?token=a.b.c")
	require.NoError(t, err)

	assert.Contains(t, html, "&lt;김민지&gt;")
	assert.Contains(t, html, `href="https://imba.or.kr/reset-password?token=a.b.c"`)
	assert.Contains(t, html, "15분")
	assert.Contains(t, html, "IMBA 국제메디컬뷰티협회")
}

func TestHandle_PasswordReset(t *testing.T) {
	d := &fakeDialer{}
	m := newTestMailer(d)

	body, err := json.Marshal(models.Message{
		Email:   "kim@example.com",
		Name:    "김민지",
		Link:    "https://imba.or.kr/reset-password?token=x",
		Purpose: jwt.PurposePasswordReset,
	})
	require.NoError(t, err)

	require.NoError(t, m.Handle(context.Background(), body))
	require.Len(t, d.sent, 1)

	assert.Equal(t, []string{"kim@example.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{resetSubject}, d.sent[0].GetHeader("Subject"))
}

func TestHandle_Errors(t *testing.T) {
	m := newTestMailer(&fakeDialer{})

	err := m.Handle(context.Background(), []byte("{"))
	assert.Error(t, err)

	err = m.Handle(context.Background(), []byte(`{"to":"a@b.c","purpose":"newsletter"}`))
	assert.ErrorIs(t, err, ErrUnknownPurpose)

	m = newTestMailer(&fakeDialer{err: errors.New("smtp down")})
	err = m.Handle(context.Background(), []byte(`{"to":"a@b.c","purpose":"password-reset"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailer.Handle")
}
