// Package session issues and verifies the signed cookie credential that carries a
// member's identity between requests.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kysclient/IMBA/internal/lib/jwt"
)

const (
	CookieName = "auth_token"

	defaultTTL      = 7 * 24 * time.Hour
	defaultResetTTL = 15 * time.Minute
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("admin privileges required")
	ErrNoSecret        = errors.New("session secret is not configured")
)

// Identity is the verified content of a session credential.
type Identity struct {
	UserID  int64
	Email   string
	Name    string
	IsAdmin bool
}

type Manager struct {
	secret   []byte
	secure   bool
	ttl      time.Duration
	resetTTL time.Duration
}

// New builds a Manager. An empty secret is rejected. Zero TTLs fall back to seven days
// for sessions and fifteen minutes for reset credentials.
func New(secret string, secure bool, ttl, resetTTL time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	if ttl <= 0 {
		ttl = defaultTTL
	}
	if resetTTL <= 0 {
		resetTTL = defaultResetTTL
	}

	return &Manager{
		secret:   []byte(secret),
		secure:   secure,
		ttl:      ttl,
		resetTTL: resetTTL,
	}, nil
}

func (m *Manager) Issue(id Identity) (string, error) {
	return jwt.NewToken(jwt.UserClaims{
		UserID:  id.UserID,
		Email:   id.Email,
		Name:    id.Name,
		IsAdmin: id.IsAdmin,
	}, m.ttl, m.secret)
}

// Verify decodes a session credential. Reset credentials are not accepted.
func (m *Manager) Verify(token string) (Identity, error) {
	claims, err := jwt.ParseToken(token, m.secret)
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		UserID:  claims.UserID,
		Email:   claims.Email,
		Name:    claims.Name,
		IsAdmin: claims.IsAdmin,
	}, nil
}

// IssueReset signs a single-purpose password-reset credential identified by jti.
func (m *Manager) IssueReset(userID int64, email, jti string) (string, error) {
	return jwt.NewResetToken(userID, email, jti, m.resetTTL, m.secret)
}

func (m *Manager) ParseReset(token string) (*jwt.ResetClaims, error) {
	return jwt.ParseResetToken(token, m.secret)
}

func (m *Manager) ResetTTL() time.Duration {
	return m.resetTTL
}

// Attach stores token in the session cookie.
func (m *Manager) Attach(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Revoke expires the session cookie. Tokens already handed out stay valid until exp.
func (m *Manager) Revoke(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Resolve returns the identity carried by the request cookie. Any failure (missing
// cookie, bad signature, expiry, wrong purpose) yields nil.
func (m *Manager) Resolve(r *http.Request) *Identity {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil
	}

	id, err := m.Verify(c.Value)
	if err != nil {
		return nil
	}

	return &id
}

func (m *Manager) RequireMember(r *http.Request) (Identity, error) {
	return Member(m.Resolve(r))
}

func (m *Manager) RequireAdmin(r *http.Request) (Identity, error) {
	return Admin(m.Resolve(r))
}

// Member returns *id, or ErrUnauthenticated for a nil identity.
func Member(id *Identity) (Identity, error) {
	if id == nil {
		return Identity{}, ErrUnauthenticated
	}

	return *id, nil
}

// Admin is Member plus ErrForbidden for non-admin identities.
func Admin(id *Identity) (Identity, error) {
	member, err := Member(id)
	if err != nil {
		return Identity{}, err
	}

	if !member.IsAdmin {
		return Identity{}, ErrForbidden
	}

	return member, nil
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by the identity middleware, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}
