package identity

import (
	"errors"
	"net/http"

	resp "github.com/kysclient/IMBA/internal/lib/api/response"
	"github.com/kysclient/IMBA/internal/session"
)

type Resolver interface {
	Resolve(r *http.Request) *session.Identity
}

// Identify resolves the session cookie once and stores the result in the request
// context. Anonymous requests pass through with a nil identity.
func Identify(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := resolver.Resolve(r)
			next.ServeHTTP(w, r.WithContext(session.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireMember answers 401 unless Identify stored an identity.
func RequireMember(next http.Handler) http.Handler {
	return guard(session.Member, next)
}

// RequireAdmin answers 401 for anonymous requests and 403 for non-admin members.
func RequireAdmin(next http.Handler) http.Handler {
	return guard(session.Admin, next)
}

func guard(check func(*session.Identity) (session.Identity, error), next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := check(session.FromContext(r.Context()))
		switch {
		case err == nil:
			next.ServeHTTP(w, r)
		case errors.Is(err, session.ErrForbidden):
			resp.Fail(w, r, http.StatusForbidden, resp.MsgAdminRequired)
		default:
			resp.Fail(w, r, http.StatusUnauthorized, resp.MsgLoginRequired)
		}
	})
}
