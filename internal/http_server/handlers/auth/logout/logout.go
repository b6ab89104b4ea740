package logout

import (
	"net/http"

	"github.com/go-chi/render"

	resp "github.com/kysclient/IMBA/internal/lib/api/response"
)

type CookieRevoker interface {
	Revoke(w http.ResponseWriter)
}

// New clears the session cookie. The credential itself stays valid until it expires.
func New(cookies CookieRevoker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookies.Revoke(w)
		render.JSON(w, r, resp.Message("로그아웃 되었습니다."))
	}
}
