package me

import (
	"net/http"

	"github.com/go-chi/render"

	resp "github.com/kysclient/IMBA/internal/lib/api/response"
	"github.com/kysclient/IMBA/internal/session"
)

type Claims struct {
	UserID  int64  `json:"userId"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

type Response struct {
	User Claims `json:"user"`
}

// New echoes the claims of the session credential without touching the store, so a
// renamed account keeps its old name here until the cookie is re-issued.
func New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := session.FromContext(r.Context())
		if id == nil {
			resp.Fail(w, r, http.StatusUnauthorized, resp.MsgLoginRequired)
			return
		}

		render.JSON(w, r, Response{User: Claims{
			UserID:  id.UserID,
			Email:   id.Email,
			Name:    id.Name,
			IsAdmin: id.IsAdmin,
		}})
	}
}
