package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kysclient/IMBA/internal/lib/api/request"
	resp "github.com/kysclient/IMBA/internal/lib/api/response"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/lib/pagination"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/storage"
)

const msgNotFound = "사용자를 찾을 수 없습니다."

type UserAdmin interface {
	ListUsers(ctx context.Context, search string, page pagination.Page) ([]models.User, int64, error)
	SetAdmin(ctx context.Context, id int64, isAdmin bool) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type ListResponse struct {
	Users []models.User `json:"users"`
	pagination.Info
}

// UpdateRequest uses a pointer so a missing flag is told apart from false.
type UpdateRequest struct {
	IsAdmin *bool `json:"isAdmin"`
}

type UserResponse struct {
	User models.User `json:"user"`
}

func List(log *slog.Logger, users UserAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.users.List"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		page := pagination.FromRequest(r)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		items, total, err := users.ListUsers(ctx, strings.TrimSpace(r.URL.Query().Get("search")), page)
		if err != nil {
			log.Error("failed to list users", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, ListResponse{Users: items, Info: page.Info(total)})
	}
}

// Update grants or revokes administrator rights. The member's current cookie keeps
// its old claims until it expires.
func Update(log *slog.Logger, users UserAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.users.Update"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := request.ID(r, "id")
		if err != nil {
			resp.Fail(w, r, http.StatusNotFound, msgNotFound)
			return
		}

		var req UpdateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil || req.IsAdmin == nil {
			resp.Fail(w, r, http.StatusBadRequest, resp.MsgBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, err := users.SetAdmin(ctx, id, *req.IsAdmin)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				resp.Fail(w, r, http.StatusNotFound, msgNotFound)
				return
			}
			log.Error("failed to update user", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		log.Info("admin flag changed", slog.Int64("uid", id), slog.Bool("is_admin", user.IsAdmin))

		render.JSON(w, r, UserResponse{User: user})
	}
}

func Delete(log *slog.Logger, users UserAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.users.Delete"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := request.ID(r, "id")
		if err != nil {
			resp.Fail(w, r, http.StatusNotFound, msgNotFound)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := users.DeleteUser(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				resp.Fail(w, r, http.StatusNotFound, msgNotFound)
				return
			}
			log.Error("failed to delete user", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		log.Info("user deleted", slog.Int64("uid", id))

		render.JSON(w, r, resp.OK())
	}
}
