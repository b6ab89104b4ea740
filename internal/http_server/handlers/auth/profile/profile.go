package profile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/kysclient/IMBA/internal/http_server/handlers/auth/signup"
	resp "github.com/kysclient/IMBA/internal/lib/api/response"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/session"
	"github.com/kysclient/IMBA/internal/storage"
)

const (
	msgUserNotFound = "사용자를 찾을 수 없습니다."
	msgMissing      = "이름과 휴대폰번호를 입력해주세요."
	msgPhoneTaken   = "이미 사용 중인 휴대폰번호입니다."
	msgUpdated      = "프로필이 수정되었습니다."
)

type ProfileService interface {
	Profile(ctx context.Context, userID int64) (models.User, error)
	UpdateProfile(ctx context.Context, userID int64, name, phone string) (models.User, string, error)
}

type GetResponse struct {
	User models.User `json:"user"`
}

type UpdateRequest struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}

func Get(log *slog.Logger, profiles ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.profile.Get"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := session.FromContext(r.Context())
		if id == nil {
			resp.Fail(w, r, http.StatusUnauthorized, resp.MsgLoginRequired)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, err := profiles.Profile(ctx, id.UserID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				resp.Fail(w, r, http.StatusNotFound, msgUserNotFound)
				return
			}
			log.Error("failed to load profile", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, GetResponse{User: user})
	}
}

// Update changes name and phone and re-issues the session cookie so the new name is
// visible on /me immediately.
func Update(
	log *slog.Logger,
	validate *validator.Validate,
	profiles ProfileService,
	cookies signup.CookieWriter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.profile.Update"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := session.FromContext(r.Context())
		if id == nil {
			resp.Fail(w, r, http.StatusUnauthorized, resp.MsgLoginRequired)
			return
		}

		var req UpdateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			resp.Fail(w, r, http.StatusBadRequest, msgMissing)
			return
		}

		req.Name, req.Phone = strings.TrimSpace(req.Name), strings.TrimSpace(req.Phone)

		if err := validate.Struct(req); err != nil {
			resp.Fail(w, r, http.StatusBadRequest, msgMissing)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		_, token, err := profiles.UpdateProfile(ctx, id.UserID, req.Name, req.Phone)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrPhoneTaken):
				resp.Fail(w, r, http.StatusConflict, msgPhoneTaken)
			case errors.Is(err, storage.ErrNotFound):
				resp.Fail(w, r, http.StatusNotFound, msgUserNotFound)
			default:
				log.Error("failed to update profile", sl.Err(err))
				resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			}
			return
		}

		cookies.Attach(w, token)

		render.JSON(w, r, resp.Message(msgUpdated))
	}
}
