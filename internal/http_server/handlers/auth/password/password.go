package password

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/kysclient/IMBA/internal/auth"
	resp "github.com/kysclient/IMBA/internal/lib/api/response"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/session"
	"github.com/kysclient/IMBA/internal/storage"
)

const (
	msgMissing      = "현재 비밀번호와 새 비밀번호를 입력해주세요."
	msgShort        = "새 비밀번호는 8자 이상이어야 합니다."
	msgWrongCurrent = "현재 비밀번호가 일치하지 않습니다."
	msgChanged      = "비밀번호가 변경되었습니다."
)

type Request struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

type PasswordChanger interface {
	ChangePassword(ctx context.Context, userID int64, current, next string) error
}

func New(log *slog.Logger, validate *validator.Validate, changer PasswordChanger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.password.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := session.FromContext(r.Context())
		if id == nil {
			resp.Fail(w, r, http.StatusUnauthorized, resp.MsgLoginRequired)
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			resp.Fail(w, r, http.StatusBadRequest, msgMissing)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(err, map[string]string{
				"required": msgMissing,
				"min":      msgShort,
			}))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		err := changer.ChangePassword(ctx, id.UserID, req.CurrentPassword, req.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrWrongPassword):
				resp.Fail(w, r, http.StatusUnauthorized, msgWrongCurrent)
			case errors.Is(err, auth.ErrPasswordTooLong):
				resp.Fail(w, r, http.StatusBadRequest, resp.MsgPasswordLong)
			case errors.Is(err, storage.ErrNotFound):
				resp.Fail(w, r, http.StatusNotFound, "사용자를 찾을 수 없습니다.")
			default:
				log.Error("failed to change password", sl.Err(err))
				resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			}
			return
		}

		log.Info("password changed", slog.Int64("uid", id.UserID))

		render.JSON(w, r, resp.Message(msgChanged))
	}
}
