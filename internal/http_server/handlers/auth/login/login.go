package login

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
	"github.com/kysclient/IMBA/internal/http_server/handlers/auth/signup"
	resp "github.com/kysclient/IMBA/internal/lib/api/response"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/models"
)

const (
	msgMissing        = "이메일/휴대폰과 비밀번호를 입력해주세요."
	msgUnknownAccount = "등록되지 않은 계정입니다."
	msgWrongPassword  = "비밀번호가 일치하지 않습니다."
	msgDone           = "로그인 성공"
)

// Request carries either an email address or a phone number in Identifier.
type Request struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (models.User, string, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authenticator Authenticator,
	cookies signup.CookieWriter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.login.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			resp.Fail(w, r, http.StatusBadRequest, msgMissing)
			return
		}

		if err := validate.Struct(req); err != nil {
			resp.Fail(w, r, http.StatusBadRequest, msgMissing)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, token, err := authenticator.Login(ctx, req.Identifier, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUnknownAccount):
				resp.Fail(w, r, http.StatusUnauthorized, msgUnknownAccount)
			case errors.Is(err, auth.ErrInvalidCredentials):
				resp.Fail(w, r, http.StatusUnauthorized, msgWrongPassword)
			default:
				log.Error("failed to login user", sl.Err(err))
				resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			}
			return
		}

		cookies.Attach(w, token)

		log.Info("user logged in", slog.Int64("uid", user.ID))

		render.JSON(w, r, signup.Response{
			Response: resp.Message(msgDone),
			User:     signup.User{ID: user.ID, Name: user.Name, Email: user.Email},
		})
	}
}
