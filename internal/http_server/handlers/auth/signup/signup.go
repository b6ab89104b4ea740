package signup

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
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/storage"
)

const (
	msgAllFields  = "모든 필드를 입력해주세요."
	msgEmailTaken = "이미 사용 중인 이메일입니다."
	msgPhoneTaken = "이미 사용 중인 휴대폰번호입니다."
	msgDone       = "회원가입이 완료되었습니다."
)

type Request struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Response struct {
	resp.Response
	User User `json:"user"`
}

type UserRegistrar interface {
	Signup(ctx context.Context, name, email, phone, password string) (models.User, string, error)
}

type CookieWriter interface {
	Attach(w http.ResponseWriter, token string)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	registrar UserRegistrar,
	cookies CookieWriter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.signup.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			resp.Fail(w, r, http.StatusBadRequest, msgAllFields)
			return
		}

		if err := validate.Struct(req); err != nil {
			log.Info("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(err, map[string]string{"required": msgAllFields}))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, token, err := registrar.Signup(ctx, req.Name, req.Email, req.Phone, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrEmailTaken):
				resp.Fail(w, r, http.StatusConflict, msgEmailTaken)
			case errors.Is(err, storage.ErrPhoneTaken):
				resp.Fail(w, r, http.StatusConflict, msgPhoneTaken)
			case errors.Is(err, auth.ErrPasswordTooLong):
				resp.Fail(w, r, http.StatusBadRequest, resp.MsgPasswordLong)
			default:
				log.Error("failed to register user", sl.Err(err))
				resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			}
			return
		}

		cookies.Attach(w, token)

		log.Info("user registered", slog.Int64("uid", user.ID))

		ResponseOK(w, r, user)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, user models.User) {
	render.JSON(w, r, Response{
		Response: resp.Message(msgDone),
		User:     User{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}
