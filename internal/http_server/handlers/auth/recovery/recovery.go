// Package recovery serves the account recovery endpoints: email lookup by phone,
// reset link request and password reset.
package recovery

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

	"github.com/kysclient/IMBA/internal/auth"
	resp "github.com/kysclient/IMBA/internal/lib/api/response"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/storage"
)

const (
	msgPhoneRequired = "휴대폰번호를 입력해주세요."
	msgNoAccount     = "해당 휴대폰번호로 등록된 계정이 없습니다."
	msgEmailRequired = "이메일을 입력해주세요."
	msgLinkSent      = "해당 이메일로 비밀번호 재설정 링크를 발송했습니다."
	msgResetMissing  = "필수 정보가 누락되었습니다."
	msgLinkInvalid   = "링크가 만료되었거나 유효하지 않습니다. 다시 요청해주세요."
	msgResetDone     = "비밀번호가 성공적으로 변경되었습니다."
)

type Recoverer interface {
	FindEmail(ctx context.Context, phone string) (name, maskedEmail string, err error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type FindEmailRequest struct {
	Phone string `json:"phone" validate:"required"`
}

// FindEmailResponse never carries the full address.
type FindEmailResponse struct {
	Name        string `json:"name"`
	MaskedEmail string `json:"maskedEmail"`
}

type ForgotRequest struct {
	Email string `json:"email" validate:"required"`
}

type ResetRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func FindEmail(log *slog.Logger, validate *validator.Validate, recoverer Recoverer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.recovery.FindEmail"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req FindEmailRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			resp.Fail(w, r, http.StatusBadRequest, msgPhoneRequired)
			return
		}

		req.Phone = strings.TrimSpace(req.Phone)

		if err := validate.Struct(req); err != nil {
			resp.Fail(w, r, http.StatusBadRequest, msgPhoneRequired)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		name, masked, err := recoverer.FindEmail(ctx, req.Phone)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				resp.Fail(w, r, http.StatusNotFound, msgNoAccount)
				return
			}
			log.Error("failed to find email", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, FindEmailResponse{Name: name, MaskedEmail: masked})
	}
}

// Forgot answers with the same message whether or not the address is registered.
// Queueing failures are logged and hidden for the same reason.
func Forgot(log *slog.Logger, validate *validator.Validate, recoverer Recoverer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.recovery.Forgot"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req ForgotRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			resp.Fail(w, r, http.StatusBadRequest, msgEmailRequired)
			return
		}

		req.Email = strings.TrimSpace(req.Email)

		if err := validate.Struct(req); err != nil {
			resp.Fail(w, r, http.StatusBadRequest, msgEmailRequired)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := recoverer.ForgotPassword(ctx, req.Email); err != nil {
			log.Error("failed to queue reset link", sl.Err(err))
		}

		render.JSON(w, r, resp.Message(msgLinkSent))
	}
}

func Reset(log *slog.Logger, validate *validator.Validate, recoverer Recoverer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.recovery.Reset"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req ResetRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			resp.Fail(w, r, http.StatusBadRequest, msgResetMissing)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(err, map[string]string{"required": msgResetMissing}))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		err := recoverer.ResetPassword(ctx, req.Token, req.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidResetToken),
				errors.Is(err, auth.ErrResetTokenUsed),
				errors.Is(err, storage.ErrNotFound):
				resp.Fail(w, r, http.StatusUnauthorized, msgLinkInvalid)
			case errors.Is(err, auth.ErrPasswordTooLong):
				resp.Fail(w, r, http.StatusBadRequest, resp.MsgPasswordLong)
			default:
				log.Error("failed to reset password", sl.Err(err))
				resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			}
			return
		}

		log.Info("password reset")

		render.JSON(w, r, resp.Message(msgResetDone))
	}
}
