package applications

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

	resp "github.com/kysclient/IMBA/internal/lib/api/response"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/session"
	"github.com/kysclient/IMBA/internal/storage"
)

const (
	msgDuplicate = "이미 동일한 과정에 신청 이력이 있습니다. (30일 이내)"
	msgReceived  = "수강 신청이 접수되었습니다."
)

type Request struct {
	CourseType string `json:"courseType" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Email      string `json:"email" validate:"required"`
	Motivation string `json:"motivation"`
}

func (req *Request) trim() {
	req.CourseType = strings.TrimSpace(req.CourseType)
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	req.Motivation = strings.TrimSpace(req.Motivation)
}

type Submitter interface {
	Submit(
		ctx context.Context,
		userID *int64,
		courseType, name, phone, email, motivation string,
	) (models.Application, error)
}

// Submit accepts an application from anyone. A signed-in member is linked to it.
func Submit(log *slog.Logger, validate *validator.Validate, submitter Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.applications.Submit"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			resp.Fail(w, r, http.StatusBadRequest, resp.MsgRequired)
			return
		}

		req.trim()

		if err := validate.Struct(req); err != nil {
			resp.Fail(w, r, http.StatusBadRequest, resp.MsgRequired)
			return
		}

		var userID *int64
		if id := session.FromContext(r.Context()); id != nil {
			uid := id.UserID
			userID = &uid
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		_, err := submitter.Submit(ctx, userID, req.CourseType, req.Name, req.Phone, req.Email, req.Motivation)
		if err != nil {
			if errors.Is(err, storage.ErrDuplicateApplication) {
				resp.Fail(w, r, http.StatusConflict, msgDuplicate)
				return
			}
			log.Error("failed to submit application", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, resp.Message(msgReceived))
	}
}
