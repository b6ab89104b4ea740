package applications

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
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

const (
	msgInvalidStatus = "잘못된 상태값입니다."
	msgNotFound      = "신청을 찾을 수 없습니다."
	msgTransition    = "이미 처리된 신청은 상태를 변경할 수 없습니다."
)

type ApplicationAdmin interface {
	ListApplications(ctx context.Context, status models.ApplicationStatus, page pagination.Page) ([]models.Application, int64, error)
	UpdateApplicationStatus(ctx context.Context, id int64, status models.ApplicationStatus) (models.Application, error)
	DeleteApplication(ctx context.Context, id int64) error
}

type ListResponse struct {
	Applications []models.Application `json:"applications"`
	pagination.Info
}

type UpdateRequest struct {
	Status string `json:"status"`
}

type ApplicationResponse struct {
	Application models.Application `json:"application"`
}

// List pages through applications, newest first. ?status= accepts pending, approved,
// rejected, or all.
func List(log *slog.Logger, apps ApplicationAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.applications.List"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		status, err := models.ParseStatusFilter(r.URL.Query().Get("status"))
		if err != nil {
			resp.Fail(w, r, http.StatusBadRequest, msgInvalidStatus)
			return
		}

		page := pagination.FromRequest(r)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		items, total, err := apps.ListApplications(ctx, status, page)
		if err != nil {
			log.Error("failed to list applications", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, ListResponse{Applications: items, Info: page.Info(total)})
	}
}

func Update(log *slog.Logger, apps ApplicationAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.applications.Update"

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

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			resp.Fail(w, r, http.StatusBadRequest, msgInvalidStatus)
			return
		}

		status, err := models.ParseApplicationStatus(req.Status)
		if err != nil {
			resp.Fail(w, r, http.StatusBadRequest, msgInvalidStatus)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		app, err := apps.UpdateApplicationStatus(ctx, id, status)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				resp.Fail(w, r, http.StatusNotFound, msgNotFound)
			case errors.Is(err, storage.ErrStatusTransition):
				resp.Fail(w, r, http.StatusConflict, msgTransition)
			default:
				log.Error("failed to update application", sl.Err(err))
				resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			}
			return
		}

		log.Info("application status changed", slog.Int64("id", id), slog.String("status", string(status)))

		render.JSON(w, r, ApplicationResponse{Application: app})
	}
}

func Delete(log *slog.Logger, apps ApplicationAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.applications.Delete"

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

		if err := apps.DeleteApplication(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				resp.Fail(w, r, http.StatusNotFound, msgNotFound)
				return
			}
			log.Error("failed to delete application", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, resp.OK())
	}
}
