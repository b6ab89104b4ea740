package courses

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/kysclient/IMBA/internal/lib/api/request"
	resp "github.com/kysclient/IMBA/internal/lib/api/response"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/lib/pagination"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/storage"
)

const msgNotFound = "과정을 찾을 수 없습니다."

type CourseAdmin interface {
	ListCourses(ctx context.Context, page pagination.Page) ([]models.Course, int64, error)
	SaveCourse(ctx context.Context, c models.Course) (int64, error)
	UpdateCourse(ctx context.Context, c models.Course) error
	DeleteCourse(ctx context.Context, id int64) error
}

// Request is the body of both create and update. IsActive defaults to true when
// omitted.
type Request struct {
	Category     string   `json:"category" validate:"required"`
	Title        string   `json:"title" validate:"required"`
	Level        string   `json:"level" validate:"required"`
	Duration     string   `json:"duration" validate:"required"`
	Price        string   `json:"price" validate:"required"`
	ImageURL     string   `json:"imageUrl" validate:"required"`
	Features     []string `json:"features" validate:"required,min=1"`
	IsActive     *bool    `json:"isActive"`
	DisplayOrder int      `json:"displayOrder"`
}

func (req Request) course(id int64) models.Course {
	return models.Course{
		ID:           id,
		Category:     req.Category,
		Title:        req.Title,
		Level:        req.Level,
		Duration:     req.Duration,
		Price:        req.Price,
		ImageURL:     req.ImageURL,
		Features:     req.Features,
		IsActive:     req.IsActive == nil || *req.IsActive,
		DisplayOrder: req.DisplayOrder,
	}
}

type ListResponse struct {
	Items []models.Course `json:"items"`
	pagination.Info
}

type CreateResponse struct {
	ID int64 `json:"id"`
}

func List(log *slog.Logger, courses CourseAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.courses.List"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		page := pagination.FromRequest(r)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		items, total, err := courses.ListCourses(ctx, page)
		if err != nil {
			log.Error("failed to list courses", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, ListResponse{Items: items, Info: page.Info(total)})
	}
}

func Create(log *slog.Logger, validate *validator.Validate, courses CourseAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.courses.Create"

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

		if err := validate.Struct(req); err != nil {
			resp.Fail(w, r, http.StatusBadRequest, resp.MsgRequired)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		id, err := courses.SaveCourse(ctx, req.course(0))
		if err != nil {
			log.Error("failed to save course", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		log.Info("course created", slog.Int64("id", id))

		render.JSON(w, r, CreateResponse{ID: id})
	}
}

func Update(log *slog.Logger, validate *validator.Validate, courses CourseAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.courses.Update"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := request.ID(r, "id")
		if err != nil {
			resp.Fail(w, r, http.StatusNotFound, msgNotFound)
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			resp.Fail(w, r, http.StatusBadRequest, resp.MsgRequired)
			return
		}

		if err := validate.Struct(req); err != nil {
			resp.Fail(w, r, http.StatusBadRequest, resp.MsgRequired)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := courses.UpdateCourse(ctx, req.course(id)); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				resp.Fail(w, r, http.StatusNotFound, msgNotFound)
				return
			}
			log.Error("failed to update course", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, resp.OK())
	}
}

func Delete(log *slog.Logger, courses CourseAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.courses.Delete"

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

		if err := courses.DeleteCourse(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				resp.Fail(w, r, http.StatusNotFound, msgNotFound)
				return
			}
			log.Error("failed to delete course", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, resp.OK())
	}
}
