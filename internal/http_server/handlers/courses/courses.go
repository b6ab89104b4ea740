package courses

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	resp "github.com/kysclient/IMBA/internal/lib/api/response"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/models"
)

type CourseLister interface {
	ListActiveCourses(ctx context.Context, category string) ([]models.Course, error)
}

type Response struct {
	Courses []models.Course `json:"courses"`
}

// List returns the active courses, optionally narrowed by ?category=.
func List(log *slog.Logger, courses CourseLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.courses.List"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		items, err := courses.ListActiveCourses(ctx, r.URL.Query().Get("category"))
		if err != nil {
			log.Error("failed to list courses", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, Response{Courses: items})
	}
}
