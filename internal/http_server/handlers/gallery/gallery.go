package gallery

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

const categoryAll = "전체"

type GalleryLister interface {
	ListGallery(ctx context.Context, category string) ([]models.GalleryItem, error)
	GalleryCategories(ctx context.Context) ([]string, error)
}

type Response struct {
	Items      []models.GalleryItem `json:"items"`
	Categories []string             `json:"categories"`
}

// List returns the gallery, optionally narrowed by ?category=, together with every
// category in use.
func List(log *slog.Logger, gallery GalleryLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.gallery.List"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		category := r.URL.Query().Get("category")
		if category == categoryAll {
			category = ""
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		items, err := gallery.ListGallery(ctx, category)
		if err != nil {
			log.Error("failed to list gallery", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		categories, err := gallery.GalleryCategories(ctx)
		if err != nil {
			log.Error("failed to list gallery categories", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, Response{Items: items, Categories: categories})
	}
}
