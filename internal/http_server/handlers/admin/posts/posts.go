package posts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kysclient/IMBA/internal/community"
	postshandler "github.com/kysclient/IMBA/internal/http_server/handlers/posts"
	"github.com/kysclient/IMBA/internal/lib/api/request"
	resp "github.com/kysclient/IMBA/internal/lib/api/response"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/storage"
)

type PostAdmin interface {
	AdminUpdate(ctx context.Context, id int64, patch community.AdminPatch) (models.Post, error)
	AdminDelete(ctx context.Context, id int64) error
}

// UpdateRequest mirrors community.AdminPatch. A body holding only is_pinned toggles
// the pin; anything else is merged onto the stored post, empty strings keeping the
// stored value.
type UpdateRequest struct {
	Category *string `json:"category"`
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	IsPinned *bool   `json:"is_pinned"`
}

func Update(log *slog.Logger, posts PostAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.posts.Update"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := request.ID(r, "id")
		if err != nil {
			resp.Fail(w, r, http.StatusNotFound, postshandler.MsgNotFound)
			return
		}

		var req UpdateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			resp.Fail(w, r, http.StatusBadRequest, resp.MsgBadRequest)
			return
		}

		patch := community.AdminPatch{Title: req.Title, Content: req.Content, IsPinned: req.IsPinned}

		if req.Category != nil {
			category := models.PostCategory("")
			if *req.Category != "" {
				category, err = models.ParsePostCategory(*req.Category)
				if err != nil {
					resp.Fail(w, r, http.StatusBadRequest, resp.MsgBadRequest)
					return
				}
			}
			patch.Category = &category
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		post, err := posts.AdminUpdate(ctx, id, patch)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				resp.Fail(w, r, http.StatusNotFound, postshandler.MsgNotFound)
				return
			}
			log.Error("failed to update post", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, "게시글 수정에 실패했습니다.")
			return
		}

		render.JSON(w, r, postshandler.PostResponse{Post: post})
	}
}

func Delete(log *slog.Logger, posts PostAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.posts.Delete"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := request.ID(r, "id")
		if err != nil {
			resp.Fail(w, r, http.StatusNotFound, postshandler.MsgNotFound)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := posts.AdminDelete(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				resp.Fail(w, r, http.StatusNotFound, postshandler.MsgNotFound)
				return
			}
			log.Error("failed to delete post", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, "게시글 삭제에 실패했습니다.")
			return
		}

		log.Info("post deleted by admin", slog.Int64("id", id))

		render.JSON(w, r, resp.Message(postshandler.MsgDeleted))
	}
}
