package comments

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kysclient/IMBA/internal/community"
	"github.com/kysclient/IMBA/internal/http_server/handlers/posts"
	"github.com/kysclient/IMBA/internal/lib/api/request"
	resp "github.com/kysclient/IMBA/internal/lib/api/response"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/session"
	"github.com/kysclient/IMBA/internal/storage"
)

const (
	msgEmpty    = "댓글 내용을 입력해주세요."
	msgNotFound = "댓글을 찾을 수 없습니다."
	msgNoDelete = "삭제 권한이 없습니다."
	msgDeleted  = "댓글이 삭제되었습니다."
	msgLoadFail = "댓글을 불러올 수 없습니다."
)

type Commenter interface {
	Comments(ctx context.Context, postID int64) ([]models.Comment, error)
	AddComment(ctx context.Context, author session.Identity, postID int64, content string) (models.Comment, error)
	DeleteComment(ctx context.Context, actor session.Identity, postID, commentID int64) error
}

type Request struct {
	Content string `json:"content"`
}

type ListResponse struct {
	Comments []models.Comment `json:"comments"`
}

type CommentResponse struct {
	Comment models.Comment `json:"comment"`
}

// List returns a post's comments, oldest first.
func List(log *slog.Logger, commenter Commenter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.comments.List"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		postID, err := request.ID(r, "id")
		if err != nil {
			resp.Fail(w, r, http.StatusNotFound, posts.MsgNotFound)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		comments, err := commenter.Comments(ctx, postID)
		if err != nil {
			log.Error("failed to list comments", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, msgLoadFail)
			return
		}

		render.JSON(w, r, ListResponse{Comments: comments})
	}
}

func Create(log *slog.Logger, commenter Commenter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.comments.Create"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := session.FromContext(r.Context())
		if id == nil {
			resp.Fail(w, r, http.StatusUnauthorized, resp.MsgLoginRequired)
			return
		}

		postID, err := request.ID(r, "id")
		if err != nil {
			resp.Fail(w, r, http.StatusNotFound, posts.MsgNotFound)
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			resp.Fail(w, r, http.StatusBadRequest, msgEmpty)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		comment, err := commenter.AddComment(ctx, *id, postID, req.Content)
		if err != nil {
			switch {
			case errors.Is(err, community.ErrEmptyComment):
				resp.Fail(w, r, http.StatusBadRequest, msgEmpty)
			case errors.Is(err, storage.ErrNotFound):
				resp.Fail(w, r, http.StatusNotFound, posts.MsgNotFound)
			default:
				log.Error("failed to add comment", sl.Err(err))
				resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			}
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, CommentResponse{Comment: comment})
	}
}

func Delete(log *slog.Logger, commenter Commenter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.comments.Delete"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := session.FromContext(r.Context())
		if id == nil {
			resp.Fail(w, r, http.StatusUnauthorized, resp.MsgLoginRequired)
			return
		}

		postID, err := request.ID(r, "id")
		if err != nil {
			resp.Fail(w, r, http.StatusNotFound, msgNotFound)
			return
		}

		commentID, err := request.ID(r, "commentId")
		if err != nil {
			resp.Fail(w, r, http.StatusNotFound, msgNotFound)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := commenter.DeleteComment(ctx, *id, postID, commentID); err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				resp.Fail(w, r, http.StatusNotFound, msgNotFound)
			case errors.Is(err, community.ErrForbidden):
				resp.Fail(w, r, http.StatusForbidden, msgNoDelete)
			default:
				log.Error("failed to delete comment", sl.Err(err))
				resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			}
			return
		}

		render.JSON(w, r, resp.Message(msgDeleted))
	}
}
