// Package posts serves the community board.
package posts

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

	"github.com/kysclient/IMBA/internal/community"
	"github.com/kysclient/IMBA/internal/lib/api/request"
	resp "github.com/kysclient/IMBA/internal/lib/api/response"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/lib/pagination"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/session"
	"github.com/kysclient/IMBA/internal/storage"
)

const (
	MsgNotFound      = "게시글을 찾을 수 없습니다."
	MsgListFailed    = "게시글 목록을 불러올 수 없습니다."
	MsgDeleted       = "게시글이 삭제되었습니다."
	MsgNoticeAdmin   = "공지사항은 관리자만 작성할 수 있습니다."
	msgFieldsMissing = "카테고리, 제목, 내용을 모두 입력해주세요."
	msgNoEdit        = "수정 권한이 없습니다."
	msgNoDelete      = "삭제 권한이 없습니다."
)

type Forum interface {
	List(ctx context.Context, f storage.PostFilter, page pagination.Page) ([]models.Post, int64, error)
	Get(ctx context.Context, id int64, viewer *session.Identity) (models.PostDetail, error)
	Create(ctx context.Context, author session.Identity, category models.PostCategory, title, content string) (models.Post, error)
	Authorize(ctx context.Context, actor session.Identity, id int64) error
	Update(ctx context.Context, actor session.Identity, id int64, category models.PostCategory, title, content string) (models.Post, error)
	Delete(ctx context.Context, actor session.Identity, id int64) error
	ToggleLike(ctx context.Context, actor session.Identity, postID int64) (bool, int64, error)
}

type Request struct {
	Category string `json:"category" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

type ListResponse struct {
	Posts      []models.Post   `json:"posts"`
	Pagination pagination.Meta `json:"pagination"`
}

type PostResponse struct {
	Post models.Post `json:"post"`
}

type DetailResponse struct {
	Post models.PostDetail `json:"post"`
}

type LikeResponse struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

// List serves both the public board and the admin listing; admin switches on author
// search and plain recency ordering.
func List(log *slog.Logger, forum Forum, admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.posts.List"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		q := r.URL.Query()

		category, err := models.ParseCategoryFilter(q.Get("category"))
		if err != nil {
			resp.Fail(w, r, http.StatusBadRequest, resp.MsgBadRequest)
			return
		}

		page := pagination.FromRequest(r)
		filter := storage.PostFilter{
			Category: category,
			Search:   strings.TrimSpace(q.Get("search")),
			Admin:    admin,
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		posts, total, err := forum.List(ctx, filter, page)
		if err != nil {
			log.Error("failed to list posts", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, MsgListFailed)
			return
		}

		render.JSON(w, r, ListResponse{Posts: posts, Pagination: page.Meta(total)})
	}
}

func Create(log *slog.Logger, validate *validator.Validate, forum Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.posts.Create"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := session.FromContext(r.Context())
		if id == nil {
			resp.Fail(w, r, http.StatusUnauthorized, resp.MsgLoginRequired)
			return
		}

		category, req, ok := decode(w, r, log, validate)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		post, err := forum.Create(ctx, *id, category, req.Title, req.Content)
		if err != nil {
			if errors.Is(err, community.ErrNoticeAdminOnly) {
				resp.Fail(w, r, http.StatusForbidden, MsgNoticeAdmin)
				return
			}
			log.Error("failed to create post", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, PostResponse{Post: post})
	}
}

// Get returns one post and counts the view. Anonymous readers get user_liked=false.
func Get(log *slog.Logger, forum Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.posts.Get"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		postID, err := request.ID(r, "id")
		if err != nil {
			resp.Fail(w, r, http.StatusNotFound, MsgNotFound)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		post, err := forum.Get(ctx, postID, session.FromContext(r.Context()))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				resp.Fail(w, r, http.StatusNotFound, MsgNotFound)
				return
			}
			log.Error("failed to load post", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, DetailResponse{Post: post})
	}
}

func Update(log *slog.Logger, validate *validator.Validate, forum Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.posts.Update"

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
			resp.Fail(w, r, http.StatusNotFound, MsgNotFound)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		// Ownership is checked before the body is read.
		if err := forum.Authorize(ctx, *id, postID); err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				resp.Fail(w, r, http.StatusNotFound, MsgNotFound)
			case errors.Is(err, community.ErrForbidden):
				resp.Fail(w, r, http.StatusForbidden, msgNoEdit)
			default:
				log.Error("failed to authorize post update", sl.Err(err))
				resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			}
			return
		}

		category, req, ok := decode(w, r, log, validate)
		if !ok {
			return
		}

		post, err := forum.Update(ctx, *id, postID, category, req.Title, req.Content)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				resp.Fail(w, r, http.StatusNotFound, MsgNotFound)
			case errors.Is(err, community.ErrForbidden):
				resp.Fail(w, r, http.StatusForbidden, msgNoEdit)
			case errors.Is(err, community.ErrNoticeAdminOnly):
				resp.Fail(w, r, http.StatusForbidden, MsgNoticeAdmin)
			default:
				log.Error("failed to update post", sl.Err(err))
				resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			}
			return
		}

		render.JSON(w, r, PostResponse{Post: post})
	}
}

func Delete(log *slog.Logger, forum Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.posts.Delete"

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
			resp.Fail(w, r, http.StatusNotFound, MsgNotFound)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := forum.Delete(ctx, *id, postID); err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				resp.Fail(w, r, http.StatusNotFound, MsgNotFound)
			case errors.Is(err, community.ErrForbidden):
				resp.Fail(w, r, http.StatusForbidden, msgNoDelete)
			default:
				log.Error("failed to delete post", sl.Err(err))
				resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			}
			return
		}

		log.Info("post deleted", slog.Int64("id", postID))

		render.JSON(w, r, resp.Message(MsgDeleted))
	}
}

func Like(log *slog.Logger, forum Forum) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.posts.Like"

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
			resp.Fail(w, r, http.StatusNotFound, MsgNotFound)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		liked, count, err := forum.ToggleLike(ctx, *id, postID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				resp.Fail(w, r, http.StatusNotFound, MsgNotFound)
				return
			}
			log.Error("failed to toggle like", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, LikeResponse{Liked: liked, LikeCount: count})
	}
}

// decode reads and validates a post body, answering 400 itself on failure.
func decode(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
	validate *validator.Validate,
) (models.PostCategory, Request, bool) {
	var req Request

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		resp.Fail(w, r, http.StatusBadRequest, msgFieldsMissing)
		return "", req, false
	}

	req.Title, req.Content = strings.TrimSpace(req.Title), strings.TrimSpace(req.Content)

	if err := validate.Struct(req); err != nil {
		resp.Fail(w, r, http.StatusBadRequest, msgFieldsMissing)
		return "", req, false
	}

	category, err := models.ParsePostCategory(req.Category)
	if err != nil {
		resp.Fail(w, r, http.StatusBadRequest, resp.MsgBadRequest)
		return "", req, false
	}

	return category, req, true
}
