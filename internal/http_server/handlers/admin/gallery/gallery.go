// Package gallery serves the admin gallery endpoints. Create and update take
// multipart forms with an optional "image" file part.
package gallery

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	gallerysvc "github.com/kysclient/IMBA/internal/gallery"
	"github.com/kysclient/IMBA/internal/lib/api/request"
	resp "github.com/kysclient/IMBA/internal/lib/api/response"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/lib/pagination"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/storage"
	"github.com/kysclient/IMBA/internal/uploads"
)

const (
	msgTitleCategory = "제목과 카테고리는 필수입니다."
	msgUnsupported   = "지원하지 않는 이미지 형식입니다."
	msgTooLarge      = "파일 크기는 10MB 이하여야 합니다."
	msgImageRequired = "이미지를 업로드하거나 URL을 입력해주세요."
	msgNotFound      = "항목을 찾을 수 없습니다."

	formOverhead = 1 << 20
)

type GalleryLister interface {
	ListGalleryPage(ctx context.Context, page pagination.Page) ([]models.GalleryItem, int64, error)
}

type GalleryEditor interface {
	Create(ctx context.Context, item models.GalleryItem, img *gallerysvc.Image) (models.GalleryItem, error)
	Update(ctx context.Context, item models.GalleryItem, img *gallerysvc.Image) (models.GalleryItem, error)
	Delete(ctx context.Context, id int64) error
}

type ListResponse struct {
	Items []models.GalleryItem `json:"items"`
	pagination.Info
}

type CreateResponse struct {
	ID       int64  `json:"id"`
	ImageURL string `json:"imageUrl"`
}

func List(log *slog.Logger, lister GalleryLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.gallery.List"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		page := pagination.FromRequest(r)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		items, total, err := lister.ListGalleryPage(ctx, page)
		if err != nil {
			log.Error("failed to list gallery", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, ListResponse{Items: items, Info: page.Info(total)})
	}
}

func Create(log *slog.Logger, editor GalleryEditor, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.gallery.Create"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		item, img, ok := parseForm(w, r, log, maxBytes)
		if !ok {
			return
		}
		if img != nil {
			defer img.close()
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		created, err := editor.Create(ctx, item, img.image())
		if err != nil {
			if failUpload(w, r, err) {
				return
			}
			log.Error("failed to create gallery item", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, CreateResponse{ID: created.ID, ImageURL: created.ImageURL})
	}
}

// Update rewrites an item. Without a new file or imageUrl the stored image is kept.
func Update(log *slog.Logger, editor GalleryEditor, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.gallery.Update"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := request.ID(r, "id")
		if err != nil {
			resp.Fail(w, r, http.StatusNotFound, msgNotFound)
			return
		}

		item, img, ok := parseForm(w, r, log, maxBytes)
		if !ok {
			return
		}
		if img != nil {
			defer img.close()
		}
		item.ID = id

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		if _, err := editor.Update(ctx, item, img.image()); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				resp.Fail(w, r, http.StatusNotFound, msgNotFound)
				return
			}
			if failUpload(w, r, err) {
				return
			}
			log.Error("failed to update gallery item", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, resp.OK())
	}
}

func Delete(log *slog.Logger, editor GalleryEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.gallery.Delete"

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

		if err := editor.Delete(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				resp.Fail(w, r, http.StatusNotFound, msgNotFound)
				return
			}
			log.Error("failed to delete gallery item", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, resp.OK())
	}
}

type filePart struct {
	file   multipart.File
	header *multipart.FileHeader
}

func (p *filePart) image() *gallerysvc.Image {
	if p == nil {
		return nil
	}

	return &gallerysvc.Image{Filename: p.header.Filename, Size: p.header.Size, Body: p.file}
}

func (p *filePart) close() {
	_ = p.file.Close()
}

// parseForm reads the multipart form shared by create and update and answers 400
// itself when it is unusable.
func parseForm(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
	maxBytes int64,
) (models.GalleryItem, *filePart, bool) {
	if maxBytes <= 0 {
		maxBytes = uploads.MaxBytes
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+formOverhead)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			resp.Fail(w, r, http.StatusBadRequest, msgTooLarge)
			return models.GalleryItem{}, nil, false
		}
		log.Info("failed to parse form", sl.Err(err))
		resp.Fail(w, r, http.StatusBadRequest, resp.MsgBadRequest)
		return models.GalleryItem{}, nil, false
	}

	item := models.GalleryItem{
		Title:     strings.TrimSpace(r.FormValue("title")),
		Category:  strings.TrimSpace(r.FormValue("category")),
		ImageURL:  strings.TrimSpace(r.FormValue("imageUrl")),
		LinkURL:   optional(r.FormValue("linkUrl")),
		LinkLabel: optional(r.FormValue("linkLabel")),
	}
	item.DisplayOrder, _ = strconv.Atoi(r.FormValue("displayOrder"))

	if item.Title == "" || item.Category == "" {
		resp.Fail(w, r, http.StatusBadRequest, msgTitleCategory)
		return models.GalleryItem{}, nil, false
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return item, nil, true
	case err != nil:
		log.Info("failed to read image part", sl.Err(err))
		resp.Fail(w, r, http.StatusBadRequest, resp.MsgBadRequest)
		return models.GalleryItem{}, nil, false
	case header.Size == 0:
		_ = file.Close()
		return item, nil, true
	}

	// An uploaded file wins over an imageUrl field.
	item.ImageURL = ""

	return item, &filePart{file: file, header: header}, true
}

func failUpload(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, uploads.ErrUnsupportedType):
		resp.Fail(w, r, http.StatusBadRequest, msgUnsupported)
	case errors.Is(err, uploads.ErrTooLarge):
		resp.Fail(w, r, http.StatusBadRequest, msgTooLarge)
	case errors.Is(err, gallerysvc.ErrImageRequired):
		resp.Fail(w, r, http.StatusBadRequest, msgImageRequired)
	default:
		return false
	}

	return true
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	return &s
}
