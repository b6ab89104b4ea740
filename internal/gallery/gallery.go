// Package gallery keeps gallery rows and their image files consistent.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/storage"
	"github.com/kysclient/IMBA/internal/uploads"
)

var ErrImageRequired = errors.New("image file or url required")

type ItemStore interface {
	SaveGalleryItem(ctx context.Context, g models.GalleryItem) (int64, error)
	UpdateGalleryItem(ctx context.Context, g models.GalleryItem) (string, error)
	DeleteGalleryItem(ctx context.Context, id int64) (string, error)
}

// Image is an uploaded file waiting to be stored.
type Image struct {
	Filename string
	Size     int64
	Body     io.Reader
}

type Service struct {
	log   *slog.Logger
	items ItemStore
	files uploads.Store
}

func New(log *slog.Logger, items ItemStore, files uploads.Store) *Service {
	return &Service{log: log, items: items, files: files}
}

// Create stores img (when given) and inserts the row. Without img, item.ImageURL must
// already be set.
func (s *Service) Create(ctx context.Context, item models.GalleryItem, img *Image) (models.GalleryItem, error) {
	const op = "gallery.Create"

	log := s.log.With(slog.String("op", op))

	uploaded := ""
	if img != nil {
		url, err := s.store(ctx, op, img)
		if err != nil {
			return models.GalleryItem{}, err
		}
		uploaded, item.ImageURL = url, url
	}

	if item.ImageURL == "" {
		return models.GalleryItem{}, ErrImageRequired
	}

	id, err := s.items.SaveGalleryItem(ctx, item)
	if err != nil {
		s.release(ctx, log, uploaded)
		return models.GalleryItem{}, fmt.Errorf("%s: %w", op, err)
	}

	item.ID = id
	log.Info("gallery item created", slog.Int64("id", id))

	return item, nil
}

// Update rewrites the row. A new image is written before the row changes; the old file
// is removed only after the row points at the new one, and the new file is removed if
// the row update fails. Without img the stored image is kept unless item.ImageURL
// names a replacement.
func (s *Service) Update(ctx context.Context, item models.GalleryItem, img *Image) (models.GalleryItem, error) {
	const op = "gallery.Update"

	log := s.log.With(slog.String("op", op), slog.Int64("id", item.ID))

	uploaded := ""
	if img != nil {
		url, err := s.store(ctx, op, img)
		if err != nil {
			return models.GalleryItem{}, err
		}
		uploaded, item.ImageURL = url, url
	}

	previous, err := s.items.UpdateGalleryItem(ctx, item)
	if err != nil {
		s.release(ctx, log, uploaded)
		if errors.Is(err, storage.ErrNotFound) {
			return models.GalleryItem{}, storage.ErrNotFound
		}
		return models.GalleryItem{}, fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case item.ImageURL == "":
		item.ImageURL = previous
	case previous != item.ImageURL:
		s.release(ctx, log, previous)
	}

	return item, nil
}

// Delete removes the row, then its image file. A failure to remove the file is only
// logged.
func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "gallery.Delete"

	imageURL, err := s.items.DeleteGalleryItem(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.release(ctx, s.log.With(slog.String("op", op), slog.Int64("id", id)), imageURL)

	return nil
}

func (s *Service) store(ctx context.Context, op string, img *Image) (string, error) {
	url, err := s.files.Save(ctx, img.Filename, img.Size, img.Body)
	if err != nil {
		if errors.Is(err, uploads.ErrUnsupportedType) || errors.Is(err, uploads.ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return url, nil
}

func (s *Service) release(ctx context.Context, log *slog.Logger, url string) {
	if url == "" {
		return
	}

	if err := s.files.Delete(ctx, url); err != nil {
		log.Warn("failed to remove image", slog.String("url", url), sl.Err(err))
	}
}
