package postgres

import (
	"context"
	"fmt"

	"github.com/kysclient/IMBA/internal/lib/pagination"
	"github.com/kysclient/IMBA/internal/models"
)

const (
	galleryColumns = "id, title, category, image_url, link_url, link_label, display_order, created_at"
	galleryOrder   = "display_order ASC, created_at DESC, id DESC"
)

func scanGalleryItem(row scanner) (models.GalleryItem, error) {
	var g models.GalleryItem

	err := row.Scan(&g.ID, &g.Title, &g.Category, &g.ImageURL, &g.LinkURL, &g.LinkLabel, &g.DisplayOrder, &g.CreatedAt)

	return g, err
}

// ListGallery returns all gallery items, optionally restricted to category.
func (s *Storage) ListGallery(ctx context.Context, category string) ([]models.GalleryItem, error) {
	const op = "storage.postgres.ListGallery"

	q := newListQuery(galleryColumns, "gallery", galleryOrder)
	if category != "" {
		q.where("category = ?", category)
	}

	query, args := q.allSQL()

	items, err := collect(ctx, s.db, query, args, scanGalleryItem)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

func (s *Storage) GalleryCategories(ctx context.Context) ([]string, error) {
	const op = "storage.postgres.GalleryCategories"

	categories, err := collect(ctx, s.db, `SELECT DISTINCT category FROM gallery ORDER BY category`, nil,
		func(row scanner) (string, error) {
			var c string
			err := row.Scan(&c)
			return c, err
		})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return categories, nil
}

func (s *Storage) ListGalleryPage(ctx context.Context, page pagination.Page) ([]models.GalleryItem, int64, error) {
	const op = "storage.postgres.ListGalleryPage"

	q := newListQuery(galleryColumns, "gallery", galleryOrder)

	items, total, err := listPage(ctx, s.db, q, page, scanGalleryItem)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return items, total, nil
}

func (s *Storage) SaveGalleryItem(ctx context.Context, g models.GalleryItem) (int64, error) {
	const op = "storage.postgres.SaveGalleryItem"

	query := `
		INSERT INTO gallery (title, category, image_url, link_url, link_label, display_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		g.Title, g.Category, g.ImageURL, g.LinkURL, g.LinkLabel, g.DisplayOrder,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GalleryItemByID(ctx context.Context, id int64) (models.GalleryItem, error) {
	const op = "storage.postgres.GalleryItemByID"

	g, err := scanGalleryItem(s.db.QueryRowContext(ctx, `SELECT `+galleryColumns+` FROM gallery WHERE id = $1`, id))
	if err != nil {
		return models.GalleryItem{}, notFoundOr(op, err)
	}

	return g, nil
}

// UpdateGalleryItem rewrites the item's metadata. When g.ImageURL is empty the stored
// image is kept. The previous image URL is returned so the caller can release a
// replaced file.
func (s *Storage) UpdateGalleryItem(ctx context.Context, g models.GalleryItem) (string, error) {
	const op = "storage.postgres.UpdateGalleryItem"

	var previous string

	err := s.withTx(ctx, func(tx DBTX) error {
		err := tx.QueryRowContext(ctx, `SELECT image_url FROM gallery WHERE id = $1 FOR UPDATE`, g.ID).Scan(&previous)
		if err != nil {
			return err
		}

		query := `
			UPDATE gallery
			SET title = $1, category = $2, image_url = COALESCE(NULLIF($3, ''), image_url),
				link_url = $4, link_label = $5, display_order = $6
			WHERE id = $7`

		_, err = tx.ExecContext(ctx, query,
			g.Title, g.Category, g.ImageURL, g.LinkURL, g.LinkLabel, g.DisplayOrder, g.ID,
		)

		return err
	})
	if err != nil {
		return "", notFoundOr(op, err)
	}

	return previous, nil
}

// DeleteGalleryItem removes the item and returns its image URL.
func (s *Storage) DeleteGalleryItem(ctx context.Context, id int64) (string, error) {
	const op = "storage.postgres.DeleteGalleryItem"

	var imageURL string
	err := s.db.QueryRowContext(ctx, `DELETE FROM gallery WHERE id = $1 RETURNING image_url`, id).Scan(&imageURL)
	if err != nil {
		return "", notFoundOr(op, err)
	}

	return imageURL, nil
}
