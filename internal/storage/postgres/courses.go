package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kysclient/IMBA/internal/lib/pagination"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/storage"
)

const (
	courseColumns = "id, category, title, level, duration, price, image_url, features, is_active, display_order, created_at"
	courseOrder   = "display_order ASC, created_at DESC, id DESC"
)

func (s *Storage) scanCourse(row scanner) (models.Course, error) {
	var c models.Course

	err := row.Scan(
		&c.ID, &c.Category, &c.Title, &c.Level, &c.Duration, &c.Price, &c.ImageURL,
		s.types.SQLScanner(&c.Features), &c.IsActive, &c.DisplayOrder, &c.CreatedAt,
	)
	if c.Features == nil {
		c.Features = []string{}
	}

	return c, err
}

// ListActiveCourses returns every active course, optionally restricted to category.
func (s *Storage) ListActiveCourses(ctx context.Context, category string) ([]models.Course, error) {
	const op = "storage.postgres.ListActiveCourses"

	q := newListQuery(courseColumns, "courses", courseOrder).where("is_active = TRUE")
	if category != "" {
		q.where("category = ?", category)
	}

	query, args := q.allSQL()

	courses, err := collect(ctx, s.db, query, args, s.scanCourse)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return courses, nil
}

func (s *Storage) ListCourses(ctx context.Context, page pagination.Page) ([]models.Course, int64, error) {
	const op = "storage.postgres.ListCourses"

	q := newListQuery(courseColumns, "courses", courseOrder)

	courses, total, err := listPage(ctx, s.db, q, page, s.scanCourse)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return courses, total, nil
}

func (s *Storage) SaveCourse(ctx context.Context, c models.Course) (int64, error) {
	const op = "storage.postgres.SaveCourse"

	query := `
		INSERT INTO courses (category, title, level, duration, price, image_url, features, is_active, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		c.Category, c.Title, c.Level, c.Duration, c.Price, c.ImageURL, c.Features, c.IsActive, c.DisplayOrder,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) UpdateCourse(ctx context.Context, c models.Course) error {
	const op = "storage.postgres.UpdateCourse"

	query := `
		UPDATE courses
		SET category = $1, title = $2, level = $3, duration = $4, price = $5, image_url = $6,
			features = $7, is_active = $8, display_order = $9, updated_at = NOW()
		WHERE id = $10`

	res, err := s.db.ExecContext(ctx, query,
		c.Category, c.Title, c.Level, c.Duration, c.Price, c.ImageURL, c.Features, c.IsActive, c.DisplayOrder, c.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return notFoundOr(op, affectedOne(res))
}

func (s *Storage) DeleteCourse(ctx context.Context, id int64) error {
	const op = "storage.postgres.DeleteCourse"

	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return notFoundOr(op, affectedOne(res))
}

// notFoundOr maps sql.ErrNoRows to storage.ErrNotFound and wraps anything else.
func notFoundOr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return storage.ErrNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
