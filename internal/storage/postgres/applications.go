package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kysclient/IMBA/internal/lib/pagination"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/storage"
)

const applicationColumns = "id, user_id, course_type, name, phone, email, motivation, status, created_at"

func scanApplication(row scanner) (models.Application, error) {
	var (
		a      models.Application
		userID sql.NullInt64
		status string
	)

	err := row.Scan(&a.ID, &userID, &a.CourseType, &a.Name, &a.Phone, &a.Email, &a.Motivation, &status, &a.CreatedAt)
	if userID.Valid {
		a.UserID = &userID.Int64
	}
	a.Status = models.ApplicationStatus(status)

	return a, err
}

// SaveApplication inserts app unless an application with the same email and course
// type was created within window. The check and the insert run in one transaction
// holding an advisory lock on (email, course type), so concurrent submissions of the
// same pair are serialised.
func (s *Storage) SaveApplication(ctx context.Context, app models.Application, window time.Duration) (models.Application, error) {
	const op = "storage.postgres.SaveApplication"

	var saved models.Application

	err := s.withTx(ctx, func(tx DBTX) error {
		lockKey := app.Email + "|" + app.CourseType
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
			return err
		}

		var exists bool
		err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM applications
				WHERE email = $1 AND course_type = $2
				AND created_at > NOW() - make_interval(secs => $3)
			)`, app.Email, app.CourseType, window.Seconds()).Scan(&exists)
		if err != nil {
			return err
		}

		if exists {
			return storage.ErrDuplicateApplication
		}

		query := `
			INSERT INTO applications (user_id, course_type, name, phone, email, motivation, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING ` + applicationColumns

		saved, err = scanApplication(tx.QueryRowContext(ctx, query,
			app.UserID, app.CourseType, app.Name, app.Phone, app.Email, app.Motivation, string(models.StatusPending),
		))

		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateApplication) {
			return models.Application{}, err
		}
		return models.Application{}, fmt.Errorf("%s: %w", op, err)
	}

	return saved, nil
}

func (s *Storage) ListApplications(
	ctx context.Context,
	status models.ApplicationStatus,
	page pagination.Page,
) ([]models.Application, int64, error) {
	const op = "storage.postgres.ListApplications"

	q := newListQuery(applicationColumns, "applications", "created_at DESC, id DESC")
	if status != "" {
		q.where("status = ?", string(status))
	}

	apps, total, err := listPage(ctx, s.db, q, page, scanApplication)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return apps, total, nil
}

// UpdateApplicationStatus moves an application to status. Only pending applications
// can change; repeating the current status succeeds without effect.
func (s *Storage) UpdateApplicationStatus(
	ctx context.Context,
	id int64,
	status models.ApplicationStatus,
) (models.Application, error) {
	const op = "storage.postgres.UpdateApplicationStatus"

	var updated models.Application

	err := s.withTx(ctx, func(tx DBTX) error {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT status FROM applications WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if err != nil {
			return err
		}

		if !models.ApplicationStatus(current).CanTransition(status) {
			return storage.ErrStatusTransition
		}

		query := `UPDATE applications SET status = $1 WHERE id = $2 RETURNING ` + applicationColumns

		updated, err = scanApplication(tx.QueryRowContext(ctx, query, string(status), id))

		return err
	})

	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, sql.ErrNoRows):
		return models.Application{}, storage.ErrNotFound
	case errors.Is(err, storage.ErrStatusTransition):
		return models.Application{}, err
	default:
		return models.Application{}, fmt.Errorf("%s: %w", op, err)
	}
}

func (s *Storage) DeleteApplication(ctx context.Context, id int64) error {
	const op = "storage.postgres.DeleteApplication"

	res, err := s.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := affectedOne(res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Stats(ctx context.Context) (models.Stats, error) {
	const op = "storage.postgres.Stats"

	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM applications),
			(SELECT COUNT(*) FROM applications WHERE status = 'pending'),
			(SELECT COUNT(*) FROM applications WHERE status = 'approved'),
			(SELECT COUNT(*) FROM users WHERE created_at > NOW() - INTERVAL '7 days'),
			(SELECT COUNT(*) FROM applications WHERE created_at > NOW() - INTERVAL '7 days')`

	var st models.Stats
	err := s.db.QueryRowContext(ctx, query).Scan(
		&st.TotalUsers,
		&st.TotalApplications,
		&st.PendingApplications,
		&st.ApprovedApplications,
		&st.NewUsersThisWeek,
		&st.NewAppsThisWeek,
	)
	if err != nil {
		return models.Stats{}, fmt.Errorf("%s: %w", op, err)
	}

	return st, nil
}
