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
	userColumns = "id, name, email, phone, password_hash, is_admin, created_at"

	constraintUserEmail = "users_email_key"
	constraintUserPhone = "users_phone_key"
)

func scanUser(row scanner) (models.User, error) {
	var (
		u    models.User
		hash string
	)

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &hash, &u.IsAdmin, &u.CreatedAt)
	u.PassHash = []byte(hash)

	return u, err
}

func mapUserErr(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return storage.ErrNotFound
	case violatedConstraint(err) == constraintUserEmail:
		return storage.ErrEmailTaken
	case violatedConstraint(err) == constraintUserPhone:
		return storage.ErrPhoneTaken
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *Storage) SaveUser(ctx context.Context, name, email, phone string, passHash []byte) (models.User, error) {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (name, email, phone, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRowContext(ctx, query, name, email, phone, string(passHash)))
	if err != nil {
		return models.User{}, mapUserErr(op, err)
	}

	return u, nil
}

func (s *Storage) UserByID(ctx context.Context, id int64) (models.User, error) {
	const op = "storage.postgres.UserByID"

	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return models.User{}, mapUserErr(op, err)
	}

	return u, nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.postgres.UserByEmail"

	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return models.User{}, mapUserErr(op, err)
	}

	return u, nil
}

func (s *Storage) UserByPhone(ctx context.Context, phone string) (models.User, error) {
	const op = "storage.postgres.UserByPhone"

	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone))
	if err != nil {
		return models.User{}, mapUserErr(op, err)
	}

	return u, nil
}

// UserByIdentifier finds an account by email or phone, the two login identifiers.
func (s *Storage) UserByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	const op = "storage.postgres.UserByIdentifier"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR phone = $1 ORDER BY id LIMIT 1`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, identifier))
	if err != nil {
		return models.User{}, mapUserErr(op, err)
	}

	return u, nil
}

func (s *Storage) UpdateProfile(ctx context.Context, id int64, name, phone string) (models.User, error) {
	const op = "storage.postgres.UpdateProfile"

	query := `UPDATE users SET name = $1, phone = $2 WHERE id = $3 RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRowContext(ctx, query, name, phone, id))
	if err != nil {
		return models.User{}, mapUserErr(op, err)
	}

	return u, nil
}

func (s *Storage) UpdatePassword(ctx context.Context, id int64, passHash []byte) error {
	const op = "storage.postgres.UpdatePassword"

	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, string(passHash), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := affectedOne(res); err != nil {
		return mapUserErr(op, err)
	}

	return nil
}

func (s *Storage) ListUsers(ctx context.Context, search string, page pagination.Page) ([]models.User, int64, error) {
	const op = "storage.postgres.ListUsers"

	q := newListQuery(userColumns, "users", "created_at DESC, id DESC").
		search(search, "name", "email", "phone")

	users, total, err := listPage(ctx, s.db, q, page, scanUser)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return users, total, nil
}

func (s *Storage) SetAdmin(ctx context.Context, id int64, isAdmin bool) (models.User, error) {
	const op = "storage.postgres.SetAdmin"

	query := `UPDATE users SET is_admin = $1 WHERE id = $2 RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRowContext(ctx, query, isAdmin, id))
	if err != nil {
		return models.User{}, mapUserErr(op, err)
	}

	return u, nil
}

func (s *Storage) DeleteUser(ctx context.Context, id int64) error {
	const op = "storage.postgres.DeleteUser"

	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := affectedOne(res); err != nil {
		return mapUserErr(op, err)
	}

	return nil
}

func (s *Storage) CountUsers(ctx context.Context) (int64, error) {
	const op = "storage.postgres.CountUsers"

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

// SaveAdmin inserts an administrator account. Used to seed an empty database.
func (s *Storage) SaveAdmin(ctx context.Context, name, email, phone string, passHash []byte) (models.User, error) {
	const op = "storage.postgres.SaveAdmin"

	query := `
		INSERT INTO users (name, email, phone, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRowContext(ctx, query, name, email, phone, string(passHash)))
	if err != nil {
		return models.User{}, mapUserErr(op, err)
	}

	return u, nil
}
