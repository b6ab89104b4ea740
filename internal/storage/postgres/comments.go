package postgres

import (
	"context"
	"fmt"

	"github.com/kysclient/IMBA/internal/models"
)

const commentColumns = "id, post_id, user_id, author_name, content, created_at"

func scanComment(row scanner) (models.Comment, error) {
	var c models.Comment

	err := row.Scan(&c.ID, &c.PostID, &c.UserID, &c.AuthorName, &c.Content, &c.CreatedAt)

	return c, err
}

// ListComments returns the comments of postID, oldest first.
func (s *Storage) ListComments(ctx context.Context, postID int64) ([]models.Comment, error) {
	const op = "storage.postgres.ListComments"

	query := `SELECT ` + commentColumns + ` FROM comments WHERE post_id = $1 ORDER BY created_at ASC, id ASC`

	comments, err := collect(ctx, s.db, query, []any{postID}, scanComment)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return comments, nil
}

// SaveComment inserts c. A missing post yields storage.ErrNotFound.
func (s *Storage) SaveComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	const op = "storage.postgres.SaveComment"

	query := `
		INSERT INTO comments (post_id, user_id, author_name, content)
		SELECT id, $2, $3, $4 FROM posts WHERE id = $1
		RETURNING ` + commentColumns

	saved, err := scanComment(s.db.QueryRowContext(ctx, query, c.PostID, c.UserID, c.AuthorName, c.Content))
	if err != nil {
		return models.Comment{}, notFoundOr(op, err)
	}

	return saved, nil
}

func (s *Storage) CommentByID(ctx context.Context, postID, id int64) (models.Comment, error) {
	const op = "storage.postgres.CommentByID"

	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1 AND post_id = $2`

	c, err := scanComment(s.db.QueryRowContext(ctx, query, id, postID))
	if err != nil {
		return models.Comment{}, notFoundOr(op, err)
	}

	return c, nil
}

func (s *Storage) DeleteComment(ctx context.Context, postID, id int64) error {
	const op = "storage.postgres.DeleteComment"

	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1 AND post_id = $2`, id, postID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return notFoundOr(op, affectedOne(res))
}
