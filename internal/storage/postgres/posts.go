package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kysclient/IMBA/internal/lib/pagination"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/storage"
)

const (
	postColumns = `p.id, p.user_id, p.category, p.title, p.content, p.author_name, p.views, p.is_pinned,
		p.created_at, p.updated_at,
		(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id),
		(SELECT COUNT(*) FROM post_likes pl WHERE pl.post_id = p.id)`

	postOrder      = "p.is_pinned DESC, p.created_at DESC, p.id DESC"
	adminPostOrder = "p.created_at DESC, p.id DESC"
)

func scanPost(row scanner) (models.Post, error) {
	var (
		p        models.Post
		category string
	)

	err := row.Scan(
		&p.ID, &p.UserID, &category, &p.Title, &p.Content, &p.AuthorName, &p.Views, &p.IsPinned,
		&p.CreatedAt, &p.UpdatedAt, &p.CommentCount, &p.LikeCount,
	)
	p.Category = models.PostCategory(category)

	return p, err
}

func (s *Storage) ListPosts(ctx context.Context, f storage.PostFilter, page pagination.Page) ([]models.Post, int64, error) {
	const op = "storage.postgres.ListPosts"

	order := postOrder
	searchColumns := []string{"p.title", "p.content"}
	if f.Admin {
		order = adminPostOrder
		searchColumns = append(searchColumns, "p.author_name")
	}

	q := newListQuery(postColumns, "posts p", order)
	if f.Category != "" {
		q.where("p.category = ?", string(f.Category))
	}
	q.search(f.Search, searchColumns...)

	posts, total, err := listPage(ctx, s.db, q, page, scanPost)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return posts, total, nil
}

func (s *Storage) PostByID(ctx context.Context, id int64) (models.Post, error) {
	const op = "storage.postgres.PostByID"

	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, id))
	if err != nil {
		return models.Post{}, notFoundOr(op, err)
	}

	return p, nil
}

func (s *Storage) IncrementViews(ctx context.Context, id int64) error {
	const op = "storage.postgres.IncrementViews"

	res, err := s.db.ExecContext(ctx, `UPDATE posts SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return notFoundOr(op, affectedOne(res))
}

func (s *Storage) HasLiked(ctx context.Context, postID, userID int64) (bool, error) {
	const op = "storage.postgres.HasLiked"

	var liked bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM post_likes WHERE post_id = $1 AND user_id = $2)`, postID, userID,
	).Scan(&liked)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return liked, nil
}

func (s *Storage) SavePost(ctx context.Context, p models.Post) (models.Post, error) {
	const op = "storage.postgres.SavePost"

	query := `
		INSERT INTO posts AS p (user_id, category, title, content, author_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + postColumns

	saved, err := scanPost(s.db.QueryRowContext(ctx, query,
		p.UserID, string(p.Category), p.Title, p.Content, p.AuthorName,
	))
	if err != nil {
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	return saved, nil
}

// UpdatePost overwrites category, title, content and the pin flag of p.ID.
func (s *Storage) UpdatePost(ctx context.Context, p models.Post) (models.Post, error) {
	const op = "storage.postgres.UpdatePost"

	query := `
		UPDATE posts AS p
		SET category = $1, title = $2, content = $3, is_pinned = $4, updated_at = NOW()
		WHERE p.id = $5
		RETURNING ` + postColumns

	updated, err := scanPost(s.db.QueryRowContext(ctx, query,
		string(p.Category), p.Title, p.Content, p.IsPinned, p.ID,
	))
	if err != nil {
		return models.Post{}, notFoundOr(op, err)
	}

	return updated, nil
}

func (s *Storage) SetPinned(ctx context.Context, id int64, pinned bool) (models.Post, error) {
	const op = "storage.postgres.SetPinned"

	query := `
		UPDATE posts AS p SET is_pinned = $1, updated_at = NOW()
		WHERE p.id = $2
		RETURNING ` + postColumns

	updated, err := scanPost(s.db.QueryRowContext(ctx, query, pinned, id))
	if err != nil {
		return models.Post{}, notFoundOr(op, err)
	}

	return updated, nil
}

func (s *Storage) DeletePost(ctx context.Context, id int64) error {
	const op = "storage.postgres.DeletePost"

	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return notFoundOr(op, affectedOne(res))
}

// ToggleLike flips userID's like on postID and returns the new state with the post's
// like count.
func (s *Storage) ToggleLike(ctx context.Context, postID, userID int64) (bool, int64, error) {
	const op = "storage.postgres.ToggleLike"

	var (
		liked bool
		count int64
	)

	err := s.withTx(ctx, func(tx DBTX) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return sql.ErrNoRows
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if n == 0 {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)
				ON CONFLICT ON CONSTRAINT post_likes_post_user_key DO NOTHING`, postID, userID)
			if err != nil {
				return err
			}
			liked = true
		}

		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM post_likes WHERE post_id = $1`, postID).Scan(&count)
	})
	if err != nil {
		return false, 0, notFoundOr(op, err)
	}

	return liked, count, nil
}
