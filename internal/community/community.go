// Package community implements the forum: posts, comments and likes, with the
// owner-or-admin write rules.
package community

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kysclient/IMBA/internal/lib/pagination"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/session"
	"github.com/kysclient/IMBA/internal/storage"
)

var (
	ErrForbidden       = errors.New("not the owner")
	ErrNoticeAdminOnly = errors.New("notice category is admin only")
	ErrEmptyComment    = errors.New("empty comment")
)

type PostStore interface {
	ListPosts(ctx context.Context, f storage.PostFilter, page pagination.Page) ([]models.Post, int64, error)
	PostByID(ctx context.Context, id int64) (models.Post, error)
	IncrementViews(ctx context.Context, id int64) error
	HasLiked(ctx context.Context, postID, userID int64) (bool, error)
	SavePost(ctx context.Context, p models.Post) (models.Post, error)
	UpdatePost(ctx context.Context, p models.Post) (models.Post, error)
	SetPinned(ctx context.Context, id int64, pinned bool) (models.Post, error)
	DeletePost(ctx context.Context, id int64) error
	ToggleLike(ctx context.Context, postID, userID int64) (bool, int64, error)
}

type CommentStore interface {
	ListComments(ctx context.Context, postID int64) ([]models.Comment, error)
	SaveComment(ctx context.Context, c models.Comment) (models.Comment, error)
	CommentByID(ctx context.Context, postID, id int64) (models.Comment, error)
	DeleteComment(ctx context.Context, postID, id int64) error
}

type Service struct {
	log      *slog.Logger
	posts    PostStore
	comments CommentStore
}

func New(log *slog.Logger, posts PostStore, comments CommentStore) *Service {
	return &Service{log: log, posts: posts, comments: comments}
}

// AdminPatch is a partial post update. Nil fields keep their stored value.
type AdminPatch struct {
	Category *models.PostCategory
	Title    *string
	Content  *string
	IsPinned *bool
}

// PinOnly reports whether the patch only toggles the pin flag.
func (p AdminPatch) PinOnly() bool {
	return p.IsPinned != nil && p.Category == nil && p.Title == nil && p.Content == nil
}

func (s *Service) List(ctx context.Context, f storage.PostFilter, page pagination.Page) ([]models.Post, int64, error) {
	const op = "community.List"

	posts, total, err := s.posts.ListPosts(ctx, f, page)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return posts, total, nil
}

// Get returns a post and counts the view. viewer may be nil.
func (s *Service) Get(ctx context.Context, id int64, viewer *session.Identity) (models.PostDetail, error) {
	const op = "community.Get"

	if err := s.posts.IncrementViews(ctx, id); err != nil {
		return models.PostDetail{}, wrap(op, err)
	}

	post, err := s.posts.PostByID(ctx, id)
	if err != nil {
		return models.PostDetail{}, wrap(op, err)
	}

	detail := models.PostDetail{Post: post}

	if viewer != nil {
		detail.UserLiked, err = s.posts.HasLiked(ctx, id, viewer.UserID)
		if err != nil {
			return models.PostDetail{}, wrap(op, err)
		}
	}

	return detail, nil
}

func (s *Service) Create(
	ctx context.Context,
	author session.Identity,
	category models.PostCategory,
	title, content string,
) (models.Post, error) {
	const op = "community.Create"

	if category.AdminOnly() && !author.IsAdmin {
		return models.Post{}, ErrNoticeAdminOnly
	}

	post, err := s.posts.SavePost(ctx, models.Post{
		UserID:     author.UserID,
		Category:   category,
		Title:      title,
		Content:    content,
		AuthorName: author.Name,
	})
	if err != nil {
		return models.Post{}, wrap(op, err)
	}

	s.log.Info("post created", slog.String("op", op), slog.Int64("id", post.ID))

	return post, nil
}

// Authorize reports whether actor may edit or delete post id: storage.ErrNotFound for a
// missing post, ErrForbidden for someone else's.
func (s *Service) Authorize(ctx context.Context, actor session.Identity, id int64) error {
	const op = "community.Authorize"

	post, err := s.posts.PostByID(ctx, id)
	if err != nil {
		return wrap(op, err)
	}

	if !canModify(actor, post.UserID) {
		return ErrForbidden
	}

	return nil
}

// Update rewrites a post on behalf of its author or an administrator. The pin flag is
// left untouched.
func (s *Service) Update(
	ctx context.Context,
	actor session.Identity,
	id int64,
	category models.PostCategory,
	title, content string,
) (models.Post, error) {
	const op = "community.Update"

	post, err := s.posts.PostByID(ctx, id)
	if err != nil {
		return models.Post{}, wrap(op, err)
	}

	if !canModify(actor, post.UserID) {
		return models.Post{}, ErrForbidden
	}

	if category.AdminOnly() && !actor.IsAdmin {
		return models.Post{}, ErrNoticeAdminOnly
	}

	post.Category = category
	post.Title = title
	post.Content = content

	updated, err := s.posts.UpdatePost(ctx, post)
	if err != nil {
		return models.Post{}, wrap(op, err)
	}

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor session.Identity, id int64) error {
	const op = "community.Delete"

	post, err := s.posts.PostByID(ctx, id)
	if err != nil {
		return wrap(op, err)
	}

	if !canModify(actor, post.UserID) {
		return ErrForbidden
	}

	return wrap(op, s.posts.DeletePost(ctx, id))
}

// AdminUpdate applies patch. A pin-only patch flips is_pinned and nothing else; any
// other patch is merged onto the stored post.
func (s *Service) AdminUpdate(ctx context.Context, id int64, patch AdminPatch) (models.Post, error) {
	const op = "community.AdminUpdate"

	if patch.PinOnly() {
		post, err := s.posts.SetPinned(ctx, id, *patch.IsPinned)
		return post, wrap(op, err)
	}

	post, err := s.posts.PostByID(ctx, id)
	if err != nil {
		return models.Post{}, wrap(op, err)
	}

	if patch.Category != nil && *patch.Category != "" {
		post.Category = *patch.Category
	}
	if patch.Title != nil && *patch.Title != "" {
		post.Title = *patch.Title
	}
	if patch.Content != nil && *patch.Content != "" {
		post.Content = *patch.Content
	}
	if patch.IsPinned != nil {
		post.IsPinned = *patch.IsPinned
	}

	updated, err := s.posts.UpdatePost(ctx, post)
	if err != nil {
		return models.Post{}, wrap(op, err)
	}

	return updated, nil
}

func (s *Service) AdminDelete(ctx context.Context, id int64) error {
	return wrap("community.AdminDelete", s.posts.DeletePost(ctx, id))
}

func (s *Service) ToggleLike(ctx context.Context, actor session.Identity, postID int64) (bool, int64, error) {
	const op = "community.ToggleLike"

	liked, count, err := s.posts.ToggleLike(ctx, postID, actor.UserID)
	if err != nil {
		return false, 0, wrap(op, err)
	}

	return liked, count, nil
}

func (s *Service) Comments(ctx context.Context, postID int64) ([]models.Comment, error) {
	const op = "community.Comments"

	comments, err := s.comments.ListComments(ctx, postID)
	if err != nil {
		return nil, wrap(op, err)
	}

	return comments, nil
}

// AddComment stores trimmed content under postID.
func (s *Service) AddComment(ctx context.Context, author session.Identity, postID int64, content string) (models.Comment, error) {
	const op = "community.AddComment"

	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, ErrEmptyComment
	}

	c, err := s.comments.SaveComment(ctx, models.Comment{
		PostID:     postID,
		UserID:     author.UserID,
		AuthorName: author.Name,
		Content:    content,
	})
	if err != nil {
		return models.Comment{}, wrap(op, err)
	}

	return c, nil
}

func (s *Service) DeleteComment(ctx context.Context, actor session.Identity, postID, commentID int64) error {
	const op = "community.DeleteComment"

	c, err := s.comments.CommentByID(ctx, postID, commentID)
	if err != nil {
		return wrap(op, err)
	}

	if !canModify(actor, c.UserID) {
		return ErrForbidden
	}

	return wrap(op, s.comments.DeleteComment(ctx, postID, commentID))
}

func canModify(actor session.Identity, ownerID int64) bool {
	return actor.IsAdmin || actor.UserID == ownerID
}

// wrap keeps storage.ErrNotFound recognisable and prefixes everything else with op.
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return storage.ErrNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
