package storage

import (
	"errors"

	"github.com/kysclient/IMBA/internal/models"
)

var (
	ErrNotFound             = errors.New("record not found")
	ErrEmailTaken           = errors.New("email already in use")
	ErrPhoneTaken           = errors.New("phone already in use")
	ErrDuplicateApplication = errors.New("application already submitted within the window")
	ErrStatusTransition     = errors.New("status transition not allowed")
)

// PostFilter narrows a post listing. Admin listings also search the author name and
// ignore pinning when ordering.
type PostFilter struct {
	Category models.PostCategory
	Search   string
	Admin    bool
}
