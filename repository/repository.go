// Package repository persists users and posts. Two backends implement the same
// interfaces: MongoDB (document store, default) and MySQL through gorm.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cppla/blogpress/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique field (username, email, title, slug) collides.
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository stores user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

// PostRepository stores blog posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, filter models.PostFilter) ([]models.Post, error)
	// Count returns the number of posts created at or after since; zero since counts all.
	Count(ctx context.Context, since time.Time) (int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
}

const (
	defaultListLimit = 9
	maxListLimit     = 100
)

// NormalizeFilter clamps paging fields to their accepted ranges.
func NormalizeFilter(f models.PostFilter) models.PostFilter {
	if f.StartIndex < 0 {
		f.StartIndex = 0
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	return f
}
