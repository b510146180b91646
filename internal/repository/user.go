package repository

import (
	"context"
	"errors"

	"social-feed/internal/domain"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when the email uniqueness constraint
	// is violated on insert.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdateStatus(ctx context.Context, id, status string) error
	AppendPost(ctx context.Context, userID, postID string) error
	RemovePost(ctx context.Context, userID, postID string) error
	ListPostIDs(ctx context.Context, userID string) ([]string, error)
}
