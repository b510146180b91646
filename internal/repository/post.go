package repository

import (
	"context"

	"social-feed/internal/domain"
)

// PostRepository exposes persistence operations for Post aggregates.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) error
	Get(ctx context.Context, id string) (*domain.Post, error)
	// List returns posts ordered by creation time descending.
	List(ctx context.Context, offset, limit int) ([]domain.Post, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id string) error
}
