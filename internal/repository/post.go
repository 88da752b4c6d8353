package repository

import (
	"context"

	"postboard/internal/domain"
)

// PostRepository exposes persistence operations for Post records.
// Every read and write is filtered by the owning user id.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) error
	Get(ctx context.Context, userID, id string) (*domain.Post, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Post, error)
	Update(ctx context.Context, userID, id string, in domain.PostInput) (*domain.Post, error)
	Delete(ctx context.Context, userID, id string) (*domain.Post, error)
}
