package repository

import (
	"context"

	"github.com/dom/socialpedia/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByIDs returns the users in the order of ids, skipping ids that do
	// not resolve.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error)
	// UpdateFriends persists the friend lists of both users together.
	UpdateFriends(ctx context.Context, a, b *domain.User) error
}

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	List(ctx context.Context) ([]*domain.Post, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Post, error)
	Update(ctx context.Context, post *domain.Post) error
}

type Repositories struct {
	User UserRepository
	Post PostRepository
}
