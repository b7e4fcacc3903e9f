package staff

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Staff) error
	GetByID(ctx context.Context, id uuid.UUID) (*Staff, error)
	GetByUsername(ctx context.Context, username string) (*Staff, error)
	Update(ctx context.Context, s *Staff) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Staff, int, error)
	CountByRole(ctx context.Context, role string) (int, error)
}
