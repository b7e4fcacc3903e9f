package laboratory

import (
	"context"

	"github.com/google/uuid"
)

type RequestRepository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Request, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f RequestFilter, limit, offset int) ([]*Request, int, error)
}

type ResultRepository interface {
	Create(ctx context.Context, r *Result) error
	GetByID(ctx context.Context, id uuid.UUID) (*Result, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Result, error)
	// GetByRequest returns the result recorded for a request, or NotFound.
	GetByRequest(ctx context.Context, requestID uuid.UUID) (*Result, error)
	Update(ctx context.Context, r *Result) error
	SetVerifiedBy(ctx context.Context, id, staffID uuid.UUID) error
	List(ctx context.Context, f ResultFilter, limit, offset int) ([]*Result, int, error)
}

// StaffDirectory resolves the role of a staff member.
type StaffDirectory interface {
	StaffRole(ctx context.Context, id uuid.UUID) (string, error)
}
