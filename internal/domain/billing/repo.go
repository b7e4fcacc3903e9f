package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ServicePriceRepository interface {
	Create(ctx context.Context, s *ServicePrice) error
	GetByID(ctx context.Context, id uuid.UUID) (*ServicePrice, error)
	Update(ctx context.Context, s *ServicePrice) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, search string, limit, offset int) ([]*ServicePrice, int, error)
}

type BillRepository interface {
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	// GetForUpdate reads the bill and holds its row lock until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Bill, error)
	Update(ctx context.Context, b *Bill) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f BillFilter, limit, offset int) ([]*Bill, int, error)
}

type BillDetailRepository interface {
	Create(ctx context.Context, d *BillDetail) error
	GetByID(ctx context.Context, id uuid.UUID) (*BillDetail, error)
	ListByBill(ctx context.Context, billID uuid.UUID) ([]*BillDetail, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	ListByBill(ctx context.Context, billID uuid.UUID) ([]*Payment, error)
	// TotalPaid sums amount_paid over every payment for the bill.
	TotalPaid(ctx context.Context, billID uuid.UUID) (decimal.Decimal, error)
	List(ctx context.Context, f PaymentFilter, limit, offset int) ([]*Payment, int, error)
}
