package pharmacy

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SupplierRepository interface {
	Create(ctx context.Context, s *Supplier) error
	GetByID(ctx context.Context, id uuid.UUID) (*Supplier, error)
	Update(ctx context.Context, s *Supplier) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, search string, limit, offset int) ([]*Supplier, int, error)
}

type InventoryRepository interface {
	Create(ctx context.Context, i *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Item, error)
	// LockMany locks every listed row in ascending id order and returns
	// them keyed by id. Missing ids are absent from the map.
	LockMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Item, error)
	Update(ctx context.Context, i *Item) error
	SetQuantity(ctx context.Context, id uuid.UUID, qty int) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ItemFilter, limit, offset int) ([]*Item, int, error)
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Prescription, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, f PrescriptionFilter, limit, offset int) ([]*Prescription, int, error)

	AddDetail(ctx context.Context, d *PrescriptionDetail) error
	ListDetails(ctx context.Context, prescriptionID uuid.UUID) ([]*PrescriptionDetail, error)
	MarkDispensed(ctx context.Context, prescriptionID, by uuid.UUID, at time.Time) error
}

// ConsultationDirectory resolves who a consultation was between.
type ConsultationDirectory interface {
	ConsultationParties(ctx context.Context, id uuid.UUID) (patientID, doctorID uuid.UUID, err error)
}

// StaffDirectory resolves the role of a staff member.
type StaffDirectory interface {
	StaffRole(ctx context.Context, id uuid.UUID) (string, error)
}
