package pharmacy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicops/clinic/pkg/date"
)

// -- Supplier --

type Supplier struct {
	ID            uuid.UUID `db:"id" json:"id"`
	SupplierName  string    `db:"supplier_name" json:"supplier_name"`
	ContactPerson string    `db:"contact_person" json:"contact_person"`
	ContactEmail  string    `db:"contact_email" json:"contact_email"`
	ContactPhone  string    `db:"contact_phone" json:"contact_phone"`
	Address       string    `db:"address" json:"address"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type SupplierInput struct {
	SupplierName  string `json:"supplier_name" validate:"required,max=100"`
	ContactPerson string `json:"contact_person" validate:"required,max=100"`
	ContactEmail  string `json:"contact_email" validate:"required,email"`
	ContactPhone  string `json:"contact_phone" validate:"required,max=20"`
	Address       string `json:"address" validate:"required"`
}

type SupplierUpdate struct {
	SupplierName  *string `json:"supplier_name" validate:"omitempty,max=100"`
	ContactPerson *string `json:"contact_person" validate:"omitempty,max=100"`
	ContactEmail  *string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone  *string `json:"contact_phone" validate:"omitempty,max=20"`
	Address       *string `json:"address"`
}

// -- Inventory --

const (
	CategoryMedicine      = "medicine"
	CategoryEquipment     = "equipment"
	CategoryMedicalSupply = "medical_supply"
	CategoryLabSupply     = "lab_supply"
)

var validCategories = map[string]bool{
	CategoryMedicine: true, CategoryEquipment: true, CategoryMedicalSupply: true, CategoryLabSupply: true,
}

// Item is a stocked inventory line. QuantityInStock never drops below zero.
type Item struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	ItemName        string          `db:"item_name" json:"item_name"`
	Category        string          `db:"category" json:"category"`
	Description     *string         `db:"description" json:"description,omitempty"`
	QuantityInStock int             `db:"quantity_in_stock" json:"quantity_in_stock"`
	UnitPrice       decimal.Decimal `db:"unit_price" json:"unit_price"`
	ReorderLevel    int             `db:"reorder_level" json:"reorder_level"`
	SupplierID      *uuid.UUID      `db:"supplier_id" json:"supplier_id,omitempty"`
	ExpiryDate      *date.Date      `db:"expiry_date" json:"expiry_date,omitempty"`
	BatchNumber     *string         `db:"batch_number" json:"batch_number,omitempty"`
	StorageLocation *string         `db:"storage_location" json:"storage_location,omitempty"`
	LastUpdated     time.Time       `db:"last_updated" json:"last_updated"`
}

// LowStock reports whether the item is at or below its reorder level.
func (i *Item) LowStock() bool {
	return i.QuantityInStock <= i.ReorderLevel
}

type ItemInput struct {
	ItemName        string          `json:"item_name" validate:"required,max=100"`
	Category        string          `json:"category" validate:"required,oneof=medicine equipment medical_supply lab_supply"`
	Description     *string         `json:"description"`
	QuantityInStock int             `json:"quantity_in_stock" validate:"gte=0"`
	UnitPrice       decimal.Decimal `json:"unit_price" validate:"gte=0"`
	ReorderLevel    int             `json:"reorder_level" validate:"gte=0"`
	SupplierID      *uuid.UUID      `json:"supplier_id"`
	ExpiryDate      *date.Date      `json:"expiry_date"`
	BatchNumber     *string         `json:"batch_number" validate:"omitempty,max=50"`
	StorageLocation *string         `json:"storage_location" validate:"omitempty,max=100"`
}

// ItemUpdate changes item metadata. Stock moves only through AdjustStock and
// dispensing.
type ItemUpdate struct {
	ItemName        *string          `json:"item_name" validate:"omitempty,max=100"`
	Category        *string          `json:"category" validate:"omitempty,oneof=medicine equipment medical_supply lab_supply"`
	Description     *string          `json:"description"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	ReorderLevel    *int             `json:"reorder_level" validate:"omitempty,gte=0"`
	SupplierID      *uuid.UUID       `json:"supplier_id"`
	ExpiryDate      *date.Date       `json:"expiry_date"`
	BatchNumber     *string          `json:"batch_number" validate:"omitempty,max=50"`
	StorageLocation *string          `json:"storage_location" validate:"omitempty,max=100"`
}

type ItemFilter struct {
	Category string
	Search   string
	LowStock bool
}

// StockAdjustment is the result of AdjustStock.
type StockAdjustment struct {
	Status      string `json:"status"`
	NewQuantity int    `json:"new_quantity"`
}

// -- Prescription --

const (
	RxPending   = "pending"
	RxDispensed = "dispensed"
	RxCancelled = "cancelled"
)

var validRxStatuses = map[string]bool{RxPending: true, RxDispensed: true, RxCancelled: true}

type Prescription struct {
	ID             uuid.UUID             `db:"id" json:"id"`
	ConsultationID uuid.UUID             `db:"consultation_id" json:"consultation_id"`
	PatientID      uuid.UUID             `db:"patient_id" json:"patient_id"`
	DoctorID       uuid.UUID             `db:"doctor_id" json:"doctor_id"`
	PrescribedDate time.Time             `db:"prescribed_date" json:"prescribed_date"`
	Status         string                `db:"status" json:"status"`
	Notes          *string               `db:"notes" json:"notes,omitempty"`
	Details        []*PrescriptionDetail `db:"-" json:"details,omitempty"`
}

// PrescriptionDetail is one medication line. DispensedBy and DispensedDate
// are set once, when the prescription is dispensed.
type PrescriptionDetail struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PrescriptionID uuid.UUID  `db:"prescription_id" json:"prescription_id"`
	MedicationID   uuid.UUID  `db:"medication_id" json:"medication_id"`
	Dosage         string     `db:"dosage" json:"dosage"`
	Frequency      string     `db:"frequency" json:"frequency"`
	Duration       string     `db:"duration" json:"duration"`
	Quantity       int        `db:"quantity" json:"quantity"`
	Instructions   *string    `db:"instructions" json:"instructions,omitempty"`
	DispensedBy    *uuid.UUID `db:"dispensed_by" json:"dispensed_by,omitempty"`
	DispensedDate  *time.Time `db:"dispensed_date" json:"dispensed_date,omitempty"`
}

type DetailInput struct {
	MedicationID uuid.UUID `json:"medication_id" validate:"required"`
	Dosage       string    `json:"dosage" validate:"required,max=100"`
	Frequency    string    `json:"frequency" validate:"required,max=100"`
	Duration     string    `json:"duration" validate:"required,max=50"`
	Quantity     int       `json:"quantity" validate:"gt=0"`
	Instructions *string   `json:"instructions"`
}

// PrescriptionInput creates a prescription for a consultation. DoctorID is
// only read when the caller is not a doctor.
type PrescriptionInput struct {
	ConsultationID uuid.UUID     `json:"consultation_id" validate:"required"`
	DoctorID       *uuid.UUID    `json:"doctor_id"`
	Notes          *string       `json:"notes"`
	Details        []DetailInput `json:"details" validate:"dive"`
}

type PrescriptionFilter struct {
	Status    string
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

// DispenseResult is returned by a successful dispense.
type DispenseResult struct {
	Status       string        `json:"status"`
	Prescription *Prescription `json:"prescription"`
}
