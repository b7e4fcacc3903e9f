package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicops/clinic/pkg/date"
)

// -- ServicePrice --

type ServicePrice struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	ServiceName string          `db:"service_name" json:"service_name"`
	Description *string         `db:"description" json:"description,omitempty"`
	Price       decimal.Decimal `db:"price" json:"price"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

type ServicePriceInput struct {
	ServiceName string          `json:"service_name" validate:"required,max=100"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
}

type ServicePriceUpdate struct {
	ServiceName *string          `json:"service_name" validate:"omitempty,max=100"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
}

// -- Bill --

const (
	BillPending       = "pending"
	BillPartiallyPaid = "partially_paid"
	BillPaid          = "paid"
	BillCancelled     = "cancelled"
)

var validBillStatuses = map[string]bool{
	BillPending: true, BillPartiallyPaid: true, BillPaid: true, BillCancelled: true,
}

type Bill struct {
	ID                    uuid.UUID       `db:"id" json:"id"`
	PatientID             uuid.UUID       `db:"patient_id" json:"patient_id"`
	AppointmentID         *uuid.UUID      `db:"appointment_id" json:"appointment_id,omitempty"`
	TotalAmount           decimal.Decimal `db:"total_amount" json:"total_amount"`
	PatientResponsibility decimal.Decimal `db:"patient_responsibility" json:"patient_responsibility"`
	IssuedDate            time.Time       `db:"issued_date" json:"issued_date"`
	DueDate               date.Date       `db:"due_date" json:"due_date"`
	Status                string          `db:"status" json:"status"`
	Notes                 *string         `db:"notes" json:"notes,omitempty"`

	Details         []*BillDetail    `db:"-" json:"details,omitempty"`
	Payments        []*Payment       `db:"-" json:"payments,omitempty"`
	RemainingAmount *decimal.Decimal `db:"-" json:"remaining_amount,omitempty"`
}

// SettledStatus is the status a bill takes once paid has been received
// against total. Cancelled bills keep their status.
func SettledStatus(current string, total, paid decimal.Decimal) string {
	switch {
	case current == BillCancelled:
		return current
	case paid.GreaterThanOrEqual(total):
		return BillPaid
	case paid.IsPositive():
		return BillPartiallyPaid
	default:
		return current
	}
}

type BillInput struct {
	PatientID             uuid.UUID         `json:"patient_id" validate:"required"`
	AppointmentID         *uuid.UUID        `json:"appointment_id"`
	TotalAmount           decimal.Decimal   `json:"total_amount"`
	PatientResponsibility decimal.Decimal   `json:"patient_responsibility"`
	DueDate               date.Date         `json:"due_date" validate:"required"`
	Notes                 *string           `json:"notes"`
	Details               []BillDetailInput `json:"details" validate:"dive"`
}

// BillUpdate edits the administrative fields of a bill. Amounts and status
// change only through payments and cancellation.
type BillUpdate struct {
	DueDate *date.Date `json:"due_date"`
	Notes   *string    `json:"notes"`
}

type BillFilter struct {
	Status    string
	PatientID *uuid.UUID
	DateFrom  *date.Date
	DateTo    *date.Date
}

// -- BillDetail --

type BillDetail struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	BillID    uuid.UUID       `db:"bill_id" json:"bill_id"`
	ServiceID *uuid.UUID      `db:"service_id" json:"service_id,omitempty"`
	ItemID    *uuid.UUID      `db:"item_id" json:"item_id,omitempty"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	Discount  decimal.Decimal `db:"discount" json:"discount"`
	Total     decimal.Decimal `db:"total" json:"total"`
}

// BillDetailInput describes one line. A zero Quantity means 1; a nil Total
// is computed as quantity × unit_price − discount.
type BillDetailInput struct {
	ServiceID *uuid.UUID       `json:"service_id"`
	ItemID    *uuid.UUID       `json:"item_id"`
	Quantity  int              `json:"quantity" validate:"gte=0"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Discount  decimal.Decimal  `json:"discount"`
	Total     *decimal.Decimal `json:"total"`
}

// -- Payment --

const (
	MethodCash         = "cash"
	MethodCreditCard   = "credit_card"
	MethodDebitCard    = "debit_card"
	MethodBankTransfer = "bank_transfer"
)

var validMethods = map[string]bool{
	MethodCash: true, MethodCreditCard: true, MethodDebitCard: true, MethodBankTransfer: true,
}

type Payment struct {
	ID                   uuid.UUID       `db:"id" json:"id"`
	BillID               uuid.UUID       `db:"bill_id" json:"bill_id"`
	PaymentDate          time.Time       `db:"payment_date" json:"payment_date"`
	PaymentMethod        string          `db:"payment_method" json:"payment_method"`
	AmountPaid           decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	TransactionReference *string         `db:"transaction_reference" json:"transaction_reference,omitempty"`
	ReceivedBy           uuid.UUID       `db:"received_by" json:"received_by"`
	Notes                *string         `db:"notes" json:"notes,omitempty"`
}

type PaymentInput struct {
	BillID               uuid.UUID       `json:"bill_id" validate:"required"`
	AmountPaid           decimal.Decimal `json:"amount_paid" validate:"gt=0"`
	PaymentMethod        string          `json:"payment_method" validate:"required,oneof=cash credit_card debit_card bank_transfer"`
	TransactionReference *string         `json:"transaction_reference" validate:"omitempty,max=100"`
	Notes                *string         `json:"notes"`
}

type PaymentFilter struct {
	BillID   *uuid.UUID
	DateFrom *date.Date
	DateTo   *date.Date
}

// PaymentResult is returned by RecordPayment.
type PaymentResult struct {
	Payment *Payment `json:"payment"`
	Bill    *Bill    `json:"bill"`
}

// Balance is the settlement breakdown of a bill. Remaining is negative when
// the bill was overpaid.
type Balance struct {
	BillID      uuid.UUID       `json:"bill_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	Remaining   decimal.Decimal `json:"remaining"`
	Status      string          `json:"status"`
	Payments    []*Payment      `json:"payments"`
}
