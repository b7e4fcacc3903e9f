package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicops/clinic/internal/platform/apperr"
	"github.com/clinicops/clinic/internal/platform/auth"
	"github.com/clinicops/clinic/internal/platform/db"
)

type Service struct {
	services ServicePriceRepository
	bills    BillRepository
	details  BillDetailRepository
	payments PaymentRepository
	tx       db.Transactor
	now      func() time.Time
}

func NewService(
	services ServicePriceRepository,
	bills BillRepository,
	details BillDetailRepository,
	payments PaymentRepository,
	tx db.Transactor,
) *Service {
	return &Service{
		services: services,
		bills:    bills,
		details:  details,
		payments: payments,
		tx:       tx,
		now:      time.Now,
	}
}

// -- ServicePrice --

func (s *Service) CreateServicePrice(ctx context.Context, in ServicePriceInput) (*ServicePrice, error) {
	if strings.TrimSpace(in.ServiceName) == "" {
		return nil, apperr.InvalidInput("service_name is required")
	}
	if in.Price.IsNegative() {
		return nil, apperr.InvalidInput("price cannot be negative")
	}
	sp := &ServicePrice{
		ServiceName: strings.TrimSpace(in.ServiceName),
		Description: in.Description,
		Price:       in.Price,
	}
	if err := s.services.Create(ctx, sp); err != nil {
		return nil, fmt.Errorf("create service price: %w", err)
	}
	return sp, nil
}

func (s *Service) GetServicePrice(ctx context.Context, id uuid.UUID) (*ServicePrice, error) {
	return s.services.GetByID(ctx, id)
}

func (s *Service) ListServicePrices(ctx context.Context, search string, limit, offset int) ([]*ServicePrice, int, error) {
	return s.services.List(ctx, strings.TrimSpace(search), limit, offset)
}

func (s *Service) UpdateServicePrice(ctx context.Context, id uuid.UUID, in ServicePriceUpdate) (*ServicePrice, error) {
	sp, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.ServiceName != nil {
		if strings.TrimSpace(*in.ServiceName) == "" {
			return nil, apperr.InvalidInput("service_name is required")
		}
		sp.ServiceName = strings.TrimSpace(*in.ServiceName)
	}
	if in.Description != nil {
		sp.Description = in.Description
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, apperr.InvalidInput("price cannot be negative")
		}
		sp.Price = *in.Price
	}
	if err := s.services.Update(ctx, sp); err != nil {
		return nil, fmt.Errorf("update service price: %w", err)
	}
	return sp, nil
}

func (s *Service) DeleteServicePrice(ctx context.Context, id uuid.UUID) error {
	return s.services.Delete(ctx, id)
}

// -- Bill --

// CreateBill issues a pending bill together with its optional lines.
func (s *Service) CreateBill(ctx context.Context, in BillInput) (*Bill, error) {
	if in.PatientID == uuid.Nil {
		return nil, apperr.InvalidInput("patient_id is required")
	}
	if in.DueDate.IsZero() {
		return nil, apperr.InvalidInput("due_date is required")
	}
	if in.TotalAmount.IsNegative() {
		return nil, apperr.InvalidInput("total_amount cannot be negative")
	}
	if in.PatientResponsibility.IsNegative() {
		return nil, apperr.InvalidInput("patient_responsibility cannot be negative")
	}
	lines := make([]*BillDetail, 0, len(in.Details))
	for n, d := range in.Details {
		line, err := newBillDetail(uuid.Nil, d)
		if err != nil {
			return nil, apperr.InvalidInput("details[%d]: %s", n, err.Error())
		}
		lines = append(lines, line)
	}

	b := &Bill{
		PatientID:             in.PatientID,
		AppointmentID:         in.AppointmentID,
		TotalAmount:           in.TotalAmount,
		PatientResponsibility: in.PatientResponsibility,
		DueDate:               in.DueDate,
		Status:                BillPending,
		Notes:                 in.Notes,
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.bills.Create(ctx, b); err != nil {
			return err
		}
		for _, line := range lines {
			line.BillID = b.ID
			if err := s.details.Create(ctx, line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}
	b.Details = lines
	remaining := b.TotalAmount
	b.RemainingAmount = &remaining
	return b, nil
}

// GetBill returns the bill with its lines, payments and remaining amount.
func (s *Service) GetBill(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Details, err = s.details.ListByBill(ctx, id); err != nil {
		return nil, fmt.Errorf("load bill details: %w", err)
	}
	if b.Payments, err = s.payments.ListByBill(ctx, id); err != nil {
		return nil, fmt.Errorf("load bill payments: %w", err)
	}
	remaining := b.TotalAmount.Sub(sumPaid(b.Payments))
	b.RemainingAmount = &remaining
	return b, nil
}

// ListBills returns matches, most recently issued first.
func (s *Service) ListBills(ctx context.Context, f BillFilter, limit, offset int) ([]*Bill, int, error) {
	if f.Status != "" && !validBillStatuses[f.Status] {
		return nil, 0, apperr.InvalidInput("invalid status: %s", f.Status)
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return nil, 0, apperr.InvalidInput("date_to is before date_from")
	}
	return s.bills.List(ctx, f, limit, offset)
}

func (s *Service) UpdateBill(ctx context.Context, id uuid.UUID, in BillUpdate) (*Bill, error) {
	b, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.DueDate != nil {
		if in.DueDate.IsZero() {
			return nil, apperr.InvalidInput("due_date is required")
		}
		b.DueDate = *in.DueDate
	}
	if in.Notes != nil {
		b.Notes = in.Notes
	}
	if err := s.bills.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update bill: %w", err)
	}
	return b, nil
}

func (s *Service) DeleteBill(ctx context.Context, id uuid.UUID) error {
	return s.bills.Delete(ctx, id)
}

// CancelBill moves a pending or partially paid bill to cancelled.
func (s *Service) CancelBill(ctx context.Context, id uuid.UUID) (*Bill, error) {
	var out *Bill
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.bills.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != BillPending && b.Status != BillPartiallyPaid {
			return apperr.InvalidState("Only pending or partially paid bills can be cancelled")
		}
		if err := s.bills.SetStatus(ctx, id, BillCancelled); err != nil {
			return err
		}
		b.Status = BillCancelled
		out = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cancel bill: %w", err)
	}
	return out, nil
}

// -- BillDetail --

// newBillDetail validates a line and fills in its quantity and total.
func newBillDetail(billID uuid.UUID, in BillDetailInput) (*BillDetail, error) {
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	switch {
	case qty < 0:
		return nil, errors.New("quantity must be positive")
	case in.UnitPrice.IsNegative():
		return nil, errors.New("unit_price cannot be negative")
	case in.Discount.IsNegative():
		return nil, errors.New("discount cannot be negative")
	}
	computed := in.UnitPrice.Mul(decimal.NewFromInt(int64(qty))).Sub(in.Discount).Round(2)
	if computed.IsNegative() {
		return nil, errors.New("discount exceeds line amount")
	}
	if in.Total != nil && !in.Total.Equal(computed) {
		return nil, fmt.Errorf("total must equal quantity × unit_price − discount (%s)", computed.StringFixed(2))
	}
	return &BillDetail{
		BillID:    billID,
		ServiceID: in.ServiceID,
		ItemID:    in.ItemID,
		Quantity:  qty,
		UnitPrice: in.UnitPrice,
		Discount:  in.Discount,
		Total:     computed,
	}, nil
}

// AddBillDetail appends a line to a bill that has not been cancelled.
func (s *Service) AddBillDetail(ctx context.Context, billID uuid.UUID, in BillDetailInput) (*BillDetail, error) {
	line, err := newBillDetail(billID, in)
	if err != nil {
		return nil, apperr.InvalidInput("%s", err.Error())
	}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.bills.GetForUpdate(ctx, billID)
		if err != nil {
			return err
		}
		if b.Status == BillCancelled {
			return apperr.InvalidState("bill is cancelled")
		}
		return s.details.Create(ctx, line)
	})
	if err != nil {
		return nil, fmt.Errorf("add bill detail: %w", err)
	}
	return line, nil
}

func (s *Service) ListBillDetails(ctx context.Context, billID uuid.UUID) ([]*BillDetail, error) {
	if _, err := s.bills.GetByID(ctx, billID); err != nil {
		return nil, err
	}
	return s.details.ListByBill(ctx, billID)
}

func (s *Service) DeleteBillDetail(ctx context.Context, id uuid.UUID) error {
	return s.details.Delete(ctx, id)
}

// -- Payment --

// RecordPayment stores a payment received by actor and settles the bill.
// The bill row stays locked from the read through the status write, so
// concurrent payments on one bill apply one after the other.
func (s *Service) RecordPayment(ctx context.Context, actor auth.Actor, in PaymentInput) (*PaymentResult, error) {
	if !actor.IsStaff() {
		return nil, apperr.Forbidden("only staff may record payments")
	}
	if in.BillID == uuid.Nil {
		return nil, apperr.InvalidInput("bill_id is required")
	}
	if !in.AmountPaid.IsPositive() {
		return nil, apperr.InvalidInput("amount_paid must be positive")
	}
	if !validMethods[in.PaymentMethod] {
		return nil, apperr.InvalidInput("invalid payment_method: %s", in.PaymentMethod)
	}

	var res PaymentResult
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.bills.GetForUpdate(ctx, in.BillID)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.InvalidInput("bill_id does not reference a bill")
		}
		if err != nil {
			return err
		}
		if b.Status == BillCancelled {
			return apperr.InvalidState("Cannot record payment for a cancelled bill")
		}

		p := &Payment{
			BillID:               b.ID,
			PaymentDate:          s.now().UTC(),
			PaymentMethod:        in.PaymentMethod,
			AmountPaid:           in.AmountPaid,
			TransactionReference: in.TransactionReference,
			ReceivedBy:           actor.StaffID,
			Notes:                in.Notes,
		}
		if err := s.payments.Create(ctx, p); err != nil {
			return err
		}

		paid, err := s.payments.TotalPaid(ctx, b.ID)
		if err != nil {
			return err
		}
		if status := SettledStatus(b.Status, b.TotalAmount, paid); status != b.Status {
			if err := s.bills.SetStatus(ctx, b.ID, status); err != nil {
				return err
			}
			b.Status = status
		}
		remaining := b.TotalAmount.Sub(paid)
		b.RemainingAmount = &remaining

		res = PaymentResult{Payment: p, Bill: b}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	return &res, nil
}

// GetBalance reports what has been paid against a bill and what remains.
func (s *Service) GetBalance(ctx context.Context, billID uuid.UUID) (*Balance, error) {
	b, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByBill(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("load bill payments: %w", err)
	}
	if payments == nil {
		payments = []*Payment{}
	}
	paid := sumPaid(payments)
	return &Balance{
		BillID:      b.ID,
		TotalAmount: b.TotalAmount,
		TotalPaid:   paid,
		Remaining:   b.TotalAmount.Sub(paid),
		Status:      b.Status,
		Payments:    payments,
	}, nil
}

// ListPayments returns matches, most recent first.
func (s *Service) ListPayments(ctx context.Context, f PaymentFilter, limit, offset int) ([]*Payment, int, error) {
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return nil, 0, apperr.InvalidInput("date_to is before date_from")
	}
	return s.payments.List(ctx, f, limit, offset)
}

func sumPaid(payments []*Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.AmountPaid)
	}
	return total
}
