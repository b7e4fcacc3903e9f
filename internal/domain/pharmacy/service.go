package pharmacy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinic/internal/platform/apperr"
	"github.com/clinicops/clinic/internal/platform/auth"
	"github.com/clinicops/clinic/internal/platform/db"
)

type Service struct {
	suppliers     SupplierRepository
	inventory     InventoryRepository
	prescriptions PrescriptionRepository
	consultations ConsultationDirectory
	staff         StaffDirectory
	tx            db.Transactor
	now           func() time.Time
}

func NewService(
	suppliers SupplierRepository,
	inventory InventoryRepository,
	prescriptions PrescriptionRepository,
	consultations ConsultationDirectory,
	staff StaffDirectory,
	tx db.Transactor,
) *Service {
	return &Service{
		suppliers:     suppliers,
		inventory:     inventory,
		prescriptions: prescriptions,
		consultations: consultations,
		staff:         staff,
		tx:            tx,
		now:           time.Now,
	}
}

// -- Supplier --

func (s *Service) CreateSupplier(ctx context.Context, in SupplierInput) (*Supplier, error) {
	if strings.TrimSpace(in.SupplierName) == "" {
		return nil, apperr.InvalidInput("supplier_name is required")
	}
	sup := &Supplier{
		SupplierName:  strings.TrimSpace(in.SupplierName),
		ContactPerson: in.ContactPerson,
		ContactEmail:  in.ContactEmail,
		ContactPhone:  in.ContactPhone,
		Address:       in.Address,
	}
	if err := s.suppliers.Create(ctx, sup); err != nil {
		return nil, fmt.Errorf("create supplier: %w", err)
	}
	return sup, nil
}

func (s *Service) GetSupplier(ctx context.Context, id uuid.UUID) (*Supplier, error) {
	return s.suppliers.GetByID(ctx, id)
}

func (s *Service) ListSuppliers(ctx context.Context, search string, limit, offset int) ([]*Supplier, int, error) {
	return s.suppliers.List(ctx, strings.TrimSpace(search), limit, offset)
}

func (s *Service) UpdateSupplier(ctx context.Context, id uuid.UUID, in SupplierUpdate) (*Supplier, error) {
	sup, err := s.suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.SupplierName != nil {
		if strings.TrimSpace(*in.SupplierName) == "" {
			return nil, apperr.InvalidInput("supplier_name is required")
		}
		sup.SupplierName = strings.TrimSpace(*in.SupplierName)
	}
	if in.ContactPerson != nil {
		sup.ContactPerson = *in.ContactPerson
	}
	if in.ContactEmail != nil {
		sup.ContactEmail = *in.ContactEmail
	}
	if in.ContactPhone != nil {
		sup.ContactPhone = *in.ContactPhone
	}
	if in.Address != nil {
		sup.Address = *in.Address
	}
	if err := s.suppliers.Update(ctx, sup); err != nil {
		return nil, fmt.Errorf("update supplier: %w", err)
	}
	return sup, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	return s.suppliers.Delete(ctx, id)
}

// -- Inventory --

func (s *Service) CreateItem(ctx context.Context, in ItemInput) (*Item, error) {
	if strings.TrimSpace(in.ItemName) == "" {
		return nil, apperr.InvalidInput("item_name is required")
	}
	if !validCategories[in.Category] {
		return nil, apperr.InvalidInput("invalid category: %s", in.Category)
	}
	if in.QuantityInStock < 0 {
		return nil, apperr.InvalidInput("Stock cannot be negative")
	}
	if in.UnitPrice.IsNegative() {
		return nil, apperr.InvalidInput("unit_price cannot be negative")
	}
	if in.ReorderLevel < 0 {
		return nil, apperr.InvalidInput("reorder_level cannot be negative")
	}
	item := &Item{
		ItemName:        strings.TrimSpace(in.ItemName),
		Category:        in.Category,
		Description:     in.Description,
		QuantityInStock: in.QuantityInStock,
		UnitPrice:       in.UnitPrice,
		ReorderLevel:    in.ReorderLevel,
		SupplierID:      in.SupplierID,
		ExpiryDate:      in.ExpiryDate,
		BatchNumber:     in.BatchNumber,
		StorageLocation: in.StorageLocation,
	}
	if err := s.inventory.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create inventory item: %w", err)
	}
	return item, nil
}

func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.inventory.GetByID(ctx, id)
}

func (s *Service) ListItems(ctx context.Context, f ItemFilter, limit, offset int) ([]*Item, int, error) {
	if f.Category != "" && !validCategories[f.Category] {
		return nil, 0, apperr.InvalidInput("invalid category: %s", f.Category)
	}
	f.Search = strings.TrimSpace(f.Search)
	return s.inventory.List(ctx, f, limit, offset)
}

func (s *Service) UpdateItem(ctx context.Context, id uuid.UUID, in ItemUpdate) (*Item, error) {
	item, err := s.inventory.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.ItemName != nil {
		if strings.TrimSpace(*in.ItemName) == "" {
			return nil, apperr.InvalidInput("item_name is required")
		}
		item.ItemName = strings.TrimSpace(*in.ItemName)
	}
	if in.Category != nil {
		if !validCategories[*in.Category] {
			return nil, apperr.InvalidInput("invalid category: %s", *in.Category)
		}
		item.Category = *in.Category
	}
	if in.Description != nil {
		item.Description = in.Description
	}
	if in.UnitPrice != nil {
		if in.UnitPrice.IsNegative() {
			return nil, apperr.InvalidInput("unit_price cannot be negative")
		}
		item.UnitPrice = *in.UnitPrice
	}
	if in.ReorderLevel != nil {
		if *in.ReorderLevel < 0 {
			return nil, apperr.InvalidInput("reorder_level cannot be negative")
		}
		item.ReorderLevel = *in.ReorderLevel
	}
	if in.SupplierID != nil {
		item.SupplierID = in.SupplierID
	}
	if in.ExpiryDate != nil {
		item.ExpiryDate = in.ExpiryDate
	}
	if in.BatchNumber != nil {
		item.BatchNumber = in.BatchNumber
	}
	if in.StorageLocation != nil {
		item.StorageLocation = in.StorageLocation
	}
	if err := s.inventory.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update inventory item: %w", err)
	}
	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return s.inventory.Delete(ctx, id)
}

// AdjustStock adds delta (which may be negative) to an item's stock under a
// row lock. A result below zero or above the INTEGER column range is rejected
// and the stock is left unchanged.
func (s *Service) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*StockAdjustment, error) {
	var newQty int
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		item, err := s.inventory.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		newQty = item.QuantityInStock + delta
		if newQty < 0 {
			return apperr.InvalidInput("Stock cannot be negative")
		}
		if newQty > math.MaxInt32 {
			return apperr.InvalidInput("Stock exceeds the maximum quantity")
		}
		return s.inventory.SetQuantity(ctx, id, newQty)
	})
	if err != nil {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}
	return &StockAdjustment{Status: "stock updated", NewQuantity: newQty}, nil
}

// -- Prescription --

// CreatePrescription records a pending prescription for a consultation. The
// patient comes from the consultation. A doctor caller is the prescriber;
// any other caller must name a doctor or inherit the consultation's doctor.
func (s *Service) CreatePrescription(ctx context.Context, actor auth.Actor, in PrescriptionInput) (*Prescription, error) {
	if !actor.IsStaff() {
		return nil, apperr.Forbidden("only staff may create prescriptions")
	}
	if in.ConsultationID == uuid.Nil {
		return nil, apperr.InvalidInput("consultation_id is required")
	}
	for n, d := range in.Details {
		if err := validateDetail(d); err != nil {
			return nil, apperr.InvalidInput("details[%d]: %s", n, err.Error())
		}
	}

	patientID, consultDoctor, err := s.consultations.ConsultationParties(ctx, in.ConsultationID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.InvalidInput("consultation_id does not reference a consultation")
	}
	if err != nil {
		return nil, fmt.Errorf("resolve consultation: %w", err)
	}

	doctorID := consultDoctor
	switch {
	case actor.Role == auth.RoleDoctor:
		doctorID = actor.StaffID
	case in.DoctorID != nil:
		if err := s.requireDoctor(ctx, *in.DoctorID); err != nil {
			return nil, err
		}
		doctorID = *in.DoctorID
	}

	rx := &Prescription{
		ConsultationID: in.ConsultationID,
		PatientID:      patientID,
		DoctorID:       doctorID,
		Status:         RxPending,
		Notes:          in.Notes,
	}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.prescriptions.Create(ctx, rx); err != nil {
			return err
		}
		for _, d := range in.Details {
			detail := newDetail(rx.ID, d)
			if err := s.prescriptions.AddDetail(ctx, detail); err != nil {
				return err
			}
			rx.Details = append(rx.Details, detail)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create prescription: %w", err)
	}
	return rx, nil
}

func (s *Service) requireDoctor(ctx context.Context, id uuid.UUID) error {
	role, err := s.staff.StaffRole(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.InvalidInput("doctor_id does not reference an active staff member")
	}
	if err != nil {
		return fmt.Errorf("resolve doctor: %w", err)
	}
	if role != auth.RoleDoctor {
		return apperr.InvalidInput("doctor_id must reference a doctor")
	}
	return nil
}

func validateDetail(d DetailInput) error {
	switch {
	case d.MedicationID == uuid.Nil:
		return errors.New("medication_id is required")
	case d.Quantity <= 0:
		return errors.New("quantity must be greater than 0")
	case strings.TrimSpace(d.Dosage) == "" || strings.TrimSpace(d.Frequency) == "" || strings.TrimSpace(d.Duration) == "":
		return errors.New("dosage, frequency and duration are required")
	}
	return nil
}

func newDetail(rxID uuid.UUID, d DetailInput) *PrescriptionDetail {
	return &PrescriptionDetail{
		PrescriptionID: rxID,
		MedicationID:   d.MedicationID,
		Dosage:         d.Dosage,
		Frequency:      d.Frequency,
		Duration:       d.Duration,
		Quantity:       d.Quantity,
		Instructions:   d.Instructions,
	}
}

// GetPrescription returns the prescription with its detail lines.
func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	rx, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rx.Details, err = s.prescriptions.ListDetails(ctx, id); err != nil {
		return nil, fmt.Errorf("load prescription details: %w", err)
	}
	return rx, nil
}

// ListPrescriptions returns matches, most recently prescribed first.
func (s *Service) ListPrescriptions(ctx context.Context, f PrescriptionFilter, limit, offset int) ([]*Prescription, int, error) {
	if f.Status != "" && !validRxStatuses[f.Status] {
		return nil, 0, apperr.InvalidInput("invalid status: %s", f.Status)
	}
	return s.prescriptions.List(ctx, f, limit, offset)
}

// AddDetail appends a medication line. Only pending prescriptions accept new
// lines.
func (s *Service) AddDetail(ctx context.Context, prescriptionID uuid.UUID, in DetailInput) (*PrescriptionDetail, error) {
	if err := validateDetail(in); err != nil {
		return nil, apperr.InvalidInput("%s", err.Error())
	}
	var detail *PrescriptionDetail
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		rx, err := s.prescriptions.GetForUpdate(ctx, prescriptionID)
		if err != nil {
			return err
		}
		if rx.Status != RxPending {
			return apperr.InvalidState("Prescription already processed")
		}
		detail = newDetail(prescriptionID, in)
		return s.prescriptions.AddDetail(ctx, detail)
	})
	if err != nil {
		return nil, fmt.Errorf("add prescription detail: %w", err)
	}
	return detail, nil
}

func (s *Service) ListDetails(ctx context.Context, prescriptionID uuid.UUID) ([]*PrescriptionDetail, error) {
	if _, err := s.prescriptions.GetByID(ctx, prescriptionID); err != nil {
		return nil, err
	}
	return s.prescriptions.ListDetails(ctx, prescriptionID)
}

// CancelPrescription moves a pending prescription to cancelled.
func (s *Service) CancelPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	var out *Prescription
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		rx, err := s.prescriptions.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if rx.Status != RxPending {
			return apperr.InvalidState("Prescription already processed")
		}
		if err := s.prescriptions.SetStatus(ctx, id, RxCancelled); err != nil {
			return err
		}
		rx.Status = RxCancelled
		out = rx
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cancel prescription: %w", err)
	}
	return out, nil
}
