package pharmacy

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/clinicops/clinic/internal/platform/apperr"
	"github.com/clinicops/clinic/internal/platform/auth"
)

// Dispense hands out every line of a pending prescription. In one
// transaction it locks the prescription, then the referenced inventory rows
// in id order, checks that stock covers every line, and only then
// decrements stock, stamps the lines and marks the prescription dispensed.
// Any failure leaves stock and status untouched.
func (s *Service) Dispense(ctx context.Context, actor auth.Actor, prescriptionID uuid.UUID) (*DispenseResult, error) {
	if !actor.IsStaff() {
		return nil, apperr.Forbidden("only staff may dispense prescriptions")
	}

	var out *Prescription
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		rx, err := s.prescriptions.GetForUpdate(ctx, prescriptionID)
		if err != nil {
			return err
		}
		if rx.Status != RxPending {
			return apperr.InvalidState("Prescription already processed")
		}

		details, err := s.prescriptions.ListDetails(ctx, prescriptionID)
		if err != nil {
			return err
		}
		if len(details) == 0 {
			return apperr.InvalidState("Prescription has no medication lines")
		}

		// lines for the same medication draw on the same stock
		requested := make(map[uuid.UUID]int)
		var order []uuid.UUID
		for _, d := range details {
			if _, seen := requested[d.MedicationID]; !seen {
				order = append(order, d.MedicationID)
			}
			requested[d.MedicationID] += d.Quantity
		}
		ids := append([]uuid.UUID(nil), order...)
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

		items, err := s.inventory.LockMany(ctx, ids)
		if err != nil {
			return err
		}
		for _, id := range order {
			item, ok := items[id]
			if !ok {
				return apperr.InvalidState("medication %s is no longer stocked", id)
			}
			if item.QuantityInStock < requested[id] {
				return apperr.InsufficientStock(item.ItemName)
			}
		}

		for _, id := range ids {
			if err := s.inventory.SetQuantity(ctx, id, items[id].QuantityInStock-requested[id]); err != nil {
				return err
			}
		}
		now := s.now().UTC()
		if err := s.prescriptions.MarkDispensed(ctx, prescriptionID, actor.StaffID, now); err != nil {
			return err
		}
		if err := s.prescriptions.SetStatus(ctx, prescriptionID, RxDispensed); err != nil {
			return err
		}

		rx.Status = RxDispensed
		by := actor.StaffID
		for _, d := range details {
			d.DispensedBy = &by
			d.DispensedDate = &now
		}
		rx.Details = details
		out = rx
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dispense prescription: %w", err)
	}
	return &DispenseResult{Status: "prescription dispensed", Prescription: out}, nil
}
