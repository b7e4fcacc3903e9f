package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinic/internal/platform/apperr"
	"github.com/clinicops/clinic/internal/platform/auth"
	"github.com/clinicops/clinic/internal/platform/db"
)

type Service struct {
	appts    AppointmentRepository
	consults ConsultationRepository
	staff    StaffDirectory
	tx       db.Transactor
	now      func() time.Time
}

func NewService(appts AppointmentRepository, consults ConsultationRepository, staff StaffDirectory, tx db.Transactor) *Service {
	return &Service{appts: appts, consults: consults, staff: staff, tx: tx, now: time.Now}
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

// -- Appointment --

func (s *Service) CreateAppointment(ctx context.Context, in AppointmentInput) (*Appointment, error) {
	if in.PatientID == uuid.Nil {
		return nil, apperr.InvalidInput("patient_id is required")
	}
	if !validTypes[in.AppointmentType] {
		return nil, apperr.InvalidInput("invalid appointment_type: %s", in.AppointmentType)
	}
	if in.AppointmentDatetime.IsZero() {
		return nil, apperr.InvalidInput("appointment_datetime is required")
	}
	if strings.TrimSpace(in.ReasonForVisit) == "" {
		return nil, apperr.InvalidInput("reason_for_visit is required")
	}
	if err := s.requireDoctor(ctx, in.DoctorID); err != nil {
		return nil, err
	}
	a := &Appointment{
		PatientID:           in.PatientID,
		DoctorID:            in.DoctorID,
		AppointmentType:     in.AppointmentType,
		AppointmentDatetime: in.AppointmentDatetime.UTC(),
		ReasonForVisit:      in.ReasonForVisit,
		Status:              StatusBooked,
	}
	if err := s.appts.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return a, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appts.GetByID(ctx, id)
}

// ListAppointments returns matches ordered by appointment time, earliest first.
func (s *Service) ListAppointments(ctx context.Context, f AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	if f.Status != "" && !validStatuses[f.Status] {
		return nil, 0, apperr.InvalidInput("invalid status: %s", f.Status)
	}
	return s.appts.List(ctx, f, limit, offset)
}

// UpdateAppointment reschedules or moves an open appointment through its
// workflow. Cancellation goes through CancelAppointment.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, in AppointmentUpdate) (*Appointment, error) {
	if in.Status != nil {
		if !validStatuses[*in.Status] {
			return nil, apperr.InvalidInput("invalid status: %s", *in.Status)
		}
		if *in.Status == StatusCancelled {
			return nil, apperr.InvalidInput("use the cancel endpoint to cancel an appointment")
		}
	}
	if in.AppointmentType != nil && !validTypes[*in.AppointmentType] {
		return nil, apperr.InvalidInput("invalid appointment_type: %s", *in.AppointmentType)
	}
	if in.DoctorID != nil {
		if err := s.requireDoctor(ctx, *in.DoctorID); err != nil {
			return nil, err
		}
	}

	var out *Appointment
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		a, err := s.appts.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if a.Closed() {
			return apperr.InvalidState("Cannot modify a %s appointment", a.Status)
		}
		if in.DoctorID != nil {
			a.DoctorID = *in.DoctorID
		}
		if in.AppointmentType != nil {
			a.AppointmentType = *in.AppointmentType
		}
		if in.AppointmentDatetime != nil {
			a.AppointmentDatetime = in.AppointmentDatetime.UTC()
		}
		if in.ReasonForVisit != nil {
			a.ReasonForVisit = *in.ReasonForVisit
		}
		if in.Status != nil {
			a.Status = *in.Status
		}
		if err := s.appts.Update(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	return out, nil
}

// CancelAppointment marks an open appointment cancelled, recording reason.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	var out *Appointment
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		a, err := s.appts.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if a.Closed() {
			return apperr.InvalidState("Cannot cancel a completed or already cancelled appointment")
		}
		a.Status = StatusCancelled
		if r := strings.TrimSpace(reason); r != "" {
			a.CancellationReason = &r
		}
		if err := s.appts.Update(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}
	return out, nil
}

// -- Consultation --

// RecordConsultation writes the consultation for an appointment and marks
// the appointment completed. Patient and doctor come from the appointment,
// except that a doctor recording the visit is credited as its doctor.
func (s *Service) RecordConsultation(ctx context.Context, actor auth.Actor, in ConsultationInput) (*Consultation, error) {
	if !actor.IsStaff() {
		return nil, apperr.Forbidden("only staff may record consultations")
	}
	if strings.TrimSpace(in.ChiefComplaint) == "" || strings.TrimSpace(in.Diagnosis) == "" {
		return nil, apperr.InvalidInput("chief_complaint and diagnosis are required")
	}
	if in.FollowUpDate != nil && !in.FollowUpNeeded {
		return nil, apperr.InvalidInput("follow_up_date requires follow_up_needed")
	}

	var out *Consultation
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		a, err := s.appts.GetForUpdate(ctx, in.AppointmentID)
		if err != nil {
			return err
		}
		if a.Status == StatusCancelled {
			return apperr.InvalidState("Cannot record a consultation for a cancelled appointment")
		}

		c := &Consultation{
			AppointmentID:        a.ID,
			PatientID:            a.PatientID,
			DoctorID:             a.DoctorID,
			ChiefComplaint:       in.ChiefComplaint,
			Diagnosis:            in.Diagnosis,
			Notes:                in.Notes,
			ConsultationDatetime: s.now().UTC(),
			FollowUpNeeded:       in.FollowUpNeeded,
			FollowUpDate:         in.FollowUpDate,
		}
		if actor.Role == auth.RoleDoctor {
			c.DoctorID = actor.StaffID
		}
		if in.ConsultationDatetime != nil {
			c.ConsultationDatetime = in.ConsultationDatetime.UTC()
		}
		if err := s.consults.Create(ctx, c); err != nil {
			return err
		}

		if a.Status != StatusCompleted {
			a.Status = StatusCompleted
			if err := s.appts.Update(ctx, a); err != nil {
				return err
			}
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record consultation: %w", err)
	}
	return out, nil
}

func (s *Service) GetConsultation(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return s.consults.GetByID(ctx, id)
}

// ConsultationParties returns the patient and doctor of a consultation.
func (s *Service) ConsultationParties(ctx context.Context, id uuid.UUID) (patientID, doctorID uuid.UUID, err error) {
	c, err := s.consults.GetByID(ctx, id)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return c.PatientID, c.DoctorID, nil
}

// ListConsultations returns matches, most recent first.
func (s *Service) ListConsultations(ctx context.Context, f ConsultationFilter, limit, offset int) ([]*Consultation, int, error) {
	return s.consults.List(ctx, f, limit, offset)
}

func (s *Service) UpdateConsultation(ctx context.Context, id uuid.UUID, in ConsultationUpdate) (*Consultation, error) {
	c, err := s.consults.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.ChiefComplaint != nil {
		c.ChiefComplaint = *in.ChiefComplaint
	}
	if in.Diagnosis != nil {
		c.Diagnosis = *in.Diagnosis
	}
	if in.Notes != nil {
		c.Notes = *in.Notes
	}
	if in.FollowUpNeeded != nil {
		c.FollowUpNeeded = *in.FollowUpNeeded
		if !c.FollowUpNeeded {
			c.FollowUpDate = nil
		}
	}
	if in.FollowUpDate != nil {
		if !c.FollowUpNeeded {
			return nil, apperr.InvalidInput("follow_up_date requires follow_up_needed")
		}
		c.FollowUpDate = in.FollowUpDate
	}
	if strings.TrimSpace(c.ChiefComplaint) == "" || strings.TrimSpace(c.Diagnosis) == "" {
		return nil, apperr.InvalidInput("chief_complaint and diagnosis are required")
	}
	if err := s.consults.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update consultation: %w", err)
	}
	return c, nil
}
