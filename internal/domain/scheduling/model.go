package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinic/pkg/date"
)

const (
	TypeInitialVisit = "initial_visit"
	TypeFollowUp     = "follow_up"
	TypeConsultation = "consultation"
	TypeProcedure    = "procedure"
)

var validTypes = map[string]bool{
	TypeInitialVisit: true, TypeFollowUp: true, TypeConsultation: true, TypeProcedure: true,
}

const (
	StatusBooked     = "booked"
	StatusConfirmed  = "confirmed"
	StatusCheckedIn  = "checked_in"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusNoShow     = "no_show"
)

var validStatuses = map[string]bool{
	StatusBooked: true, StatusConfirmed: true, StatusCheckedIn: true, StatusInProgress: true,
	StatusCompleted: true, StatusCancelled: true, StatusNoShow: true,
}

// Appointment maps to the appointment table.
type Appointment struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	PatientID           uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID            uuid.UUID `db:"doctor_id" json:"doctor_id"`
	AppointmentType     string    `db:"appointment_type" json:"appointment_type"`
	AppointmentDatetime time.Time `db:"appointment_datetime" json:"appointment_datetime"`
	ReasonForVisit      string    `db:"reason_for_visit" json:"reason_for_visit"`
	Status              string    `db:"status" json:"status"`
	CancellationReason  *string   `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// Closed reports whether the appointment can no longer change.
func (a *Appointment) Closed() bool {
	return a.Status == StatusCompleted || a.Status == StatusCancelled
}

type AppointmentInput struct {
	PatientID           uuid.UUID `json:"patient_id" validate:"required"`
	DoctorID            uuid.UUID `json:"doctor_id" validate:"required"`
	AppointmentType     string    `json:"appointment_type" validate:"required,oneof=initial_visit follow_up consultation procedure"`
	AppointmentDatetime time.Time `json:"appointment_datetime" validate:"required"`
	ReasonForVisit      string    `json:"reason_for_visit" validate:"required"`
}

type AppointmentUpdate struct {
	DoctorID            *uuid.UUID `json:"doctor_id"`
	AppointmentType     *string    `json:"appointment_type" validate:"omitempty,oneof=initial_visit follow_up consultation procedure"`
	AppointmentDatetime *time.Time `json:"appointment_datetime"`
	ReasonForVisit      *string    `json:"reason_for_visit"`
	Status              *string    `json:"status"`
}

type CancelInput struct {
	Reason string `json:"reason"`
}

// AppointmentFilter narrows appointment lists. Date selects one calendar day.
type AppointmentFilter struct {
	Status    string
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Date      *date.Date
}

// -- Consultation --

// Consultation records the clinical encounter for one appointment.
type Consultation struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	AppointmentID        uuid.UUID  `db:"appointment_id" json:"appointment_id"`
	PatientID            uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID             uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	ChiefComplaint       string     `db:"chief_complaint" json:"chief_complaint"`
	Diagnosis            string     `db:"diagnosis" json:"diagnosis"`
	Notes                string     `db:"notes" json:"notes"`
	ConsultationDatetime time.Time  `db:"consultation_datetime" json:"consultation_datetime"`
	FollowUpNeeded       bool       `db:"follow_up_needed" json:"follow_up_needed"`
	FollowUpDate         *date.Date `db:"follow_up_date" json:"follow_up_date,omitempty"`
}

type ConsultationInput struct {
	AppointmentID        uuid.UUID  `json:"appointment_id" validate:"required"`
	ChiefComplaint       string     `json:"chief_complaint" validate:"required"`
	Diagnosis            string     `json:"diagnosis" validate:"required"`
	Notes                string     `json:"notes"`
	ConsultationDatetime *time.Time `json:"consultation_datetime"`
	FollowUpNeeded       bool       `json:"follow_up_needed"`
	FollowUpDate         *date.Date `json:"follow_up_date"`
}

type ConsultationUpdate struct {
	ChiefComplaint *string    `json:"chief_complaint"`
	Diagnosis      *string    `json:"diagnosis"`
	Notes          *string    `json:"notes"`
	FollowUpNeeded *bool      `json:"follow_up_needed"`
	FollowUpDate   *date.Date `json:"follow_up_date"`
}

type ConsultationFilter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Date      *date.Date
}
