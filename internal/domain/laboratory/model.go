package laboratory

import (
	"time"

	"github.com/google/uuid"
)

const (
	PriorityRoutine   = "routine"
	PriorityUrgent    = "urgent"
	PriorityEmergency = "emergency"
)

var validPriorities = map[string]bool{PriorityRoutine: true, PriorityUrgent: true, PriorityEmergency: true}

const (
	StatusRequested       = "requested"
	StatusSampleCollected = "sample_collected"
	StatusInProgress      = "in_progress"
	StatusCompleted       = "completed"
	StatusCancelled       = "cancelled"
)

var validStatuses = map[string]bool{
	StatusRequested: true, StatusSampleCollected: true, StatusInProgress: true,
	StatusCompleted: true, StatusCancelled: true,
}

// Closed reports whether a request in this status accepts no further changes.
func Closed(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}

// -- Lab Request --

// Request is a test ordered by a doctor for a patient.
type Request struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	TestName      string     `db:"test_name" json:"test_name"`
	Priority      string     `db:"priority" json:"priority"`
	Status        string     `db:"status" json:"status"`
	RequestDate   time.Time  `db:"request_date" json:"request_date"`
	Result        *Result    `db:"-" json:"result,omitempty"`
}

// RequestInput orders a test. DoctorID is only read when the caller is not
// a doctor.
type RequestInput struct {
	PatientID     uuid.UUID  `json:"patient_id" validate:"required"`
	DoctorID      *uuid.UUID `json:"doctor_id"`
	AppointmentID *uuid.UUID `json:"appointment_id"`
	TestName      string     `json:"test_name" validate:"required,max=100"`
	Priority      string     `json:"priority" validate:"omitempty,oneof=routine urgent emergency"`
}

type StatusInput struct {
	Status string `json:"status"`
}

type RequestFilter struct {
	Status    string
	Priority  string
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

// -- Lab Result --

// Result is the single outcome recorded against a request. VerifiedBy is set
// once.
type Result struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	RequestID   uuid.UUID  `db:"request_id" json:"request_id"`
	TestValue   string     `db:"test_value" json:"test_value"`
	IsAbnormal  bool       `db:"is_abnormal" json:"is_abnormal"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	PerformedBy uuid.UUID  `db:"performed_by" json:"performed_by"`
	VerifiedBy  *uuid.UUID `db:"verified_by" json:"verified_by,omitempty"`
	ResultDate  time.Time  `db:"result_date" json:"result_date"`
}

func (r *Result) Verified() bool { return r.VerifiedBy != nil }

type ResultInput struct {
	RequestID  uuid.UUID `json:"request_id" validate:"required"`
	TestValue  string    `json:"test_value" validate:"required,max=100"`
	IsAbnormal bool      `json:"is_abnormal"`
	Notes      *string   `json:"notes"`
}

// ResultUpdate corrects an unverified result.
type ResultUpdate struct {
	TestValue  *string `json:"test_value" validate:"omitempty,max=100"`
	IsAbnormal *bool   `json:"is_abnormal"`
	Notes      *string `json:"notes"`
}

type ResultFilter struct {
	RequestID  *uuid.UUID
	PatientID  *uuid.UUID
	IsAbnormal *bool
}
