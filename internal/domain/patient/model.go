package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinic/pkg/date"
)

const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderOther  = "O"
)

var validGenders = map[string]bool{GenderMale: true, GenderFemale: true, GenderOther: true}

// Patient maps to the patient table.
type Patient struct {
	ID               uuid.UUID `db:"id" json:"id"`
	FirstName        string    `db:"first_name" json:"first_name"`
	LastName         string    `db:"last_name" json:"last_name"`
	DateOfBirth      date.Date `db:"date_of_birth" json:"date_of_birth"`
	Gender           string    `db:"gender" json:"gender"`
	ContactEmail     string    `db:"contact_email" json:"contact_email"`
	ContactPhone     string    `db:"contact_phone" json:"contact_phone"`
	Address          string    `db:"address" json:"address"`
	RegistrationDate time.Time `db:"registration_date" json:"registration_date"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

type CreateInput struct {
	FirstName    string    `json:"first_name" validate:"required,max=50"`
	LastName     string    `json:"last_name" validate:"required,max=50"`
	DateOfBirth  date.Date `json:"date_of_birth" validate:"required"`
	Gender       string    `json:"gender" validate:"required,oneof=M F O"`
	ContactEmail string    `json:"contact_email" validate:"required,email,max=254"`
	ContactPhone string    `json:"contact_phone" validate:"max=20"`
	Address      string    `json:"address"`
}

type UpdateInput struct {
	FirstName    *string    `json:"first_name" validate:"omitempty,max=50"`
	LastName     *string    `json:"last_name" validate:"omitempty,max=50"`
	DateOfBirth  *date.Date `json:"date_of_birth"`
	Gender       *string    `json:"gender" validate:"omitempty,oneof=M F O"`
	ContactEmail *string    `json:"contact_email" validate:"omitempty,email,max=254"`
	ContactPhone *string    `json:"contact_phone" validate:"omitempty,max=20"`
	Address      *string    `json:"address"`
}

// Filter narrows patient lists. Search matches names, email and phone.
type Filter struct {
	Search string
	Gender string
}

// -- Medical records --

const (
	RecordDiagnosis    = "diagnosis"
	RecordProcedure    = "procedure"
	RecordLabResult    = "lab_result"
	RecordPrescription = "prescription"
	RecordImmunization = "immunization"
)

var validRecordTypes = map[string]bool{
	RecordDiagnosis: true, RecordProcedure: true, RecordLabResult: true,
	RecordPrescription: true, RecordImmunization: true,
}

// MedicalRecord is an entry in a patient's history. RecordedBy is the staff
// member who created it.
type MedicalRecord struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	RecordType  string     `db:"record_type" json:"record_type"`
	RecordDate  time.Time  `db:"record_date" json:"record_date"`
	Description string     `db:"description" json:"description"`
	RecordedBy  *uuid.UUID `db:"recorded_by" json:"recorded_by,omitempty"`
}

type MedicalRecordInput struct {
	RecordType  string     `json:"record_type" validate:"required,oneof=diagnosis procedure lab_result prescription immunization"`
	RecordDate  *time.Time `json:"record_date"`
	Description string     `json:"description" validate:"required"`
}

type MedicalRecordFilter struct {
	PatientID  uuid.UUID
	RecordType string
}
