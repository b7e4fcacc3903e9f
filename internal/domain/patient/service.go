package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinic/internal/platform/apperr"
	"github.com/clinicops/clinic/internal/platform/auth"
	"github.com/clinicops/clinic/pkg/date"
)

type Service struct {
	patients PatientRepository
	records  MedicalRecordRepository
	now      func() time.Time
}

func NewService(patients PatientRepository, records MedicalRecordRepository) *Service {
	return &Service{patients: patients, records: records, now: time.Now}
}

// -- Patient --

func (s *Service) validateDOB(dob date.Date) error {
	if dob.IsZero() {
		return apperr.InvalidInput("date_of_birth is required")
	}
	if date.Of(s.now()).Before(dob) {
		return apperr.InvalidInput("date_of_birth cannot be in the future")
	}
	return nil
}

func (s *Service) CreatePatient(ctx context.Context, in CreateInput) (*Patient, error) {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, apperr.InvalidInput("first_name and last_name are required")
	}
	if !validGenders[in.Gender] {
		return nil, apperr.InvalidInput("invalid gender: %s", in.Gender)
	}
	if strings.TrimSpace(in.ContactEmail) == "" {
		return nil, apperr.InvalidInput("contact_email is required")
	}
	if err := s.validateDOB(in.DateOfBirth); err != nil {
		return nil, err
	}
	p := &Patient{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		DateOfBirth:  in.DateOfBirth,
		Gender:       in.Gender,
		ContactEmail: strings.ToLower(strings.TrimSpace(in.ContactEmail)),
		ContactPhone: in.ContactPhone,
		Address:      in.Address,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, f Filter, limit, offset int) ([]*Patient, int, error) {
	if f.Gender != "" && !validGenders[f.Gender] {
		return nil, 0, apperr.InvalidInput("invalid gender: %s", f.Gender)
	}
	f.Search = strings.TrimSpace(f.Search)
	return s.patients.List(ctx, f, limit, offset)
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, in UpdateInput) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		p.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		p.LastName = strings.TrimSpace(*in.LastName)
	}
	if p.FirstName == "" || p.LastName == "" {
		return nil, apperr.InvalidInput("first_name and last_name are required")
	}
	if in.DateOfBirth != nil {
		if err := s.validateDOB(*in.DateOfBirth); err != nil {
			return nil, err
		}
		p.DateOfBirth = *in.DateOfBirth
	}
	if in.Gender != nil {
		if !validGenders[*in.Gender] {
			return nil, apperr.InvalidInput("invalid gender: %s", *in.Gender)
		}
		p.Gender = *in.Gender
	}
	if in.ContactEmail != nil {
		p.ContactEmail = strings.ToLower(strings.TrimSpace(*in.ContactEmail))
	}
	if in.ContactPhone != nil {
		p.ContactPhone = *in.ContactPhone
	}
	if in.Address != nil {
		p.Address = *in.Address
	}
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return p, nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

// -- Medical records --

// AddMedicalRecord appends to the patient's history. The record is attributed
// to the acting staff member.
func (s *Service) AddMedicalRecord(ctx context.Context, actor auth.Actor, patientID uuid.UUID, in MedicalRecordInput) (*MedicalRecord, error) {
	if !actor.IsStaff() {
		return nil, apperr.Forbidden("only staff may add medical records")
	}
	if !validRecordTypes[in.RecordType] {
		return nil, apperr.InvalidInput("invalid record_type: %s", in.RecordType)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, apperr.InvalidInput("description is required")
	}
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	recordedBy := actor.StaffID
	m := &MedicalRecord{
		PatientID:   patientID,
		RecordType:  in.RecordType,
		RecordDate:  s.now().UTC(),
		Description: in.Description,
		RecordedBy:  &recordedBy,
	}
	if in.RecordDate != nil {
		m.RecordDate = in.RecordDate.UTC()
	}
	if err := s.records.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create medical record: %w", err)
	}
	return m, nil
}

func (s *Service) GetMedicalRecord(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	return s.records.GetByID(ctx, id)
}

// ListMedicalRecords returns the patient's records, newest first.
func (s *Service) ListMedicalRecords(ctx context.Context, f MedicalRecordFilter, limit, offset int) ([]*MedicalRecord, int, error) {
	if f.RecordType != "" && !validRecordTypes[f.RecordType] {
		return nil, 0, apperr.InvalidInput("invalid record_type: %s", f.RecordType)
	}
	if f.PatientID != uuid.Nil {
		if _, err := s.patients.GetByID(ctx, f.PatientID); err != nil {
			return nil, 0, err
		}
	}
	return s.records.List(ctx, f, limit, offset)
}
