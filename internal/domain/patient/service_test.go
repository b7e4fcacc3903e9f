package patient

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinic/internal/platform/apperr"
	"github.com/clinicops/clinic/internal/platform/auth"
	"github.com/clinicops/clinic/pkg/date"
)

// -- Mock Repositories --

type mockPatientRepo struct {
	items map[uuid.UUID]*Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{items: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	for _, existing := range m.items {
		if existing.ContactEmail == p.ContactEmail {
			return apperr.Conflict("patient already exists")
		}
	}
	p.ID = uuid.New()
	p.RegistrationDate = time.Now()
	p.UpdatedAt = time.Now()
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("patient not found")
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.items[p.ID]; !ok {
		return apperr.NotFound("patient not found")
	}
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return apperr.NotFound("patient not found")
	}
	delete(m.items, id)
	return nil
}

func (m *mockPatientRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Patient, int, error) {
	var result []*Patient
	term := strings.ToLower(f.Search)
	for _, p := range m.items {
		if f.Gender != "" && p.Gender != f.Gender {
			continue
		}
		hay := strings.ToLower(strings.Join([]string{p.FirstName, p.LastName, p.ContactEmail, p.ContactPhone}, " "))
		if term != "" && !strings.Contains(hay, term) {
			continue
		}
		cp := *p
		result = append(result, &cp)
	}
	return result, len(result), nil
}

type mockRecordRepo struct {
	items map[uuid.UUID]*MedicalRecord
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{items: make(map[uuid.UUID]*MedicalRecord)}
}

func (m *mockRecordRepo) Create(_ context.Context, r *MedicalRecord) error {
	r.ID = uuid.New()
	cp := *r
	m.items[r.ID] = &cp
	return nil
}

func (m *mockRecordRepo) GetByID(_ context.Context, id uuid.UUID) (*MedicalRecord, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("medical record not found")
	}
	cp := *r
	return &cp, nil
}

func (m *mockRecordRepo) List(_ context.Context, f MedicalRecordFilter, limit, offset int) ([]*MedicalRecord, int, error) {
	var result []*MedicalRecord
	for _, r := range m.items {
		if f.PatientID != uuid.Nil && r.PatientID != f.PatientID {
			continue
		}
		if f.RecordType != "" && r.RecordType != f.RecordType {
			continue
		}
		cp := *r
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RecordDate.After(result[j].RecordDate) })
	return result, len(result), nil
}

func newTestService() *Service {
	svc := NewService(newMockPatientRepo(), newMockRecordRepo())
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func validPatientInput(email string) CreateInput {
	return CreateInput{
		FirstName:    "Jane",
		LastName:     "Doe",
		DateOfBirth:  date.New(1985, time.March, 14),
		Gender:       GenderFemale,
		ContactEmail: email,
		ContactPhone: "555-0100",
	}
}

func doctor() auth.Actor {
	return auth.Actor{StaffID: uuid.New(), Role: auth.RoleDoctor}
}

// -- Patient Tests --

func TestService_CreatePatient(t *testing.T) {
	svc := newTestService()
	p, err := svc.CreatePatient(context.Background(), validPatientInput("Jane.Doe@Example.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if p.ContactEmail != "jane.doe@example.com" {
		t.Errorf("expected normalised email, got %s", p.ContactEmail)
	}
}

func TestService_CreatePatient_Validation(t *testing.T) {
	svc := newTestService()
	tests := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing first name", func(in *CreateInput) { in.FirstName = " " }},
		{"bad gender", func(in *CreateInput) { in.Gender = "X" }},
		{"missing dob", func(in *CreateInput) { in.DateOfBirth = date.Date{} }},
		{"future dob", func(in *CreateInput) { in.DateOfBirth = date.New(2030, time.January, 1) }},
		{"missing email", func(in *CreateInput) { in.ContactEmail = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validPatientInput("a@b.test")
			tt.mutate(&in)
			_, err := svc.CreatePatient(context.Background(), in)
			if !errors.Is(err, apperr.ErrInvalidInput) {
				t.Errorf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestService_CreatePatient_DuplicateEmail(t *testing.T) {
	svc := newTestService()
	svc.CreatePatient(context.Background(), validPatientInput("dup@clinic.test"))
	_, err := svc.CreatePatient(context.Background(), validPatientInput("dup@clinic.test"))
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestService_ListPatients_Search(t *testing.T) {
	svc := newTestService()
	a := validPatientInput("jane@clinic.test")
	b := validPatientInput("john@clinic.test")
	b.FirstName, b.LastName, b.ContactPhone = "John", "Smith", "555-9999"
	svc.CreatePatient(context.Background(), a)
	svc.CreatePatient(context.Background(), b)

	tests := []struct {
		search string
		want   int
	}{
		{"smith", 1},
		{"JANE@", 1},
		{"555-9999", 1},
		{"clinic.test", 2},
		{"nobody", 0},
		{"", 2},
	}
	for _, tt := range tests {
		_, total, err := svc.ListPatients(context.Background(), Filter{Search: tt.search}, 20, 0)
		if err != nil {
			t.Fatalf("search %q: %v", tt.search, err)
		}
		if total != tt.want {
			t.Errorf("search %q: expected %d, got %d", tt.search, tt.want, total)
		}
	}
}

func TestService_UpdatePatient(t *testing.T) {
	svc := newTestService()
	p, _ := svc.CreatePatient(context.Background(), validPatientInput("u@clinic.test"))

	addr := "12 Harbour Rd"
	gender := GenderOther
	updated, err := svc.UpdatePatient(context.Background(), p.ID, UpdateInput{Address: &addr, Gender: &gender})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Address != addr || updated.Gender != GenderOther || updated.FirstName != "Jane" {
		t.Errorf("unexpected patient: %+v", updated)
	}

	blank := ""
	if _, err := svc.UpdatePatient(context.Background(), p.ID, UpdateInput{LastName: &blank}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("expected invalid input for blank last name, got %v", err)
	}
}

func TestService_DeletePatient_NotFound(t *testing.T) {
	svc := newTestService()
	if err := svc.DeletePatient(context.Background(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

// -- Medical Record Tests --

func TestService_AddMedicalRecord_RecordedByActor(t *testing.T) {
	svc := newTestService()
	p, _ := svc.CreatePatient(context.Background(), validPatientInput("mr@clinic.test"))
	actor := doctor()

	m, err := svc.AddMedicalRecord(context.Background(), actor, p.ID, MedicalRecordInput{
		RecordType: RecordDiagnosis, Description: "Seasonal allergic rhinitis",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.RecordedBy == nil || *m.RecordedBy != actor.StaffID {
		t.Errorf("expected recorded_by %s, got %v", actor.StaffID, m.RecordedBy)
	}
	if !m.RecordDate.Equal(svc.now().UTC()) {
		t.Errorf("expected record_date to default to now, got %v", m.RecordDate)
	}
}

func TestService_AddMedicalRecord_Errors(t *testing.T) {
	svc := newTestService()
	p, _ := svc.CreatePatient(context.Background(), validPatientInput("mr2@clinic.test"))

	_, err := svc.AddMedicalRecord(context.Background(), doctor(), uuid.New(), MedicalRecordInput{RecordType: RecordDiagnosis, Description: "x"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown patient: expected not found, got %v", err)
	}
	_, err = svc.AddMedicalRecord(context.Background(), doctor(), p.ID, MedicalRecordInput{RecordType: "xray", Description: "x"})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bad type: expected invalid input, got %v", err)
	}
	_, err = svc.AddMedicalRecord(context.Background(), auth.Actor{Role: auth.RoleDoctor}, p.ID,
		MedicalRecordInput{RecordType: RecordDiagnosis, Description: "x"})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("patient actor: expected forbidden, got %v", err)
	}
}

func TestService_ListMedicalRecords_FilterAndOrder(t *testing.T) {
	svc := newTestService()
	p, _ := svc.CreatePatient(context.Background(), validPatientInput("mr3@clinic.test"))
	actor := doctor()

	older := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.AddMedicalRecord(context.Background(), actor, p.ID, MedicalRecordInput{RecordType: RecordDiagnosis, Description: "old", RecordDate: &older})
	svc.AddMedicalRecord(context.Background(), actor, p.ID, MedicalRecordInput{RecordType: RecordDiagnosis, Description: "new", RecordDate: &newer})
	svc.AddMedicalRecord(context.Background(), actor, p.ID, MedicalRecordInput{RecordType: RecordImmunization, Description: "flu"})

	items, total, err := svc.ListMedicalRecords(context.Background(), MedicalRecordFilter{PatientID: p.ID, RecordType: RecordDiagnosis}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 diagnoses, got %d", total)
	}
	if items[0].Description != "new" {
		t.Errorf("expected newest first, got %s", items[0].Description)
	}
}
