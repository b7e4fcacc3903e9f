package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/clinic/internal/platform/db"
)

// -- Patient --

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `id, first_name, last_name, date_of_birth, gender, contact_email,
	contact_phone, address, registration_date, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender, &p.ContactEmail,
		&p.ContactPhone, &p.Address, &p.RegistrationDate, &p.UpdatedAt)
	if err != nil {
		return nil, db.MapError(err, "patient")
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (id, first_name, last_name, date_of_birth, gender, contact_email,
			contact_phone, address)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING registration_date, updated_at`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.ContactEmail,
		p.ContactPhone, p.Address,
	).Scan(&p.RegistrationDate, &p.UpdatedAt)
	return db.MapError(err, "patient")
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET first_name=$2, last_name=$3, date_of_birth=$4, gender=$5,
			contact_email=$6, contact_phone=$7, address=$8, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender,
		p.ContactEmail, p.ContactPhone, p.Address,
	).Scan(&p.UpdatedAt)
	return db.MapError(err, "patient")
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err, "patient")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "patient")
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Patient, int, error) {
	q := db.NewSearchQuery("patient", patientCols)
	if f.Search != "" {
		q.Contains(f.Search, "first_name", "last_name", "contact_email", "contact_phone")
	}
	if f.Gender != "" {
		q.Eq("gender", f.Gender)
	}
	q.OrderBy("last_name, first_name")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// -- Medical records --

type medicalRecordRepoPG struct{ pool *pgxpool.Pool }

func NewMedicalRecordRepoPG(pool *pgxpool.Pool) MedicalRecordRepository {
	return &medicalRecordRepoPG{pool: pool}
}

func (r *medicalRecordRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const recordCols = `id, patient_id, record_type, record_date, description, recorded_by`

func scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var m MedicalRecord
	if err := row.Scan(&m.ID, &m.PatientID, &m.RecordType, &m.RecordDate, &m.Description, &m.RecordedBy); err != nil {
		return nil, db.MapError(err, "medical record")
	}
	return &m, nil
}

func (r *medicalRecordRepoPG) Create(ctx context.Context, m *MedicalRecord) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_record (id, patient_id, record_type, record_date, description, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		m.ID, m.PatientID, m.RecordType, m.RecordDate, m.Description, m.RecordedBy,
	)
	return db.MapError(err, "medical record")
}

func (r *medicalRecordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	return scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+recordCols+` FROM medical_record WHERE id = $1`, id))
}

func (r *medicalRecordRepoPG) List(ctx context.Context, f MedicalRecordFilter, limit, offset int) ([]*MedicalRecord, int, error) {
	q := db.NewSearchQuery("medical_record", recordCols)
	if f.PatientID != uuid.Nil {
		q.Eq("patient_id", f.PatientID)
	}
	if f.RecordType != "" {
		q.Eq("record_type", f.RecordType)
	}
	q.OrderBy("record_date DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*MedicalRecord
	for rows.Next() {
		m, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}
