package scheduling

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/clinic/internal/platform/db"
	"github.com/clinicops/clinic/pkg/date"
)

// -- Appointment --

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const apptCols = `id, patient_id, doctor_id, appointment_type, appointment_datetime,
	reason_for_visit, status, cancellation_reason, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.AppointmentType, &a.AppointmentDatetime,
		&a.ReasonForVisit, &a.Status, &a.CancellationReason, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, db.MapError(err, "appointment")
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, appointment_type, appointment_datetime,
			reason_for_visit, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.AppointmentType, a.AppointmentDatetime,
		a.ReasonForVisit, a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return db.MapError(err, "appointment")
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *appointmentRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE id = $1 FOR UPDATE`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointment SET doctor_id=$2, appointment_type=$3, appointment_datetime=$4,
			reason_for_visit=$5, status=$6, cancellation_reason=$7, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.DoctorID, a.AppointmentType, a.AppointmentDatetime,
		a.ReasonForVisit, a.Status, a.CancellationReason,
	).Scan(&a.UpdatedAt)
	return db.MapError(err, "appointment")
}

func (r *appointmentRepoPG) List(ctx context.Context, f AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	q := db.NewSearchQuery("appointment", apptCols)
	if f.Status != "" {
		q.Eq("status", f.Status)
	}
	if f.DoctorID != nil {
		q.Eq("doctor_id", *f.DoctorID)
	}
	if f.PatientID != nil {
		q.Eq("patient_id", *f.PatientID)
	}
	if start, end := date.Span(f.Date, f.Date); start != nil {
		q.Cmp("appointment_datetime", ">=", *start)
		q.Cmp("appointment_datetime", "<", *end)
	}
	q.OrderBy("appointment_datetime ASC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

// -- Consultation --

type consultationRepoPG struct{ pool *pgxpool.Pool }

func NewConsultationRepoPG(pool *pgxpool.Pool) ConsultationRepository {
	return &consultationRepoPG{pool: pool}
}

func (r *consultationRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const consultCols = `id, appointment_id, patient_id, doctor_id, chief_complaint, diagnosis, notes,
	consultation_datetime, follow_up_needed, follow_up_date`

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(&c.ID, &c.AppointmentID, &c.PatientID, &c.DoctorID, &c.ChiefComplaint, &c.Diagnosis, &c.Notes,
		&c.ConsultationDatetime, &c.FollowUpNeeded, &c.FollowUpDate)
	if err != nil {
		return nil, db.MapError(err, "consultation")
	}
	return &c, nil
}

func (r *consultationRepoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consultation (id, appointment_id, patient_id, doctor_id, chief_complaint, diagnosis,
			notes, consultation_datetime, follow_up_needed, follow_up_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.AppointmentID, c.PatientID, c.DoctorID, c.ChiefComplaint, c.Diagnosis,
		c.Notes, c.ConsultationDatetime, c.FollowUpNeeded, c.FollowUpDate,
	)
	return db.MapError(err, "consultation")
}

func (r *consultationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return scanConsultation(r.conn(ctx).QueryRow(ctx, `SELECT `+consultCols+` FROM consultation WHERE id = $1`, id))
}

func (r *consultationRepoPG) Update(ctx context.Context, c *Consultation) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE consultation SET chief_complaint=$2, diagnosis=$3, notes=$4,
			follow_up_needed=$5, follow_up_date=$6
		WHERE id = $1`,
		c.ID, c.ChiefComplaint, c.Diagnosis, c.Notes, c.FollowUpNeeded, c.FollowUpDate,
	)
	if err != nil {
		return db.MapError(err, "consultation")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "consultation")
	}
	return nil
}

func (r *consultationRepoPG) List(ctx context.Context, f ConsultationFilter, limit, offset int) ([]*Consultation, int, error) {
	q := db.NewSearchQuery("consultation", consultCols)
	if f.DoctorID != nil {
		q.Eq("doctor_id", *f.DoctorID)
	}
	if f.PatientID != nil {
		q.Eq("patient_id", *f.PatientID)
	}
	if start, end := date.Span(f.Date, f.Date); start != nil {
		q.Cmp("consultation_datetime", ">=", *start)
		q.Cmp("consultation_datetime", "<", *end)
	}
	q.OrderBy("consultation_datetime DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}
