package laboratory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/clinic/internal/platform/db"
)

// -- Lab Request --

type requestRepoPG struct{ pool *pgxpool.Pool }

func NewRequestRepoPG(pool *pgxpool.Pool) RequestRepository { return &requestRepoPG{pool: pool} }

func (r *requestRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const requestCols = `id, patient_id, doctor_id, appointment_id, test_name, priority, status, request_date`

func scanRequest(row pgx.Row) (*Request, error) {
	var q Request
	err := row.Scan(&q.ID, &q.PatientID, &q.DoctorID, &q.AppointmentID, &q.TestName, &q.Priority, &q.Status, &q.RequestDate)
	if err != nil {
		return nil, db.MapError(err, "lab request")
	}
	return &q, nil
}

func (r *requestRepoPG) Create(ctx context.Context, q *Request) error {
	q.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lab_request (id, patient_id, doctor_id, appointment_id, test_name, priority, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING request_date`,
		q.ID, q.PatientID, q.DoctorID, q.AppointmentID, q.TestName, q.Priority, q.Status,
	).Scan(&q.RequestDate)
	return db.MapError(err, "lab request")
}

func (r *requestRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	return scanRequest(r.conn(ctx).QueryRow(ctx, `SELECT `+requestCols+` FROM lab_request WHERE id = $1`, id))
}

func (r *requestRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Request, error) {
	return scanRequest(r.conn(ctx).QueryRow(ctx,
		`SELECT `+requestCols+` FROM lab_request WHERE id = $1 FOR UPDATE`, id))
}

func (r *requestRepoPG) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE lab_request SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return db.MapError(err, "lab request")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "lab request")
	}
	return nil
}

func (r *requestRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM lab_request WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err, "lab request")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "lab request")
	}
	return nil
}

func (r *requestRepoPG) List(ctx context.Context, f RequestFilter, limit, offset int) ([]*Request, int, error) {
	q := db.NewSearchQuery("lab_request", requestCols)
	if f.Status != "" {
		q.Eq("status", f.Status)
	}
	if f.Priority != "" {
		q.Eq("priority", f.Priority)
	}
	if f.PatientID != nil {
		q.Eq("patient_id", *f.PatientID)
	}
	if f.DoctorID != nil {
		q.Eq("doctor_id", *f.DoctorID)
	}
	q.OrderBy("request_date DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, req)
	}
	return items, total, rows.Err()
}

// -- Lab Result --

type resultRepoPG struct{ pool *pgxpool.Pool }

func NewResultRepoPG(pool *pgxpool.Pool) ResultRepository { return &resultRepoPG{pool: pool} }

func (r *resultRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const resultCols = `r.id, r.request_id, r.test_value, r.is_abnormal, r.notes, r.performed_by, r.verified_by, r.result_date`

// patient_id lives on the request, so result queries always join it.
const resultFrom = `lab_result r JOIN lab_request q ON q.id = r.request_id`

func scanResult(row pgx.Row) (*Result, error) {
	var res Result
	err := row.Scan(&res.ID, &res.RequestID, &res.TestValue, &res.IsAbnormal, &res.Notes,
		&res.PerformedBy, &res.VerifiedBy, &res.ResultDate)
	if err != nil {
		return nil, db.MapError(err, "lab result")
	}
	return &res, nil
}

func (r *resultRepoPG) Create(ctx context.Context, res *Result) error {
	res.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_result (id, request_id, test_value, is_abnormal, notes, performed_by, result_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		res.ID, res.RequestID, res.TestValue, res.IsAbnormal, res.Notes, res.PerformedBy, res.ResultDate,
	)
	return db.MapError(err, "lab result")
}

func (r *resultRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Result, error) {
	return scanResult(r.conn(ctx).QueryRow(ctx, `SELECT `+resultCols+` FROM `+resultFrom+` WHERE r.id = $1`, id))
}

func (r *resultRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Result, error) {
	return scanResult(r.conn(ctx).QueryRow(ctx,
		`SELECT `+resultCols+` FROM `+resultFrom+` WHERE r.id = $1 FOR UPDATE OF r`, id))
}

func (r *resultRepoPG) GetByRequest(ctx context.Context, requestID uuid.UUID) (*Result, error) {
	return scanResult(r.conn(ctx).QueryRow(ctx,
		`SELECT `+resultCols+` FROM `+resultFrom+` WHERE r.request_id = $1`, requestID))
}

func (r *resultRepoPG) Update(ctx context.Context, res *Result) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_result SET test_value=$2, is_abnormal=$3, notes=$4
		WHERE id = $1`,
		res.ID, res.TestValue, res.IsAbnormal, res.Notes)
	if err != nil {
		return db.MapError(err, "lab result")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "lab result")
	}
	return nil
}

func (r *resultRepoPG) SetVerifiedBy(ctx context.Context, id, staffID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE lab_result SET verified_by = $2 WHERE id = $1`, id, staffID)
	if err != nil {
		return db.MapError(err, "lab result")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "lab result")
	}
	return nil
}

func (r *resultRepoPG) List(ctx context.Context, f ResultFilter, limit, offset int) ([]*Result, int, error) {
	q := db.NewSearchQuery(resultFrom, resultCols)
	if f.RequestID != nil {
		q.Eq("r.request_id", *f.RequestID)
	}
	if f.PatientID != nil {
		q.Eq("q.patient_id", *f.PatientID)
	}
	if f.IsAbnormal != nil {
		q.Eq("r.is_abnormal", *f.IsAbnormal)
	}
	q.OrderBy("r.result_date DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, res)
	}
	return items, total, rows.Err()
}
