package staff

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/clinic/internal/platform/db"
)

type staffRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &staffRepoPG{pool: pool} }

func (r *staffRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const staffCols = `id, username, password_hash, first_name, last_name, email, role,
	specialization, phone, status, created_by, created_at, updated_at`

func scanStaff(row pgx.Row) (*Staff, error) {
	var s Staff
	err := row.Scan(&s.ID, &s.Username, &s.PasswordHash, &s.FirstName, &s.LastName, &s.Email, &s.Role,
		&s.Specialization, &s.Phone, &s.Status, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, db.MapError(err, "staff member")
	}
	return &s, nil
}

func (r *staffRepoPG) Create(ctx context.Context, s *Staff) error {
	s.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO staff (id, username, password_hash, first_name, last_name, email, role,
			specialization, phone, status, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at`,
		s.ID, s.Username, s.PasswordHash, s.FirstName, s.LastName, s.Email, s.Role,
		s.Specialization, s.Phone, s.Status, s.CreatedBy,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return db.MapError(err, "staff member")
}

func (r *staffRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	return scanStaff(r.conn(ctx).QueryRow(ctx, `SELECT `+staffCols+` FROM staff WHERE id = $1`, id))
}

func (r *staffRepoPG) GetByUsername(ctx context.Context, username string) (*Staff, error) {
	return scanStaff(r.conn(ctx).QueryRow(ctx, `SELECT `+staffCols+` FROM staff WHERE username = $1`, username))
}

func (r *staffRepoPG) Update(ctx context.Context, s *Staff) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE staff SET first_name=$2, last_name=$3, email=$4, role=$5, specialization=$6,
			phone=$7, status=$8, password_hash=$9, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		s.ID, s.FirstName, s.LastName, s.Email, s.Role, s.Specialization,
		s.Phone, s.Status, s.PasswordHash,
	).Scan(&s.UpdatedAt)
	return db.MapError(err, "staff member")
}

func (r *staffRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err, "staff member")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "staff member")
	}
	return nil
}

func (r *staffRepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Staff, int, error) {
	q := db.NewSearchQuery("staff", staffCols)
	if f.Role != "" {
		q.Eq("role", f.Role)
	}
	if f.Status != "" {
		q.Eq("status", f.Status)
	}
	if f.Search != "" {
		q.Contains(f.Search, "username", "first_name", "last_name", "email")
	}
	q.OrderBy("last_name, first_name, username")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

func (r *staffRepoPG) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM staff WHERE role = $1`, role).Scan(&n)
	return n, err
}
