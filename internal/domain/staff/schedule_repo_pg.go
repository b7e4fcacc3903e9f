package staff

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/clinic/internal/platform/db"
)

type scheduleRepoPG struct{ pool *pgxpool.Pool }

func NewScheduleRepoPG(pool *pgxpool.Pool) ScheduleRepository { return &scheduleRepoPG{pool: pool} }

func (r *scheduleRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

// Hours are read back in the HH:MM form they are written in.
const scheduleCols = `id, staff_id, day_of_week,
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), is_active`

const weekdayOrder = `array_position(ARRAY['Monday','Tuesday','Wednesday','Thursday','Friday','Saturday','Sunday']::varchar[], day_of_week)`

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	err := row.Scan(&s.ID, &s.StaffID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.IsActive)
	if err != nil {
		return nil, db.MapError(err, "staff schedule")
	}
	return &s, nil
}

func (r *scheduleRepoPG) Create(ctx context.Context, s *Schedule) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO staff_schedule (id, staff_id, day_of_week, start_time, end_time, is_active)
		VALUES ($1, $2, $3, $4::time, $5::time, $6)`,
		s.ID, s.StaffID, s.DayOfWeek, s.StartTime, s.EndTime, s.IsActive)
	return db.MapError(err, "staff schedule")
}

func (r *scheduleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return scanSchedule(r.conn(ctx).QueryRow(ctx, `SELECT `+scheduleCols+` FROM staff_schedule WHERE id = $1`, id))
}

func (r *scheduleRepoPG) Update(ctx context.Context, s *Schedule) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE staff_schedule SET day_of_week=$2, start_time=$3::time, end_time=$4::time, is_active=$5
		WHERE id = $1`,
		s.ID, s.DayOfWeek, s.StartTime, s.EndTime, s.IsActive)
	if err != nil {
		return db.MapError(err, "staff schedule")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "staff schedule")
	}
	return nil
}

func (r *scheduleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM staff_schedule WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err, "staff schedule")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "staff schedule")
	}
	return nil
}

func (r *scheduleRepoPG) List(ctx context.Context, f ScheduleFilter, limit, offset int) ([]*Schedule, int, error) {
	q := db.NewSearchQuery("staff_schedule", scheduleCols)
	if f.StaffID != nil {
		q.Eq("staff_id", *f.StaffID)
	}
	if f.DayOfWeek != "" {
		q.Eq("day_of_week", f.DayOfWeek)
	}
	if f.IsActive != nil {
		q.Eq("is_active", *f.IsActive)
	}
	q.OrderBy("staff_id, " + weekdayOrder)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}
