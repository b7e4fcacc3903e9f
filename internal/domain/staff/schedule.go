package staff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinic/internal/platform/apperr"
)

// Weekdays in schedule order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func validWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// clockLayout is the wire and storage format of schedule hours.
const clockLayout = "15:04"

// Schedule is a staff member's working hours on one weekday. A staff member
// has at most one schedule per day.
type Schedule struct {
	ID        uuid.UUID `db:"id" json:"id"`
	StaffID   uuid.UUID `db:"staff_id" json:"staff_id"`
	DayOfWeek string    `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	IsActive  bool      `db:"is_active" json:"is_active"`
}

type ScheduleInput struct {
	StaffID   uuid.UUID `json:"staff_id" validate:"required"`
	DayOfWeek string    `json:"day_of_week" validate:"required"`
	StartTime string    `json:"start_time" validate:"required"`
	EndTime   string    `json:"end_time" validate:"required"`
	IsActive  *bool     `json:"is_active"`
}

// ScheduleUpdate is a partial update; nil fields are left unchanged.
type ScheduleUpdate struct {
	DayOfWeek *string `json:"day_of_week"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	IsActive  *bool   `json:"is_active"`
}

type ScheduleFilter struct {
	StaffID   *uuid.UUID
	DayOfWeek string
	IsActive  *bool
}

type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	Update(ctx context.Context, s *Schedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ScheduleFilter, limit, offset int) ([]*Schedule, int, error)
}

type ScheduleService struct {
	schedules ScheduleRepository
	staff     Repository
}

func NewScheduleService(schedules ScheduleRepository, staff Repository) *ScheduleService {
	return &ScheduleService{schedules: schedules, staff: staff}
}

// validateHours checks both clock values and that the shift ends after it
// starts. The returned values are normalized to HH:MM.
func validateHours(start, end string) (string, string, error) {
	st, err := time.Parse(clockLayout, start)
	if err != nil {
		return "", "", apperr.InvalidInput("invalid start_time: expected HH:MM")
	}
	et, err := time.Parse(clockLayout, end)
	if err != nil {
		return "", "", apperr.InvalidInput("invalid end_time: expected HH:MM")
	}
	if !et.After(st) {
		return "", "", apperr.InvalidInput("end_time must be after start_time")
	}
	return st.Format(clockLayout), et.Format(clockLayout), nil
}

func (s *ScheduleService) Create(ctx context.Context, in ScheduleInput) (*Schedule, error) {
	if in.StaffID == uuid.Nil {
		return nil, apperr.InvalidInput("staff_id is required")
	}
	if !validWeekday(in.DayOfWeek) {
		return nil, apperr.InvalidInput("invalid day_of_week: %s", in.DayOfWeek)
	}
	start, end, err := validateHours(in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}
	if _, err := s.staff.GetByID(ctx, in.StaffID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.InvalidInput("staff_id does not reference a staff member")
		}
		return nil, fmt.Errorf("resolve staff: %w", err)
	}

	sch := &Schedule{
		StaffID:   in.StaffID,
		DayOfWeek: in.DayOfWeek,
		StartTime: start,
		EndTime:   end,
		IsActive:  true,
	}
	if in.IsActive != nil {
		sch.IsActive = *in.IsActive
	}
	if err := s.schedules.Create(ctx, sch); err != nil {
		return nil, fmt.Errorf("create staff schedule: %w", err)
	}
	return sch, nil
}

func (s *ScheduleService) Get(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return s.schedules.GetByID(ctx, id)
}

// List returns matches ordered by staff member then weekday.
func (s *ScheduleService) List(ctx context.Context, f ScheduleFilter, limit, offset int) ([]*Schedule, int, error) {
	if f.DayOfWeek != "" && !validWeekday(f.DayOfWeek) {
		return nil, 0, apperr.InvalidInput("invalid day_of_week: %s", f.DayOfWeek)
	}
	return s.schedules.List(ctx, f, limit, offset)
}

func (s *ScheduleService) Update(ctx context.Context, id uuid.UUID, in ScheduleUpdate) (*Schedule, error) {
	sch, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.DayOfWeek != nil {
		if !validWeekday(*in.DayOfWeek) {
			return nil, apperr.InvalidInput("invalid day_of_week: %s", *in.DayOfWeek)
		}
		sch.DayOfWeek = *in.DayOfWeek
	}
	start, end := sch.StartTime, sch.EndTime
	if in.StartTime != nil {
		start = *in.StartTime
	}
	if in.EndTime != nil {
		end = *in.EndTime
	}
	if sch.StartTime, sch.EndTime, err = validateHours(start, end); err != nil {
		return nil, err
	}
	if in.IsActive != nil {
		sch.IsActive = *in.IsActive
	}
	if err := s.schedules.Update(ctx, sch); err != nil {
		return nil, fmt.Errorf("update staff schedule: %w", err)
	}
	return sch, nil
}

func (s *ScheduleService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.schedules.Delete(ctx, id)
}
