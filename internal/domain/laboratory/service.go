package laboratory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinic/internal/platform/apperr"
	"github.com/clinicops/clinic/internal/platform/auth"
	"github.com/clinicops/clinic/internal/platform/db"
)

type Service struct {
	requests RequestRepository
	results  ResultRepository
	staff    StaffDirectory
	tx       db.Transactor
	now      func() time.Time
}

func NewService(requests RequestRepository, results ResultRepository, staff StaffDirectory, tx db.Transactor) *Service {
	return &Service{
		requests: requests,
		results:  results,
		staff:    staff,
		tx:       tx,
		now:      time.Now,
	}
}

// -- Lab Request --

// CreateRequest orders a test. A doctor caller is the requesting doctor; any
// other staff caller must name one.
func (s *Service) CreateRequest(ctx context.Context, actor auth.Actor, in RequestInput) (*Request, error) {
	if !actor.IsStaff() {
		return nil, apperr.Forbidden("only staff may request lab tests")
	}
	if in.PatientID == uuid.Nil {
		return nil, apperr.InvalidInput("patient_id is required")
	}
	name := strings.TrimSpace(in.TestName)
	if name == "" {
		return nil, apperr.InvalidInput("test_name is required")
	}
	priority := in.Priority
	if priority == "" {
		priority = PriorityRoutine
	}
	if !validPriorities[priority] {
		return nil, apperr.InvalidInput("invalid priority: %s", priority)
	}

	var doctorID uuid.UUID
	switch {
	case actor.Role == auth.RoleDoctor:
		doctorID = actor.StaffID
	case in.DoctorID != nil:
		if err := s.requireDoctor(ctx, *in.DoctorID); err != nil {
			return nil, err
		}
		doctorID = *in.DoctorID
	default:
		return nil, apperr.InvalidInput("doctor_id is required")
	}

	req := &Request{
		PatientID:     in.PatientID,
		DoctorID:      doctorID,
		AppointmentID: in.AppointmentID,
		TestName:      name,
		Priority:      priority,
		Status:        StatusRequested,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create lab request: %w", err)
	}
	return req, nil
}

func (s *Service) requireDoctor(ctx context.Context, id uuid.UUID) error {
	role, err := s.staff.StaffRole(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.InvalidInput("doctor_id does not reference an active staff member")
	}
	if err != nil {
		return fmt.Errorf("resolve doctor: %w", err)
	}
	if role != auth.RoleDoctor {
		return apperr.InvalidInput("doctor_id must reference a doctor")
	}
	return nil
}

// GetRequest returns the request with its result when one has been recorded.
func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.results.GetByRequest(ctx, id)
	switch {
	case err == nil:
		req.Result = res
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, fmt.Errorf("load lab result: %w", err)
	}
	return req, nil
}

// ListRequests returns matches, most recent first.
func (s *Service) ListRequests(ctx context.Context, f RequestFilter, limit, offset int) ([]*Request, int, error) {
	if f.Status != "" && !validStatuses[f.Status] {
		return nil, 0, apperr.InvalidInput("invalid status: %s", f.Status)
	}
	if f.Priority != "" && !validPriorities[f.Priority] {
		return nil, 0, apperr.InvalidInput("invalid priority: %s", f.Priority)
	}
	return s.requests.List(ctx, f, limit, offset)
}

// DoctorRequests lists the requests ordered by the calling doctor.
func (s *Service) DoctorRequests(ctx context.Context, actor auth.Actor, limit, offset int) ([]*Request, int, error) {
	if actor.Role != auth.RoleDoctor {
		return nil, 0, apperr.Forbidden("only doctors have their own lab requests")
	}
	return s.requests.List(ctx, RequestFilter{DoctorID: &actor.StaffID}, limit, offset)
}

// UpdateStatus moves a request to any known status. Completed and cancelled
// requests are final.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Request, error) {
	if !validStatuses[status] {
		return nil, apperr.InvalidInput("Invalid status")
	}
	var out *Request
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		req, err := s.requests.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if Closed(req.Status) && req.Status != status {
			return apperr.InvalidState("Lab request already %s", req.Status)
		}
		if err := s.requests.SetStatus(ctx, id, status); err != nil {
			return err
		}
		req.Status = status
		out = req
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update lab request status: %w", err)
	}
	return out, nil
}

func (s *Service) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	return s.requests.Delete(ctx, id)
}

// -- Lab Result --

// RecordResult stores the outcome of a request and completes it. The caller
// is recorded as the performer.
func (s *Service) RecordResult(ctx context.Context, actor auth.Actor, in ResultInput) (*Result, error) {
	if !actor.IsStaff() {
		return nil, apperr.Forbidden("only staff may record lab results")
	}
	if in.RequestID == uuid.Nil {
		return nil, apperr.InvalidInput("request_id is required")
	}
	value := strings.TrimSpace(in.TestValue)
	if value == "" {
		return nil, apperr.InvalidInput("test_value is required")
	}

	res := &Result{
		RequestID:   in.RequestID,
		TestValue:   value,
		IsAbnormal:  in.IsAbnormal,
		Notes:       in.Notes,
		PerformedBy: actor.StaffID,
		ResultDate:  s.now().UTC(),
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		req, err := s.requests.GetForUpdate(ctx, in.RequestID)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.InvalidInput("request_id does not reference a lab request")
		}
		if err != nil {
			return err
		}
		if req.Status == StatusCancelled {
			return apperr.InvalidState("Lab request is cancelled")
		}
		_, err = s.results.GetByRequest(ctx, in.RequestID)
		if err == nil {
			return apperr.InvalidState("Result already recorded")
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		if err := s.results.Create(ctx, res); err != nil {
			return err
		}
		return s.requests.SetStatus(ctx, in.RequestID, StatusCompleted)
	})
	if err != nil {
		return nil, fmt.Errorf("record lab result: %w", err)
	}
	return res, nil
}

func (s *Service) GetResult(ctx context.Context, id uuid.UUID) (*Result, error) {
	return s.results.GetByID(ctx, id)
}

// ListResults returns matches, most recent first.
func (s *Service) ListResults(ctx context.Context, f ResultFilter, limit, offset int) ([]*Result, int, error) {
	return s.results.List(ctx, f, limit, offset)
}

// UpdateResult corrects a result. Verified results are frozen.
func (s *Service) UpdateResult(ctx context.Context, id uuid.UUID, in ResultUpdate) (*Result, error) {
	var out *Result
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		res, err := s.results.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if res.Verified() {
			return apperr.InvalidState("Result already verified")
		}
		if in.TestValue != nil {
			v := strings.TrimSpace(*in.TestValue)
			if v == "" {
				return apperr.InvalidInput("test_value is required")
			}
			res.TestValue = v
		}
		if in.IsAbnormal != nil {
			res.IsAbnormal = *in.IsAbnormal
		}
		if in.Notes != nil {
			res.Notes = in.Notes
		}
		if err := s.results.Update(ctx, res); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update lab result: %w", err)
	}
	return out, nil
}

// VerifyResult records the caller as the verifier. A result is verified once.
func (s *Service) VerifyResult(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Result, error) {
	if !actor.IsStaff() {
		return nil, apperr.Forbidden("only staff may verify lab results")
	}
	var out *Result
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		res, err := s.results.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if res.Verified() {
			return apperr.InvalidState("Result already verified")
		}
		if err := s.results.SetVerifiedBy(ctx, id, actor.StaffID); err != nil {
			return err
		}
		verifier := actor.StaffID
		res.VerifiedBy = &verifier
		out = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("verify lab result: %w", err)
	}
	return out, nil
}
