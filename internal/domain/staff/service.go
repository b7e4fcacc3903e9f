package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicops/clinic/internal/platform/apperr"
	"github.com/clinicops/clinic/internal/platform/auth"
)

var errInvalidCredentials = apperr.Unauthenticated("Invalid credentials")

type Service struct {
	repo       Repository
	issuer     *auth.TokenIssuer
	revoked    auth.RevocationStore
	bcryptCost int
	// compared against when the username is unknown so both paths cost the same
	dummyHash []byte
}

// NewService wires the staff service. A bcryptCost of 0 selects bcrypt's
// default.
func NewService(repo Repository, issuer *auth.TokenIssuer, revoked auth.RevocationStore, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost)
	return &Service{repo: repo, issuer: issuer, revoked: revoked, bcryptCost: bcryptCost, dummyHash: dummy}
}

// -- Authentication --

func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, errInvalidCredentials
	}

	st, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(st.PasswordHash), []byte(in.Password)) != nil {
		return nil, errInvalidCredentials
	}
	if st.Status != StatusActive {
		return nil, apperr.Unauthenticated("Account is not active")
	}

	tok, err := s.issuer.IssueStaff(st.ID, st.Role)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &LoginResult{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresAt:   tok.ExpiresAt,
		Staff:       st,
	}, nil
}

// Logout revokes the token identified by jti until it would have expired.
func (s *Service) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return apperr.Unauthenticated("authentication required")
	}
	if err := s.revoked.Revoke(ctx, jti, expiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// -- Staff accounts --

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.InvalidInput("password must be at most 72 bytes")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func validatePassword(p string) error {
	if len(p) < 8 {
		return apperr.InvalidInput("password must be at least 8 characters")
	}
	return nil
}

// Create registers a staff account. createdBy is nil for accounts seeded
// from the command line.
func (s *Service) Create(ctx context.Context, in CreateInput, createdBy *uuid.UUID) (*Staff, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, apperr.InvalidInput("username is required")
	}
	if !validRole(in.Role) {
		return nil, apperr.InvalidInput("invalid role: %s", in.Role)
	}
	if in.Status == "" {
		in.Status = StatusActive
	}
	if !validStatuses[in.Status] {
		return nil, apperr.InvalidInput("invalid status: %s", in.Status)
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	st := &Staff{
		Username:       in.Username,
		PasswordHash:   hash,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Role:           in.Role,
		Specialization: in.Specialization,
		Phone:          in.Phone,
		Status:         in.Status,
		CreatedBy:      createdBy,
	}
	if err := s.repo.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("create staff: %w", err)
	}
	return st, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Staff, error) {
	return s.repo.GetByID(ctx, id)
}

// StaffRole returns the role of an active staff member. Inactive accounts
// are reported as not found.
func (s *Service) StaffRole(ctx context.Context, id uuid.UUID) (string, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if st.Status != StatusActive {
		return "", apperr.NotFound("staff member not found")
	}
	return st.Role, nil
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Staff, int, error) {
	if f.Role != "" && !validRole(f.Role) {
		return nil, 0, apperr.InvalidInput("invalid role: %s", f.Role)
	}
	if f.Status != "" && !validStatuses[f.Status] {
		return nil, 0, apperr.InvalidInput("invalid status: %s", f.Status)
	}
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Staff, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	wasActiveAdmin := st.Role == auth.RoleAdmin && st.Status == StatusActive

	if in.FirstName != nil {
		st.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		st.LastName = *in.LastName
	}
	if in.Email != nil {
		st.Email = *in.Email
	}
	if in.Phone != nil {
		st.Phone = *in.Phone
	}
	if in.Specialization != nil {
		st.Specialization = in.Specialization
	}
	if in.Role != nil {
		if !validRole(*in.Role) {
			return nil, apperr.InvalidInput("invalid role: %s", *in.Role)
		}
		st.Role = *in.Role
	}
	if in.Status != nil {
		if !validStatuses[*in.Status] {
			return nil, apperr.InvalidInput("invalid status: %s", *in.Status)
		}
		st.Status = *in.Status
	}
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := s.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		st.PasswordHash = hash
	}

	stillActiveAdmin := st.Role == auth.RoleAdmin && st.Status == StatusActive
	if wasActiveAdmin && !stillActiveAdmin {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, st); err != nil {
		return nil, fmt.Errorf("update staff: %w", err)
	}
	return st, nil
}

// Delete removes a staff account. Admins cannot delete themselves, and the
// last admin account cannot be removed.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if actor.StaffID == id {
		return apperr.InvalidState("cannot delete your own account")
	}
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if st.Role == auth.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) ensureAnotherAdmin(ctx context.Context) error {
	n, err := s.repo.CountByRole(ctx, auth.RoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if n <= 1 {
		return apperr.InvalidState("cannot remove the last admin account")
	}
	return nil
}

// CreateAdmin seeds an admin account from the command line.
func (s *Service) CreateAdmin(ctx context.Context, username, password, email string) (*Staff, error) {
	return s.Create(ctx, CreateInput{
		Username: username,
		Password: password,
		Email:    email,
		Role:     auth.RoleAdmin,
	}, nil)
}
