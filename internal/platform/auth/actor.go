package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicops/clinic/internal/platform/apperr"
)

const (
	RoleAdmin         = "admin"
	RoleDoctor        = "doctor"
	RolePharmacist    = "pharmacist"
	RoleNurse         = "nurse"
	RoleLabTechnician = "lab_technician"
	RoleReceptionist  = "receptionist"
)

// StaffRoles are the roles a staff account may hold.
var StaffRoles = map[string]bool{
	RoleAdmin:         true,
	RoleDoctor:        true,
	RolePharmacist:    true,
	RoleNurse:         true,
	RoleLabTechnician: true,
	RoleReceptionist:  true,
}

// Actor is the authenticated caller. A zero StaffID marks an actor that was
// not resolved from a staff token.
type Actor struct {
	StaffID uuid.UUID
	Role    string
	TokenID string
}

func (a Actor) IsStaff() bool { return a.StaffID != uuid.Nil }

// HasRole reports whether the actor holds one of roles. Admin holds every
// role.
func (a Actor) HasRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
		if a.Role == RoleAdmin {
			return true
		}
	}
	return false
}

type contextKey string

const actorKey contextKey = "actor"

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext returns the caller resolved by JWTMiddleware. There is no
// default actor: a context without one yields an Unauthenticated error.
func ActorFromContext(ctx context.Context) (Actor, error) {
	a, ok := ctx.Value(actorKey).(Actor)
	if !ok {
		return Actor{}, apperr.Unauthenticated("authentication required")
	}
	return a, nil
}

// StaffActorFromContext is ActorFromContext restricted to staff callers.
func StaffActorFromContext(ctx context.Context) (Actor, error) {
	a, err := ActorFromContext(ctx)
	if err != nil {
		return Actor{}, err
	}
	if !a.IsStaff() {
		return Actor{}, apperr.Forbidden("staff account required")
	}
	return a, nil
}
