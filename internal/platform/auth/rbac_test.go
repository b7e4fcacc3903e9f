package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func runRequireRole(t *testing.T, actor *Actor, roles ...string) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if actor != nil {
		req = req.WithContext(WithActor(req.Context(), *actor))
	}
	c := e.NewContext(req, httptest.NewRecorder())
	return RequireRole(roles...)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name  string
		actor *Actor
		roles []string
		want  int
	}{
		{"matching role", &Actor{StaffID: uuid.New(), Role: RolePharmacist}, []string{RolePharmacist}, 0},
		{"one of several", &Actor{StaffID: uuid.New(), Role: RoleNurse}, []string{RoleDoctor, RoleNurse}, 0},
		{"admin passes", &Actor{StaffID: uuid.New(), Role: RoleAdmin}, []string{RolePharmacist}, 0},
		{"wrong role", &Actor{StaffID: uuid.New(), Role: RoleReceptionist}, []string{RolePharmacist}, http.StatusForbidden},
		{"no actor", nil, []string{RoleDoctor}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runRequireRole(t, tt.actor, tt.roles...)
			if tt.want == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			expectStatus(t, err, tt.want)
		})
	}
}
