package staff

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicops/clinic/internal/platform/apperr"
	"github.com/clinicops/clinic/internal/platform/auth"
	"github.com/clinicops/clinic/internal/platform/httpx"
	"github.com/clinicops/clinic/pkg/pagination"
)

type ScheduleHandler struct {
	svc *ScheduleService
}

func NewScheduleHandler(svc *ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

func (h *ScheduleHandler) RegisterRoutes(api *echo.Group) {
	// Rosters are visible to every staff role; only admins edit them.
	readGroup := api.Group("/staff-schedules", auth.RequireRole(
		auth.RoleDoctor, auth.RoleNurse, auth.RolePharmacist, auth.RoleLabTechnician, auth.RoleReceptionist))
	readGroup.GET("", h.List)
	readGroup.GET("/:id", h.Get)

	adminGroup := api.Group("/staff-schedules", auth.RequireRole(auth.RoleAdmin))
	adminGroup.POST("", h.Create)
	adminGroup.PUT("/:id", h.Update)
	adminGroup.DELETE("/:id", h.Delete)
}

func (h *ScheduleHandler) Create(c echo.Context) error {
	var in ScheduleInput
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	sch, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, sch)
}

func (h *ScheduleHandler) Get(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	sch, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, sch)
}

func (h *ScheduleHandler) List(c echo.Context) error {
	f := ScheduleFilter{DayOfWeek: c.QueryParam("day_of_week")}
	var err error
	if f.StaffID, err = httpx.QueryUUID(c, "staff_id"); err != nil {
		return apperr.ToHTTP(err)
	}
	if f.IsActive, err = httpx.QueryOptionalBool(c, "is_active"); err != nil {
		return apperr.ToHTTP(err)
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *ScheduleHandler) Update(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in ScheduleUpdate
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	sch, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, sch)
}

func (h *ScheduleHandler) Delete(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
