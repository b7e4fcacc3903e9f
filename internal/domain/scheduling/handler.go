package scheduling

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicops/clinic/internal/platform/apperr"
	"github.com/clinicops/clinic/internal/platform/auth"
	"github.com/clinicops/clinic/internal/platform/httpx"
	"github.com/clinicops/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Appointments: front desk and clinicians
	apptGroup := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleDoctor, auth.RoleNurse))
	apptGroup.GET("/appointments", h.ListAppointments)
	apptGroup.POST("/appointments", h.CreateAppointment)
	apptGroup.GET("/appointments/:id", h.GetAppointment)
	apptGroup.PUT("/appointments/:id", h.UpdateAppointment)
	apptGroup.POST("/appointments/:id/cancel", h.CancelAppointment)

	// Consultations: doctors
	consultGroup := api.Group("", auth.RequireRole(auth.RoleDoctor))
	consultGroup.GET("/consultations", h.ListConsultations)
	consultGroup.POST("/consultations", h.CreateConsultation)
	consultGroup.GET("/consultations/:id", h.GetConsultation)
	consultGroup.PUT("/consultations/:id", h.UpdateConsultation)
}

// -- Appointment Handlers --

func (h *Handler) CreateAppointment(c echo.Context) error {
	var in AppointmentInput
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	a, err := h.svc.CreateAppointment(c.Request().Context(), in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	f := AppointmentFilter{Status: c.QueryParam("status")}
	var err error
	if f.DoctorID, err = httpx.QueryUUID(c, "doctor_id"); err != nil {
		return apperr.ToHTTP(err)
	}
	if f.PatientID, err = httpx.QueryUUID(c, "patient_id"); err != nil {
		return apperr.ToHTTP(err)
	}
	if f.Date, err = httpx.QueryDate(c, "date"); err != nil {
		return apperr.ToHTTP(err)
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAppointments(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in AppointmentUpdate
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	a, err := h.svc.UpdateAppointment(c.Request().Context(), id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in CancelInput
	if c.Request().ContentLength != 0 {
		if err := httpx.BindAndValidate(c, &in); err != nil {
			return apperr.ToHTTP(err)
		}
	}
	if _, err := h.svc.CancelAppointment(c.Request().Context(), id, in.Reason); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "appointment cancelled"})
}

// -- Consultation Handlers --

func (h *Handler) CreateConsultation(c echo.Context) error {
	actor, err := auth.StaffActorFromContext(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in ConsultationInput
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	cons, err := h.svc.RecordConsultation(c.Request().Context(), actor, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, cons)
}

func (h *Handler) GetConsultation(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	cons, err := h.svc.GetConsultation(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) ListConsultations(c echo.Context) error {
	var f ConsultationFilter
	var err error
	if f.DoctorID, err = httpx.QueryUUID(c, "doctor_id"); err != nil {
		return apperr.ToHTTP(err)
	}
	if f.PatientID, err = httpx.QueryUUID(c, "patient_id"); err != nil {
		return apperr.ToHTTP(err)
	}
	if f.Date, err = httpx.QueryDate(c, "date"); err != nil {
		return apperr.ToHTTP(err)
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListConsultations(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateConsultation(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in ConsultationUpdate
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	cons, err := h.svc.UpdateConsultation(c.Request().Context(), id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, cons)
}
