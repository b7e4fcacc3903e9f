package laboratory

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
	// Reads and verification: doctors and lab technicians
	readGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleLabTechnician))
	readGroup.GET("/lab-requests", h.ListRequests)
	readGroup.GET("/lab-requests/:id", h.GetRequest)
	readGroup.GET("/lab-results", h.ListResults)
	readGroup.GET("/lab-results/:id", h.GetResult)
	readGroup.POST("/lab-results/:id/verify", h.VerifyResult)

	// Ordering: doctors
	doctorGroup := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctorGroup.POST("/lab-requests", h.CreateRequest)
	doctorGroup.GET("/lab-requests/mine", h.DoctorRequests)
	doctorGroup.DELETE("/lab-requests/:id", h.DeleteRequest)

	// Processing: lab technicians
	labGroup := api.Group("", auth.RequireRole(auth.RoleLabTechnician))
	labGroup.POST("/lab-requests/:id/update_status", h.UpdateStatus)
	labGroup.POST("/lab-results", h.RecordResult)
	labGroup.PUT("/lab-results/:id", h.UpdateResult)
}

// -- Lab Request Handlers --

func (h *Handler) CreateRequest(c echo.Context) error {
	actor, err := auth.StaffActorFromContext(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in RequestInput
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	req, err := h.svc.CreateRequest(c.Request().Context(), actor, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, req)
}

func (h *Handler) GetRequest(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	req, err := h.svc.GetRequest(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) ListRequests(c echo.Context) error {
	f := RequestFilter{Status: c.QueryParam("status"), Priority: c.QueryParam("priority")}
	var err error
	if f.PatientID, err = httpx.QueryUUID(c, "patient_id"); err != nil {
		return apperr.ToHTTP(err)
	}
	if f.DoctorID, err = httpx.QueryUUID(c, "doctor_id"); err != nil {
		return apperr.ToHTTP(err)
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListRequests(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) DoctorRequests(c echo.Context) error {
	actor, err := auth.StaffActorFromContext(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.DoctorRequests(c.Request().Context(), actor, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in StatusInput
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	req, err := h.svc.UpdateStatus(c.Request().Context(), id, in.Status)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) DeleteRequest(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if err := h.svc.DeleteRequest(c.Request().Context(), id); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Lab Result Handlers --

func (h *Handler) RecordResult(c echo.Context) error {
	actor, err := auth.StaffActorFromContext(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in ResultInput
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	res, err := h.svc.RecordResult(c.Request().Context(), actor, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetResult(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	res, err := h.svc.GetResult(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ListResults(c echo.Context) error {
	var f ResultFilter
	var err error
	if f.RequestID, err = httpx.QueryUUID(c, "request_id"); err != nil {
		return apperr.ToHTTP(err)
	}
	if f.PatientID, err = httpx.QueryUUID(c, "patient_id"); err != nil {
		return apperr.ToHTTP(err)
	}
	if f.IsAbnormal, err = httpx.QueryOptionalBool(c, "is_abnormal"); err != nil {
		return apperr.ToHTTP(err)
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListResults(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateResult(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in ResultUpdate
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	res, err := h.svc.UpdateResult(c.Request().Context(), id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) VerifyResult(c echo.Context) error {
	actor, err := auth.StaffActorFromContext(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	res, err := h.svc.VerifyResult(c.Request().Context(), actor, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, res)
}
