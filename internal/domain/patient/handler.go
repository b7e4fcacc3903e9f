package patient

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
	// Read endpoints: any staff role
	readGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RolePharmacist,
		auth.RoleLabTechnician, auth.RoleReceptionist))
	readGroup.GET("/patients", h.ListPatients)
	readGroup.GET("/patients/:id", h.GetPatient)

	// Write endpoints: admin, receptionist, doctor, nurse
	writeGroup := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleDoctor, auth.RoleNurse))
	writeGroup.POST("/patients", h.CreatePatient)
	writeGroup.PUT("/patients/:id", h.UpdatePatient)
	writeGroup.DELETE("/patients/:id", h.DeletePatient)

	// Medical records: clinicians only
	clinicalGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse))
	clinicalGroup.GET("/patients/:id/medical-records", h.ListMedicalRecords)
	clinicalGroup.POST("/patients/:id/medical-records", h.CreateMedicalRecord)
	clinicalGroup.GET("/medical-records/:id", h.GetMedicalRecord)
}

// -- Patient Handlers --

func (h *Handler) CreatePatient(c echo.Context) error {
	var in CreateInput
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	p, err := h.svc.CreatePatient(c.Request().Context(), in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{Search: c.QueryParam("search"), Gender: c.QueryParam("gender")}
	items, total, err := h.svc.ListPatients(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in UpdateInput
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Medical Record Handlers --

func (h *Handler) CreateMedicalRecord(c echo.Context) error {
	actor, err := auth.StaffActorFromContext(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	patientID, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in MedicalRecordInput
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	m, err := h.svc.AddMedicalRecord(c.Request().Context(), actor, patientID, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetMedicalRecord(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	m, err := h.svc.GetMedicalRecord(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListMedicalRecords(c echo.Context) error {
	patientID, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	pg := pagination.FromContext(c)
	f := MedicalRecordFilter{PatientID: patientID, RecordType: c.QueryParam("record_type")}
	items, total, err := h.svc.ListMedicalRecords(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
