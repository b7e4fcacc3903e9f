package pharmacy

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

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
	// Stock and suppliers: pharmacists
	stockGroup := api.Group("", auth.RequireRole(auth.RolePharmacist))
	stockGroup.GET("/suppliers", h.ListSuppliers)
	stockGroup.POST("/suppliers", h.CreateSupplier)
	stockGroup.GET("/suppliers/:id", h.GetSupplier)
	stockGroup.PUT("/suppliers/:id", h.UpdateSupplier)
	stockGroup.DELETE("/suppliers/:id", h.DeleteSupplier)
	stockGroup.GET("/inventory", h.ListItems)
	stockGroup.POST("/inventory", h.CreateItem)
	stockGroup.GET("/inventory/:id", h.GetItem)
	stockGroup.PUT("/inventory/:id", h.UpdateItem)
	stockGroup.DELETE("/inventory/:id", h.DeleteItem)
	stockGroup.POST("/inventory/:id/adjust_stock", h.AdjustStock)
	stockGroup.POST("/prescriptions/:id/dispense", h.Dispense)

	// Prescriptions: prescribers and pharmacists
	rxGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RolePharmacist))
	rxGroup.GET("/prescriptions", h.ListPrescriptions)
	rxGroup.POST("/prescriptions", h.CreatePrescription)
	rxGroup.GET("/prescriptions/:id", h.GetPrescription)
	rxGroup.POST("/prescriptions/:id/cancel", h.CancelPrescription)
	rxGroup.GET("/prescriptions/:id/details", h.ListDetails)
	rxGroup.POST("/prescriptions/:id/details", h.AddDetail)
}

// -- Supplier Handlers --

func (h *Handler) CreateSupplier(c echo.Context) error {
	var in SupplierInput
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	sup, err := h.svc.CreateSupplier(c.Request().Context(), in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, sup)
}

func (h *Handler) GetSupplier(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	sup, err := h.svc.GetSupplier(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, sup)
}

func (h *Handler) ListSuppliers(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListSuppliers(c.Request().Context(), c.QueryParam("search"), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateSupplier(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in SupplierUpdate
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	sup, err := h.svc.UpdateSupplier(c.Request().Context(), id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, sup)
}

func (h *Handler) DeleteSupplier(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if err := h.svc.DeleteSupplier(c.Request().Context(), id); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Inventory Handlers --

func (h *Handler) CreateItem(c echo.Context) error {
	var in ItemInput
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	item, err := h.svc.CreateItem(c.Request().Context(), in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *Handler) GetItem(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	item, err := h.svc.GetItem(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) ListItems(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := ItemFilter{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
		LowStock: httpx.QueryBool(c, "low_stock"),
	}
	items, total, err := h.svc.ListItems(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateItem(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in ItemUpdate
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	item, err := h.svc.UpdateItem(c.Request().Context(), id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) DeleteItem(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if err := h.svc.DeleteItem(c.Request().Context(), id); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AdjustStock accepts {"quantity": n} where n is an integer or an integer
// string. A missing quantity adjusts by zero.
func (h *Handler) AdjustStock(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var body struct {
		Quantity json.RawMessage `json:"quantity"`
	}
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid quantity")
		}
	}
	delta, ok := parseQuantity(body.Quantity)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid quantity")
	}
	res, err := h.svc.AdjustStock(c.Request().Context(), id, delta)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, res)
}

func parseQuantity(raw json.RawMessage) (int, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, true
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	switch q := v.(type) {
	case float64:
		if q != math.Trunc(q) || math.Abs(q) > math.MaxInt32 {
			return 0, false
		}
		return int(q), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(q))
		if err != nil || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// -- Prescription Handlers --

func (h *Handler) CreatePrescription(c echo.Context) error {
	actor, err := auth.StaffActorFromContext(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in PrescriptionInput
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	rx, err := h.svc.CreatePrescription(c.Request().Context(), actor, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, rx)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	rx, err := h.svc.GetPrescription(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, rx)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	f := PrescriptionFilter{Status: c.QueryParam("status")}
	var err error
	if f.PatientID, err = httpx.QueryUUID(c, "patient_id"); err != nil {
		return apperr.ToHTTP(err)
	}
	if f.DoctorID, err = httpx.QueryUUID(c, "doctor_id"); err != nil {
		return apperr.ToHTTP(err)
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPrescriptions(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CancelPrescription(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	rx, err := h.svc.CancelPrescription(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, rx)
}

func (h *Handler) ListDetails(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	details, err := h.svc.ListDetails(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, details)
}

func (h *Handler) AddDetail(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in DetailInput
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	d, err := h.svc.AddDetail(c.Request().Context(), id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) Dispense(c echo.Context) error {
	actor, err := auth.StaffActorFromContext(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	res, err := h.svc.Dispense(c.Request().Context(), actor, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, res)
}
