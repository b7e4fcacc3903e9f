package billing

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
	// Price list: readable by all staff, maintained by admins
	readGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RolePharmacist,
		auth.RoleLabTechnician, auth.RoleReceptionist))
	readGroup.GET("/services", h.ListServicePrices)
	readGroup.GET("/services/:id", h.GetServicePrice)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.POST("/services", h.CreateServicePrice)
	adminGroup.PUT("/services/:id", h.UpdateServicePrice)
	adminGroup.DELETE("/services/:id", h.DeleteServicePrice)

	// Bills and payments: front desk
	billGroup := api.Group("", auth.RequireRole(auth.RoleReceptionist))
	billGroup.GET("/bills", h.ListBills)
	billGroup.POST("/bills", h.CreateBill)
	billGroup.GET("/bills/:id", h.GetBill)
	billGroup.PUT("/bills/:id", h.UpdateBill)
	billGroup.DELETE("/bills/:id", h.DeleteBill)
	billGroup.POST("/bills/:id/cancel", h.CancelBill)
	billGroup.GET("/bills/:id/payments", h.GetBalance)
	billGroup.GET("/bills/:id/details", h.ListBillDetails)
	billGroup.POST("/bills/:id/details", h.AddBillDetail)
	billGroup.DELETE("/bill-details/:id", h.DeleteBillDetail)
	billGroup.GET("/payments", h.ListPayments)
	billGroup.POST("/payments", h.RecordPayment)
}

// -- ServicePrice Handlers --

func (h *Handler) CreateServicePrice(c echo.Context) error {
	var in ServicePriceInput
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	sp, err := h.svc.CreateServicePrice(c.Request().Context(), in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, sp)
}

func (h *Handler) GetServicePrice(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	sp, err := h.svc.GetServicePrice(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, sp)
}

func (h *Handler) ListServicePrices(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListServicePrices(c.Request().Context(), c.QueryParam("search"), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateServicePrice(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in ServicePriceUpdate
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	sp, err := h.svc.UpdateServicePrice(c.Request().Context(), id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, sp)
}

func (h *Handler) DeleteServicePrice(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if err := h.svc.DeleteServicePrice(c.Request().Context(), id); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Bill Handlers --

func (h *Handler) CreateBill(c echo.Context) error {
	var in BillInput
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	b, err := h.svc.CreateBill(c.Request().Context(), in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetBill(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	b, err := h.svc.GetBill(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListBills(c echo.Context) error {
	f := BillFilter{Status: c.QueryParam("status")}
	var err error
	if f.PatientID, err = httpx.QueryUUID(c, "patient_id"); err != nil {
		return apperr.ToHTTP(err)
	}
	if f.DateFrom, err = httpx.QueryDate(c, "date_from"); err != nil {
		return apperr.ToHTTP(err)
	}
	if f.DateTo, err = httpx.QueryDate(c, "date_to"); err != nil {
		return apperr.ToHTTP(err)
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListBills(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateBill(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in BillUpdate
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	b, err := h.svc.UpdateBill(c.Request().Context(), id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteBill(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if err := h.svc.DeleteBill(c.Request().Context(), id); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CancelBill(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	b, err := h.svc.CancelBill(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) GetBalance(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	bal, err := h.svc.GetBalance(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, bal)
}

// -- BillDetail Handlers --

func (h *Handler) AddBillDetail(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in BillDetailInput
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	d, err := h.svc.AddBillDetail(c.Request().Context(), id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListBillDetails(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	details, err := h.svc.ListBillDetails(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, details)
}

func (h *Handler) DeleteBillDetail(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if err := h.svc.DeleteBillDetail(c.Request().Context(), id); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Payment Handlers --

func (h *Handler) RecordPayment(c echo.Context) error {
	actor, err := auth.StaffActorFromContext(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	var in PaymentInput
	if err := httpx.BindAndValidate(c, &in); err != nil {
		return apperr.ToHTTP(err)
	}
	res, err := h.svc.RecordPayment(c.Request().Context(), actor, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListPayments(c echo.Context) error {
	var f PaymentFilter
	var err error
	if f.BillID, err = httpx.QueryUUID(c, "bill_id"); err != nil {
		return apperr.ToHTTP(err)
	}
	if f.DateFrom, err = httpx.QueryDate(c, "date_from"); err != nil {
		return apperr.ToHTTP(err)
	}
	if f.DateTo, err = httpx.QueryDate(c, "date_to"); err != nil {
		return apperr.ToHTTP(err)
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPayments(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
