package billing

import (
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httpx"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/bills", h.ListBills)
	api.GET("/bills/:id", h.GetBill)
	api.GET("/bills/:id/pdf", h.DownloadInvoice)

	// Billing desk: admin, receptionist
	frontDesk := auth.RequireRole(auth.RoleAdmin, auth.RoleReceptionist)
	api.POST("/bills", h.CreateBill, frontDesk)
	api.PATCH("/bills/:id", h.UpdateStatus, frontDesk)
}

func (h *Handler) CreateBill(c echo.Context) error {
	var req CreateBillRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	b, err := h.svc.CreateBill(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetBill(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id", "bill")
	if err != nil {
		return err
	}
	b, err := h.svc.GetBill(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListBills(c echo.Context) error {
	patientID, err := httpx.QueryUUID(c, "patientId")
	if err != nil {
		return err
	}
	var status *Status
	if raw := c.QueryParam("status"); raw != "" {
		st, ok := ParseStatus(raw)
		if !ok {
			return apperr.Validation("status must be one of: PENDING, PAID, CANCELLED")
		}
		status = &st
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListBills(c.Request().Context(), patientID, status, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id", "bill")
	if err != nil {
		return err
	}
	var req UpdateStatusRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	b, err := h.svc.UpdateStatus(c.Request().Context(), id, Status(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) DownloadInvoice(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id", "bill")
	if err != nil {
		return err
	}
	b, body, err := h.svc.Invoice(c.Request().Context(), id)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": InvoiceFileName(b)}))
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, body)
}
