package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httpx"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard", h.Dashboard)
	api.POST("/reports/:type", h.GenerateReport, auth.RequireRole(auth.RoleAdmin))
	api.POST("/export", h.Export, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) Dashboard(c echo.Context) error {
	d, err := h.svc.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// GenerateReport handles POST /api/reports/:type. The body is optional.
func (h *Handler) GenerateReport(c echo.Context) error {
	var req ReportRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	r, err := h.svc.GenerateReport(c.Request().Context(), c.Param("type"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// Export handles POST /api/export. The ?format= query parameter is used
// when the body carries no format.
func (h *Handler) Export(c echo.Context) error {
	var req ExportRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	if req.Format == "" {
		req.Format = c.QueryParam("format")
	}
	out, err := h.svc.Export(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}
