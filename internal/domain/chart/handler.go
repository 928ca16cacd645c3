package chart

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/httpx"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/everything", h.Everything)
}

// Everything handles GET /api/patients/:id/everything.
func (h *Handler) Everything(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id", "patient")
	if err != nil {
		return err
	}
	ch, err := h.svc.Everything(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ch)
}
