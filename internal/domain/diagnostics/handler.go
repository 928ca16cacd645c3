package diagnostics

import (
	"errors"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httpx"
	"github.com/hms/hms/pkg/pagination"
)

// multipartMemory is the part of an upload kept in memory; the rest spills
// to a temporary file.
const multipartMemory = 8 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/lab-reports", h.ListReports)
	api.GET("/lab-reports/:id", h.GetReport)
	api.GET("/lab-reports/:id/file", h.DownloadFile)
	api.POST("/lab-reports", h.UploadReport, auth.RequireRole(auth.RoleAdmin, auth.RoleLabStaff))
}

func (h *Handler) UploadReport(c echo.Context) error {
	if err := c.Request().ParseMultipartForm(multipartMemory); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return apperr.Validation("Patient, title, and file are required")
	}

	var req UploadRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return apperr.Validation("Patient, title, and file are required")
		}
		return err
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	lr, err := h.svc.UploadReport(c.Request().Context(), req, Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Content:     f,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, lr)
}

func (h *Handler) GetReport(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id", "lab report")
	if err != nil {
		return err
	}
	lr, err := h.svc.GetReport(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lr)
}

func (h *Handler) ListReports(c echo.Context) error {
	patientID, err := httpx.QueryUUID(c, "patientId")
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListReports(c.Request().Context(), patientID, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) DownloadFile(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id", "lab report")
	if err != nil {
		return err
	}
	lr, rc, err := h.svc.OpenFile(c.Request().Context(), id)
	if err != nil {
		return err
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("inline", map[string]string{"filename": lr.FileName}))
	return c.Stream(http.StatusOK, lr.ContentType, rc)
}
