package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httpx"
)

// AuditEntry records who touched which patient record.
type AuditEntry struct {
	UserID    string
	Role      string
	Resource  string
	PatientID string
	Action    string
	Method    string
	Path      string
	IPAddress string
	RequestID string
	Status    int
}

// Audit logs one "record_access" event per authenticated /api request that
// reads or changes clinical, diagnostic or billing data.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			resource := auditedResource(req.URL.Path)
			if resource == "" {
				return next(c)
			}

			err := next(c)

			entry := AuditEntry{
				Resource:  resource,
				PatientID: patientIDOf(c, resource),
				Action:    actionOf(req.Method),
				Method:    req.Method,
				Path:      req.URL.Path,
				IPAddress: c.RealIP(),
				Status:    c.Response().Status,
			}
			if err != nil {
				entry.Status, _ = httpx.Status(err)
			}
			if id, ok := auth.IdentityFromContext(req.Context()); ok {
				entry.UserID = id.ID.String()
				entry.Role = id.Role.String()
			}
			entry.RequestID, _ = c.Get("request_id").(string)

			logger.Info().
				Str("type", "record_access").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("role", entry.Role).
				Str("resource", entry.Resource).
				Str("patient_id", entry.PatientID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.Status).
				Msg("record_access")

			return err
		}
	}
}

var auditedResources = map[string]bool{
	"patients":    true,
	"treatments":  true,
	"lab-reports": true,
	"bills":       true,
}

// auditedResource returns the collection segment of /api/<collection>/... or
// "" when the path is not audited.
func auditedResource(path string) string {
	if !strings.HasPrefix(path, "/api/") {
		return ""
	}
	seg, _, _ := strings.Cut(strings.TrimPrefix(path, "/api/"), "/")
	if auditedResources[seg] {
		return seg
	}
	return ""
}

func actionOf(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// patientIDOf finds the patient a request is about: the path id on
// /api/patients/<id>, otherwise the patientId query parameter.
func patientIDOf(c echo.Context, resource string) string {
	if resource == "patients" {
		rest := strings.TrimPrefix(c.Request().URL.Path, "/api/patients/")
		seg, _, _ := strings.Cut(rest, "/")
		if _, err := uuid.Parse(seg); err == nil {
			return seg
		}
	}
	if id, err := uuid.Parse(c.QueryParam("patientId")); err == nil {
		return id.String()
	}
	return ""
}
