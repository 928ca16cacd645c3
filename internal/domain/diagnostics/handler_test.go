package diagnostics

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httpx"
)

func newTestHandler() (*Handler, *testEnv, *echo.Echo) {
	env := newTestEnv()
	h := NewHandler(env.svc)
	e := echo.New()
	return h, env, e
}

func multipartBody(t *testing.T, fields map[string]string, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write([]byte(content))
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestHandler_UploadReport(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.patients.add(nil)
	staff := uuid.New()

	body, ct := multipartBody(t, map[string]string{"patientId": pid.String(), "title": "Blood Panel"}, "cbc.pdf", "%PDF")
	req := httptest.NewRequest(http.MethodPost, "/api/lab-reports", body).WithContext(as(auth.RoleLabStaff, staff))
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()

	if err := h.UploadReport(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var raw map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &raw)
	if raw["title"] != "Blood Panel" || raw["fileName"] != "cbc.pdf" {
		t.Errorf("unexpected body %v", raw)
	}
	if _, leaked := raw["StorageKey"]; leaked {
		t.Error("storage key must not be serialized")
	}
}

func TestHandler_UploadReport_MissingFile(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.patients.add(nil)

	body, ct := multipartBody(t, map[string]string{"patientId": pid.String(), "title": "Blood Panel"}, "", "")
	req := httptest.NewRequest(http.MethodPost, "/api/lab-reports", body).WithContext(as(auth.RoleLabStaff, uuid.New()))
	req.Header.Set(echo.HeaderContentType, ct)

	err := h.UploadReport(e.NewContext(req, httptest.NewRecorder()))
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandler_UploadReport_MissingTitle(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.patients.add(nil)

	body, ct := multipartBody(t, map[string]string{"patientId": pid.String()}, "cbc.pdf", "x")
	req := httptest.NewRequest(http.MethodPost, "/api/lab-reports", body).WithContext(as(auth.RoleLabStaff, uuid.New()))
	req.Header.Set(echo.HeaderContentType, ct)

	err := h.UploadReport(e.NewContext(req, httptest.NewRecorder()))
	if !apperr.IsValidation(err) || err.Error() != "title is required" {
		t.Fatalf("expected title validation error, got %v", err)
	}
}

func TestHandler_DownloadFile(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.patients.add(nil)
	lr, err := env.svc.UploadReport(as(auth.RoleLabStaff, uuid.New()), UploadRequest{PatientID: pid.String(), Title: "Panel"}, upload("panel.pdf", "file-body"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(as(auth.RoleReceptionist, uuid.New()))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(lr.ID.String())

	if err := h.DownloadFile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != "file-body" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get(echo.HeaderContentDisposition), "panel.pdf") {
		t.Errorf("unexpected disposition %q", rec.Header().Get(echo.HeaderContentDisposition))
	}
	if rec.Header().Get(echo.HeaderContentType) != "application/pdf" {
		t.Errorf("unexpected content type %q", rec.Header().Get(echo.HeaderContentType))
	}
}

func TestHandler_GetReport_NotFound(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(as(auth.RoleAdmin, uuid.New()))
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("42")

	if err := h.GetReport(c); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRoutes_UploadRequiresLabRole(t *testing.T) {
	h, _, e := newTestHandler()
	e.HTTPErrorHandler = httpx.ErrorHandler(zerolog.Nop())
	h.RegisterRoutes(e.Group("/api"))

	for _, role := range []auth.Role{auth.RoleDoctor, auth.RoleReceptionist} {
		req := httptest.NewRequest(http.MethodPost, "/api/lab-reports", strings.NewReader("")).WithContext(as(role, uuid.New()))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", role, rec.Code)
		}
	}
}
