package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-for-unit-tests-only"

func testIdentity(role Role) Identity {
	return Identity{ID: uuid.New(), Name: "Dr. John Smith", Email: "doctor@hospital.com", Role: role}
}

func TestParseRole(t *testing.T) {
	for _, r := range AllRoles {
		got, err := ParseRole(string(r))
		if err != nil || got != r {
			t.Errorf("ParseRole(%q) = %q, %v", r, got, err)
		}
	}
	for _, bad := range []string{"", "admin", "NURSE"} {
		if _, err := ParseRole(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestScopeFor(t *testing.T) {
	doc := testIdentity(RoleDoctor)
	other := uuid.New()

	s := ScopeFor(doc)
	if s.DoctorID() == nil || *s.DoctorID() != doc.ID {
		t.Fatalf("expected doctor scope for %s", doc.ID)
	}
	if !s.AllowsPatient(&doc.ID) {
		t.Error("doctor should see own patient")
	}
	if s.AllowsPatient(&other) {
		t.Error("doctor should not see another doctor's patient")
	}
	if s.AllowsPatient(nil) {
		t.Error("doctor should not see unassigned patient")
	}

	for _, r := range []Role{RoleAdmin, RoleReceptionist, RoleLabStaff} {
		s := ScopeFor(testIdentity(r))
		if s.DoctorID() != nil || s.Denied() {
			t.Errorf("%s: expected unrestricted scope", r)
		}
		if !s.AllowsPatient(nil) || !s.AllowsPatient(&other) {
			t.Errorf("%s: expected all patients visible", r)
		}
	}

	deny := ScopeFor(Identity{ID: uuid.New(), Role: Role("JANITOR")})
	if !deny.Denied() || deny.AllowsPatient(&other) || deny.AllowsPatient(nil) {
		t.Error("unknown role should see nothing")
	}
	if !ScopeFromContext(context.Background()).Denied() {
		t.Error("missing identity should see nothing")
	}
}

type recordingQuery struct {
	clauses []string
}

func (q *recordingQuery) Eq(column string, value interface{}) {
	q.clauses = append(q.clauses, column+"="+value.(uuid.UUID).String())
}

func (q *recordingQuery) None() { q.clauses = append(q.clauses, "FALSE") }

func TestScope_Restrict(t *testing.T) {
	doc := testIdentity(RoleDoctor)

	var q recordingQuery
	ScopeFor(doc).Restrict(&q, "p.doctor_id")
	if len(q.clauses) != 1 || q.clauses[0] != "p.doctor_id="+doc.ID.String() {
		t.Errorf("unexpected doctor clauses %v", q.clauses)
	}

	q = recordingQuery{}
	Unrestricted().Restrict(&q, "p.doctor_id")
	if len(q.clauses) != 0 {
		t.Errorf("expected no clauses, got %v", q.clauses)
	}

	q = recordingQuery{}
	Scope{}.Restrict(&q, "p.doctor_id")
	if len(q.clauses) != 1 || q.clauses[0] != "FALSE" {
		t.Errorf("expected deny clause, got %v", q.clauses)
	}
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	hash, err := h.Hash("admin123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "admin123" {
		t.Fatal("hash must not equal the password")
	}
	if !h.Check(hash, "admin123") {
		t.Error("expected matching password to verify")
	}
	if h.Check(hash, "admin124") {
		t.Error("expected wrong password to fail")
	}
	if NewPasswordHasher(0).cost != DefaultBcryptCost {
		t.Error("expected default cost for out-of-range value")
	}
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, 0)
	if tm.TTL() != DefaultTokenTTL {
		t.Fatalf("expected default ttl, got %v", tm.TTL())
	}
	id := testIdentity(RoleDoctor)
	raw, err := tm.Issue(id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := tm.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != id {
		t.Errorf("expected %+v, got %+v", id, got)
	}
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	id := testIdentity(RoleAdmin)

	past := NewTokenManager(testSecret, time.Hour)
	past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := past.Issue(id)

	wrongKey, _ := NewTokenManager("another-secret", time.Hour).Issue(id)

	badRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: Role("ROOT"),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))

	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role:             RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: id.ID.String()},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, raw := range map[string]string{
		"expired":   expired,
		"wrong key": wrongKey,
		"bad role":  badRole,
		"none alg":  noneAlg,
		"garbage":   "not.a.token",
	} {
		if _, err := tm.Parse(raw); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func runMiddleware(t *testing.T, req *http.Request) (*Identity, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(req.URL.Path)

	var seen *Identity
	h := Middleware(NewTokenManager(testSecret, time.Hour), AuthSkipper)(func(c echo.Context) error {
		if id, ok := IdentityFromContext(c.Request().Context()); ok {
			seen = &id
		}
		return c.NoContent(http.StatusOK)
	})
	err := h(c)
	return seen, err
}

func TestMiddleware_Cookie(t *testing.T) {
	id := testIdentity(RoleReceptionist)
	raw, _ := NewTokenManager(testSecret, time.Hour).Issue(id)

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: raw})
	seen, err := runMiddleware(t, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == nil || *seen != id {
		t.Errorf("expected identity %+v, got %+v", id, seen)
	}
}

func TestMiddleware_Bearer(t *testing.T) {
	id := testIdentity(RoleLabStaff)
	raw, _ := NewTokenManager(testSecret, time.Hour).Issue(id)

	req := httptest.NewRequest(http.MethodGet, "/api/lab-reports", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+raw)
	seen, err := runMiddleware(t, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == nil || seen.Role != RoleLabStaff {
		t.Errorf("expected lab staff identity, got %+v", seen)
	}
}

func TestMiddleware_Unauthorized(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"no token", func(r *http.Request) {}},
		{"bad cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: "junk"}) }},
		{"basic auth", func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Basic dXNlcjpwYXNz") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			tt.setup(req)
			_, err := runMiddleware(t, req)
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %v", err)
			}
		})
	}
}

func TestMiddleware_SkipsPublicPaths(t *testing.T) {
	for _, p := range []string{"/health", "/api/auth/login", "/api/auth/register", "/index.html"} {
		req := httptest.NewRequest(http.MethodGet, p, nil)
		if _, err := runMiddleware(t, req); err != nil {
			t.Errorf("%s: expected skip, got %v", p, err)
		}
	}
	req := httptest.NewRequest(http.MethodGet, "/api/lab-reports/x/file", nil)
	if _, err := runMiddleware(t, req); err == nil {
		t.Error("lab report files must require a session")
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		allowed  []Role
		wantCode int
	}{
		{"admin allowed", RoleAdmin, []Role{RoleAdmin, RoleReceptionist}, http.StatusOK},
		{"receptionist allowed", RoleReceptionist, []Role{RoleAdmin, RoleReceptionist}, http.StatusOK},
		{"doctor denied", RoleDoctor, []Role{RoleAdmin, RoleReceptionist}, http.StatusForbidden},
		{"lab staff denied", RoleLabStaff, []Role{RoleAdmin, RoleDoctor}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req = req.WithContext(WithIdentity(req.Context(), testIdentity(tt.role)))
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := RequireRole(tt.allowed...)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c)

			if tt.wantCode == http.StatusOK {
				if err != nil || rec.Code != http.StatusOK {
					t.Fatalf("expected 200, got %d %v", rec.Code, err)
				}
				return
			}
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != tt.wantCode {
				t.Fatalf("expected %d, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestSessionCookie(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	SetSessionCookie(c, "abc", DefaultTokenTTL, true)
	header := rec.Header().Get("Set-Cookie")
	for _, want := range []string{"token=abc", "HttpOnly", "Secure", "SameSite=Lax", "Max-Age=604800", "Path=/"} {
		if !strings.Contains(header, want) {
			t.Errorf("expected %q in %q", want, header)
		}
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	ClearSessionCookie(c, false)
	header = rec.Header().Get("Set-Cookie")
	if !strings.Contains(header, "Max-Age=0") || strings.Contains(header, "Secure") {
		t.Errorf("unexpected clear cookie %q", header)
	}
}
