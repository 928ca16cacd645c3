package identity

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httpx"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc           *Service
	secureCookies bool
}

// NewHandler builds the account and patient handlers. secureCookies marks
// the session cookie Secure.
func NewHandler(svc *Service, secureCookies bool) *Handler {
	return &Handler{svc: svc, secureCookies: secureCookies}
}

// UserResponse wraps the account returned by register and login.
type UserResponse struct {
	User auth.Identity `json:"user"`
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/me", h.Me)

	api.GET("/users/doctors", h.ListDoctors)
	adminOnly := auth.RequireRole(auth.RoleAdmin)
	api.GET("/users", h.ListUsers, adminOnly)
	api.POST("/users", h.CreateUser, adminOnly)

	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id", h.GetPatient)

	// Registration desk: admin, receptionist
	frontDesk := auth.RequireRole(auth.RoleAdmin, auth.RoleReceptionist)
	api.POST("/patients", h.CreatePatient, frontDesk)
	api.PATCH("/patients/:id", h.ReassignDoctor, frontDesk)
}

// -- Session Handlers --

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	u, token, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	auth.SetSessionCookie(c, token, h.svc.tokens.TTL(), h.secureCookies)
	return c.JSON(http.StatusCreated, UserResponse{User: u.Identity()})
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	u, token, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		return err
	}
	auth.SetSessionCookie(c, token, h.svc.tokens.TTL(), h.secureCookies)
	return c.JSON(http.StatusOK, UserResponse{User: u.Identity()})
}

func (h *Handler) Logout(c echo.Context) error {
	auth.ClearSessionCookie(c, h.secureCookies)
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *Handler) Me(c echo.Context) error {
	id, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return c.JSON(http.StatusOK, id)
}

// -- User Handlers --

func (h *Handler) ListUsers(c echo.Context) error {
	f := UserFilter{Search: c.QueryParam("search")}
	if raw := c.QueryParam("role"); raw != "" {
		role, err := auth.ParseRole(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "role must be one of: ADMIN, DOCTOR, RECEPTIONIST, LAB_STAFF")
		}
		f.Role = &role
	}
	pg := pagination.FromContext(c)
	users, total, err := h.svc.ListUsers(c.Request().Context(), f, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, pg))
}

func (h *Handler) CreateUser(c echo.Context) error {
	var req RegisterRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	u, err := h.svc.CreateUser(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	doctors, total, err := h.svc.ListDoctors(c.Request().Context(), c.QueryParam("search"), pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(doctors, total, pg))
}

// -- Patient Handlers --

func (h *Handler) CreatePatient(c echo.Context) error {
	var req CreatePatientRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.CreatePatient(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id", "patient")
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients, total, err := h.svc.ListPatients(c.Request().Context(), c.QueryParam("search"), pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg))
}

func (h *Handler) ReassignDoctor(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id", "patient")
	if err != nil {
		return err
	}
	var req ReassignDoctorRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.ReassignDoctor(c.Request().Context(), id, req.DoctorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
