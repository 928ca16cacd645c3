package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

// ErrInvalidDoctor is returned when a patient is assigned to a user that
// does not exist or is not a doctor.
var ErrInvalidDoctor = apperr.Validation("Invalid doctor selected")

type Service struct {
	users    UserRepository
	patients PatientRepository
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenManager
}

func NewService(users UserRepository, patients PatientRepository, hasher *auth.PasswordHasher, tokens *auth.TokenManager) *Service {
	return &Service{users: users, patients: patients, hasher: hasher, tokens: tokens}
}

// -- Accounts --

// Register creates an account and signs a session token for it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, string, error) {
	u, err := s.CreateUser(ctx, req)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(u.Identity())
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies the email/password pair and signs a session token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*User, string, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, "", auth.ErrBadCredentials
		}
		return nil, "", err
	}
	if !s.hasher.Check(u.PasswordHash, req.Password) {
		return nil, "", auth.ErrBadCredentials
	}
	token, err := s.tokens.Issue(u.Identity())
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// CreateUser adds a staff account. Emails are unique without regard to case.
func (s *Service) CreateUser(ctx context.Context, req RegisterRequest) (*User, error) {
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return nil, apperr.Validation("role must be one of: ADMIN, DOCTOR, RECEPTIONIST, LAB_STAFF")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, apperr.Validation("All fields are required")
	}
	if len(req.Password) > auth.MaxPasswordBytes {
		return nil, apperr.Validation("password must be at most %d bytes", auth.MaxPasswordBytes)
	}
	if len(req.Email) > maxEmailLength {
		return nil, apperr.Validation("email must be at most %d characters", maxEmailLength)
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		Name:         req.Name,
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// EnsureUser creates the account unless one with the same email exists.
// It reports whether a new account was created.
func (s *Service) EnsureUser(ctx context.Context, req RegisterRequest) (*User, bool, error) {
	existing, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, false, err
	}
	u, err := s.CreateUser(ctx, req)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, f UserFilter, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, f, limit, offset)
}

// ListDoctors lists accounts holding the DOCTOR role.
func (s *Service) ListDoctors(ctx context.Context, search string, limit, offset int) ([]*User, int, error) {
	role := auth.RoleDoctor
	return s.users.List(ctx, UserFilter{Search: search, Role: &role}, limit, offset)
}

// -- Patients --

func (s *Service) CreatePatient(ctx context.Context, req CreatePatientRequest) (*Patient, error) {
	p := req.Patient()
	if p.Name == "" || p.Phone == "" {
		return nil, apperr.Validation("Name and phone are required")
	}
	if p.DoctorID != nil {
		doctor, err := s.doctor(ctx, *p.DoctorID)
		if err != nil {
			return nil, err
		}
		p.Doctor = doctor
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPatient returns the patient if the caller on ctx may see it. A patient
// outside the caller's scope is reported as not found.
func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.ScopeFromContext(ctx).AllowsPatient(p.DoctorID) {
		return nil, apperr.NotFound("patient")
	}
	return p, nil
}

// CheckPatient reports apperr.ErrNotFound unless the patient exists and is
// visible to the caller on ctx.
func (s *Service) CheckPatient(ctx context.Context, id uuid.UUID) error {
	_, err := s.GetPatient(ctx, id)
	return err
}

// ListPatients lists the patients visible to the caller on ctx, newest
// first.
func (s *Service) ListPatients(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	f := PatientFilter{Search: search, Scope: auth.ScopeFromContext(ctx)}
	return s.patients.List(ctx, f, limit, offset)
}

// ReassignDoctor sets the patient's doctor, or clears it when doctorID is
// nil.
func (s *Service) ReassignDoctor(ctx context.Context, id uuid.UUID, doctorID *uuid.UUID) (*Patient, error) {
	if _, err := s.GetPatient(ctx, id); err != nil {
		return nil, err
	}
	if doctorID != nil {
		if _, err := s.doctor(ctx, *doctorID); err != nil {
			return nil, err
		}
	}
	if err := s.patients.SetDoctor(ctx, id, doctorID); err != nil {
		return nil, err
	}
	return s.patients.GetByID(ctx, id)
}

func (s *Service) doctor(ctx context.Context, id uuid.UUID) (*DoctorRef, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidDoctor
		}
		return nil, fmt.Errorf("lookup doctor: %w", err)
	}
	if u.Role != auth.RoleDoctor {
		return nil, ErrInvalidDoctor
	}
	return &DoctorRef{ID: u.ID, Name: u.Name}, nil
}
