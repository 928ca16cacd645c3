package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/auth"
)

// User maps to the users table. The password hash never leaves the service.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         auth.Role `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Identity returns the session identity of u.
func (u *User) Identity() auth.Identity {
	return auth.Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// UserFilter narrows a user listing. Search matches name or email.
type UserFilter struct {
	Search string
	Role   *auth.Role
}

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// Patient maps to the patients table. DateOfBirth is a calendar date in
// YYYY-MM-DD form.
type Patient struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Phone       string         `db:"phone" json:"phone"`
	Email       *string        `db:"email" json:"email"`
	Address     *string        `db:"address" json:"address"`
	DateOfBirth *string        `db:"date_of_birth" json:"dateOfBirth"`
	Gender      *Gender        `db:"gender" json:"gender"`
	DoctorID    *uuid.UUID     `db:"doctor_id" json:"doctorId"`
	Doctor      *DoctorRef     `json:"doctor"`
	Counts      *PatientCounts `json:"counts,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// DoctorRef is the assigned doctor embedded in patient responses.
type DoctorRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// PatientCounts is the number of records attached to a patient, returned
// with list items.
type PatientCounts struct {
	Treatments int `json:"treatments"`
	LabReports int `json:"labReports"`
	Bills      int `json:"bills"`
}

// PatientFilter narrows a patient listing. Search matches name, email or
// phone; Scope applies the caller's row restriction.
type PatientFilter struct {
	Search string
	Scope  auth.Scope
}

// -- Requests --

const maxEmailLength = 320

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"required,oneof=ADMIN DOCTOR RECEPTIONIST LAB_STAFF"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=320"`
	Password string `json:"password" validate:"required"`
}

type CreatePatientRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Phone       string     `json:"phone" validate:"required,max=50"`
	Email       string     `json:"email" validate:"omitempty,email,max=320"`
	Address     string     `json:"address"`
	DateOfBirth string     `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Gender      string     `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	DoctorID    *uuid.UUID `json:"doctorId"`
}

// Patient builds the row to insert. Blank optional fields become null.
func (r *CreatePatientRequest) Patient() *Patient {
	p := &Patient{
		Name:        strings.TrimSpace(r.Name),
		Phone:       strings.TrimSpace(r.Phone),
		Email:       optional(normalizeEmail(r.Email)),
		Address:     optional(r.Address),
		DateOfBirth: optional(r.DateOfBirth),
		DoctorID:    r.DoctorID,
	}
	if r.Gender != "" {
		g := Gender(r.Gender)
		p.Gender = &g
	}
	return p
}

// ReassignDoctorRequest sets or clears the doctor of a patient. A null
// doctorId unassigns.
type ReassignDoctorRequest struct {
	DoctorID *uuid.UUID `json:"doctorId"`
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
