package auth

import (
	"context"

	"github.com/google/uuid"
)

// Scope narrows the rows a caller may read. The zero value sees nothing.
type Scope struct {
	all      bool
	doctorID *uuid.UUID
}

// ScopeFor derives the row scope for id. Doctors see only patients assigned
// to them, and records of those patients; other staff see everything.
func ScopeFor(id Identity) Scope {
	switch id.Role {
	case RoleDoctor:
		did := id.ID
		return Scope{doctorID: &did}
	case RoleAdmin, RoleReceptionist, RoleLabStaff:
		return Scope{all: true}
	default:
		return Scope{}
	}
}

// ScopeFromContext is ScopeFor applied to the caller on ctx. A context without
// an identity gets the empty scope.
func ScopeFromContext(ctx context.Context) Scope {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return Scope{}
	}
	return ScopeFor(id)
}

// Unrestricted returns a scope that sees every row. Used by CLI commands and
// internal aggregation.
func Unrestricted() Scope { return Scope{all: true} }

// DoctorID returns the doctor every visible patient must be assigned to, or
// nil when the scope is not restricted to a doctor.
func (s Scope) DoctorID() *uuid.UUID { return s.doctorID }

// Denied reports whether the scope matches no rows at all.
func (s Scope) Denied() bool { return !s.all && s.doctorID == nil }

// AllowsPatient reports whether a patient assigned to doctorID is visible.
func (s Scope) AllowsPatient(doctorID *uuid.UUID) bool {
	if s.all {
		return true
	}
	if s.doctorID == nil || doctorID == nil {
		return false
	}
	return *s.doctorID == *doctorID
}

// Restrictable is a query that a Scope can narrow.
type Restrictable interface {
	Eq(column string, value interface{})
	None()
}

// Restrict narrows q to rows visible under s. column is the assigned doctor
// of the patient the rows belong to.
func (s Scope) Restrict(q Restrictable, column string) {
	switch {
	case s.all:
	case s.doctorID != nil:
		q.Eq(column, *s.doctorID)
	default:
		q.None()
	}
}
