package clinical

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/auth"
)

// Treatment maps to the treatments table.
type Treatment struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	Diagnosis    string      `db:"diagnosis" json:"diagnosis"`
	Prescription *string     `db:"prescription" json:"prescription"`
	Notes        *string     `db:"notes" json:"notes"`
	PatientID    uuid.UUID   `db:"patient_id" json:"patientId"`
	Patient      *PatientRef `json:"patient,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updatedAt"`

	// doctor assigned to the patient, used for scope checks
	patientDoctorID *uuid.UUID
}

// PatientRef is the patient summary embedded in treatment responses.
type PatientRef struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// TreatmentFilter narrows a treatment listing.
type TreatmentFilter struct {
	PatientID *uuid.UUID
	Scope     auth.Scope
}

type CreateTreatmentRequest struct {
	PatientID    string `json:"patientId" validate:"required,uuid"`
	Diagnosis    string `json:"diagnosis" validate:"required"`
	Prescription string `json:"prescription"`
	Notes        string `json:"notes"`
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
