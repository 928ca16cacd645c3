package clinical

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

type Service struct {
	treatments TreatmentRepository
	patients   PatientChecker
}

func NewService(treatments TreatmentRepository, patients PatientChecker) *Service {
	return &Service{treatments: treatments, patients: patients}
}

// CreateTreatment records a treatment for a patient visible to the caller.
func (s *Service) CreateTreatment(ctx context.Context, req CreateTreatmentRequest) (*Treatment, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperr.Validation("patientId must be a valid id")
	}
	diagnosis := strings.TrimSpace(req.Diagnosis)
	if diagnosis == "" {
		return nil, apperr.Validation("diagnosis is required")
	}
	if err := s.patients.CheckPatient(ctx, patientID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Validation("Patient not found")
		}
		return nil, err
	}

	t := &Treatment{
		Diagnosis:    diagnosis,
		Prescription: optional(req.Prescription),
		Notes:        optional(req.Notes),
		PatientID:    patientID,
	}
	if err := s.treatments.Create(ctx, t); err != nil {
		return nil, err
	}
	return s.treatments.GetByID(ctx, t.ID)
}

// GetTreatment returns the treatment if its patient is visible to the caller.
func (s *Service) GetTreatment(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	t, err := s.treatments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.ScopeFromContext(ctx).AllowsPatient(t.patientDoctorID) {
		return nil, apperr.NotFound("treatment")
	}
	return t, nil
}

// ListTreatments lists treatments visible to the caller, newest first,
// optionally for a single patient.
func (s *Service) ListTreatments(ctx context.Context, patientID *uuid.UUID, limit, offset int) ([]*Treatment, int, error) {
	f := TreatmentFilter{PatientID: patientID, Scope: auth.ScopeFromContext(ctx)}
	return s.treatments.List(ctx, f, limit, offset)
}

// PatientTreatments returns every treatment of a patient, newest first.
// Treatments of a patient outside the caller's scope are omitted.
func (s *Service) PatientTreatments(ctx context.Context, patientID uuid.UUID) ([]*Treatment, error) {
	items, err := s.treatments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	scope := auth.ScopeFromContext(ctx)
	visible := items[:0]
	for _, t := range items {
		if scope.AllowsPatient(t.patientDoctorID) {
			visible = append(visible, t)
		}
	}
	return visible, nil
}
