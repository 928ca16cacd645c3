// Package chart assembles a patient's full record from the other domains.
package chart

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/clinical"
	"github.com/hms/hms/internal/domain/diagnostics"
	"github.com/hms/hms/internal/domain/identity"
)

type PatientSource interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
}

type TreatmentSource interface {
	PatientTreatments(ctx context.Context, patientID uuid.UUID) ([]*clinical.Treatment, error)
}

type LabReportSource interface {
	PatientReports(ctx context.Context, patientID uuid.UUID) ([]*diagnostics.LabReport, error)
}

type BillSource interface {
	PatientBills(ctx context.Context, patientID uuid.UUID) ([]*billing.Bill, error)
}

// Chart is a patient together with every record attached to it, each list
// newest first.
type Chart struct {
	*identity.Patient
	Treatments []*clinical.Treatment    `json:"treatments"`
	LabReports []*diagnostics.LabReport `json:"labReports"`
	Bills      []*billing.Bill          `json:"bills"`
}

type Service struct {
	patients   PatientSource
	treatments TreatmentSource
	reports    LabReportSource
	bills      BillSource
}

func NewService(patients PatientSource, treatments TreatmentSource, reports LabReportSource, bills BillSource) *Service {
	return &Service{patients: patients, treatments: treatments, reports: reports, bills: bills}
}

// Everything returns the chart of a patient visible to the caller. The
// patient lookup applies the caller's scope, so an unknown or foreign
// patient is reported as not found before any record is read.
func (s *Service) Everything(ctx context.Context, patientID uuid.UUID) (*Chart, error) {
	p, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	ch := &Chart{
		Patient:    p,
		Treatments: []*clinical.Treatment{},
		LabReports: []*diagnostics.LabReport{},
		Bills:      []*billing.Bill{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.treatments.PatientTreatments(gctx, patientID)
		if err == nil && items != nil {
			ch.Treatments = items
		}
		return err
	})
	g.Go(func() error {
		items, err := s.reports.PatientReports(gctx, patientID)
		if err == nil && items != nil {
			ch.LabReports = items
		}
		return err
	})
	g.Go(func() error {
		items, err := s.bills.PatientBills(gctx, patientID)
		if err == nil && items != nil {
			ch.Bills = items
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ch, nil
}
