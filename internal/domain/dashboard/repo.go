package dashboard

import (
	"context"

	"github.com/google/uuid"
)

// StatsRepository runs the aggregate queries behind dashboards and reports.
type StatsRepository interface {
	AdminStats(ctx context.Context) (*AdminStats, error)
	DoctorStats(ctx context.Context, doctorID uuid.UUID) (*DoctorStats, error)
	ReceptionStats(ctx context.Context) (*ReceptionStats, error)
	LabStats(ctx context.Context, userID uuid.UUID) (*LabStats, error)

	PatientSummary(ctx context.Context, p Period) (*PatientSummary, error)
	BillingSummary(ctx context.Context, p Period) (*BillingSummary, error)
	TreatmentSummary(ctx context.Context, p Period) (*TreatmentSummary, error)
	LabReportSummary(ctx context.Context, p Period) (*LabReportSummary, error)
}
