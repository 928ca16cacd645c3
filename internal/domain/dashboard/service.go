package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

const dateLayout = "2006-01-02"

var (
	adminNav = []NavItem{
		{Href: "/dashboard", Label: "Dashboard"},
		{Href: "/dashboard/users", Label: "Manage Users"},
		{Href: "/dashboard/patients", Label: "All Patients"},
		{Href: "/dashboard/reports", Label: "Reports"},
		{Href: "/dashboard/settings", Label: "Settings"},
	}
	doctorNav = []NavItem{
		{Href: "/dashboard", Label: "Dashboard"},
		{Href: "/dashboard/patients", Label: "My Patients"},
		{Href: "/dashboard/treatments", Label: "Treatments"},
		{Href: "/dashboard/lab-reports", Label: "Lab Reports"},
	}
	receptionNav = []NavItem{
		{Href: "/dashboard", Label: "Dashboard"},
		{Href: "/dashboard/patients", Label: "Patients"},
		{Href: "/dashboard/patients/new", Label: "New Patient"},
		{Href: "/dashboard/billing", Label: "Billing"},
	}
	labNav = []NavItem{
		{Href: "/dashboard", Label: "Dashboard"},
		{Href: "/dashboard/lab-reports", Label: "Lab Reports"},
		{Href: "/dashboard/lab-reports/upload", Label: "Upload Report"},
	}
)

// Navigation returns the menu of role. Unknown roles get none.
func Navigation(role auth.Role) []NavItem {
	switch role {
	case auth.RoleAdmin:
		return adminNav
	case auth.RoleDoctor:
		return doctorNav
	case auth.RoleReceptionist:
		return receptionNav
	case auth.RoleLabStaff:
		return labNav
	default:
		return []NavItem{}
	}
}

type Service struct {
	stats StatsRepository
	now   func() time.Time
}

func NewService(stats StatsRepository) *Service {
	return &Service{stats: stats, now: time.Now}
}

// Dashboard returns the navigation and statistics of the caller's role.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	caller, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, apperr.ErrUnauthorized
	}
	d := &Dashboard{Role: caller.Role, Navigation: Navigation(caller.Role)}

	var (
		stats interface{}
		err   error
	)
	switch caller.Role {
	case auth.RoleAdmin:
		stats, err = s.stats.AdminStats(ctx)
	case auth.RoleDoctor:
		stats, err = s.stats.DoctorStats(ctx, caller.ID)
	case auth.RoleReceptionist:
		stats, err = s.stats.ReceptionStats(ctx)
	case auth.RoleLabStaff:
		stats, err = s.stats.LabStats(ctx, caller.ID)
	default:
		stats = struct{}{}
	}
	if err != nil {
		return nil, err
	}
	d.Stats = stats
	return d, nil
}

// ParseReportType converts s into a ReportType, rejecting unknown values.
func ParseReportType(s string) (ReportType, bool) {
	switch t := ReportType(s); t {
	case ReportPatients, ReportBilling, ReportTreatments, ReportLabReports:
		return t, true
	default:
		return "", false
	}
}

// ParsePeriod converts r into a Period. The upper bound is moved to the
// start of the following day so the whole To date is included.
func ParsePeriod(r *DateRange) (Period, error) {
	var p Period
	if r == nil {
		return p, nil
	}
	if r.From != "" {
		from, err := time.Parse(dateLayout, r.From)
		if err != nil {
			return p, apperr.Validation("dateRange.from must be a date in YYYY-MM-DD format")
		}
		p.From = &from
	}
	if r.To != "" {
		to, err := time.Parse(dateLayout, r.To)
		if err != nil {
			return p, apperr.Validation("dateRange.to must be a date in YYYY-MM-DD format")
		}
		to = to.AddDate(0, 0, 1)
		p.To = &to
	}
	if p.From != nil && p.To != nil && !p.From.Before(*p.To) {
		return p, apperr.Validation("dateRange.from must not be after dateRange.to")
	}
	return p, nil
}

// GenerateReport computes the summary of the named report within the
// optional date range.
func (s *Service) GenerateReport(ctx context.Context, name string, req ReportRequest) (*Report, error) {
	typ, ok := ParseReportType(name)
	if !ok {
		return nil, apperr.NotFound("report type")
	}
	period, err := ParsePeriod(req.DateRange)
	if err != nil {
		return nil, err
	}

	var summary interface{}
	switch typ {
	case ReportPatients:
		summary, err = s.stats.PatientSummary(ctx, period)
	case ReportBilling:
		summary, err = s.stats.BillingSummary(ctx, period)
	case ReportTreatments:
		summary, err = s.stats.TreatmentSummary(ctx, period)
	case ReportLabReports:
		summary, err = s.stats.LabReportSummary(ctx, period)
	}
	if err != nil {
		return nil, err
	}
	return &Report{
		Type:        typ,
		GeneratedAt: s.now().UTC(),
		DateRange:   req.DateRange,
		Message:     fmt.Sprintf("%s report generated successfully", typ),
		Summary:     summary,
	}, nil
}

// ParseExportFormat converts s into an ExportFormat without regard to case.
func ParseExportFormat(s string) (ExportFormat, bool) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case ExportPDF, ExportExcel, ExportCSV, ExportJSON:
		return f, true
	default:
		return "", false
	}
}

// Export gathers every report summary within the optional date range.
func (s *Service) Export(ctx context.Context, req ExportRequest) (*Export, error) {
	format, ok := ParseExportFormat(req.Format)
	if !ok {
		return nil, apperr.Validation("format must be one of: pdf, excel, csv, json")
	}
	period, err := ParsePeriod(req.DateRange)
	if err != nil {
		return nil, err
	}

	var stats ExportStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.Patients, err = s.stats.PatientSummary(gctx, period)
		return err
	})
	g.Go(func() (err error) {
		stats.Billing, err = s.stats.BillingSummary(gctx, period)
		return err
	})
	g.Go(func() (err error) {
		stats.Treatments, err = s.stats.TreatmentSummary(gctx, period)
		return err
	})
	g.Go(func() (err error) {
		stats.LabReports, err = s.stats.LabReportSummary(gctx, period)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Export{
		Format:     format,
		ExportedAt: s.now().UTC(),
		DateRange:  req.DateRange,
		Stats:      stats,
		Message:    fmt.Sprintf("Data exported as %s successfully", format),
	}, nil
}
