package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

// -- Mock Stats Repository --

type mockStatsRepo struct {
	mu          sync.Mutex
	doctorCalls []uuid.UUID
	labCalls    []uuid.UUID
	periods     []Period
	err         error
}

func (m *mockStatsRepo) AdminStats(context.Context) (*AdminStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &AdminStats{TotalPatients: 12, TotalDoctors: 3, PendingBills: 4, TotalRevenue: 1250.5}, nil
}

func (m *mockStatsRepo) DoctorStats(_ context.Context, doctorID uuid.UUID) (*DoctorStats, error) {
	m.doctorCalls = append(m.doctorCalls, doctorID)
	return &DoctorStats{MyPatients: 5, TotalTreatments: 9, LabReports: 2}, nil
}

func (m *mockStatsRepo) ReceptionStats(context.Context) (*ReceptionStats, error) {
	return &ReceptionStats{TotalPatients: 12, PendingBills: 4}, nil
}

func (m *mockStatsRepo) LabStats(_ context.Context, userID uuid.UUID) (*LabStats, error) {
	m.labCalls = append(m.labCalls, userID)
	return &LabStats{LabReports: 7, UploadedByMe: 3}, nil
}

func (m *mockStatsRepo) PatientSummary(_ context.Context, p Period) (*PatientSummary, error) {
	m.record(p)
	return &PatientSummary{Total: 10, Assigned: 6, Unassigned: 4}, nil
}

func (m *mockStatsRepo) record(p Period) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periods = append(m.periods, p)
}

func (m *mockStatsRepo) BillingSummary(_ context.Context, p Period) (*BillingSummary, error) {
	m.record(p)
	if m.err != nil {
		return nil, m.err
	}
	return &BillingSummary{Total: 3, Pending: 1, Paid: 2, Revenue: 300}, nil
}

func (m *mockStatsRepo) TreatmentSummary(_ context.Context, p Period) (*TreatmentSummary, error) {
	m.record(p)
	return &TreatmentSummary{Total: 8, Patients: 5}, nil
}

func (m *mockStatsRepo) LabReportSummary(_ context.Context, p Period) (*LabReportSummary, error) {
	m.record(p)
	return &LabReportSummary{Total: 2, Patients: 2, SizeBytes: 2048}, nil
}

var fixedNow = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

func newTestService() (*Service, *mockStatsRepo) {
	repo := &mockStatsRepo{}
	svc := NewService(repo)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func as(role auth.Role, id uuid.UUID) context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{ID: id, Name: "Test", Role: role})
}

// -- Tests --

func TestService_Dashboard_PerRole(t *testing.T) {
	svc, repo := newTestService()
	doc, lab := uuid.New(), uuid.New()

	tests := []struct {
		role     auth.Role
		id       uuid.UUID
		navCount int
		check    func(t *testing.T, stats interface{})
	}{
		{auth.RoleAdmin, uuid.New(), 5, func(t *testing.T, stats interface{}) {
			s, ok := stats.(*AdminStats)
			if !ok || s.TotalRevenue != 1250.5 || s.TotalDoctors != 3 {
				t.Errorf("unexpected admin stats %#v", stats)
			}
		}},
		{auth.RoleDoctor, doc, 4, func(t *testing.T, stats interface{}) {
			if s, ok := stats.(*DoctorStats); !ok || s.MyPatients != 5 {
				t.Errorf("unexpected doctor stats %#v", stats)
			}
		}},
		{auth.RoleReceptionist, uuid.New(), 4, func(t *testing.T, stats interface{}) {
			if s, ok := stats.(*ReceptionStats); !ok || s.PendingBills != 4 {
				t.Errorf("unexpected reception stats %#v", stats)
			}
		}},
		{auth.RoleLabStaff, lab, 3, func(t *testing.T, stats interface{}) {
			if s, ok := stats.(*LabStats); !ok || s.UploadedByMe != 3 {
				t.Errorf("unexpected lab stats %#v", stats)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			d, err := svc.Dashboard(as(tt.role, tt.id))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Role != tt.role {
				t.Errorf("expected role %s, got %s", tt.role, d.Role)
			}
			if len(d.Navigation) != tt.navCount {
				t.Errorf("expected %d nav items, got %d", tt.navCount, len(d.Navigation))
			}
			if d.Navigation[0].Href != "/dashboard" {
				t.Errorf("expected dashboard first, got %s", d.Navigation[0].Href)
			}
			tt.check(t, d.Stats)
		})
	}

	if len(repo.doctorCalls) != 1 || repo.doctorCalls[0] != doc {
		t.Error("doctor stats must be computed for the calling doctor")
	}
	if len(repo.labCalls) != 1 || repo.labCalls[0] != lab {
		t.Error("lab stats must be computed for the calling user")
	}
}

func TestService_Dashboard_UnknownRoleDenied(t *testing.T) {
	svc, _ := newTestService()

	d, err := svc.Dashboard(as(auth.Role("JANITOR"), uuid.New()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Navigation) != 0 {
		t.Errorf("expected no navigation, got %d", len(d.Navigation))
	}
	if _, ok := d.Stats.(struct{}); !ok {
		t.Errorf("expected empty stats, got %#v", d.Stats)
	}

	if _, err := svc.Dashboard(context.Background()); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestService_Dashboard_RepoError(t *testing.T) {
	svc, repo := newTestService()
	repo.err = errors.New("connection reset")
	if _, err := svc.Dashboard(as(auth.RoleAdmin, uuid.New())); err == nil {
		t.Fatal("expected error")
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod(&DateRange{From: "2024-01-01", To: "2024-01-31"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected from %v", p.From)
	}
	if !p.To.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected exclusive upper bound on the next day, got %v", p.To)
	}

	if p, err := ParsePeriod(nil); err != nil || p.From != nil || p.To != nil {
		t.Errorf("expected open period, got %+v %v", p, err)
	}
	if p, err := ParsePeriod(&DateRange{To: "2024-01-01"}); err != nil || p.From != nil || p.To == nil {
		t.Errorf("expected only upper bound, got %+v %v", p, err)
	}
	if _, err := ParsePeriod(&DateRange{From: "2024-01-01", To: "2024-01-01"}); err != nil {
		t.Errorf("single day range should be valid, got %v", err)
	}

	for _, bad := range []*DateRange{
		{From: "01/01/2024"},
		{To: "yesterday"},
		{From: "2024-02-01", To: "2024-01-01"},
	} {
		if _, err := ParsePeriod(bad); !apperr.IsValidation(err) {
			t.Errorf("%+v: expected validation error, got %v", bad, err)
		}
	}
}

func TestService_GenerateReport(t *testing.T) {
	svc, repo := newTestService()
	ctx := as(auth.RoleAdmin, uuid.New())

	for _, name := range []string{"patients", "billing", "treatments", "lab-reports"} {
		r, err := svc.GenerateReport(ctx, name, ReportRequest{})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if string(r.Type) != name || r.Summary == nil {
			t.Errorf("%s: unexpected report %+v", name, r)
		}
		if !r.GeneratedAt.Equal(fixedNow) {
			t.Errorf("%s: expected generatedAt %v, got %v", name, fixedNow, r.GeneratedAt)
		}
		if r.Message != name+" report generated successfully" {
			t.Errorf("unexpected message %q", r.Message)
		}
	}

	rng := &DateRange{From: "2024-03-01", To: "2024-03-31"}
	r, err := svc.GenerateReport(ctx, "billing", ReportRequest{DateRange: rng})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s, ok := r.Summary.(*BillingSummary); !ok || s.Revenue != 300 {
		t.Errorf("unexpected summary %#v", r.Summary)
	}
	last := repo.periods[len(repo.periods)-1]
	if last.From == nil || last.To == nil || last.To.Day() != 1 || last.To.Month() != time.April {
		t.Errorf("expected period through end of March, got %+v", last)
	}
	if r.DateRange != rng {
		t.Error("expected date range echoed back")
	}

	if _, err := svc.GenerateReport(ctx, "inventory", ReportRequest{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found for unknown report, got %v", err)
	}
}

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		in   string
		want ExportFormat
		ok   bool
	}{
		{"pdf", ExportPDF, true},
		{"PDF", ExportPDF, true},
		{"Excel", ExportExcel, true},
		{" csv ", ExportCSV, true},
		{"json", ExportJSON, true},
		{"docx", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseExportFormat(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseExportFormat(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestService_Export(t *testing.T) {
	svc, repo := newTestService()
	ctx := as(auth.RoleAdmin, uuid.New())

	rng := &DateRange{From: "2024-03-01", To: "2024-03-31"}
	x, err := svc.Export(ctx, ExportRequest{Format: "PDF", DateRange: rng})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if x.Format != ExportPDF || x.Message != "Data exported as pdf successfully" {
		t.Errorf("unexpected export %+v", x)
	}
	if !x.ExportedAt.Equal(fixedNow) || x.DateRange != rng {
		t.Errorf("unexpected export metadata %+v", x)
	}
	if x.Stats.Patients.Total != 10 || x.Stats.Billing.Revenue != 300 || x.Stats.Treatments.Total != 8 || x.Stats.LabReports.SizeBytes != 2048 {
		t.Errorf("unexpected stats %+v", x.Stats)
	}
	if len(repo.periods) != 4 {
		t.Fatalf("expected four summaries, got %d", len(repo.periods))
	}
	for _, p := range repo.periods {
		if p.From == nil || p.To == nil || p.To.Month() != time.April {
			t.Errorf("expected March period, got %+v", p)
		}
	}
}

func TestService_Export_Errors(t *testing.T) {
	svc, repo := newTestService()
	ctx := as(auth.RoleAdmin, uuid.New())

	if _, err := svc.Export(ctx, ExportRequest{Format: "docx"}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for unknown format, got %v", err)
	}
	if _, err := svc.Export(ctx, ExportRequest{Format: "csv", DateRange: &DateRange{From: "2024-02-01", To: "2024-01-01"}}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for inverted range, got %v", err)
	}

	repo.err = errors.New("connection reset")
	if _, err := svc.Export(ctx, ExportRequest{Format: "csv"}); err == nil {
		t.Error("expected repository error")
	}
}
