package diagnostics

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/blobstore"
)

// -- Mock Patients --

type mockPatients struct {
	doctors map[uuid.UUID]*uuid.UUID
}

func (m *mockPatients) add(doctorID *uuid.UUID) uuid.UUID {
	id := uuid.New()
	m.doctors[id] = doctorID
	return id
}

func (m *mockPatients) CheckPatient(ctx context.Context, id uuid.UUID) error {
	doctorID, ok := m.doctors[id]
	if !ok || !auth.ScopeFromContext(ctx).AllowsPatient(doctorID) {
		return apperr.NotFound("patient")
	}
	return nil
}

// -- Mock Lab Report Repository --

type mockLabReportRepo struct {
	store      map[uuid.UUID]*LabReport
	patients   *mockPatients
	failCreate bool
	seq        int
}

func (m *mockLabReportRepo) Create(_ context.Context, lr *LabReport) error {
	if m.failCreate {
		return errors.New("insert failed")
	}
	if lr.ID == uuid.Nil {
		lr.ID = uuid.New()
	}
	m.seq++
	lr.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	lr.UpdatedAt = lr.CreatedAt
	m.store[lr.ID] = lr
	return nil
}

func (m *mockLabReportRepo) joined(lr *LabReport) *LabReport {
	cp := *lr
	cp.Patient = &PatientRef{Name: "John Patient", Phone: "555-0100"}
	cp.UploadedBy = &UserRef{Name: "Lab Technician"}
	cp.patientDoctorID = m.patients.doctors[lr.PatientID]
	return &cp
}

func (m *mockLabReportRepo) GetByID(_ context.Context, id uuid.UUID) (*LabReport, error) {
	lr, ok := m.store[id]
	if !ok {
		return nil, apperr.NotFound("lab report")
	}
	return m.joined(lr), nil
}

func (m *mockLabReportRepo) all(match func(*LabReport) bool) []*LabReport {
	var result []*LabReport
	for _, lr := range m.store {
		if j := m.joined(lr); match(j) {
			result = append(result, j)
		}
	}
	sort.Slice(result, func(i, k int) bool { return result[i].CreatedAt.After(result[k].CreatedAt) })
	return result
}

func (m *mockLabReportRepo) List(_ context.Context, f LabReportFilter, limit, offset int) ([]*LabReport, int, error) {
	result := m.all(func(lr *LabReport) bool {
		if f.PatientID != nil && lr.PatientID != *f.PatientID {
			return false
		}
		return f.Scope.AllowsPatient(lr.patientDoctorID)
	})
	total := len(result)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return result[offset:end], total, nil
}

func (m *mockLabReportRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*LabReport, error) {
	return m.all(func(lr *LabReport) bool { return lr.PatientID == patientID }), nil
}

// -- Helpers --

type testEnv struct {
	svc      *Service
	repo     *mockLabReportRepo
	patients *mockPatients
	primary  *blobstore.MemoryStore
	fallback *blobstore.MemoryStore
}

// primaryStore reports itself as the S3 backend so fallback routing can be
// told apart from the memory fallback.
type primaryStore struct {
	*blobstore.MemoryStore
}

func (primaryStore) Backend() string { return blobstore.BackendS3 }

func (p primaryStore) Put(ctx context.Context, key string, r io.Reader, size int64, ct string) (blobstore.Object, error) {
	obj, err := p.MemoryStore.Put(ctx, key, r, size, ct)
	obj.Backend = blobstore.BackendS3
	if err == nil {
		obj.URL = "https://files.example.com/hms/" + key
	}
	return obj, err
}

func newTestEnv() *testEnv {
	patients := &mockPatients{doctors: make(map[uuid.UUID]*uuid.UUID)}
	repo := &mockLabReportRepo{store: make(map[uuid.UUID]*LabReport), patients: patients}
	primary := blobstore.NewMemoryStore()
	fallback := blobstore.NewMemoryStore()
	files := blobstore.NewFallback(zerolog.Nop(), primaryStore{primary}, fallback)
	svc := NewService(repo, patients, files, zerolog.Nop())
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return &testEnv{svc: svc, repo: repo, patients: patients, primary: primary, fallback: fallback}
}

func as(role auth.Role, id uuid.UUID) context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{ID: id, Name: "Test", Role: role})
}

func upload(name, content string) Upload {
	return Upload{Name: name, ContentType: "application/pdf", Size: int64(len(content)), Content: strings.NewReader(content)}
}

// -- Tests --

func TestService_UploadReport_PrimaryBackend(t *testing.T) {
	env := newTestEnv()
	pid := env.patients.add(nil)
	staff := uuid.New()

	lr, err := env.svc.UploadReport(as(auth.RoleLabStaff, staff), UploadRequest{
		PatientID: pid.String(), Title: "Blood Panel", Description: "CBC",
	}, upload("cbc result.pdf", "%PDF-1.4"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lr.UploadedByID != staff {
		t.Errorf("expected uploader %s, got %s", staff, lr.UploadedByID)
	}
	if lr.StorageBackend != blobstore.BackendS3 || lr.StorageKey != "lab-reports/1700000000000-cbc_result.pdf" {
		t.Errorf("unexpected location %s %s", lr.StorageBackend, lr.StorageKey)
	}
	if lr.FileURL != "https://files.example.com/hms/"+lr.StorageKey {
		t.Errorf("expected public url, got %s", lr.FileURL)
	}
	if lr.FileName != "cbc result.pdf" || lr.SizeBytes != 8 {
		t.Errorf("unexpected file metadata %s %d", lr.FileName, lr.SizeBytes)
	}
	if env.primary.Len() != 1 || env.fallback.Len() != 0 {
		t.Error("expected file on the primary backend only")
	}
}

func TestService_UploadReport_FallsBack(t *testing.T) {
	env := newTestEnv()
	env.primary.FailPut = true
	pid := env.patients.add(nil)

	lr, err := env.svc.UploadReport(as(auth.RoleAdmin, uuid.New()), UploadRequest{
		PatientID: pid.String(), Title: "X-Ray",
	}, upload("xray.png", "png-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lr.StorageBackend != blobstore.BackendMemory {
		t.Errorf("expected fallback backend, got %s", lr.StorageBackend)
	}
	if lr.FileURL != FileRoute(lr.ID) {
		t.Errorf("expected api file route, got %s", lr.FileURL)
	}

	_, rc, err := env.svc.OpenFile(as(auth.RoleAdmin, uuid.New()), lr.ID)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer rc.Close()
	var buf bytes.Buffer
	io.Copy(&buf, rc)
	if buf.String() != "png-bytes" {
		t.Errorf("expected stored bytes, got %q", buf.String())
	}
}

func TestService_UploadReport_RemovesFileWhenInsertFails(t *testing.T) {
	env := newTestEnv()
	env.repo.failCreate = true
	pid := env.patients.add(nil)

	_, err := env.svc.UploadReport(as(auth.RoleLabStaff, uuid.New()), UploadRequest{
		PatientID: pid.String(), Title: "Blood Panel",
	}, upload("cbc.pdf", "data"))
	if err == nil {
		t.Fatal("expected error")
	}
	if env.primary.Len() != 0 {
		t.Error("expected stored file to be removed")
	}
}

func TestService_UploadReport_Validation(t *testing.T) {
	env := newTestEnv()
	doc := uuid.New()
	pid := env.patients.add(&doc)
	ctx := as(auth.RoleLabStaff, uuid.New())

	tests := []struct {
		name string
		req  UploadRequest
		file Upload
	}{
		{"bad patient", UploadRequest{PatientID: "x", Title: "T"}, upload("a.pdf", "1")},
		{"unknown patient", UploadRequest{PatientID: uuid.New().String(), Title: "T"}, upload("a.pdf", "1")},
		{"missing title", UploadRequest{PatientID: pid.String(), Title: " "}, upload("a.pdf", "1")},
		{"missing file", UploadRequest{PatientID: pid.String(), Title: "T"}, Upload{}},
		{"empty file", UploadRequest{PatientID: pid.String(), Title: "T"}, upload("a.pdf", "")},
		{"long title", UploadRequest{PatientID: pid.String(), Title: strings.Repeat("t", 301)}, upload("a.pdf", "1")},
		{"long file name", UploadRequest{PatientID: pid.String(), Title: "T"}, upload(strings.Repeat("n", 252)+".pdf", "1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.svc.UploadReport(ctx, tt.req, tt.file); !apperr.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if env.primary.Len() != 0 {
		t.Error("rejected uploads must not store files")
	}

	if _, err := env.svc.UploadReport(context.Background(), UploadRequest{PatientID: pid.String(), Title: "T"}, upload("a.pdf", "1")); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("expected unauthorized without identity, got %v", err)
	}
}

func TestService_ListReports_DoctorScope(t *testing.T) {
	env := newTestEnv()
	docA, docB := uuid.New(), uuid.New()
	pa := env.patients.add(&docA)
	pb := env.patients.add(&docB)
	staff := as(auth.RoleLabStaff, uuid.New())

	for _, pid := range []uuid.UUID{pa, pa, pb} {
		if _, err := env.svc.UploadReport(staff, UploadRequest{PatientID: pid.String(), Title: "Panel"}, upload("p.pdf", "x")); err != nil {
			t.Fatalf("upload: %v", err)
		}
	}

	items, total, err := env.svc.ListReports(as(auth.RoleDoctor, docA), nil, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2, got %d", total)
	}
	for _, lr := range items {
		if lr.PatientID != pa {
			t.Errorf("doctor A received report of patient %s", lr.PatientID)
		}
	}
	if _, total, _ := env.svc.ListReports(staff, &pb, 10, 0); total != 1 {
		t.Errorf("expected 1 report for patient B, got %d", total)
	}
}

func TestService_GetReport_OutOfScope(t *testing.T) {
	env := newTestEnv()
	docA, docB := uuid.New(), uuid.New()
	pb := env.patients.add(&docB)
	lr, err := env.svc.UploadReport(as(auth.RoleAdmin, uuid.New()), UploadRequest{PatientID: pb.String(), Title: "Panel"}, upload("p.pdf", "x"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if _, err := env.svc.GetReport(as(auth.RoleDoctor, docA), lr.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, _, err := env.svc.OpenFile(as(auth.RoleDoctor, docA), lr.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found for file, got %v", err)
	}
	if _, err := env.svc.GetReport(as(auth.RoleDoctor, docB), lr.ID); err != nil {
		t.Errorf("expected own patient's report, got %v", err)
	}
	if items, _ := env.svc.PatientReports(as(auth.RoleDoctor, docA), pb); len(items) != 0 {
		t.Errorf("expected no reports for another doctor, got %d", len(items))
	}
}
