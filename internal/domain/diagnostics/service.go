package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/blobstore"
)

const keyPrefix = "lab-reports"

// Column limits of lab_reports.
const (
	maxTitleLength       = 300
	maxFileNameLength    = 255
	maxContentTypeLength = 255
)

type Service struct {
	reports  LabReportRepository
	patients PatientChecker
	files    FileStore
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(reports LabReportRepository, patients PatientChecker, files FileStore, logger zerolog.Logger) *Service {
	return &Service{reports: reports, patients: patients, files: files, logger: logger, now: time.Now}
}

// FileRoute is the API path that streams the file of report id.
func FileRoute(id uuid.UUID) string {
	return "/api/lab-reports/" + id.String() + "/file"
}

// UploadReport stores the file, then records the report. When the record
// cannot be written the stored file is removed again.
func (s *Service) UploadReport(ctx context.Context, req UploadRequest, file Upload) (*LabReport, error) {
	caller, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, apperr.ErrUnauthorized
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperr.Validation("patientId must be a valid id")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.Validation("Patient, title, and file are required")
	}
	if file.Content == nil || file.Name == "" {
		return nil, apperr.Validation("Patient, title, and file are required")
	}
	if file.Size == 0 {
		return nil, apperr.Validation("file must not be empty")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, apperr.Validation("title must be at most %d characters", maxTitleLength)
	}
	if utf8.RuneCountInString(file.Name) > maxFileNameLength {
		return nil, apperr.Validation("file name must be at most %d characters", maxFileNameLength)
	}
	if utf8.RuneCountInString(file.ContentType) > maxContentTypeLength {
		return nil, apperr.Validation("content type must be at most %d characters", maxContentTypeLength)
	}
	if err := s.patients.CheckPatient(ctx, patientID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Validation("Patient not found")
		}
		return nil, err
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	report := &LabReport{
		ID:           uuid.New(),
		Title:        title,
		Description:  optional(req.Description),
		FileName:     file.Name,
		ContentType:  contentType,
		PatientID:    patientID,
		UploadedByID: caller.ID,
	}

	key := blobstore.NewKey(keyPrefix, file.Name, s.now())
	obj, err := s.files.Put(ctx, key, file.Content, file.Size, contentType)
	if err != nil {
		return nil, fmt.Errorf("store lab report file: %w", err)
	}
	report.StorageBackend = obj.Backend
	report.StorageKey = obj.Key
	report.SizeBytes = obj.Size
	report.FileURL = obj.URL
	if report.FileURL == "" {
		report.FileURL = FileRoute(report.ID)
	}

	if err := s.reports.Create(ctx, report); err != nil {
		s.discard(ctx, obj)
		return nil, err
	}
	s.logger.Info().
		Str("report_id", report.ID.String()).
		Str("backend", obj.Backend).
		Int64("size", obj.Size).
		Msg("lab report uploaded")
	return s.reports.GetByID(ctx, report.ID)
}

// discard removes a stored object whose report row was never written.
func (s *Service) discard(ctx context.Context, obj blobstore.Object) {
	if err := s.files.Delete(context.WithoutCancel(ctx), obj.Backend, obj.Key); err != nil {
		s.logger.Error().Err(err).
			Str("backend", obj.Backend).
			Str("key", obj.Key).
			Msg("orphaned lab report file")
	}
}

// GetReport returns the report if its patient is visible to the caller.
func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*LabReport, error) {
	lr, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.ScopeFromContext(ctx).AllowsPatient(lr.patientDoctorID) {
		return nil, apperr.NotFound("lab report")
	}
	return lr, nil
}

func (s *Service) ListReports(ctx context.Context, patientID *uuid.UUID, limit, offset int) ([]*LabReport, int, error) {
	f := LabReportFilter{PatientID: patientID, Scope: auth.ScopeFromContext(ctx)}
	return s.reports.List(ctx, f, limit, offset)
}

// PatientReports returns every report of a patient visible to the caller,
// newest first.
func (s *Service) PatientReports(ctx context.Context, patientID uuid.UUID) ([]*LabReport, error) {
	items, err := s.reports.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	scope := auth.ScopeFromContext(ctx)
	visible := items[:0]
	for _, lr := range items {
		if scope.AllowsPatient(lr.patientDoctorID) {
			visible = append(visible, lr)
		}
	}
	return visible, nil
}

// OpenFile streams the stored file of a visible report. The caller closes
// the reader.
func (s *Service) OpenFile(ctx context.Context, id uuid.UUID) (*LabReport, io.ReadCloser, error) {
	lr, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.files.Open(ctx, lr.StorageBackend, lr.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return lr, rc, nil
}
