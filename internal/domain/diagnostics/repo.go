package diagnostics

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/blobstore"
)

type LabReportRepository interface {
	// Create inserts r, keeping r.ID when it is already set.
	Create(ctx context.Context, r *LabReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabReport, error)
	List(ctx context.Context, f LabReportFilter, limit, offset int) ([]*LabReport, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*LabReport, error)
}

// PatientChecker confirms that a patient exists and is visible to the caller
// on ctx, returning apperr.ErrNotFound otherwise.
type PatientChecker interface {
	CheckPatient(ctx context.Context, id uuid.UUID) error
}

// FileStore holds report files. Objects are addressed by the backend that
// accepted them and their key.
type FileStore interface {
	Put(ctx context.Context, key string, r io.ReadSeeker, size int64, contentType string) (blobstore.Object, error)
	Open(ctx context.Context, backend, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, backend, key string) error
}
