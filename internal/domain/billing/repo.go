package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type BillRepository interface {
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	List(ctx context.Context, f BillFilter, limit, offset int) ([]*Bill, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Bill, error)
	// SetStatus moves a pending bill to status. It reports false when the
	// bill is no longer pending.
	SetStatus(ctx context.Context, id uuid.UUID, status Status, paidAt *time.Time) (bool, error)
}

// PatientChecker confirms that a patient exists and is visible to the caller
// on ctx, returning apperr.ErrNotFound otherwise.
type PatientChecker interface {
	CheckPatient(ctx context.Context, id uuid.UUID) error
}
