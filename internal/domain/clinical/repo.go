package clinical

import (
	"context"

	"github.com/google/uuid"
)

type TreatmentRepository interface {
	Create(ctx context.Context, t *Treatment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error)
	List(ctx context.Context, f TreatmentFilter, limit, offset int) ([]*Treatment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Treatment, error)
}

// PatientChecker confirms that a patient exists and is visible to the caller
// on ctx, returning apperr.ErrNotFound otherwise.
type PatientChecker interface {
	CheckPatient(ctx context.Context, id uuid.UUID) error
}
