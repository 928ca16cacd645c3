package clinical

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type treatmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewTreatmentRepo(pool *pgxpool.Pool) TreatmentRepository {
	return &treatmentRepoPG{pool: pool}
}

func (r *treatmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const (
	treatmentFrom = `treatments t JOIN patients p ON p.id = t.patient_id`
	treatmentCols = `t.id, t.diagnosis, t.prescription, t.notes, t.patient_id, t.created_at, t.updated_at,
	p.name, p.phone, p.doctor_id`
)

func (r *treatmentRepoPG) Create(ctx context.Context, t *Treatment) error {
	t.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO treatments (id, diagnosis, prescription, notes, patient_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		t.ID, t.Diagnosis, t.Prescription, t.Notes, t.PatientID,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	return db.MapError(err, "treatment create", "treatment")
}

func (r *treatmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	t, err := scanTreatment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+treatmentCols+` FROM `+treatmentFrom+` WHERE t.id = $1`, id))
	return t, db.MapError(err, "treatment get by id", "treatment")
}

func (r *treatmentRepoPG) List(ctx context.Context, f TreatmentFilter, limit, offset int) ([]*Treatment, int, error) {
	q := db.NewListQuery(treatmentFrom, treatmentCols)
	f.Scope.Restrict(q, "p.doctor_id")
	if f.PatientID != nil {
		q.Eq("t.patient_id", *f.PatientID)
	}
	q.OrderBy("t.created_at DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("treatment count: %w", err)
	}

	items, err := r.query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *treatmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Treatment, error) {
	return r.query(ctx, `SELECT `+treatmentCols+` FROM `+treatmentFrom+`
		WHERE t.patient_id = $1 ORDER BY t.created_at DESC`, patientID)
}

func (r *treatmentRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Treatment, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("treatment list: %w", err)
	}
	defer rows.Close()

	var items []*Treatment
	for rows.Next() {
		t, err := scanTreatment(rows)
		if err != nil {
			return nil, fmt.Errorf("treatment scan: %w", err)
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTreatment(row rowScanner) (*Treatment, error) {
	var t Treatment
	var ref PatientRef
	if err := row.Scan(&t.ID, &t.Diagnosis, &t.Prescription, &t.Notes, &t.PatientID, &t.CreatedAt, &t.UpdatedAt,
		&ref.Name, &ref.Phone, &t.patientDoctorID); err != nil {
		return nil, err
	}
	t.Patient = &ref
	return &t, nil
}
