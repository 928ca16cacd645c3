package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type billRepoPG struct {
	pool *pgxpool.Pool
}

func NewBillRepo(pool *pgxpool.Pool) BillRepository {
	return &billRepoPG{pool: pool}
}

func (r *billRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const (
	billFrom = `bills b
	JOIN patients p ON p.id = b.patient_id
	JOIN users u ON u.id = b.created_by_id`
	billCols = `b.id, b.amount, b.description, b.status, b.paid_at, b.patient_id, b.created_by_id,
	b.created_at, b.updated_at, p.name, p.phone, p.email, p.doctor_id, u.name`
)

func (r *billRepoPG) Create(ctx context.Context, b *Bill) error {
	b.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO bills (id, amount, description, status, patient_id, created_by_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		b.ID, b.Amount, b.Description, string(b.Status), b.PatientID, b.CreatedByID,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	return db.MapError(err, "bill create", "bill")
}

func (r *billRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM `+billFrom+` WHERE b.id = $1`, id))
	return b, db.MapError(err, "bill get by id", "bill")
}

func (r *billRepoPG) List(ctx context.Context, f BillFilter, limit, offset int) ([]*Bill, int, error) {
	q := db.NewListQuery(billFrom, billCols)
	f.Scope.Restrict(q, "p.doctor_id")
	if f.PatientID != nil {
		q.Eq("b.patient_id", *f.PatientID)
	}
	if f.Status != nil {
		q.Eq("b.status", string(*f.Status))
	}
	q.OrderBy("b.created_at DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("bill count: %w", err)
	}
	items, err := r.query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *billRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Bill, error) {
	return r.query(ctx, `SELECT `+billCols+` FROM `+billFrom+`
		WHERE b.patient_id = $1 ORDER BY b.created_at DESC`, patientID)
}

func (r *billRepoPG) SetStatus(ctx context.Context, id uuid.UUID, status Status, paidAt *time.Time) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bills SET status = $2, paid_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'`,
		id, string(status), paidAt)
	if err != nil {
		return false, db.MapError(err, "bill set status", "bill")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *billRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Bill, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("bill list: %w", err)
	}
	defer rows.Close()

	var items []*Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("bill scan: %w", err)
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBill(row rowScanner) (*Bill, error) {
	var b Bill
	var status string
	var patient PatientRef
	var creator UserRef
	if err := row.Scan(
		&b.ID, &b.Amount, &b.Description, &status, &b.PaidAt, &b.PatientID, &b.CreatedByID,
		&b.CreatedAt, &b.UpdatedAt, &patient.Name, &patient.Phone, &patient.Email, &b.patientDoctorID, &creator.Name,
	); err != nil {
		return nil, err
	}
	b.Status = Status(status)
	b.Patient = &patient
	b.CreatedBy = &creator
	return &b, nil
}
