package diagnostics

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type labReportRepoPG struct {
	pool *pgxpool.Pool
}

func NewLabReportRepo(pool *pgxpool.Pool) LabReportRepository {
	return &labReportRepoPG{pool: pool}
}

func (r *labReportRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const (
	labReportFrom = `lab_reports l
	JOIN patients p ON p.id = l.patient_id
	JOIN users u ON u.id = l.uploaded_by_id`
	labReportCols = `l.id, l.title, l.description, l.file_url, l.file_name, l.content_type, l.size_bytes,
	l.storage_backend, l.storage_key, l.patient_id, l.uploaded_by_id, l.created_at, l.updated_at,
	p.name, p.phone, p.doctor_id, u.name`
)

func (r *labReportRepoPG) Create(ctx context.Context, lr *LabReport) error {
	if lr.ID == uuid.Nil {
		lr.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lab_reports (id, title, description, file_url, file_name, content_type, size_bytes,
			storage_backend, storage_key, patient_id, uploaded_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		lr.ID, lr.Title, lr.Description, lr.FileURL, lr.FileName, lr.ContentType, lr.SizeBytes,
		lr.StorageBackend, lr.StorageKey, lr.PatientID, lr.UploadedByID,
	).Scan(&lr.CreatedAt, &lr.UpdatedAt)
	return db.MapError(err, "lab report create", "lab report")
}

func (r *labReportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabReport, error) {
	lr, err := scanLabReport(r.conn(ctx).QueryRow(ctx,
		`SELECT `+labReportCols+` FROM `+labReportFrom+` WHERE l.id = $1`, id))
	return lr, db.MapError(err, "lab report get by id", "lab report")
}

func (r *labReportRepoPG) List(ctx context.Context, f LabReportFilter, limit, offset int) ([]*LabReport, int, error) {
	q := db.NewListQuery(labReportFrom, labReportCols)
	f.Scope.Restrict(q, "p.doctor_id")
	if f.PatientID != nil {
		q.Eq("l.patient_id", *f.PatientID)
	}
	q.OrderBy("l.created_at DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("lab report count: %w", err)
	}
	items, err := r.query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *labReportRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*LabReport, error) {
	return r.query(ctx, `SELECT `+labReportCols+` FROM `+labReportFrom+`
		WHERE l.patient_id = $1 ORDER BY l.created_at DESC`, patientID)
}

func (r *labReportRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*LabReport, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("lab report list: %w", err)
	}
	defer rows.Close()

	var items []*LabReport
	for rows.Next() {
		lr, err := scanLabReport(rows)
		if err != nil {
			return nil, fmt.Errorf("lab report scan: %w", err)
		}
		items = append(items, lr)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLabReport(row rowScanner) (*LabReport, error) {
	var lr LabReport
	var patient PatientRef
	var uploader UserRef
	if err := row.Scan(
		&lr.ID, &lr.Title, &lr.Description, &lr.FileURL, &lr.FileName, &lr.ContentType, &lr.SizeBytes,
		&lr.StorageBackend, &lr.StorageKey, &lr.PatientID, &lr.UploadedByID, &lr.CreatedAt, &lr.UpdatedAt,
		&patient.Name, &patient.Phone, &lr.patientDoctorID, &uploader.Name,
	); err != nil {
		return nil, err
	}
	lr.Patient = &patient
	lr.UploadedBy = &uploader
	return &lr, nil
}
