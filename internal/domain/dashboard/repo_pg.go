package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type statsRepoPG struct {
	pool *pgxpool.Pool
}

func NewStatsRepoPG(pool *pgxpool.Pool) StatsRepository {
	return &statsRepoPG{pool: pool}
}

func (r *statsRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *statsRepoPG) AdminStats(ctx context.Context) (*AdminStats, error) {
	var s AdminStats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM patients),
			(SELECT COUNT(*) FROM users WHERE role = 'DOCTOR'),
			(SELECT COUNT(*) FROM bills WHERE status = 'PENDING'),
			(SELECT COALESCE(SUM(amount), 0)::float8 FROM bills WHERE status = 'PAID')`).
		Scan(&s.TotalPatients, &s.TotalDoctors, &s.PendingBills, &s.TotalRevenue)
	if err != nil {
		return nil, db.MapError(err, "admin stats", "stats")
	}
	return &s, nil
}

func (r *statsRepoPG) DoctorStats(ctx context.Context, doctorID uuid.UUID) (*DoctorStats, error) {
	var s DoctorStats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM patients WHERE doctor_id = $1),
			(SELECT COUNT(*) FROM treatments t JOIN patients p ON p.id = t.patient_id WHERE p.doctor_id = $1),
			(SELECT COUNT(*) FROM lab_reports l JOIN patients p ON p.id = l.patient_id WHERE p.doctor_id = $1)`,
		doctorID).Scan(&s.MyPatients, &s.TotalTreatments, &s.LabReports)
	if err != nil {
		return nil, db.MapError(err, "doctor stats", "stats")
	}
	return &s, nil
}

func (r *statsRepoPG) ReceptionStats(ctx context.Context) (*ReceptionStats, error) {
	var s ReceptionStats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM patients),
			(SELECT COUNT(*) FROM bills WHERE status = 'PENDING')`).
		Scan(&s.TotalPatients, &s.PendingBills)
	if err != nil {
		return nil, db.MapError(err, "reception stats", "stats")
	}
	return &s, nil
}

func (r *statsRepoPG) LabStats(ctx context.Context, userID uuid.UUID) (*LabStats, error) {
	var s LabStats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE uploaded_by_id = $1) FROM lab_reports`,
		userID).Scan(&s.LabReports, &s.UploadedByMe)
	if err != nil {
		return nil, db.MapError(err, "lab stats", "stats")
	}
	return &s, nil
}

// periodWhere returns the WHERE clause restricting column to p, with
// placeholders starting at $1.
func periodWhere(column string, p Period) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if p.From != nil {
		args = append(args, *p.From)
		clauses = append(clauses, fmt.Sprintf("%s >= $%d", column, len(args)))
	}
	if p.To != nil {
		args = append(args, *p.To)
		clauses = append(clauses, fmt.Sprintf("%s < $%d", column, len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *statsRepoPG) PatientSummary(ctx context.Context, p Period) (*PatientSummary, error) {
	where, args := periodWhere("created_at", p)
	var s PatientSummary
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*), COUNT(doctor_id), COUNT(*) - COUNT(doctor_id)
		FROM patients`+where, args...).Scan(&s.Total, &s.Assigned, &s.Unassigned)
	if err != nil {
		return nil, db.MapError(err, "patient report", "report")
	}
	return &s, nil
}

func (r *statsRepoPG) BillingSummary(ctx context.Context, p Period) (*BillingSummary, error) {
	where, args := periodWhere("created_at", p)
	var s BillingSummary
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'PENDING'),
			COUNT(*) FILTER (WHERE status = 'PAID'),
			COUNT(*) FILTER (WHERE status = 'CANCELLED'),
			COALESCE(SUM(amount) FILTER (WHERE status = 'PAID'), 0)::float8,
			COALESCE(SUM(amount) FILTER (WHERE status <> 'CANCELLED'), 0)::float8
		FROM bills`+where, args...).
		Scan(&s.Total, &s.Pending, &s.Paid, &s.Cancelled, &s.Revenue, &s.Billed)
	if err != nil {
		return nil, db.MapError(err, "billing report", "report")
	}
	return &s, nil
}

func (r *statsRepoPG) TreatmentSummary(ctx context.Context, p Period) (*TreatmentSummary, error) {
	where, args := periodWhere("created_at", p)
	var s TreatmentSummary
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT patient_id) FROM treatments`+where, args...).
		Scan(&s.Total, &s.Patients)
	if err != nil {
		return nil, db.MapError(err, "treatment report", "report")
	}
	return &s, nil
}

func (r *statsRepoPG) LabReportSummary(ctx context.Context, p Period) (*LabReportSummary, error) {
	where, args := periodWhere("created_at", p)
	var s LabReportSummary
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT patient_id), COALESCE(SUM(size_bytes), 0)::bigint
		FROM lab_reports`+where, args...).
		Scan(&s.Total, &s.Patients, &s.SizeBytes)
	if err != nil {
		return nil, db.MapError(err, "lab-reports report", "report")
	}
	return &s, nil
}
