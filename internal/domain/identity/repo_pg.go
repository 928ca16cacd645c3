package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
)

// -- User Repository --

type userRepoPG struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const userCols = `id, name, email, password_hash, role, created_at, updated_at`

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role),
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return db.MapError(err, "user create", "user")
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	return u, db.MapError(err, "user get by id", "user")
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
	return u, db.MapError(err, "user get by email", "user")
}

func (r *userRepoPG) List(ctx context.Context, f UserFilter, limit, offset int) ([]*User, int, error) {
	q := db.NewListQuery("users", userCols)
	if f.Role != nil {
		q.Eq("role", string(*f.Role))
	}
	q.Search(f.Search, "name", "email")
	q.OrderBy("created_at DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("user count: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("user list: %w", err)
	}
	defer rows.Close()

	var items []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("user scan: %w", err)
		}
		items = append(items, u)
	}
	return items, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	return &u, nil
}

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const (
	patientFrom = `patients p LEFT JOIN users d ON d.id = p.doctor_id`
	patientCols = `p.id, p.name, p.phone, p.email, p.address, to_char(p.date_of_birth, 'YYYY-MM-DD'), p.gender,
	p.doctor_id, d.name, p.created_at, p.updated_at`
	patientCountCols = `,
	(SELECT COUNT(*) FROM treatments t WHERE t.patient_id = p.id),
	(SELECT COUNT(*) FROM lab_reports l WHERE l.patient_id = p.id),
	(SELECT COUNT(*) FROM bills b WHERE b.patient_id = p.id)`
)

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (id, name, phone, email, address, date_of_birth, gender, doctor_id)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Phone, p.Email, p.Address, p.DateOfBirth, genderArg(p.Gender), p.DoctorID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.MapError(err, "patient create", "patient")
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM `+patientFrom+` WHERE p.id = $1`, id), false)
	return p, db.MapError(err, "patient get by id", "patient")
}

func (r *patientRepoPG) List(ctx context.Context, f PatientFilter, limit, offset int) ([]*Patient, int, error) {
	q := db.NewListQuery(patientFrom, patientCols+patientCountCols)
	f.Scope.Restrict(q, "p.doctor_id")
	q.Search(f.Search, "p.name", "p.email", "p.phone")
	q.OrderBy("p.created_at DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("patient count: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("patient list: %w", err)
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows, true)
		if err != nil {
			return nil, 0, fmt.Errorf("patient scan: %w", err)
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *patientRepoPG) SetDoctor(ctx context.Context, id uuid.UUID, doctorID *uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patients SET doctor_id = $2, updated_at = $3 WHERE id = $1`,
		id, doctorID, time.Now().UTC())
	if err != nil {
		return db.MapError(err, "patient set doctor", "patient")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient")
	}
	return nil
}

func genderArg(g *Gender) *string {
	if g == nil {
		return nil
	}
	s := string(*g)
	return &s
}

func scanPatient(row rowScanner, withCounts bool) (*Patient, error) {
	var p Patient
	var gender, doctorName *string
	dest := []interface{}{
		&p.ID, &p.Name, &p.Phone, &p.Email, &p.Address, &p.DateOfBirth, &gender,
		&p.DoctorID, &doctorName, &p.CreatedAt, &p.UpdatedAt,
	}
	var counts PatientCounts
	if withCounts {
		dest = append(dest, &counts.Treatments, &counts.LabReports, &counts.Bills)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if gender != nil {
		g := Gender(*gender)
		p.Gender = &g
	}
	if p.DoctorID != nil && doctorName != nil {
		p.Doctor = &DoctorRef{ID: *p.DoctorID, Name: *doctorName}
	}
	if withCounts {
		p.Counts = &counts
	}
	return &p, nil
}
