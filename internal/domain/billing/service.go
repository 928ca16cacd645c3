package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

type Service struct {
	bills    BillRepository
	patients PatientChecker
	now      func() time.Time
}

func NewService(bills BillRepository, patients PatientChecker) *Service {
	return &Service{bills: bills, patients: patients, now: time.Now}
}

// CreateBill records a pending bill issued by the caller.
func (s *Service) CreateBill(ctx context.Context, req CreateBillRequest) (*Bill, error) {
	caller, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, apperr.ErrUnauthorized
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperr.Validation("patientId must be a valid id")
	}
	amount := req.Amount.Cents()
	if amount <= 0 {
		return nil, apperr.Validation("amount must be greater than 0")
	}
	if amount > MaxAmount {
		return nil, apperr.Validation("amount must be at most %.2f", MaxAmount)
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, apperr.Validation("description is required")
	}
	if err := s.patients.CheckPatient(ctx, patientID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Validation("Patient not found")
		}
		return nil, err
	}

	b := &Bill{
		Amount:      amount,
		Description: description,
		Status:      StatusPending,
		PatientID:   patientID,
		CreatedByID: caller.ID,
	}
	if err := s.bills.Create(ctx, b); err != nil {
		return nil, err
	}
	return s.bills.GetByID(ctx, b.ID)
}

// GetBill returns the bill if its patient is visible to the caller.
func (s *Service) GetBill(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.ScopeFromContext(ctx).AllowsPatient(b.patientDoctorID) {
		return nil, apperr.NotFound("bill")
	}
	return b, nil
}

// ListBills lists bills visible to the caller, newest first. patientID and
// status are optional filters.
func (s *Service) ListBills(ctx context.Context, patientID *uuid.UUID, status *Status, limit, offset int) ([]*Bill, int, error) {
	f := BillFilter{PatientID: patientID, Status: status, Scope: auth.ScopeFromContext(ctx)}
	return s.bills.List(ctx, f, limit, offset)
}

// PatientBills returns every bill of a patient visible to the caller, newest
// first.
func (s *Service) PatientBills(ctx context.Context, patientID uuid.UUID) ([]*Bill, error) {
	items, err := s.bills.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	scope := auth.ScopeFromContext(ctx)
	visible := items[:0]
	for _, b := range items {
		if scope.AllowsPatient(b.patientDoctorID) {
			visible = append(visible, b)
		}
	}
	return visible, nil
}

// UpdateStatus moves a pending bill to status. Paying stamps paidAt. Paid
// and cancelled bills are final; setting the current status again is a
// no-op.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Bill, error) {
	if _, ok := ParseStatus(string(status)); !ok {
		return nil, apperr.Validation("status must be one of: PENDING, PAID, CANCELLED")
	}
	b, err := s.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == status {
		return b, nil
	}
	if b.Status.Terminal() {
		return nil, apperr.Validation("bill is already %s", strings.ToLower(string(b.Status)))
	}

	var paidAt *time.Time
	if status == StatusPaid {
		now := s.now().UTC()
		paidAt = &now
	}
	updated, err := s.bills.SetStatus(ctx, id, status, paidAt)
	if err != nil {
		return nil, err
	}
	if !updated {
		current, err := s.bills.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, apperr.Validation("bill is already %s", strings.ToLower(string(current.Status)))
	}
	return s.bills.GetByID(ctx, id)
}

// Invoice renders the plain-text invoice of a visible bill.
func (s *Service) Invoice(ctx context.Context, id uuid.UUID) (*Bill, []byte, error) {
	b, err := s.GetBill(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return b, RenderInvoice(b), nil
}
