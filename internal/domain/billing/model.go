package billing

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/auth"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus converts s into a Status, rejecting unknown values.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusPaid, StatusCancelled:
		return st, true
	default:
		return "", false
	}
}

// Terminal reports whether no further status change is allowed.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Bill maps to the bills table.
type Bill struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	Amount      float64     `db:"amount" json:"amount"`
	Description string      `db:"description" json:"description"`
	Status      Status      `db:"status" json:"status"`
	PaidAt      *time.Time  `db:"paid_at" json:"paidAt"`
	PatientID   uuid.UUID   `db:"patient_id" json:"patientId"`
	CreatedByID uuid.UUID   `db:"created_by_id" json:"createdById"`
	Patient     *PatientRef `json:"patient,omitempty"`
	CreatedBy   *UserRef    `json:"createdBy,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`

	patientDoctorID *uuid.UUID
}

type PatientRef struct {
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Email *string `json:"email,omitempty"`
}

type UserRef struct {
	Name string `json:"name"`
}

// BillFilter narrows a bill listing.
type BillFilter struct {
	PatientID *uuid.UUID
	Status    *Status
	Scope     auth.Scope
}

// MaxAmount is the largest amount a bill column holds.
const MaxAmount = 9999999999.99

// Amount is a money value sent by clients. It decodes from a JSON number or
// a numeric string.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("amount must be a number")
	}
	*a = Amount(f)
	return nil
}

// Cents rounds a to two decimal places.
func (a Amount) Cents() float64 {
	return math.Round(float64(a)*100) / 100
}

type CreateBillRequest struct {
	PatientID   string `json:"patientId" validate:"required,uuid"`
	Amount      Amount `json:"amount" validate:"gt=0,lte=9999999999.99"`
	Description string `json:"description" validate:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING PAID CANCELLED"`
}
