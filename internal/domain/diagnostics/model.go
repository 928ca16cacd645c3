package diagnostics

import (
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/auth"
)

// LabReport maps to the lab_reports table. StorageBackend and StorageKey
// locate the uploaded file; FileURL is what clients follow to fetch it.
type LabReport struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	Title          string      `db:"title" json:"title"`
	Description    *string     `db:"description" json:"description"`
	FileURL        string      `db:"file_url" json:"fileUrl"`
	FileName       string      `db:"file_name" json:"fileName"`
	ContentType    string      `db:"content_type" json:"contentType"`
	SizeBytes      int64       `db:"size_bytes" json:"sizeBytes"`
	StorageBackend string      `db:"storage_backend" json:"-"`
	StorageKey     string      `db:"storage_key" json:"-"`
	PatientID      uuid.UUID   `db:"patient_id" json:"patientId"`
	UploadedByID   uuid.UUID   `db:"uploaded_by_id" json:"uploadedById"`
	Patient        *PatientRef `json:"patient,omitempty"`
	UploadedBy     *UserRef    `json:"uploadedBy,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updatedAt"`

	patientDoctorID *uuid.UUID
}

type PatientRef struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type UserRef struct {
	Name string `json:"name"`
}

// LabReportFilter narrows a lab report listing.
type LabReportFilter struct {
	PatientID *uuid.UUID
	Scope     auth.Scope
}

// UploadRequest holds the form fields sent with a report file.
type UploadRequest struct {
	PatientID   string `form:"patientId" validate:"required,uuid"`
	Title       string `form:"title" validate:"required,max=300"`
	Description string `form:"description"`
}

// Upload is the file part of an upload. Content must be rewindable so the
// file can be retried on another storage backend.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.ReadSeeker
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
