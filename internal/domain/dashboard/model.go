package dashboard

import (
	"time"

	"github.com/hms/hms/internal/platform/auth"
)

// NavItem is one entry of the role navigation.
type NavItem struct {
	Href  string `json:"href"`
	Label string `json:"label"`
}

// Dashboard is the landing payload of a signed-in user. Stats holds one of
// the *Stats types below, or an empty object for an unknown role.
type Dashboard struct {
	Role       auth.Role   `json:"role"`
	Navigation []NavItem   `json:"navigation"`
	Stats      interface{} `json:"stats"`
}

type AdminStats struct {
	TotalPatients int     `json:"totalPatients"`
	TotalDoctors  int     `json:"totalDoctors"`
	PendingBills  int     `json:"pendingBills"`
	TotalRevenue  float64 `json:"totalRevenue"`
}

// DoctorStats counts only records of the doctor's own patients.
type DoctorStats struct {
	MyPatients      int `json:"myPatients"`
	TotalTreatments int `json:"totalTreatments"`
	LabReports      int `json:"labReports"`
}

type ReceptionStats struct {
	TotalPatients int `json:"totalPatients"`
	PendingBills  int `json:"pendingBills"`
}

type LabStats struct {
	LabReports   int `json:"labReports"`
	UploadedByMe int `json:"uploadedByMe"`
}

// ReportType names a report generated by POST /api/reports/:type.
type ReportType string

const (
	ReportPatients   ReportType = "patients"
	ReportBilling    ReportType = "billing"
	ReportTreatments ReportType = "treatments"
	ReportLabReports ReportType = "lab-reports"
)

// DateRange bounds a report by creation date. Both ends are optional
// calendar dates and inclusive.
type DateRange struct {
	From string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to" validate:"omitempty,datetime=2006-01-02"`
}

type ReportRequest struct {
	DateRange *DateRange `json:"dateRange"`
}

// Period is a parsed DateRange. To is exclusive.
type Period struct {
	From *time.Time
	To   *time.Time
}

type Report struct {
	Type        ReportType  `json:"type"`
	GeneratedAt time.Time   `json:"generatedAt"`
	DateRange   *DateRange  `json:"dateRange,omitempty"`
	Message     string      `json:"message"`
	Summary     interface{} `json:"summary"`
}

type PatientSummary struct {
	Total      int `json:"total"`
	Assigned   int `json:"assigned"`
	Unassigned int `json:"unassigned"`
}

type BillingSummary struct {
	Total     int     `json:"total"`
	Pending   int     `json:"pending"`
	Paid      int     `json:"paid"`
	Cancelled int     `json:"cancelled"`
	Revenue   float64 `json:"revenue"`
	Billed    float64 `json:"billed"`
}

type TreatmentSummary struct {
	Total    int `json:"total"`
	Patients int `json:"patients"`
}

type LabReportSummary struct {
	Total     int   `json:"total"`
	Patients  int   `json:"patients"`
	SizeBytes int64 `json:"sizeBytes"`
}

// ExportFormat names the file format a data export is requested in.
type ExportFormat string

const (
	ExportPDF   ExportFormat = "pdf"
	ExportExcel ExportFormat = "excel"
	ExportCSV   ExportFormat = "csv"
	ExportJSON  ExportFormat = "json"
)

// ExportRequest asks for a data export. Format may also arrive as the
// ?format= query parameter.
type ExportRequest struct {
	Format    string     `json:"format"`
	DateRange *DateRange `json:"dateRange"`
}

// ExportStats holds every report summary for the export period.
type ExportStats struct {
	Patients   *PatientSummary   `json:"patients"`
	Billing    *BillingSummary   `json:"billing"`
	Treatments *TreatmentSummary `json:"treatments"`
	LabReports *LabReportSummary `json:"labReports"`
}

type Export struct {
	Format     ExportFormat `json:"format"`
	ExportedAt time.Time    `json:"exportedAt"`
	DateRange  *DateRange   `json:"dateRange,omitempty"`
	Stats      ExportStats  `json:"stats"`
	Message    string       `json:"message"`
}
