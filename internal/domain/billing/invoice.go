package billing

import (
	"bytes"
	"fmt"
)

const invoiceHeader = `HOSPITAL MANAGEMENT SYSTEM
========================

BILL INVOICE
`

// InvoiceFileName is the attachment name of the invoice of b.
func InvoiceFileName(b *Bill) string {
	return fmt.Sprintf("bill-%s.txt", b.ID)
}

// RenderInvoice formats b as a plain-text invoice.
func RenderInvoice(b *Bill) []byte {
	var buf bytes.Buffer
	buf.WriteString(invoiceHeader)
	fmt.Fprintf(&buf, "\nBill ID: %s\n", b.ID)
	fmt.Fprintf(&buf, "Date: %s\n", b.CreatedAt.Format("2006-01-02"))

	buf.WriteString("\nPatient Information:\n")
	name, phone, email := "N/A", "N/A", "N/A"
	if b.Patient != nil {
		name, phone = b.Patient.Name, b.Patient.Phone
		if b.Patient.Email != nil && *b.Patient.Email != "" {
			email = *b.Patient.Email
		}
	}
	fmt.Fprintf(&buf, "Name: %s\nPhone: %s\nEmail: %s\n", name, phone, email)

	buf.WriteString("\nBill Details:\n")
	fmt.Fprintf(&buf, "Description: %s\n", b.Description)
	fmt.Fprintf(&buf, "Amount: $%.2f\n", b.Amount)
	fmt.Fprintf(&buf, "Status: %s\n", b.Status)
	if b.PaidAt != nil {
		fmt.Fprintf(&buf, "Paid on: %s\n", b.PaidAt.Format("2006-01-02"))
	}

	creator := "N/A"
	if b.CreatedBy != nil {
		creator = b.CreatedBy.Name
	}
	fmt.Fprintf(&buf, "\nCreated by: %s\n", creator)
	buf.WriteString("\nThank you for choosing our services!\n")
	return buf.Bytes()
}
