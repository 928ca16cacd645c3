package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/clinical"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/platform/auth"
)

var seedUsers = []identity.RegisterRequest{
	{Name: "System Administrator", Email: "admin@hospital.com", Password: "admin123", Role: string(auth.RoleAdmin)},
	{Name: "Dr. John Smith", Email: "doctor@hospital.com", Password: "doctor123", Role: string(auth.RoleDoctor)},
	{Name: "Jane Doe", Email: "reception@hospital.com", Password: "reception123", Role: string(auth.RoleReceptionist)},
	{Name: "Lab Technician", Email: "lab@hospital.com", Password: "lab123", Role: string(auth.RoleLabStaff)},
}

// seedPatient is a sample patient assigned to the demo doctor, with the
// records created along with it.
type seedPatient struct {
	patient    identity.CreatePatientRequest
	treatments []clinical.CreateTreatmentRequest
	bills      []billing.CreateBillRequest
}

var seedPatients = []seedPatient{
	{
		patient: identity.CreatePatientRequest{
			Name: "Alice Johnson", Email: "alice@example.com", Phone: "+1234567890",
			Address: "123 Main St, City, State", DateOfBirth: "1990-05-15", Gender: "FEMALE",
		},
		treatments: []clinical.CreateTreatmentRequest{{
			Diagnosis:    "Common Cold",
			Prescription: "Rest and fluids, paracetamol as needed",
			Notes:        "Patient should return if symptoms worsen",
		}},
		bills: []billing.CreateBillRequest{{
			Amount:      150.00,
			Description: "Consultation and basic examination",
		}},
	},
	{
		patient: identity.CreatePatientRequest{
			Name: "Bob Wilson", Phone: "+1987654321",
			Address: "456 Oak Ave, City, State", DateOfBirth: "1985-08-22", Gender: "MALE",
		},
	},
}

type seeder struct {
	svc    *services
	logger zerolog.Logger
}

func newSeeder(svc *services, logger zerolog.Logger) *seeder {
	return &seeder{svc: svc, logger: logger}
}

// Run creates the demo accounts and sample patients. Existing accounts are
// kept, and a patient whose phone number is already registered is skipped,
// so running it twice changes nothing.
func (s *seeder) Run(ctx context.Context) error {
	users := make(map[auth.Role]*identity.User, len(seedUsers))
	for _, req := range seedUsers {
		u, created, err := s.svc.identity.EnsureUser(ctx, req)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", req.Email, err)
		}
		users[u.Role] = u
		s.logger.Info().Str("email", u.Email).Str("role", string(u.Role)).Bool("created", created).Msg("seed user")
	}

	for _, role := range auth.AllRoles {
		if users[role] == nil {
			return fmt.Errorf("seed: no %s account; a seed email is registered with another role", role)
		}
	}

	admin := auth.WithIdentity(ctx, users[auth.RoleAdmin].Identity())
	desk := auth.WithIdentity(ctx, users[auth.RoleReceptionist].Identity())
	doctor := users[auth.RoleDoctor]

	for _, sp := range seedPatients {
		_, total, err := s.svc.identity.ListPatients(admin, sp.patient.Phone, 1, 0)
		if err != nil {
			return err
		}
		if total > 0 {
			s.logger.Info().Str("patient", sp.patient.Name).Msg("seed patient exists, skipping")
			continue
		}

		req := sp.patient
		req.DoctorID = &doctor.ID
		p, err := s.svc.identity.CreatePatient(admin, req)
		if err != nil {
			return fmt.Errorf("seed patient %s: %w", req.Name, err)
		}
		for _, tr := range sp.treatments {
			tr.PatientID = p.ID.String()
			if _, err := s.svc.clinical.CreateTreatment(admin, tr); err != nil {
				return fmt.Errorf("seed treatment: %w", err)
			}
		}
		for _, br := range sp.bills {
			br.PatientID = p.ID.String()
			if _, err := s.svc.billing.CreateBill(desk, br); err != nil {
				return fmt.Errorf("seed bill: %w", err)
			}
		}
		s.logger.Info().Str("patient", p.Name).Msg("seed patient created")
	}

	fmt.Println("Database seeded. Login credentials:")
	for _, u := range seedUsers {
		fmt.Printf("  %-13s %s / %s\n", u.Role, u.Email, u.Password)
	}
	return nil
}
