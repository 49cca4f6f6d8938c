package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CustomerFixture represents test customer data
type CustomerFixture struct {
	ID    string
	Name  string
	Phone string
	Email string
}

// VehicleFixture represents test vehicle data
type VehicleFixture struct {
	ID           string
	CustomerID   string
	Make         string
	Model        string
	LicensePlate string
}

// AppointmentFixture represents test appointment data
type AppointmentFixture struct {
	ID               string
	CustomerID       string
	VehicleID        string
	Status           string
	Position         int
	Title            string
	StartTS          *time.Time
	EndTS            *time.Time
	CheckInAt        *time.Time
	CheckOutAt       *time.Time
	TotalAmountCents *int64
	PaidAmountCents  int64
	Voided           bool
	Version          int64
}

// ServiceFixture represents test appointment service data
type ServiceFixture struct {
	ID                  string
	AppointmentID       string
	Name                string
	EstimatedHours      float64
	EstimatedPriceCents int64
	Category            string
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

func (f *FixtureFactory) next() int {
	f.sequence++
	return f.sequence
}

// Customer creates a customer fixture
func (f *FixtureFactory) Customer() *CustomerFixture {
	n := f.next()
	return &CustomerFixture{
		ID:    uuid.New().String(),
		Name:  fmt.Sprintf("Customer %d", n),
		Phone: fmt.Sprintf("+1555%07d", n),
		Email: fmt.Sprintf("customer%d@example.com", n),
	}
}

// Vehicle creates a vehicle fixture for a customer
func (f *FixtureFactory) Vehicle(customerID string) *VehicleFixture {
	n := f.next()
	return &VehicleFixture{
		ID:           uuid.New().String(),
		CustomerID:   customerID,
		Make:         "Toyota",
		Model:        "Corolla",
		LicensePlate: fmt.Sprintf("TEST-%03d", n),
	}
}

// Appointment creates an appointment fixture. Defaults to a scheduled
// appointment at 9:00 UTC on the given day, position by call order.
func (f *FixtureFactory) Appointment(customerID, vehicleID string, day time.Time, position int) *AppointmentFixture {
	n := f.next()
	start := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC).
		Add(time.Duration(position) * 30 * time.Minute)
	return &AppointmentFixture{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		VehicleID:  vehicleID,
		Status:     "scheduled",
		Position:   position,
		Title:      fmt.Sprintf("Job %d", n),
		StartTS:    &start,
		Version:    1,
	}
}

// Service creates a service line fixture for an appointment
func (f *FixtureFactory) Service(appointmentID, name string) *ServiceFixture {
	return &ServiceFixture{
		ID:                  uuid.New().String(),
		AppointmentID:       appointmentID,
		Name:                name,
		EstimatedHours:      1.5,
		EstimatedPriceCents: 15000,
		Category:            "maintenance",
	}
}
