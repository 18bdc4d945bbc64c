package repository

import (
	"context"
	"errors"

	"github.com/opdclinic/booking-api/internal/model"
)

// ErrSlotTaken is returned by Create when the (date, slot) pair is
// already occupied. Implementations must raise it from the insert
// itself, not only from a prior lookup, so that concurrent bookings
// for the same pair cannot both succeed.
var ErrSlotTaken = errors.New("time slot already booked")

// AppointmentRepository is the appointment ledger: the authoritative
// set of bookings keyed by (appointment date, time slot).
type AppointmentRepository interface {
	// Create inserts a new appointment. The insert is atomic with
	// respect to the uniqueness of (AppointmentDate, TimeSlot);
	// a losing concurrent insert gets ErrSlotTaken.
	Create(ctx context.Context, appointment *model.Appointment) error

	// IsSlotTaken reports whether any stored record, regardless of
	// status, occupies the exact (date, slot) pair.
	IsSlotTaken(ctx context.Context, date model.Date, slot model.TimeSlot) (bool, error)

	// List returns up to limit appointments ordered by appointment
	// date ascending.
	List(ctx context.Context, limit int) ([]*model.Appointment, error)

	// TakenSlots returns the slots already occupied on date.
	TakenSlots(ctx context.Context, date model.Date) ([]model.TimeSlot, error)
}
