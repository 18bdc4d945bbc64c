// Package schedule holds the clinic's slot policy: which (date, slot)
// pairs are structurally bookable, independent of what is already in
// the ledger. All functions are pure; "today" is passed in so that
// callers own the clock.
package schedule

import (
	"time"

	"github.com/opdclinic/booking-api/internal/model"
	"github.com/opdclinic/booking-api/pkg/errors"
)

// Rejection reasons, surfaced verbatim to the patient.
const (
	ReasonSunday   = "Appointments are not available on Sundays"
	ReasonSaturday = "On Saturdays, appointments are only available until 1:00 PM"
	ReasonPastDate = "Cannot book appointments for past dates"

	// MessageSundayClosed annotates an empty availability listing.
	MessageSundayClosed = "No appointments available on Sundays"
)

// Evaluate decides whether a booking attempt for (date, slot) may
// proceed. Rules run in strict order and the first failure wins: the
// Sunday and Saturday checks are calendar-absolute, so a past Sunday
// reports the Sunday reason, not the past-date one. Returns nil when
// the pair is bookable; otherwise a policy-violation AppError whose
// message is the failing rule's reason.
func Evaluate(today, date model.Date, slot model.TimeSlot) error {
	switch date.Weekday() {
	case time.Sunday:
		return errors.NewPolicyViolation(ReasonSunday)
	case time.Saturday:
		if slot.Afternoon() {
			return errors.NewPolicyViolation(ReasonSaturday)
		}
	}

	if date.Before(today) {
		return errors.NewPolicyViolation(ReasonPastDate)
	}

	return nil
}

// SlotsForDay returns the day's theoretical slot set in catalog order:
// nothing on Sundays, mornings only on Saturdays, the full catalog
// otherwise. The past-date rule deliberately does not apply here; it
// gates bookings, not listings.
func SlotsForDay(date model.Date) []model.TimeSlot {
	switch date.Weekday() {
	case time.Sunday:
		return nil
	case time.Saturday:
		slots := make([]model.TimeSlot, 0, 4)
		for _, s := range model.SlotCatalog() {
			if !s.Afternoon() {
				slots = append(slots, s)
			}
		}
		return slots
	default:
		return model.SlotCatalog()
	}
}
