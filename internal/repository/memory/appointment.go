// Package memory provides an in-process appointment ledger. It backs
// tests and clinics that run without Postgres; the check-and-insert
// happens under one lock, so the ErrSlotTaken contract matches the
// database-backed ledger exactly.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/opdclinic/booking-api/internal/model"
	"github.com/opdclinic/booking-api/internal/repository"
)

type appointmentRepository struct {
	mu      sync.RWMutex
	bySlot  map[slotKey]*model.Appointment
	ordered []*model.Appointment
}

type slotKey struct {
	date model.Date
	slot model.TimeSlot
}

func NewAppointmentRepository() repository.AppointmentRepository {
	return &appointmentRepository{
		bySlot: make(map[slotKey]*model.Appointment),
	}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	key := slotKey{date: appointment.AppointmentDate, slot: appointment.TimeSlot}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySlot[key]; exists {
		return repository.ErrSlotTaken
	}

	stored := *appointment
	r.bySlot[key] = &stored
	r.ordered = append(r.ordered, &stored)
	return nil
}

func (r *appointmentRepository) IsSlotTaken(ctx context.Context, date model.Date, slot model.TimeSlot) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, taken := r.bySlot[slotKey{date: date, slot: slot}]
	return taken, nil
}

func (r *appointmentRepository) List(ctx context.Context, limit int) ([]*model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Appointment, 0, len(r.ordered))
	for _, a := range r.ordered {
		copied := *a
		out = append(out, &copied)
	}

	// Stable sort keeps insertion order within a date, matching the
	// database ledger's behavior closely enough for callers.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AppointmentDate.Before(out[j].AppointmentDate)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *appointmentRepository) TakenSlots(ctx context.Context, date model.Date) ([]model.TimeSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var slots []model.TimeSlot
	for key := range r.bySlot {
		if key.date == date {
			slots = append(slots, key.slot)
		}
	}
	return slots, nil
}
