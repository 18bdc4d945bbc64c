package repository

import (
	"context"
	"errors"
	"time"

	"github.com/opdclinic/booking-api/internal/model"
	"github.com/opdclinic/booking-api/pkg/metrics"
)

// Database operation status labels.
const (
	statusSuccess  = "success"
	statusConflict = "conflict"
	statusError    = "error"
)

type instrumentedRepository struct {
	inner AppointmentRepository
	m     *metrics.Metrics
}

// NewInstrumentedRepository wraps a ledger with prometheus counters
// and latency histograms per operation. Slot conflicts are expected
// outcomes and get their own status label.
func NewInstrumentedRepository(inner AppointmentRepository, m *metrics.Metrics) AppointmentRepository {
	return &instrumentedRepository{inner: inner, m: m}
}

func (r *instrumentedRepository) observe(operation string, start time.Time, err error) {
	status := statusSuccess
	switch {
	case errors.Is(err, ErrSlotTaken):
		status = statusConflict
	case err != nil:
		status = statusError
	}
	r.m.DatabaseOperations.WithLabelValues(operation, status).Inc()
	r.m.DatabaseLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (r *instrumentedRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	start := time.Now()
	err := r.inner.Create(ctx, appointment)
	r.observe("create", start, err)
	return err
}

func (r *instrumentedRepository) IsSlotTaken(ctx context.Context, date model.Date, slot model.TimeSlot) (bool, error) {
	start := time.Now()
	taken, err := r.inner.IsSlotTaken(ctx, date, slot)
	r.observe("is_slot_taken", start, err)
	return taken, err
}

func (r *instrumentedRepository) List(ctx context.Context, limit int) ([]*model.Appointment, error) {
	start := time.Now()
	appointments, err := r.inner.List(ctx, limit)
	r.observe("list", start, err)
	return appointments, err
}

func (r *instrumentedRepository) TakenSlots(ctx context.Context, date model.Date) ([]model.TimeSlot, error) {
	start := time.Now()
	slots, err := r.inner.TakenSlots(ctx, date)
	r.observe("taken_slots", start, err)
	return slots, err
}
