package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/opdclinic/booking-api/internal/model"
	"github.com/opdclinic/booking-api/internal/repository"
)

// uniqueViolation is the Postgres class 23 code raised when an insert
// hits the (appointment_date, time_slot) unique constraint.
const uniqueViolation = "23505"

type appointmentRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, name, sex, age, complaint,
			appointment_date, time_slot, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.Name,
		appointment.Sex,
		appointment.Age,
		appointment.Complaint,
		appointment.AppointmentDate,
		appointment.TimeSlot,
		appointment.Status,
		appointment.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return repository.ErrSlotTaken
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) IsSlotTaken(ctx context.Context, date model.Date, slot model.TimeSlot) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE appointment_date = $1
			AND time_slot = $2
		)
	`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, date, slot); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return taken, nil
}

func (r *appointmentRepository) List(ctx context.Context, limit int) ([]*model.Appointment, error) {
	query := `
		SELECT id, name, sex, age, complaint,
			   appointment_date, time_slot, status, created_at
		FROM appointments
		ORDER BY appointment_date ASC
		LIMIT $1
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) TakenSlots(ctx context.Context, date model.Date) ([]model.TimeSlot, error) {
	query := `
		SELECT time_slot
		FROM appointments
		WHERE appointment_date = $1
	`
	var slots []model.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, date); err != nil {
		return nil, fmt.Errorf("failed to list taken slots: %w", err)
	}
	return slots, nil
}
