package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
	SexOther  Sex = "Other"
)

// Valid reports whether s is one of the three accepted values.
func (s Sex) Valid() bool {
	switch s {
	case SexMale, SexFemale, SexOther:
		return true
	}
	return false
}

// TimeSlot is one of the six fixed one-hour OPD windows. The string
// values (en-dash included) are the wire format the clinic UI shows.
type TimeSlot string

const (
	Slot0900 TimeSlot = "9:00–10:00 AM"
	Slot1000 TimeSlot = "10:00–11:00 AM"
	Slot1100 TimeSlot = "11:00–12:00 PM"
	Slot1200 TimeSlot = "12:00–1:00 PM"
	Slot1400 TimeSlot = "2:00–3:00 PM"
	Slot1500 TimeSlot = "3:00–4:00 PM"
)

// slotCatalog holds every slot in canonical order. Listings and
// availability responses must preserve this order.
var slotCatalog = []TimeSlot{
	Slot0900,
	Slot1000,
	Slot1100,
	Slot1200,
	Slot1400,
	Slot1500,
}

// SlotCatalog returns the canonical slot order. Callers get a copy.
func SlotCatalog() []TimeSlot {
	out := make([]TimeSlot, len(slotCatalog))
	copy(out, slotCatalog)
	return out
}

// AfternoonSlots are the two windows after the 1:00 PM Saturday cutoff.
func AfternoonSlots() []TimeSlot {
	return []TimeSlot{Slot1400, Slot1500}
}

// Valid reports whether t belongs to the fixed catalog.
func (t TimeSlot) Valid() bool {
	for _, s := range slotCatalog {
		if t == s {
			return true
		}
	}
	return false
}

// Afternoon reports whether t falls after the Saturday cutoff.
func (t TimeSlot) Afternoon() bool {
	return t == Slot1400 || t == Slot1500
}

// Appointment is the ledger's unit of record. Immutable once stored;
// no operation updates or deletes one.
type Appointment struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	Name            string            `db:"name" json:"name"`
	Sex             Sex               `db:"sex" json:"sex"`
	Age             int               `db:"age" json:"age"`
	Complaint       string            `db:"complaint" json:"complaint"`
	AppointmentDate Date              `db:"appointment_date" json:"appointment_date"`
	TimeSlot        TimeSlot          `db:"time_slot" json:"time_slot"`
	Status          AppointmentStatus `db:"status" json:"status"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
}

type CreateAppointmentRequest struct {
	Name            string   `json:"name" binding:"required,min=2,max=100"`
	Sex             Sex      `json:"sex" binding:"required,oneof=Male Female Other"`
	Age             int      `json:"age" binding:"gte=0,lte=150"`
	Complaint       string   `json:"complaint" binding:"required,min=5,max=500"`
	AppointmentDate Date     `json:"appointment_date" binding:"required"`
	TimeSlot        TimeSlot `json:"time_slot" binding:"required,timeslot"`
}

// AvailableSlotsResponse lists the bookable windows for one date.
// Message is set only when the whole day is closed (Sundays).
type AvailableSlotsResponse struct {
	AvailableSlots []TimeSlot `json:"available_slots"`
	Message        string     `json:"message,omitempty"`
}
