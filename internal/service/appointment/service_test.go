package appointment_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opdclinic/booking-api/internal/model"
	"github.com/opdclinic/booking-api/internal/repository"
	"github.com/opdclinic/booking-api/internal/repository/memory"
	"github.com/opdclinic/booking-api/internal/schedule"
	"github.com/opdclinic/booking-api/internal/service/appointment"
	"github.com/opdclinic/booking-api/pkg/cache"
	apperrors "github.com/opdclinic/booking-api/pkg/errors"
)

// fixedNow pins "today" to Wednesday 2024-01-10 so the calendar
// fixtures below keep their day-of-week meaning.
var fixedNow = time.Date(2024, time.January, 10, 9, 30, 0, 0, time.UTC)

func newService(t *testing.T, repo repository.AppointmentRepository) *appointment.Service {
	t.Helper()
	return appointment.NewService(
		repo,
		cache.NewMemory(time.Minute),
		zerolog.Nop(),
		appointment.WithClock(func() time.Time { return fixedNow }),
	)
}

func validRequest() *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		Name:            "Asha Rao",
		Sex:             model.SexFemale,
		Age:             34,
		Complaint:       "tooth sensitivity on cold drinks",
		AppointmentDate: model.NewDate(2025, time.June, 10), // Tuesday
		TimeSlot:        model.Slot0900,
	}
}

func TestBookSuccess(t *testing.T) {
	svc := newService(t, memory.NewAppointmentRepository())

	req := validRequest()
	apt, err := svc.Book(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, apt.ID)
	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
	assert.Equal(t, fixedNow, apt.CreatedAt)
	assert.Equal(t, req.Name, apt.Name)
	assert.Equal(t, req.Sex, apt.Sex)
	assert.Equal(t, req.Age, apt.Age)
	assert.Equal(t, req.Complaint, apt.Complaint)
	assert.Equal(t, req.AppointmentDate, apt.AppointmentDate)
	assert.Equal(t, req.TimeSlot, apt.TimeSlot)
}

func TestBookSunday(t *testing.T) {
	svc := newService(t, memory.NewAppointmentRepository())

	for _, slot := range model.SlotCatalog() {
		req := validRequest()
		req.AppointmentDate = model.NewDate(2024, time.January, 14) // Sunday
		req.TimeSlot = slot

		_, err := svc.Book(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrPolicyViolation, apperrors.CodeOf(err))
		assert.Contains(t, err.Error(), "Sundays")
	}
}

func TestBookSaturdayAfternoon(t *testing.T) {
	svc := newService(t, memory.NewAppointmentRepository())

	req := validRequest()
	req.AppointmentDate = model.NewDate(2024, time.January, 13) // Saturday
	req.TimeSlot = model.Slot1500

	_, err := svc.Book(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrPolicyViolation, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "Saturdays")
	assert.Contains(t, err.Error(), "1:00 PM")
}

func TestBookSaturdayMorning(t *testing.T) {
	svc := newService(t, memory.NewAppointmentRepository())

	req := validRequest()
	req.AppointmentDate = model.NewDate(2024, time.January, 13) // Saturday
	req.TimeSlot = model.Slot0900

	_, err := svc.Book(context.Background(), req)
	assert.NoError(t, err)
}

func TestBookPastDate(t *testing.T) {
	svc := newService(t, memory.NewAppointmentRepository())

	req := validRequest()
	req.AppointmentDate = model.NewDate(2024, time.January, 8) // past Monday

	_, err := svc.Book(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, schedule.ReasonPastDate, err.Error())
}

func TestBookPastSundayReportsSundayReason(t *testing.T) {
	svc := newService(t, memory.NewAppointmentRepository())

	req := validRequest()
	req.AppointmentDate = model.NewDate(2024, time.January, 7) // past Sunday

	_, err := svc.Book(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, schedule.ReasonSunday, err.Error())
}

func TestBookDuplicate(t *testing.T) {
	svc := newService(t, memory.NewAppointmentRepository())
	ctx := context.Background()

	_, err := svc.Book(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.Book(ctx, validRequest())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "already booked")
}

// racingRepo simulates losing the insert race: the pre-check sees the
// slot free, the insert hits the uniqueness constraint.
type racingRepo struct {
	repository.AppointmentRepository
}

func (r *racingRepo) IsSlotTaken(ctx context.Context, date model.Date, slot model.TimeSlot) (bool, error) {
	return false, nil
}

func (r *racingRepo) Create(ctx context.Context, apt *model.Appointment) error {
	return repository.ErrSlotTaken
}

func TestBookLostRaceSurfacesConflict(t *testing.T) {
	svc := newService(t, &racingRepo{})

	_, err := svc.Book(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "already booked")
}

// failingRepo reports a broken store.
type failingRepo struct {
	repository.AppointmentRepository
}

func (r *failingRepo) IsSlotTaken(ctx context.Context, date model.Date, slot model.TimeSlot) (bool, error) {
	return false, errors.New("connection refused")
}

func TestBookStorageFailure(t *testing.T) {
	svc := newService(t, &failingRepo{})

	_, err := svc.Book(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInternal, apperrors.CodeOf(err))
}

func TestBookValidation(t *testing.T) {
	svc := newService(t, memory.NewAppointmentRepository())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*model.CreateAppointmentRequest)
	}{
		{"short name", func(r *model.CreateAppointmentRequest) { r.Name = "A" }},
		{"name of spaces", func(r *model.CreateAppointmentRequest) { r.Name = "   " }},
		{"invalid sex", func(r *model.CreateAppointmentRequest) { r.Sex = "unknown" }},
		{"negative age", func(r *model.CreateAppointmentRequest) { r.Age = -1 }},
		{"age too high", func(r *model.CreateAppointmentRequest) { r.Age = 151 }},
		{"short complaint", func(r *model.CreateAppointmentRequest) { r.Complaint = "ow" }},
		{"missing date", func(r *model.CreateAppointmentRequest) { r.AppointmentDate = model.Date{} }},
		{"unknown slot", func(r *model.CreateAppointmentRequest) { r.TimeSlot = "4:00–5:00 PM" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			_, err := svc.Book(ctx, req)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
		})
	}
}

func TestBookLengthBoundsCountRunes(t *testing.T) {
	svc := newService(t, memory.NewAppointmentRepository())
	ctx := context.Background()

	// 100 runes, 300 bytes; byte-length checks would reject it.
	req := validRequest()
	req.Name = strings.Repeat("म", 100)
	_, err := svc.Book(ctx, req)
	assert.NoError(t, err)

	req = validRequest()
	req.Complaint = "दर्द"
	req.TimeSlot = model.Slot1000
	_, err = svc.Book(ctx, req)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))

	req = validRequest()
	req.Complaint = "दर्द है"
	req.TimeSlot = model.Slot1000
	_, err = svc.Book(ctx, req)
	assert.NoError(t, err)
}

func TestBookAgeBoundsInclusive(t *testing.T) {
	svc := newService(t, memory.NewAppointmentRepository())
	ctx := context.Background()

	req := validRequest()
	req.Age = 0
	_, err := svc.Book(ctx, req)
	assert.NoError(t, err)

	req = validRequest()
	req.Age = 150
	req.TimeSlot = model.Slot1000
	_, err = svc.Book(ctx, req)
	assert.NoError(t, err)
}

func TestListRoundTrip(t *testing.T) {
	svc := newService(t, memory.NewAppointmentRepository())
	ctx := context.Background()

	booked, err := svc.Book(ctx, validRequest())
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, booked, all[0])
}

func TestAvailableSlotsExcludesBooked(t *testing.T) {
	svc := newService(t, memory.NewAppointmentRepository())
	ctx := context.Background()
	date := model.NewDate(2025, time.June, 10)

	_, err := svc.Book(ctx, validRequest()) // takes Slot0900 on that date
	require.NoError(t, err)

	resp, err := svc.AvailableSlots(ctx, date)
	require.NoError(t, err)
	assert.Empty(t, resp.Message)
	assert.Equal(t, []model.TimeSlot{
		model.Slot1000,
		model.Slot1100,
		model.Slot1200,
		model.Slot1400,
		model.Slot1500,
	}, resp.AvailableSlots)
}

func TestAvailableSlotsSunday(t *testing.T) {
	svc := newService(t, memory.NewAppointmentRepository())

	resp, err := svc.AvailableSlots(context.Background(), model.NewDate(2024, time.January, 14))
	require.NoError(t, err)
	assert.Empty(t, resp.AvailableSlots)
	assert.Equal(t, schedule.MessageSundayClosed, resp.Message)
}

func TestAvailableSlotsIdempotent(t *testing.T) {
	svc := newService(t, memory.NewAppointmentRepository())
	ctx := context.Background()
	date := model.NewDate(2025, time.June, 10)

	first, err := svc.AvailableSlots(ctx, date)
	require.NoError(t, err)
	second, err := svc.AvailableSlots(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAvailableSlotsFreshAfterBooking(t *testing.T) {
	svc := newService(t, memory.NewAppointmentRepository())
	ctx := context.Background()
	date := model.NewDate(2025, time.June, 10)

	before, err := svc.AvailableSlots(ctx, date)
	require.NoError(t, err)
	assert.Len(t, before.AvailableSlots, 6)

	// Booking invalidates the cached listing for the date.
	_, err = svc.Book(ctx, validRequest())
	require.NoError(t, err)

	after, err := svc.AvailableSlots(ctx, date)
	require.NoError(t, err)
	assert.Len(t, after.AvailableSlots, 5)
	assert.NotContains(t, after.AvailableSlots, model.Slot0900)
}

func TestBookConcurrentSamePair(t *testing.T) {
	svc := newService(t, memory.NewAppointmentRepository())

	const attempts = 16
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			_, err := svc.Book(context.Background(), validRequest())
			errs <- err
		}()
	}

	winners := 0
	for i := 0; i < attempts; i++ {
		if err := <-errs; err == nil {
			winners++
		} else {
			assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
		}
	}
	assert.Equal(t, 1, winners)
}
