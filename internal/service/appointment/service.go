package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opdclinic/booking-api/internal/model"
	"github.com/opdclinic/booking-api/internal/repository"
	"github.com/opdclinic/booking-api/internal/schedule"
	"github.com/opdclinic/booking-api/pkg/cache"
	apperrors "github.com/opdclinic/booking-api/pkg/errors"
	"github.com/opdclinic/booking-api/pkg/metrics"
)

const (
	// MaxListResults bounds list responses.
	MaxListResults = 1000

	// availabilityTTL keeps cached availability fresh enough that a
	// stale entry can at worst show a just-taken slot; the ledger
	// still rejects the booking.
	availabilityTTL = 30 * time.Second

	msgSlotTaken = "This time slot is already booked for the selected date"
)

type Service struct {
	repo    repository.AppointmentRepository
	cache   cache.Cache
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

type Option func(*Service)

// WithClock overrides the reference clock used for the past-date rule
// and created-at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithMetrics wires booking counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(repo repository.AppointmentRepository, c cache.Cache, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		cache:  c,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Book runs the full booking protocol: shape checks, the slot policy,
// the duplicate pre-check, then the atomic insert. The insert's own
// uniqueness guarantee is the correctness mechanism; the pre-check
// only saves a doomed write. Every call ends in exactly one of:
// success, policy violation, duplicate conflict, or storage failure.
func (s *Service) Book(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	start := s.now()

	apt, err := s.book(ctx, req)
	s.count(err)
	if s.metrics != nil {
		s.metrics.BookingLatency.Observe(time.Since(start).Seconds())
	}
	return apt, err
}

func (s *Service) book(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if req != nil {
		req.Name = strings.TrimSpace(req.Name)
		req.Complaint = strings.TrimSpace(req.Complaint)
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	today := model.DateOf(s.now())
	if err := schedule.Evaluate(today, req.AppointmentDate, req.TimeSlot); err != nil {
		return nil, err
	}

	taken, err := s.repo.IsSlotTaken(ctx, req.AppointmentDate, req.TimeSlot)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("slot check failed: %w", err))
	}
	if taken {
		return nil, apperrors.NewConflict(msgSlotTaken, nil)
	}

	apt := &model.Appointment{
		ID:              uuid.New(),
		Name:            req.Name,
		Sex:             req.Sex,
		Age:             req.Age,
		Complaint:       req.Complaint,
		AppointmentDate: req.AppointmentDate,
		TimeSlot:        req.TimeSlot,
		Status:          model.AppointmentStatusScheduled,
		CreatedAt:       s.now().UTC(),
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			// Lost the race after passing the pre-check; same
			// caller-visible outcome as the pre-check catching it.
			return nil, apperrors.NewConflict(msgSlotTaken, err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to create appointment: %w", err))
	}

	s.invalidateAvailability(ctx, apt.AppointmentDate)

	s.logger.Info().
		Str("appointment_id", apt.ID.String()).
		Str("date", apt.AppointmentDate.String()).
		Str("time_slot", string(apt.TimeSlot)).
		Msg("appointment booked")

	return apt, nil
}

// List returns all appointments ordered by appointment date ascending,
// capped at MaxListResults.
func (s *Service) List(ctx context.Context) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, MaxListResults)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list appointments: %w", err))
	}
	return appointments, nil
}

// AvailableSlots returns the bookable windows for date: the day's
// policy slot set minus whatever the ledger already holds, in catalog
// order. The past-date rule does not apply to listings.
func (s *Service) AvailableSlots(ctx context.Context, date model.Date) (*model.AvailableSlotsResponse, error) {
	if resp := s.cachedAvailability(ctx, date); resp != nil {
		return resp, nil
	}

	theoretical := schedule.SlotsForDay(date)
	if len(theoretical) == 0 {
		resp := &model.AvailableSlotsResponse{
			AvailableSlots: []model.TimeSlot{},
			Message:        schedule.MessageSundayClosed,
		}
		s.storeAvailability(ctx, date, resp)
		return resp, nil
	}

	taken, err := s.repo.TakenSlots(ctx, date)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to fetch taken slots: %w", err))
	}

	takenSet := make(map[model.TimeSlot]struct{}, len(taken))
	for _, slot := range taken {
		takenSet[slot] = struct{}{}
	}

	available := make([]model.TimeSlot, 0, len(theoretical))
	for _, slot := range theoretical {
		if _, ok := takenSet[slot]; !ok {
			available = append(available, slot)
		}
	}

	resp := &model.AvailableSlotsResponse{AvailableSlots: available}
	s.storeAvailability(ctx, date, resp)
	return resp, nil
}

// validateRequest defends against callers that bypass transport-level
// binding. Closed enums are checked here so an invalid slot or sex
// never reaches the ledger.
func validateRequest(req *model.CreateAppointmentRequest) error {
	switch {
	case req == nil:
		return apperrors.BadRequest("request is required", nil)
	case utf8.RuneCountInString(req.Name) < 2 || utf8.RuneCountInString(req.Name) > 100:
		return apperrors.BadRequest("name must be between 2 and 100 characters", nil)
	case !req.Sex.Valid():
		return apperrors.BadRequest("sex must be one of Male, Female, Other", nil)
	case req.Age < 0 || req.Age > 150:
		return apperrors.BadRequest("age must be between 0 and 150", nil)
	case utf8.RuneCountInString(req.Complaint) < 5 || utf8.RuneCountInString(req.Complaint) > 500:
		return apperrors.BadRequest("complaint must be between 5 and 500 characters", nil)
	case req.AppointmentDate.IsZero():
		return apperrors.BadRequest("appointment date is required", nil)
	case !req.TimeSlot.Valid():
		return apperrors.BadRequest("time slot is not in the catalog", nil)
	}
	return nil
}

func (s *Service) count(err error) {
	if s.metrics == nil {
		return
	}
	result := metrics.ResultBooked
	if err != nil {
		switch apperrors.CodeOf(err) {
		case apperrors.ErrPolicyViolation, apperrors.ErrBadRequest:
			result = metrics.ResultPolicyViolation
		case apperrors.ErrConflict:
			result = metrics.ResultConflict
		default:
			result = metrics.ResultError
		}
	}
	s.metrics.BookingsTotal.WithLabelValues(result).Inc()
}

func availabilityKey(date model.Date) string {
	return "availability:" + date.String()
}

func (s *Service) cachedAvailability(ctx context.Context, date model.Date) *model.AvailableSlotsResponse {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, availabilityKey(date))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn().Err(err).Msg("availability cache read failed")
		}
		return nil
	}
	var resp model.AvailableSlotsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil
	}
	if s.metrics != nil {
		s.metrics.AvailabilityHit.Inc()
	}
	return &resp
}

func (s *Service) storeAvailability(ctx context.Context, date model.Date, resp *model.AvailableSlotsResponse) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, availabilityKey(date), raw, availabilityTTL); err != nil {
		s.logger.Warn().Err(err).Msg("availability cache write failed")
	}
}

func (s *Service) invalidateAvailability(ctx context.Context, date model.Date) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, availabilityKey(date)); err != nil {
		s.logger.Warn().Err(err).Msg("availability cache invalidation failed")
	}
}
