package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/obs"
	"github.com/noah-isme/backend-salon/internal/repo"
)

type bookingStore interface {
	Create(ctx context.Context, rec repo.BookingRecord) (repo.BookingRecord, error)
	Get(ctx context.Context, id uuid.UUID) (repo.BookingRecord, error)
	ListByStaffBetween(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]repo.BookingRecord, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]repo.BookingRecord, error)
	Cancel(ctx context.Context, id uuid.UUID) (repo.BookingRecord, error)
}

type serviceReader interface {
	GetService(ctx context.Context, id uuid.UUID) (repo.ServiceRecord, error)
}

type staffReader interface {
	Get(ctx context.Context, id uuid.UUID) (repo.StaffRecord, error)
}

// ReminderScheduler schedules an appointment reminder ahead of its start.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, rec repo.BookingRecord) error
}

// SlotLocker serialises concurrent bookings for the same staff member so the
// overlap check and insert run as one critical section.
type SlotLocker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Hours describes the salon's bookable day.
type Hours struct {
	Open  string
	Close string
	Step  time.Duration
}

// Appointment is the wire shape of a booking.
type Appointment struct {
	ID         string    `json:"id"`
	CustomerID *string   `json:"customer_id,omitempty"`
	StaffID    string    `json:"staff_id"`
	ServiceID  string    `json:"service_id"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
}

// CreateInput carries a booking request.
type CreateInput struct {
	CustomerID *uuid.UUID
	StaffID    uuid.UUID
	ServiceID  uuid.UUID
	StartsAt   time.Time
	Notes      string
}

// ErrSlotTaken indicates the requested window overlaps an existing booking.
var ErrSlotTaken = errors.New("booking: slot already taken")

// Service manages appointments and availability.
type Service struct {
	Store     bookingStore
	Services  serviceReader
	Staff     staffReader
	Hours     Hours
	Reminders ReminderScheduler
	Locks     SlotLocker
	Logger    zerolog.Logger
}

// DaySlots returns the availability grid for one staff member on one day.
func (s *Service) DaySlots(ctx context.Context, day time.Time, staffID uuid.UUID) ([]TimeSlot, error) {
	if _, err := s.Staff.Get(ctx, staffID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, &common.AppError{Code: common.CodeStaffInvalid, Message: "staff member does not exist", HTTPStatus: http.StatusUnprocessableEntity}
		}
		return nil, fmt.Errorf("resolve staff: %w", err)
	}
	from := startOfDay(day)
	to := from.Add(24 * time.Hour)
	rows, err := s.Store.ListByStaffBetween(ctx, staffID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	busy := make([]Interval, 0, len(rows))
	for _, rec := range rows {
		busy = append(busy, Interval{Start: rec.StartsAt, End: rec.EndsAt})
	}
	return Slots(day, s.Hours.Open, s.Hours.Close, s.Hours.Step, nil, busy), nil
}

// Create books an appointment after an overlap check and schedules its
// reminder. The window length comes from the service's configured duration.
func (s *Service) Create(ctx context.Context, in CreateInput) (Appointment, error) {
	svc, err := s.Services.GetService(ctx, in.ServiceID)
	if err != nil {
		countBooking("rejected")
		if errors.Is(err, repo.ErrNotFound) {
			return Appointment{}, &common.AppError{Code: common.CodeServiceInvalid, Message: "service does not exist", HTTPStatus: http.StatusUnprocessableEntity}
		}
		return Appointment{}, fmt.Errorf("resolve service: %w", err)
	}
	if _, err := s.Staff.Get(ctx, in.StaffID); err != nil {
		countBooking("rejected")
		if errors.Is(err, repo.ErrNotFound) {
			return Appointment{}, &common.AppError{Code: common.CodeStaffInvalid, Message: "staff member does not exist", HTTPStatus: http.StatusUnprocessableEntity}
		}
		return Appointment{}, fmt.Errorf("resolve staff: %w", err)
	}

	duration := time.Duration(svc.DurationMinutes) * time.Minute
	if duration <= 0 {
		duration = s.Hours.Step
	}
	window := Interval{Start: in.StartsAt, End: in.StartsAt.Add(duration)}

	var rec repo.BookingRecord
	book := func(ctx context.Context) error {
		existing, err := s.Store.ListByStaffBetween(ctx, in.StaffID, window.Start, window.End)
		if err != nil {
			countBooking("failed")
			return fmt.Errorf("check availability: %w", err)
		}
		for _, other := range existing {
			if window.Overlaps(Interval{Start: other.StartsAt, End: other.EndsAt}) {
				countBooking("conflict")
				return &common.AppError{Code: common.CodeBadRequest, Message: "slot already taken", HTTPStatus: http.StatusConflict, Err: ErrSlotTaken}
			}
		}
		rec, err = s.Store.Create(ctx, repo.BookingRecord{
			CustomerID: in.CustomerID,
			StaffID:    in.StaffID,
			ServiceID:  in.ServiceID,
			StartsAt:   window.Start,
			EndsAt:     window.End,
			Notes:      notesPtr(in.Notes),
		})
		if err != nil {
			countBooking("failed")
			return mapBookingStoreError(err)
		}
		return nil
	}

	if s.Locks != nil {
		lockKey := fmt.Sprintf("booking:staff:%s:%s", in.StaffID, window.Start.UTC().Format("2006-01-02"))
		err = s.Locks.WithLock(ctx, lockKey, 10*time.Second, book)
	} else {
		err = book(ctx)
	}
	if err != nil {
		return Appointment{}, err
	}

	if s.Reminders != nil {
		if err := s.Reminders.ScheduleReminder(ctx, rec); err != nil {
			// the booking stands even when the reminder cannot be queued
			s.Logger.Warn().Err(err).Str("booking_id", rec.ID.String()).Msg("schedule reminder failed")
		}
	}
	countBooking("accepted")
	s.Logger.Info().
		Str("booking_id", rec.ID.String()).
		Time("starts_at", rec.StartsAt).
		Msg("booking created")
	return toAppointment(rec), nil
}

// ListDay returns all bookings intersecting the given day.
func (s *Service) ListDay(ctx context.Context, day time.Time) ([]Appointment, error) {
	from := startOfDay(day)
	rows, err := s.Store.ListBetween(ctx, from, from.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	out := make([]Appointment, 0, len(rows))
	for _, rec := range rows {
		out = append(out, toAppointment(rec))
	}
	return out, nil
}

// Cancel marks a booking cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (Appointment, error) {
	rec, err := s.Store.Cancel(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Appointment{}, &common.AppError{Code: common.CodeNotFound, Message: "booking not found", HTTPStatus: http.StatusNotFound}
		}
		return Appointment{}, fmt.Errorf("cancel booking: %w", err)
	}
	return toAppointment(rec), nil
}

func toAppointment(rec repo.BookingRecord) Appointment {
	out := Appointment{
		ID:        rec.ID.String(),
		StaffID:   rec.StaffID.String(),
		ServiceID: rec.ServiceID.String(),
		StartsAt:  rec.StartsAt,
		EndsAt:    rec.EndsAt,
		Status:    rec.Status,
	}
	if rec.CustomerID != nil {
		id := rec.CustomerID.String()
		out.CustomerID = &id
	}
	if rec.Notes != nil {
		out.Notes = *rec.Notes
	}
	return out
}

func mapBookingStoreError(err error) error {
	switch repo.ForeignKeyConstraint(err) {
	case "bookings_customer_id_fkey":
		return &common.AppError{Code: common.CodeCustomerInvalid, Message: "customer does not exist", HTTPStatus: http.StatusUnprocessableEntity}
	case "bookings_staff_id_fkey":
		return &common.AppError{Code: common.CodeStaffInvalid, Message: "staff member does not exist", HTTPStatus: http.StatusUnprocessableEntity}
	case "bookings_service_id_fkey":
		return &common.AppError{Code: common.CodeServiceInvalid, Message: "service does not exist", HTTPStatus: http.StatusUnprocessableEntity}
	default:
		return err
	}
}

// startOfDay resolves midnight in the day's own location. Truncate would
// round on UTC boundaries and shift the window for non-UTC inputs.
func startOfDay(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
}

func notesPtr(notes string) *string {
	if notes == "" {
		return nil
	}
	return &notes
}

func countBooking(result string) {
	if obs.BookingCreatedTotal != nil {
		obs.BookingCreatedTotal.WithLabelValues(result).Inc()
	}
}
