package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/booking"
	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/repo"
)

type fakeBookingStore struct {
	records map[uuid.UUID]repo.BookingRecord
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{records: make(map[uuid.UUID]repo.BookingRecord)}
}

func (f *fakeBookingStore) Create(_ context.Context, rec repo.BookingRecord) (repo.BookingRecord, error) {
	rec.ID = uuid.New()
	rec.Status = repo.BookingStatusScheduled
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeBookingStore) Get(_ context.Context, id uuid.UUID) (repo.BookingRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return repo.BookingRecord{}, repo.ErrNotFound
	}
	return rec, nil
}

func (f *fakeBookingStore) ListByStaffBetween(_ context.Context, staffID uuid.UUID, from, to time.Time) ([]repo.BookingRecord, error) {
	var out []repo.BookingRecord
	for _, rec := range f.records {
		if rec.StaffID != staffID || rec.Status != repo.BookingStatusScheduled {
			continue
		}
		if rec.StartsAt.Before(to) && rec.EndsAt.After(from) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) ListBetween(_ context.Context, from, to time.Time) ([]repo.BookingRecord, error) {
	var out []repo.BookingRecord
	for _, rec := range f.records {
		if rec.StartsAt.Before(to) && rec.EndsAt.After(from) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) Cancel(_ context.Context, id uuid.UUID) (repo.BookingRecord, error) {
	rec, ok := f.records[id]
	if !ok || rec.Status == repo.BookingStatusCancelled {
		return repo.BookingRecord{}, repo.ErrNotFound
	}
	rec.Status = repo.BookingStatusCancelled
	f.records[id] = rec
	return rec, nil
}

type fakeRefs struct {
	services map[uuid.UUID]repo.ServiceRecord
	staff    map[uuid.UUID]repo.StaffRecord
}

func (f *fakeRefs) GetService(_ context.Context, id uuid.UUID) (repo.ServiceRecord, error) {
	rec, ok := f.services[id]
	if !ok {
		return repo.ServiceRecord{}, repo.ErrNotFound
	}
	return rec, nil
}

func (f *fakeRefs) Get(_ context.Context, id uuid.UUID) (repo.StaffRecord, error) {
	rec, ok := f.staff[id]
	if !ok {
		return repo.StaffRecord{}, repo.ErrNotFound
	}
	return rec, nil
}

type recordingScheduler struct {
	scheduled []repo.BookingRecord
}

func (r *recordingScheduler) ScheduleReminder(_ context.Context, rec repo.BookingRecord) error {
	r.scheduled = append(r.scheduled, rec)
	return nil
}

type bookingEnv struct {
	svc       *booking.Service
	store     *fakeBookingStore
	scheduler *recordingScheduler
	haircut   uuid.UUID
	alice     uuid.UUID
}

func newBookingEnv(t *testing.T) *bookingEnv {
	t.Helper()
	e := &bookingEnv{
		store:     newFakeBookingStore(),
		scheduler: &recordingScheduler{},
		haircut:   uuid.New(),
		alice:     uuid.New(),
	}
	refs := &fakeRefs{
		services: map[uuid.UUID]repo.ServiceRecord{
			e.haircut: {ID: e.haircut, Name: "Haircut", DurationMinutes: 30},
		},
		staff: map[uuid.UUID]repo.StaffRecord{
			e.alice: {ID: e.alice, Name: "Alice"},
		},
	}
	e.svc = &booking.Service{
		Store:     e.store,
		Services:  refs,
		Staff:     refs,
		Hours:     booking.Hours{Open: "09:00", Close: "12:00", Step: 30 * time.Minute},
		Reminders: e.scheduler,
		Logger:    zerolog.Nop(),
	}
	return e
}

func at(day time.Time, hhmm string) time.Time {
	parsed, _ := time.Parse("15:04", hhmm)
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
}

func TestBookingCreateSchedulesReminder(t *testing.T) {
	e := newBookingEnv(t)
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	appt, err := e.svc.Create(context.Background(), booking.CreateInput{
		StaffID:   e.alice,
		ServiceID: e.haircut,
		StartsAt:  at(day, "10:00"),
	})
	require.NoError(t, err)
	require.Equal(t, at(day, "10:30"), appt.EndsAt)
	require.Equal(t, "scheduled", appt.Status)
	require.Len(t, e.scheduler.scheduled, 1)
}

func TestBookingCreateRejectsOverlap(t *testing.T) {
	e := newBookingEnv(t)
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	_, err := e.svc.Create(context.Background(), booking.CreateInput{
		StaffID: e.alice, ServiceID: e.haircut, StartsAt: at(day, "10:00"),
	})
	require.NoError(t, err)

	_, err = e.svc.Create(context.Background(), booking.CreateInput{
		StaffID: e.alice, ServiceID: e.haircut, StartsAt: at(day, "10:15"),
	})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 409, appErr.HTTPStatus)
}

func TestBookingCreateUnknownRefs(t *testing.T) {
	e := newBookingEnv(t)
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	_, err := e.svc.Create(context.Background(), booking.CreateInput{
		StaffID: uuid.New(), ServiceID: e.haircut, StartsAt: at(day, "10:00"),
	})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeStaffInvalid, appErr.Code)

	_, err = e.svc.Create(context.Background(), booking.CreateInput{
		StaffID: e.alice, ServiceID: uuid.New(), StartsAt: at(day, "10:00"),
	})
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeServiceInvalid, appErr.Code)
}

func TestDaySlotsMarksBookedWindows(t *testing.T) {
	e := newBookingEnv(t)
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	_, err := e.svc.Create(context.Background(), booking.CreateInput{
		StaffID: e.alice, ServiceID: e.haircut, StartsAt: at(day, "10:00"),
	})
	require.NoError(t, err)

	slots, err := e.svc.DaySlots(context.Background(), day, e.alice)
	require.NoError(t, err)
	require.Len(t, slots, 6)

	for _, slot := range slots {
		wantAvailable := !slot.Start.Equal(at(day, "10:00"))
		require.Equal(t, wantAvailable, slot.Available, slot.Start.String())
	}
}

func TestDaySlotsUsesLocalCalendarDay(t *testing.T) {
	e := newBookingEnv(t)
	zone := time.FixedZone("UTC+7", 7*3600)
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, zone)

	// Midnight here is still the 6th in UTC; a UTC-rounded window would
	// start a day early and miss this booking entirely.
	_, err := e.svc.Create(context.Background(), booking.CreateInput{
		StaffID: e.alice, ServiceID: e.haircut,
		StartsAt: time.Date(2026, 9, 7, 10, 0, 0, 0, zone),
	})
	require.NoError(t, err)

	slots, err := e.svc.DaySlots(context.Background(), day, e.alice)
	require.NoError(t, err)
	require.Len(t, slots, 6)
	for _, slot := range slots {
		wantAvailable := !slot.Start.Equal(time.Date(2026, 9, 7, 10, 0, 0, 0, zone))
		require.Equal(t, wantAvailable, slot.Available, slot.Start.String())
	}
}

func TestCancelThenSlotFreesUp(t *testing.T) {
	e := newBookingEnv(t)
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	appt, err := e.svc.Create(context.Background(), booking.CreateInput{
		StaffID: e.alice, ServiceID: e.haircut, StartsAt: at(day, "09:00"),
	})
	require.NoError(t, err)

	cancelled, err := e.svc.Cancel(context.Background(), uuid.MustParse(appt.ID))
	require.NoError(t, err)
	require.Equal(t, "cancelled", cancelled.Status)

	slots, err := e.svc.DaySlots(context.Background(), day, e.alice)
	require.NoError(t, err)
	for _, slot := range slots {
		require.True(t, slot.Available)
	}

	_, err = e.svc.Cancel(context.Background(), uuid.MustParse(appt.ID))
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeNotFound, appErr.Code)
}
