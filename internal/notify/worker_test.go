package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/notify"
	"github.com/noah-isme/backend-salon/internal/repo"
)

type fakeBookings struct {
	records map[uuid.UUID]repo.BookingRecord
}

func (f *fakeBookings) Get(_ context.Context, id uuid.UUID) (repo.BookingRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return repo.BookingRecord{}, repo.ErrNotFound
	}
	return rec, nil
}

type fakeCustomers struct {
	records map[uuid.UUID]repo.CustomerRecord
}

func (f *fakeCustomers) Get(_ context.Context, id uuid.UUID) (repo.CustomerRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return repo.CustomerRecord{}, repo.ErrNotFound
	}
	return rec, nil
}

func reminderTask(t *testing.T, payload notify.ReminderPayload) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(notify.TaskTypeBookingReminder, body)
}

func TestReminderSendsEmail(t *testing.T) {
	bookingID := uuid.New()
	customerID := uuid.New()
	email := "dewi@example.com"

	mail := &common.InMemoryEmail{}
	worker := notify.ReminderWorker{
		Bookings: &fakeBookings{records: map[uuid.UUID]repo.BookingRecord{
			bookingID: {ID: bookingID, CustomerID: &customerID, Status: repo.BookingStatusScheduled, StartsAt: time.Now().Add(2 * time.Hour)},
		}},
		Customers: &fakeCustomers{records: map[uuid.UUID]repo.CustomerRecord{
			customerID: {ID: customerID, Name: "Dewi", Email: &email},
		}},
		Mail:   mail,
		Logger: zerolog.Nop(),
	}

	task := reminderTask(t, notify.ReminderPayload{
		BookingID:  bookingID.String(),
		CustomerID: customerID.String(),
		StartsAt:   time.Now().Add(2 * time.Hour),
	})
	require.NoError(t, worker.HandleBookingReminder(context.Background(), task))
	require.Len(t, mail.Outbox, 1)
	require.Equal(t, email, mail.Outbox[0].To)
}

func TestReminderSkipsCancelledBooking(t *testing.T) {
	bookingID := uuid.New()
	mail := &common.InMemoryEmail{}
	worker := notify.ReminderWorker{
		Bookings: &fakeBookings{records: map[uuid.UUID]repo.BookingRecord{
			bookingID: {ID: bookingID, Status: repo.BookingStatusCancelled},
		}},
		Customers: &fakeCustomers{records: map[uuid.UUID]repo.CustomerRecord{}},
		Mail:      mail,
		Logger:    zerolog.Nop(),
	}

	task := reminderTask(t, notify.ReminderPayload{BookingID: bookingID.String()})
	require.NoError(t, worker.HandleBookingReminder(context.Background(), task))
	require.Empty(t, mail.Outbox)
}

func TestReminderDeletedBookingIsDropped(t *testing.T) {
	worker := notify.ReminderWorker{
		Bookings:  &fakeBookings{records: map[uuid.UUID]repo.BookingRecord{}},
		Customers: &fakeCustomers{records: map[uuid.UUID]repo.CustomerRecord{}},
		Mail:      &common.InMemoryEmail{},
		Logger:    zerolog.Nop(),
	}
	task := reminderTask(t, notify.ReminderPayload{BookingID: uuid.NewString()})
	require.NoError(t, worker.HandleBookingReminder(context.Background(), task))
}

func TestReminderMalformedPayloadSkipsRetry(t *testing.T) {
	worker := notify.ReminderWorker{
		Bookings:  &fakeBookings{records: map[uuid.UUID]repo.BookingRecord{}},
		Customers: &fakeCustomers{records: map[uuid.UUID]repo.CustomerRecord{}},
		Logger:    zerolog.Nop(),
	}
	task := asynq.NewTask(notify.TaskTypeBookingReminder, []byte("{"))
	err := worker.HandleBookingReminder(context.Background(), task)
	require.Error(t, err)
	require.True(t, errors.Is(err, asynq.SkipRetry))
}
