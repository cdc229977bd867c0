package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/repo"
)

type bookingReader interface {
	Get(ctx context.Context, id uuid.UUID) (repo.BookingRecord, error)
}

type customerReader interface {
	Get(ctx context.Context, id uuid.UUID) (repo.CustomerRecord, error)
}

// ReminderWorker handles booking reminder tasks.
type ReminderWorker struct {
	Bookings  bookingReader
	Customers customerReader
	Mail      common.EmailSender
	Logger    zerolog.Logger
}

// HandleBookingReminder processes one reminder task. Cancelled bookings and
// bookings without a reachable customer are dropped without error.
func (w ReminderWorker) HandleBookingReminder(ctx context.Context, task *asynq.Task) error {
	var payload ReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode reminder: %v: %w", err, asynq.SkipRetry)
	}
	bookingID, err := uuid.Parse(payload.BookingID)
	if err != nil {
		return fmt.Errorf("bad booking id %q: %w", payload.BookingID, asynq.SkipRetry)
	}

	rec, err := w.Bookings.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load booking: %w", err)
	}
	if rec.Status != repo.BookingStatusScheduled {
		return nil
	}

	if payload.CustomerID == "" || w.Customers == nil || w.Mail == nil {
		w.Logger.Info().Str("booking_id", payload.BookingID).Msg("reminder has no reachable customer")
		return nil
	}
	customerID, err := uuid.Parse(payload.CustomerID)
	if err != nil {
		return fmt.Errorf("bad customer id %q: %w", payload.CustomerID, asynq.SkipRetry)
	}
	customer, err := w.Customers.Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load customer: %w", err)
	}
	if customer.Email == nil || *customer.Email == "" {
		return nil
	}

	subject := "Upcoming appointment reminder"
	body := fmt.Sprintf("Hi %s, this is a reminder for your appointment at %s.",
		customer.Name, rec.StartsAt.Format(time.RFC1123))
	if err := w.Mail.Send(*customer.Email, subject, body); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	w.Logger.Info().
		Str("booking_id", payload.BookingID).
		Str("customer_id", payload.CustomerID).
		Msg("reminder sent")
	return nil
}

// Mux returns an asynq handler mux with reminder routing registered.
func (w ReminderWorker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeBookingReminder, w.HandleBookingReminder)
	return mux
}
