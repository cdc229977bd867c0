package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-salon/internal/obs"
	"github.com/noah-isme/backend-salon/internal/repo"
)

// TaskTypeBookingReminder is the asynq task type for appointment reminders.
const TaskTypeBookingReminder = "booking:reminder"

// ReminderPayload is the task body of a booking reminder.
type ReminderPayload struct {
	BookingID  string    `json:"booking_id"`
	CustomerID string    `json:"customer_id,omitempty"`
	StaffID    string    `json:"staff_id"`
	ServiceID  string    `json:"service_id"`
	StartsAt   time.Time `json:"starts_at"`
}

// Scheduler enqueues booking reminders so they fire Lead before the
// appointment starts.
type Scheduler struct {
	Client *asynq.Client
	Lead   time.Duration
}

// ScheduleReminder enqueues one reminder task for the booking. Bookings
// whose reminder moment already passed are skipped silently.
func (s Scheduler) ScheduleReminder(ctx context.Context, rec repo.BookingRecord) error {
	if s.Client == nil {
		return nil
	}
	fireAt := rec.StartsAt.Add(-s.Lead)
	if !fireAt.After(time.Now()) {
		return nil
	}
	payload := ReminderPayload{
		BookingID: rec.ID.String(),
		StaffID:   rec.StaffID.String(),
		ServiceID: rec.ServiceID.String(),
		StartsAt:  rec.StartsAt,
	}
	if rec.CustomerID != nil {
		payload.CustomerID = rec.CustomerID.String()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode reminder: %w", err)
	}
	task := asynq.NewTask(TaskTypeBookingReminder, body, asynq.MaxRetry(3))
	if _, err := s.Client.EnqueueContext(ctx, task, asynq.ProcessAt(fireAt)); err != nil {
		return fmt.Errorf("enqueue reminder: %w", err)
	}
	if obs.ReminderEnqueuedTotal != nil {
		obs.ReminderEnqueuedTotal.Inc()
	}
	return nil
}
