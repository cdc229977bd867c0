package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Booking statuses.
const (
	BookingStatusScheduled = "scheduled"
	BookingStatusCancelled = "cancelled"
)

// BookingRecord is a scheduled appointment row.
type BookingRecord struct {
	ID         uuid.UUID
	CustomerID *uuid.UUID
	StaffID    uuid.UUID
	ServiceID  uuid.UUID
	StartsAt   time.Time
	EndsAt     time.Time
	Status     string
	Notes      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BookingRepo persists appointments.
type BookingRepo struct {
	DB DBTX
}

const bookingColumns = `id, customer_id, staff_id, service_id, starts_at, ends_at, status, notes, created_at, updated_at`

// Create inserts a scheduled booking and returns the stored record.
func (r BookingRepo) Create(ctx context.Context, rec BookingRecord) (BookingRecord, error) {
	row := r.DB.QueryRow(ctx, `INSERT INTO bookings (customer_id, staff_id, service_id, starts_at, ends_at, status, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+bookingColumns,
		rec.CustomerID, rec.StaffID, rec.ServiceID, rec.StartsAt, rec.EndsAt, BookingStatusScheduled, rec.Notes)
	return scanBooking(row)
}

// Get fetches a booking by id.
func (r BookingRepo) Get(ctx context.Context, id uuid.UUID) (BookingRecord, error) {
	return scanBooking(r.DB.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

// ListByStaffBetween returns scheduled bookings for one staff member that
// intersect the [from, to) window, ordered by start time.
func (r BookingRepo) ListByStaffBetween(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]BookingRecord, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
WHERE staff_id = $1 AND status = $2 AND starts_at < $4 AND ends_at > $3
ORDER BY starts_at`, staffID, BookingStatusScheduled, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListBetween returns all bookings intersecting the [from, to) window.
func (r BookingRepo) ListBetween(ctx context.Context, from, to time.Time) ([]BookingRecord, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
WHERE starts_at < $2 AND ends_at > $1
ORDER BY starts_at`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// Cancel marks a booking cancelled. Returns ErrNotFound when the booking
// does not exist or is already cancelled.
func (r BookingRepo) Cancel(ctx context.Context, id uuid.UUID) (BookingRecord, error) {
	row := r.DB.QueryRow(ctx, `UPDATE bookings SET status = $2, updated_at = now()
WHERE id = $1 AND status <> $2
RETURNING `+bookingColumns, id, BookingStatusCancelled)
	return scanBooking(row)
}

func collectBookings(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]BookingRecord, error) {
	var out []BookingRecord
	for rows.Next() {
		rec, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanBooking(row rowScanner) (BookingRecord, error) {
	var rec BookingRecord
	if err := row.Scan(&rec.ID, &rec.CustomerID, &rec.StaffID, &rec.ServiceID, &rec.StartsAt, &rec.EndsAt,
		&rec.Status, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return BookingRecord{}, mapNoRows(err)
	}
	return rec, nil
}
