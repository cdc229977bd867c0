package repo

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CustomerRecord is a registered customer row.
type CustomerRecord struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CustomerRepo provides access to the customer registry.
type CustomerRepo struct {
	DB DBTX
}

const customerColumns = `id, name, phone, email, created_at, updated_at`

// Get fetches a customer by id.
func (r CustomerRepo) Get(ctx context.Context, id uuid.UUID) (CustomerRecord, error) {
	return r.scanOne(r.DB.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
}

// FindByPhone fetches a customer by exact phone match.
func (r CustomerRepo) FindByPhone(ctx context.Context, phone string) (CustomerRecord, error) {
	return r.scanOne(r.DB.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE phone = $1`, strings.TrimSpace(phone)))
}

// SearchByPhone returns customers whose phone number starts with the given prefix.
func (r CustomerRepo) SearchByPhone(ctx context.Context, prefix string, limit int) ([]CustomerRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.DB.Query(ctx, `SELECT `+customerColumns+` FROM customers WHERE phone LIKE $1 || '%' ORDER BY phone LIMIT $2`,
		strings.TrimSpace(prefix), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CustomerRecord, 0, limit)
	for rows.Next() {
		rec, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// List returns customers ordered by creation time, newest first.
func (r CustomerRepo) List(ctx context.Context, limit, offset int) ([]CustomerRecord, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CustomerRecord, 0, limit)
	for rows.Next() {
		rec, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the total number of customers.
func (r CustomerRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&total)
	return total, err
}

// Create inserts a customer and returns the stored record.
func (r CustomerRepo) Create(ctx context.Context, rec CustomerRecord) (CustomerRecord, error) {
	var email any
	if rec.Email != nil && strings.TrimSpace(*rec.Email) != "" {
		email = strings.TrimSpace(*rec.Email)
	}
	return r.scanOne(r.DB.QueryRow(ctx, `INSERT INTO customers (name, phone, email)
VALUES ($1, $2, $3)
RETURNING `+customerColumns,
		strings.TrimSpace(rec.Name), strings.TrimSpace(rec.Phone), email))
}

// Update modifies a customer's contact details.
func (r CustomerRepo) Update(ctx context.Context, rec CustomerRecord) (CustomerRecord, error) {
	var email any
	if rec.Email != nil && strings.TrimSpace(*rec.Email) != "" {
		email = strings.TrimSpace(*rec.Email)
	}
	return r.scanOne(r.DB.QueryRow(ctx, `UPDATE customers SET name = $2, phone = $3, email = $4, updated_at = now()
WHERE id = $1
RETURNING `+customerColumns,
		rec.ID, strings.TrimSpace(rec.Name), strings.TrimSpace(rec.Phone), email))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (CustomerRepo) scanOne(row rowScanner) (CustomerRecord, error) {
	var rec CustomerRecord
	var email sql.NullString
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Phone, &email, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return CustomerRecord{}, mapNoRows(err)
	}
	if email.Valid {
		rec.Email = &email.String
	}
	return rec, nil
}
