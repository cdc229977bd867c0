package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StaffRecord is a salon staff member row.
type StaffRecord struct {
	ID        uuid.UUID
	Name      string
	Position  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StaffRepo provides access to staff reference data.
type StaffRepo struct {
	DB DBTX
}

const staffColumns = `id, name, position, active, created_at, updated_at`

// List returns staff members ordered by name. When activeOnly is set,
// inactive members are excluded.
func (r StaffRepo) List(ctx context.Context, activeOnly bool) ([]StaffRecord, error) {
	query := `SELECT ` + staffColumns + ` FROM staff`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY name`
	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StaffRecord
	for rows.Next() {
		var rec StaffRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Position, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get fetches a staff member by id.
func (r StaffRepo) Get(ctx context.Context, id uuid.UUID) (StaffRecord, error) {
	var rec StaffRecord
	err := r.DB.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = $1`, id).
		Scan(&rec.ID, &rec.Name, &rec.Position, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return StaffRecord{}, mapNoRows(err)
	}
	return rec, nil
}

// Create inserts a staff member and returns the stored record.
func (r StaffRepo) Create(ctx context.Context, rec StaffRecord) (StaffRecord, error) {
	err := r.DB.QueryRow(ctx, `INSERT INTO staff (name, position, active)
VALUES ($1, $2, $3)
RETURNING `+staffColumns,
		rec.Name, rec.Position, rec.Active).
		Scan(&rec.ID, &rec.Name, &rec.Position, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

// Update modifies name, position, and active flag for a staff member.
func (r StaffRepo) Update(ctx context.Context, rec StaffRecord) (StaffRecord, error) {
	err := r.DB.QueryRow(ctx, `UPDATE staff SET name = $2, position = $3, active = $4, updated_at = now()
WHERE id = $1
RETURNING `+staffColumns,
		rec.ID, rec.Name, rec.Position, rec.Active).
		Scan(&rec.ID, &rec.Name, &rec.Position, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return StaffRecord{}, mapNoRows(err)
	}
	return rec, nil
}
