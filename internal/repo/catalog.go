package repo

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceRecord is a bookable salon service row.
type ServiceRecord struct {
	ID              uuid.UUID
	Name            string
	Category        string
	Price           decimal.Decimal
	DurationMinutes int
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProductRecord is a retail product row.
type ProductRecord struct {
	ID        uuid.UUID
	Name      string
	Category  string
	Price     decimal.Decimal
	Stock     int
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CatalogListParams filters and paginates catalog listings.
type CatalogListParams struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

// CatalogRepo provides access to services and products reference data.
type CatalogRepo struct {
	DB DBTX
}

const serviceColumns = `id, name, category, price, duration_minutes, active, created_at, updated_at`

// ListServices returns active services matching the params ordered by name.
func (r CatalogRepo) ListServices(ctx context.Context, params CatalogListParams) ([]ServiceRecord, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE active`
	args := make([]any, 0, 4)
	query, args = appendCatalogFilters(query, args, params)
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ServiceRecord, 0, params.Limit)
	for rows.Next() {
		var rec ServiceRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Category, &rec.Price, &rec.DurationMinutes, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountServices returns the number of active services matching the filters.
func (r CatalogRepo) CountServices(ctx context.Context, params CatalogListParams) (int64, error) {
	query := `SELECT COUNT(*) FROM services WHERE active`
	args := make([]any, 0, 2)
	params.Limit, params.Offset = 0, 0
	query, args = appendCatalogFilters(query, args, params)
	var total int64
	err := r.DB.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

// GetService fetches a single service by id.
func (r CatalogRepo) GetService(ctx context.Context, id uuid.UUID) (ServiceRecord, error) {
	var rec ServiceRecord
	err := r.DB.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id).
		Scan(&rec.ID, &rec.Name, &rec.Category, &rec.Price, &rec.DurationMinutes, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return ServiceRecord{}, mapNoRows(err)
	}
	return rec, nil
}

// CreateService inserts a service row and returns the stored record.
func (r CatalogRepo) CreateService(ctx context.Context, rec ServiceRecord) (ServiceRecord, error) {
	err := r.DB.QueryRow(ctx, `INSERT INTO services (name, category, price, duration_minutes, active)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+serviceColumns,
		rec.Name, rec.Category, rec.Price, rec.DurationMinutes, rec.Active).
		Scan(&rec.ID, &rec.Name, &rec.Category, &rec.Price, &rec.DurationMinutes, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

const productColumns = `id, name, category, price, stock, active, created_at, updated_at`

// ListProducts returns active products matching the params ordered by name.
func (r CatalogRepo) ListProducts(ctx context.Context, params CatalogListParams) ([]ProductRecord, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE active`
	args := make([]any, 0, 4)
	query, args = appendCatalogFilters(query, args, params)
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ProductRecord, 0, params.Limit)
	for rows.Next() {
		var rec ProductRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Category, &rec.Price, &rec.Stock, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountProducts returns the number of active products matching the filters.
func (r CatalogRepo) CountProducts(ctx context.Context, params CatalogListParams) (int64, error) {
	query := `SELECT COUNT(*) FROM products WHERE active`
	args := make([]any, 0, 2)
	params.Limit, params.Offset = 0, 0
	query, args = appendCatalogFilters(query, args, params)
	var total int64
	err := r.DB.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

// GetProduct fetches a single product by id.
func (r CatalogRepo) GetProduct(ctx context.Context, id uuid.UUID) (ProductRecord, error) {
	var rec ProductRecord
	err := r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id).
		Scan(&rec.ID, &rec.Name, &rec.Category, &rec.Price, &rec.Stock, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return ProductRecord{}, mapNoRows(err)
	}
	return rec, nil
}

// CreateProduct inserts a product row and returns the stored record.
func (r CatalogRepo) CreateProduct(ctx context.Context, rec ProductRecord) (ProductRecord, error) {
	err := r.DB.QueryRow(ctx, `INSERT INTO products (name, category, price, stock, active)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+productColumns,
		rec.Name, rec.Category, rec.Price, rec.Stock, rec.Active).
		Scan(&rec.ID, &rec.Name, &rec.Category, &rec.Price, &rec.Stock, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

// appendCatalogFilters appends category/search predicates and pagination to a
// base query that already contains a WHERE clause.
func appendCatalogFilters(query string, args []any, params CatalogListParams) (string, []any) {
	if category := strings.TrimSpace(params.Category); category != "" {
		args = append(args, category)
		query += ` AND category = $` + itoa(len(args))
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		args = append(args, "%"+search+"%")
		query += ` AND name ILIKE $` + itoa(len(args))
	}
	query += ` ORDER BY name`
	if params.Limit > 0 {
		args = append(args, params.Limit)
		query += ` LIMIT $` + itoa(len(args))
	}
	if params.Offset > 0 {
		args = append(args, params.Offset)
		query += ` OFFSET $` + itoa(len(args))
	}
	return query, args
}

func itoa(n int) string { return strconv.Itoa(n) }
