package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceRecord is a persisted invoice header row. CustomerID is nil for
// guest checkouts and StaffID is the primary staff member, if any.
type InvoiceRecord struct {
	ID             uuid.UUID
	CustomerID     *uuid.UUID
	StaffID        *uuid.UUID
	Subtotal       decimal.Decimal
	DiscountType   string
	DiscountValue  decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TaxComponents  []byte
	TipAmount      decimal.Decimal
	Total          decimal.Decimal
	PaymentMethod  string
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// InvoiceLineRecord is a merged invoice line row. Exactly one of ServiceID
// and ProductID is set depending on Kind.
type InvoiceLineRecord struct {
	ID        uuid.UUID
	InvoiceID uuid.UUID
	Kind      string
	ServiceID *uuid.UUID
	ProductID *uuid.UUID
	ItemName  string
	Price     decimal.Decimal
	Quantity  int
	Total     decimal.Decimal
	StaffID   *uuid.UUID
	StaffName *string
	Position  int
}

// InvoiceRepo persists invoices and their lines.
type InvoiceRepo struct {
	DB DBTX
}

const invoiceColumns = `id, customer_id, staff_id, subtotal, discount_type, discount_value, discount_amount,
tax_amount, tax_components, tip_amount, total, payment_method, notes, created_at, updated_at`

// Create inserts an invoice header and returns the stored record.
func (r InvoiceRepo) Create(ctx context.Context, rec InvoiceRecord) (InvoiceRecord, error) {
	row := r.DB.QueryRow(ctx, `INSERT INTO invoices
(customer_id, staff_id, subtotal, discount_type, discount_value, discount_amount, tax_amount, tax_components, tip_amount, total, payment_method, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING `+invoiceColumns,
		rec.CustomerID, rec.StaffID, rec.Subtotal, rec.DiscountType, rec.DiscountValue, rec.DiscountAmount,
		rec.TaxAmount, rec.TaxComponents, rec.TipAmount, rec.Total, rec.PaymentMethod, rec.Notes)
	return scanInvoice(row)
}

// Update rewrites the mutable fields of an invoice header.
func (r InvoiceRepo) Update(ctx context.Context, rec InvoiceRecord) (InvoiceRecord, error) {
	row := r.DB.QueryRow(ctx, `UPDATE invoices SET
staff_id = $2, subtotal = $3, discount_type = $4, discount_value = $5, discount_amount = $6,
tax_amount = $7, tax_components = $8, tip_amount = $9, total = $10, payment_method = $11, notes = $12, updated_at = now()
WHERE id = $1
RETURNING `+invoiceColumns,
		rec.ID, rec.StaffID, rec.Subtotal, rec.DiscountType, rec.DiscountValue, rec.DiscountAmount,
		rec.TaxAmount, rec.TaxComponents, rec.TipAmount, rec.Total, rec.PaymentMethod, rec.Notes)
	return scanInvoice(row)
}

// Get fetches an invoice header by id.
func (r InvoiceRepo) Get(ctx context.Context, id uuid.UUID) (InvoiceRecord, error) {
	return scanInvoice(r.DB.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
}

// List returns invoice headers ordered by creation time, newest first.
func (r InvoiceRepo) List(ctx context.Context, limit, offset int) ([]InvoiceRecord, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]InvoiceRecord, 0, limit)
	for rows.Next() {
		rec, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the total number of invoices.
func (r InvoiceRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&total)
	return total, err
}

// InsertLines persists invoice lines preserving their order.
func (r InvoiceRepo) InsertLines(ctx context.Context, invoiceID uuid.UUID, lines []InvoiceLineRecord) error {
	for i, line := range lines {
		_, err := r.DB.Exec(ctx, `INSERT INTO invoice_lines
(invoice_id, kind, service_id, product_id, item_name, price, quantity, total, staff_id, staff_name, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			invoiceID, line.Kind, line.ServiceID, line.ProductID, line.ItemName,
			line.Price, line.Quantity, line.Total, line.StaffID, line.StaffName, i)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteLines removes all lines belonging to an invoice. Used when an edit
// rewrites the full line set.
func (r InvoiceRepo) DeleteLines(ctx context.Context, invoiceID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1`, invoiceID)
	return err
}

// Lines fetches the lines of an invoice in stored order.
func (r InvoiceRepo) Lines(ctx context.Context, invoiceID uuid.UUID) ([]InvoiceLineRecord, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, invoice_id, kind, service_id, product_id, item_name, price, quantity, total, staff_id, staff_name, position
FROM invoice_lines WHERE invoice_id = $1 ORDER BY position`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InvoiceLineRecord
	for rows.Next() {
		var line InvoiceLineRecord
		var staffName sql.NullString
		if err := rows.Scan(&line.ID, &line.InvoiceID, &line.Kind, &line.ServiceID, &line.ProductID, &line.ItemName,
			&line.Price, &line.Quantity, &line.Total, &line.StaffID, &staffName, &line.Position); err != nil {
			return nil, err
		}
		if staffName.Valid {
			line.StaffName = &staffName.String
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

func scanInvoice(row rowScanner) (InvoiceRecord, error) {
	var rec InvoiceRecord
	var notes sql.NullString
	if err := row.Scan(&rec.ID, &rec.CustomerID, &rec.StaffID, &rec.Subtotal, &rec.DiscountType, &rec.DiscountValue,
		&rec.DiscountAmount, &rec.TaxAmount, &rec.TaxComponents, &rec.TipAmount, &rec.Total,
		&rec.PaymentMethod, &notes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return InvoiceRecord{}, mapNoRows(err)
	}
	if notes.Valid {
		rec.Notes = &notes.String
	}
	return rec, nil
}
