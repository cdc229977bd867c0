package invoice

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-salon/internal/repo"
)

// ErrStoreUnavailable indicates the invoice store dependency is not configured.
var ErrStoreUnavailable = errors.New("invoice: store unavailable")

// Store provides transactional persistence for invoices.
type Store interface {
	// CreateInvoice persists the header and lines in one transaction. When
	// newCustomer is non-nil a customer row is created first and the header
	// is linked to it; an existing row with the same phone is reused.
	CreateInvoice(ctx context.Context, rec repo.InvoiceRecord, lines []repo.InvoiceLineRecord, newCustomer *repo.CustomerRecord) (repo.InvoiceRecord, error)
	// UpdateInvoice rewrites the header and replaces the full line set.
	UpdateInvoice(ctx context.Context, rec repo.InvoiceRecord, lines []repo.InvoiceLineRecord) (repo.InvoiceRecord, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (repo.InvoiceRecord, []repo.InvoiceLineRecord, error)
	ListInvoices(ctx context.Context, limit, offset int) ([]repo.InvoiceRecord, error)
	CountInvoices(ctx context.Context) (int64, error)
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

func (s *pgStore) CreateInvoice(ctx context.Context, rec repo.InvoiceRecord, lines []repo.InvoiceLineRecord, newCustomer *repo.CustomerRecord) (repo.InvoiceRecord, error) {
	if s == nil || s.pool == nil {
		return repo.InvoiceRecord{}, ErrStoreUnavailable
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return repo.InvoiceRecord{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	customers := repo.CustomerRepo{DB: tx}
	if newCustomer != nil {
		created, err := customers.Create(ctx, *newCustomer)
		if err != nil {
			if !repo.IsUniqueViolation(err) {
				return repo.InvoiceRecord{}, err
			}
			created, err = customers.FindByPhone(ctx, newCustomer.Phone)
			if err != nil {
				return repo.InvoiceRecord{}, err
			}
		}
		id := created.ID
		rec.CustomerID = &id
	}

	invoices := repo.InvoiceRepo{DB: tx}
	stored, err := invoices.Create(ctx, rec)
	if err != nil {
		return repo.InvoiceRecord{}, err
	}
	if err := invoices.InsertLines(ctx, stored.ID, lines); err != nil {
		return repo.InvoiceRecord{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return repo.InvoiceRecord{}, err
	}
	return stored, nil
}

func (s *pgStore) UpdateInvoice(ctx context.Context, rec repo.InvoiceRecord, lines []repo.InvoiceLineRecord) (repo.InvoiceRecord, error) {
	if s == nil || s.pool == nil {
		return repo.InvoiceRecord{}, ErrStoreUnavailable
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return repo.InvoiceRecord{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	invoices := repo.InvoiceRepo{DB: tx}
	stored, err := invoices.Update(ctx, rec)
	if err != nil {
		return repo.InvoiceRecord{}, err
	}
	if err := invoices.DeleteLines(ctx, stored.ID); err != nil {
		return repo.InvoiceRecord{}, err
	}
	if err := invoices.InsertLines(ctx, stored.ID, lines); err != nil {
		return repo.InvoiceRecord{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return repo.InvoiceRecord{}, err
	}
	return stored, nil
}

func (s *pgStore) GetInvoice(ctx context.Context, id uuid.UUID) (repo.InvoiceRecord, []repo.InvoiceLineRecord, error) {
	if s == nil || s.pool == nil {
		return repo.InvoiceRecord{}, nil, ErrStoreUnavailable
	}
	invoices := repo.InvoiceRepo{DB: s.pool}
	rec, err := invoices.Get(ctx, id)
	if err != nil {
		return repo.InvoiceRecord{}, nil, err
	}
	lines, err := invoices.Lines(ctx, id)
	if err != nil {
		return repo.InvoiceRecord{}, nil, err
	}
	return rec, lines, nil
}

func (s *pgStore) ListInvoices(ctx context.Context, limit, offset int) ([]repo.InvoiceRecord, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}
	return repo.InvoiceRepo{DB: s.pool}.List(ctx, limit, offset)
}

func (s *pgStore) CountInvoices(ctx context.Context) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, ErrStoreUnavailable
	}
	return repo.InvoiceRepo{DB: s.pool}.Count(ctx)
}
