package invoice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/billing"
	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/invoice"
	"github.com/noah-isme/backend-salon/internal/repo"
)

type fakeStore struct {
	invoices  map[uuid.UUID]repo.InvoiceRecord
	lines     map[uuid.UUID][]repo.InvoiceLineRecord
	customers *fixtures
}

func (f *fakeStore) CreateInvoice(_ context.Context, rec repo.InvoiceRecord, lines []repo.InvoiceLineRecord, newCustomer *repo.CustomerRecord) (repo.InvoiceRecord, error) {
	if newCustomer != nil {
		created := *newCustomer
		created.ID = uuid.New()
		f.customers.customers[created.ID] = created
		id := created.ID
		rec.CustomerID = &id
	}
	rec.ID = uuid.New()
	f.invoices[rec.ID] = rec
	f.lines[rec.ID] = lines
	return rec, nil
}

func (f *fakeStore) UpdateInvoice(_ context.Context, rec repo.InvoiceRecord, lines []repo.InvoiceLineRecord) (repo.InvoiceRecord, error) {
	if _, ok := f.invoices[rec.ID]; !ok {
		return repo.InvoiceRecord{}, repo.ErrNotFound
	}
	f.invoices[rec.ID] = rec
	f.lines[rec.ID] = lines
	return rec, nil
}

func (f *fakeStore) GetInvoice(_ context.Context, id uuid.UUID) (repo.InvoiceRecord, []repo.InvoiceLineRecord, error) {
	rec, ok := f.invoices[id]
	if !ok {
		return repo.InvoiceRecord{}, nil, repo.ErrNotFound
	}
	return rec, f.lines[id], nil
}

func (f *fakeStore) ListInvoices(_ context.Context, limit, offset int) ([]repo.InvoiceRecord, error) {
	var out []repo.InvoiceRecord
	for _, rec := range f.invoices {
		out = append(out, rec)
	}
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) CountInvoices(context.Context) (int64, error) {
	return int64(len(f.invoices)), nil
}

type fixtures struct {
	services  map[uuid.UUID]repo.ServiceRecord
	products  map[uuid.UUID]repo.ProductRecord
	staff     map[uuid.UUID]repo.StaffRecord
	customers map[uuid.UUID]repo.CustomerRecord
}

func (f *fixtures) GetService(_ context.Context, id uuid.UUID) (repo.ServiceRecord, error) {
	rec, ok := f.services[id]
	if !ok {
		return repo.ServiceRecord{}, repo.ErrNotFound
	}
	return rec, nil
}

func (f *fixtures) GetProduct(_ context.Context, id uuid.UUID) (repo.ProductRecord, error) {
	rec, ok := f.products[id]
	if !ok {
		return repo.ProductRecord{}, repo.ErrNotFound
	}
	return rec, nil
}

func (f *fixtures) Get(_ context.Context, id uuid.UUID) (repo.StaffRecord, error) {
	rec, ok := f.staff[id]
	if !ok {
		return repo.StaffRecord{}, repo.ErrNotFound
	}
	return rec, nil
}

type customerFixture struct{ *fixtures }

func (f customerFixture) Get(_ context.Context, id uuid.UUID) (repo.CustomerRecord, error) {
	rec, ok := f.customers[id]
	if !ok {
		return repo.CustomerRecord{}, repo.ErrNotFound
	}
	return rec, nil
}

type env struct {
	svc      *invoice.Service
	store    *fakeStore
	haircut  uuid.UUID
	coloring uuid.UUID
	wax      uuid.UUID
	alice    uuid.UUID
	bob      uuid.UUID
	regular  uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		haircut:  uuid.New(),
		coloring: uuid.New(),
		wax:      uuid.New(),
		alice:    uuid.New(),
		bob:      uuid.New(),
		regular:  uuid.New(),
	}
	fx := &fixtures{
		services: map[uuid.UUID]repo.ServiceRecord{
			e.haircut:  {ID: e.haircut, Name: "Haircut", Price: dec("25.00")},
			e.coloring: {ID: e.coloring, Name: "Coloring", Price: dec("80.00")},
		},
		products: map[uuid.UUID]repo.ProductRecord{
			e.wax: {ID: e.wax, Name: "Hair Wax", Price: dec("12.50"), Stock: 3},
		},
		staff: map[uuid.UUID]repo.StaffRecord{
			e.alice: {ID: e.alice, Name: "Alice"},
			e.bob:   {ID: e.bob, Name: "Bob"},
		},
		customers: map[uuid.UUID]repo.CustomerRecord{
			e.regular: {ID: e.regular, Name: "Regular", Phone: "0811"},
		},
	}
	e.store = &fakeStore{
		invoices:  make(map[uuid.UUID]repo.InvoiceRecord),
		lines:     make(map[uuid.UUID][]repo.InvoiceLineRecord),
		customers: fx,
	}
	e.svc = &invoice.Service{
		Store:     e.store,
		Catalog:   fx,
		Staff:     fx,
		Customers: customerFixture{fx},
		Tax:       invoice.TaxDefaults{Rate: dec("7.5")},
		Logger:    zerolog.Nop(),
	}
	return e
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (e *env) basePayload() billing.Payload {
	alice := e.alice.String()
	bob := e.bob.String()
	return billing.Payload{
		CustomerID: e.regular.String(),
		InvoiceServices: []billing.ServiceLine{
			{ServiceID: e.haircut.String(), Quantity: 1, StaffID: &alice},
			{ServiceID: e.haircut.String(), Quantity: 1, StaffID: &bob},
		},
		InvoiceProducts: []billing.ProductLine{
			{ProductID: e.wax.String(), Quantity: 1, StaffID: &bob},
		},
		DiscountType:  billing.DiscountPercentage,
		DiscountValue: dec("10"),
		TipAmount:     dec("5"),
		PaymentMethod: "cash",
	}
}

func TestCreateRecomputesAmountsServerSide(t *testing.T) {
	e := newEnv(t)
	payload := e.basePayload()
	// client-sent totals are garbage on purpose
	payload.Subtotal = dec("1")
	payload.Total = dec("1")
	payload.Tax = dec("99")

	inv, err := e.svc.Create(context.Background(), payload)
	require.NoError(t, err)

	// 2x25.00 + 12.50 = 62.50; 10% discount = 6.25; 7.5% of 56.25 = 4.22
	require.True(t, inv.Subtotal.Equal(dec("62.50")), inv.Subtotal.String())
	require.True(t, inv.DiscountAmount.Equal(dec("6.25")), inv.DiscountAmount.String())
	require.True(t, inv.TaxAmount.Equal(dec("4.22")), inv.TaxAmount.String())
	require.True(t, inv.Total.Equal(dec("65.47")), inv.Total.String())
	require.Len(t, inv.InvoiceServices, 2)
	require.Len(t, inv.InvoiceProducts, 1)
	require.Equal(t, "Haircut", inv.InvoiceServices[0].ServiceName)
	require.NotEmpty(t, inv.ID)

	stored := e.store.invoices[uuid.MustParse(inv.ID)]
	require.True(t, stored.Total.Equal(dec("65.47")))
	require.Len(t, e.store.lines[uuid.MustParse(inv.ID)], 3)
}

func TestCreateNewCustomerInsideSubmission(t *testing.T) {
	e := newEnv(t)
	payload := e.basePayload()
	payload.CustomerID = ""
	payload.IsNewCustomer = true
	payload.CustomerDetails = &billing.CustomerDetails{Name: "Walk In", Phone: "0899"}

	inv, err := e.svc.Create(context.Background(), payload)
	require.NoError(t, err)

	stored := e.store.invoices[uuid.MustParse(inv.ID)]
	require.NotNil(t, stored.CustomerID)
	created, ok := e.store.customers.customers[*stored.CustomerID]
	require.True(t, ok)
	require.Equal(t, "Walk In", created.Name)
}

func TestCreateGuestHasNoCustomerLink(t *testing.T) {
	e := newEnv(t)
	payload := e.basePayload()
	payload.CustomerID = billing.GuestCustomerID

	inv, err := e.svc.Create(context.Background(), payload)
	require.NoError(t, err)
	require.Nil(t, e.store.invoices[uuid.MustParse(inv.ID)].CustomerID)
}

func TestCreateRejectsUnknownReferences(t *testing.T) {
	e := newEnv(t)

	cases := []struct {
		name   string
		mutate func(*billing.Payload)
		code   string
	}{
		{"unknown service", func(p *billing.Payload) {
			p.InvoiceServices[0].ServiceID = uuid.NewString()
		}, common.CodeServiceInvalid},
		{"unknown product", func(p *billing.Payload) {
			p.InvoiceProducts[0].ProductID = uuid.NewString()
		}, common.CodeProductInvalid},
		{"unknown staff", func(p *billing.Payload) {
			ghost := uuid.NewString()
			p.InvoiceServices[0].StaffID = &ghost
		}, common.CodeStaffInvalid},
		{"unknown customer", func(p *billing.Payload) {
			p.CustomerID = uuid.NewString()
		}, common.CodeCustomerInvalid},
		{"malformed service id", func(p *billing.Payload) {
			p.InvoiceServices[0].ServiceID = "nope"
		}, common.CodeServiceInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := e.basePayload()
			tc.mutate(&payload)
			_, err := e.svc.Create(context.Background(), payload)
			require.Error(t, err)
			var appErr *common.AppError
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, tc.code, appErr.Code)
		})
	}
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	e := newEnv(t)
	payload := e.basePayload()
	payload.InvoiceServices = nil

	_, err := e.svc.Create(context.Background(), payload)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)
}

func TestUpdateKeepsCustomerAndReprices(t *testing.T) {
	e := newEnv(t)
	created, err := e.svc.Create(context.Background(), e.basePayload())
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	edit := e.basePayload()
	// attempt to reassign the invoice to a guest is ignored
	edit.CustomerID = billing.GuestCustomerID
	alice := e.alice.String()
	edit.InvoiceServices = []billing.ServiceLine{
		{ServiceID: e.coloring.String(), Quantity: 1, StaffID: &alice},
	}
	edit.InvoiceProducts = nil
	edit.DiscountType = billing.DiscountNone
	edit.DiscountValue = decimal.Zero
	edit.TipAmount = decimal.Zero

	updated, err := e.svc.Update(context.Background(), id, edit)
	require.NoError(t, err)

	// 80.00 + 7.5% tax = 86.00
	require.True(t, updated.Total.Equal(dec("86.00")), updated.Total.String())
	stored := e.store.invoices[id]
	require.NotNil(t, stored.CustomerID)
	require.Equal(t, e.regular, *stored.CustomerID)
	require.Len(t, e.store.lines[id], 1)
}

func TestGetRoundTripsThroughDraftMapper(t *testing.T) {
	e := newEnv(t)
	created, err := e.svc.Create(context.Background(), e.basePayload())
	require.NoError(t, err)

	got, err := e.svc.Get(context.Background(), uuid.MustParse(created.ID))
	require.NoError(t, err)
	require.True(t, got.Total.Equal(created.Total))
	require.Len(t, got.InvoiceServices, 2)

	// a reopened invoice must rebuild into a draft that reprices identically
	draft := billing.DraftFromWire(got.Payload)
	require.NoError(t, draft.Validate())
}

func TestGetUnknownInvoiceIs404(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Get(context.Background(), uuid.New())
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeNotFound, appErr.Code)
}
