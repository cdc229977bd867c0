package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-salon/internal/billing"
	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/obs"
	"github.com/noah-isme/backend-salon/internal/repo"
)

type catalogReader interface {
	GetService(ctx context.Context, id uuid.UUID) (repo.ServiceRecord, error)
	GetProduct(ctx context.Context, id uuid.UUID) (repo.ProductRecord, error)
}

type staffReader interface {
	Get(ctx context.Context, id uuid.UUID) (repo.StaffRecord, error)
}

type customerReader interface {
	Get(ctx context.Context, id uuid.UUID) (repo.CustomerRecord, error)
}

// TaxDefaults carries the server-configured tax setup. Client-submitted tax
// figures are never trusted; every invoice is priced against these.
type TaxDefaults struct {
	Rate       decimal.Decimal
	Components []billing.TaxComponent
}

// Invoice is the wire shape of a stored invoice.
type Invoice struct {
	ID string `json:"id"`
	billing.Payload
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the condensed list-row shape.
type Summary struct {
	ID            string          `json:"id"`
	CustomerID    *string         `json:"customer_id"`
	StaffID       *string         `json:"staff_id"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Service validates, prices, and persists invoice submissions.
type Service struct {
	Store     Store
	Catalog   catalogReader
	Staff     staffReader
	Customers customerReader
	Tax       TaxDefaults
	Logger    zerolog.Logger
}

// Create validates and persists a new invoice from a client payload. All
// derived amounts are recomputed server-side.
func (s *Service) Create(ctx context.Context, in billing.Payload) (Invoice, error) {
	draft := billing.DraftFromWire(in)
	s.applyTax(draft)

	lookups, err := s.loadLookups(ctx, draft)
	if err != nil {
		countSubmission("create", "rejected")
		return Invoice{}, err
	}
	payload, err := billing.BuildPayload(draft, lookups.catalog, lookups.staff)
	if err != nil {
		countSubmission("create", "rejected")
		return Invoice{}, mapDraftError(err)
	}

	rec, err := headerRecord(payload)
	if err != nil {
		countSubmission("create", "rejected")
		return Invoice{}, err
	}
	lines, err := lineRecords(payload)
	if err != nil {
		countSubmission("create", "rejected")
		return Invoice{}, err
	}

	var newCustomer *repo.CustomerRecord
	switch {
	case payload.IsNewCustomer && payload.CustomerDetails != nil:
		newCustomer = &repo.CustomerRecord{
			Name:  payload.CustomerDetails.Name,
			Phone: payload.CustomerDetails.Phone,
		}
		if payload.CustomerDetails.Email != "" {
			email := payload.CustomerDetails.Email
			newCustomer.Email = &email
		}
	case payload.CustomerID != "" && payload.CustomerID != billing.GuestCustomerID:
		id, err := uuid.Parse(payload.CustomerID)
		if err != nil {
			countSubmission("create", "rejected")
			return Invoice{}, invalidRef(common.CodeCustomerInvalid, "customer id is not a valid UUID")
		}
		if _, err := s.Customers.Get(ctx, id); err != nil {
			countSubmission("create", "rejected")
			if errors.Is(err, repo.ErrNotFound) {
				return Invoice{}, invalidRef(common.CodeCustomerInvalid, "customer does not exist")
			}
			return Invoice{}, fmt.Errorf("resolve customer: %w", err)
		}
		rec.CustomerID = &id
	}

	stored, err := s.Store.CreateInvoice(ctx, rec, lines, newCustomer)
	if err != nil {
		countSubmission("create", "failed")
		return Invoice{}, mapStoreError(err)
	}

	countSubmission("create", "accepted")
	if obs.InvoiceTotalAmount != nil {
		amount, _ := stored.Total.Float64()
		obs.InvoiceTotalAmount.WithLabelValues(stored.PaymentMethod).Observe(amount)
	}
	s.Logger.Info().
		Str("invoice_id", stored.ID.String()).
		Str("payment_method", stored.PaymentMethod).
		Str("total", stored.Total.StringFixed(2)).
		Msg("invoice created")
	return s.toInvoice(stored, payload), nil
}

// Update reprices and rewrites an existing invoice. The customer link is
// immutable on edit; customer fields in the payload are ignored.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in billing.Payload) (Invoice, error) {
	existing, _, err := s.Store.GetInvoice(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Invoice{}, &common.AppError{Code: common.CodeNotFound, Message: "invoice not found", HTTPStatus: http.StatusNotFound}
		}
		return Invoice{}, fmt.Errorf("load invoice: %w", err)
	}

	draft := billing.DraftFromWire(in)
	s.applyTax(draft)
	// edit never changes who the invoice belongs to
	if existing.CustomerID != nil {
		draft.UseExistingCustomer(existing.CustomerID.String())
	} else {
		draft.UseGuest()
	}

	lookups, err := s.loadLookups(ctx, draft)
	if err != nil {
		countSubmission("update", "rejected")
		return Invoice{}, err
	}
	payload, err := billing.BuildPayload(draft, lookups.catalog, lookups.staff)
	if err != nil {
		countSubmission("update", "rejected")
		return Invoice{}, mapDraftError(err)
	}

	rec, err := headerRecord(payload)
	if err != nil {
		countSubmission("update", "rejected")
		return Invoice{}, err
	}
	rec.ID = existing.ID
	rec.CustomerID = existing.CustomerID
	lines, err := lineRecords(payload)
	if err != nil {
		countSubmission("update", "rejected")
		return Invoice{}, err
	}

	stored, err := s.Store.UpdateInvoice(ctx, rec, lines)
	if err != nil {
		countSubmission("update", "failed")
		return Invoice{}, mapStoreError(err)
	}
	countSubmission("update", "accepted")
	return s.toInvoice(stored, payload), nil
}

// Get returns a stored invoice in wire shape. The payload it carries round
// trips through the draft mapper, so clients can reopen it for editing.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Invoice, error) {
	rec, lines, err := s.Store.GetInvoice(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Invoice{}, &common.AppError{Code: common.CodeNotFound, Message: "invoice not found", HTTPStatus: http.StatusNotFound}
		}
		return Invoice{}, fmt.Errorf("load invoice: %w", err)
	}
	payload, err := payloadFromRecords(rec, lines)
	if err != nil {
		return Invoice{}, err
	}
	return s.toInvoice(rec, payload), nil
}

// List returns invoice summaries with the total count.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Summary, int64, error) {
	total, err := s.Store.CountInvoices(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	rows, err := s.Store.ListInvoices(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	out := make([]Summary, 0, len(rows))
	for _, rec := range rows {
		sum := Summary{
			ID:            rec.ID.String(),
			Total:         rec.Total,
			PaymentMethod: rec.PaymentMethod,
			CreatedAt:     rec.CreatedAt,
		}
		if rec.CustomerID != nil {
			id := rec.CustomerID.String()
			sum.CustomerID = &id
		}
		if rec.StaffID != nil {
			id := rec.StaffID.String()
			sum.StaffID = &id
		}
		out = append(out, sum)
	}
	return out, total, nil
}

func (s *Service) applyTax(draft *billing.InvoiceDraft) {
	draft.TaxRate = s.Tax.Rate
	draft.TaxComponents = nil
	if len(s.Tax.Components) > 0 {
		draft.TaxComponents = draft.EffectiveTaxComponents(s.Tax.Components)
	}
}

type lookupSet struct {
	catalog billing.CatalogLookup
	staff   billing.StaffLookup
}

// loadLookups batch-resolves every item and staff reference in the draft so
// pricing runs against trusted catalog rows. A missing or malformed
// reference fails here with the matching error code rather than surfacing
// later as a constraint violation.
func (s *Service) loadLookups(ctx context.Context, draft *billing.InvoiceDraft) (lookupSet, error) {
	items := make(map[billing.ItemKind]map[string]billing.CatalogItem)
	items[billing.KindService] = make(map[string]billing.CatalogItem)
	items[billing.KindProduct] = make(map[string]billing.CatalogItem)
	staffNames := make(map[string]string)

	collect := func(lines []billing.LineItemDraft, kind billing.ItemKind) error {
		for _, line := range lines {
			if _, seen := items[kind][line.ItemID]; !seen {
				item, err := s.fetchItem(ctx, kind, line.ItemID)
				if err != nil {
					return err
				}
				items[kind][line.ItemID] = item
			}
			for _, staffID := range line.StaffIDs {
				if staffID == "" {
					continue
				}
				if _, seen := staffNames[staffID]; seen {
					continue
				}
				parsed, err := uuid.Parse(staffID)
				if err != nil {
					return invalidRef(common.CodeStaffInvalid, "staff id is not a valid UUID")
				}
				rec, err := s.Staff.Get(ctx, parsed)
				if err != nil {
					if errors.Is(err, repo.ErrNotFound) {
						return invalidRef(common.CodeStaffInvalid, "staff member does not exist")
					}
					return fmt.Errorf("resolve staff: %w", err)
				}
				staffNames[staffID] = rec.Name
			}
		}
		return nil
	}
	if err := collect(draft.Services, billing.KindService); err != nil {
		return lookupSet{}, err
	}
	if err := collect(draft.Products, billing.KindProduct); err != nil {
		return lookupSet{}, err
	}

	return lookupSet{
		catalog: func(kind billing.ItemKind, itemID string) (billing.CatalogItem, bool) {
			item, ok := items[kind][itemID]
			return item, ok
		},
		staff: func(staffID string) (string, bool) {
			name, ok := staffNames[staffID]
			return name, ok
		},
	}, nil
}

func (s *Service) fetchItem(ctx context.Context, kind billing.ItemKind, rawID string) (billing.CatalogItem, error) {
	code := common.CodeServiceInvalid
	noun := "service"
	if kind == billing.KindProduct {
		code = common.CodeProductInvalid
		noun = "product"
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return billing.CatalogItem{}, invalidRef(code, noun+" id is not a valid UUID")
	}
	if kind == billing.KindService {
		rec, err := s.Catalog.GetService(ctx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return billing.CatalogItem{}, invalidRef(code, noun+" does not exist")
			}
			return billing.CatalogItem{}, fmt.Errorf("resolve %s: %w", noun, err)
		}
		return billing.CatalogItem{ID: rawID, Name: rec.Name, Price: rec.Price}, nil
	}
	rec, err := s.Catalog.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return billing.CatalogItem{}, invalidRef(code, noun+" does not exist")
		}
		return billing.CatalogItem{}, fmt.Errorf("resolve %s: %w", noun, err)
	}
	return billing.CatalogItem{ID: rawID, Name: rec.Name, Price: rec.Price}, nil
}

func (s *Service) toInvoice(rec repo.InvoiceRecord, payload billing.Payload) Invoice {
	return Invoice{
		ID:        rec.ID.String(),
		Payload:   payload,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func headerRecord(p billing.Payload) (repo.InvoiceRecord, error) {
	rec := repo.InvoiceRecord{
		Subtotal:       p.Subtotal,
		DiscountType:   string(p.DiscountType),
		DiscountValue:  p.DiscountValue,
		DiscountAmount: p.DiscountAmount,
		TaxAmount:      p.TaxAmount,
		TipAmount:      p.TipAmount,
		Total:          p.Total,
		PaymentMethod:  p.PaymentMethod,
	}
	if p.Notes != "" {
		notes := p.Notes
		rec.Notes = &notes
	}
	if len(p.TaxComponents) > 0 {
		raw, err := json.Marshal(p.TaxComponents)
		if err != nil {
			return repo.InvoiceRecord{}, fmt.Errorf("encode tax components: %w", err)
		}
		rec.TaxComponents = raw
	}
	if p.StaffID != "" {
		id, err := uuid.Parse(p.StaffID)
		if err != nil {
			return repo.InvoiceRecord{}, invalidRef(common.CodeStaffInvalid, "staff id is not a valid UUID")
		}
		rec.StaffID = &id
	}
	return rec, nil
}

func lineRecords(p billing.Payload) ([]repo.InvoiceLineRecord, error) {
	out := make([]repo.InvoiceLineRecord, 0, len(p.InvoiceServices)+len(p.InvoiceProducts))
	for _, line := range p.InvoiceServices {
		id, err := uuid.Parse(line.ServiceID)
		if err != nil {
			return nil, invalidRef(common.CodeServiceInvalid, "service id is not a valid UUID")
		}
		rec := repo.InvoiceLineRecord{
			Kind:      string(billing.KindService),
			ServiceID: &id,
			ItemName:  line.ServiceName,
			Price:     line.Price,
			Quantity:  line.Quantity,
			Total:     line.Total,
			StaffName: line.StaffName,
		}
		if line.StaffID != nil && *line.StaffID != "" {
			staffID, err := uuid.Parse(*line.StaffID)
			if err != nil {
				return nil, invalidRef(common.CodeStaffInvalid, "staff id is not a valid UUID")
			}
			rec.StaffID = &staffID
		}
		out = append(out, rec)
	}
	for _, line := range p.InvoiceProducts {
		id, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, invalidRef(common.CodeProductInvalid, "product id is not a valid UUID")
		}
		rec := repo.InvoiceLineRecord{
			Kind:      string(billing.KindProduct),
			ProductID: &id,
			ItemName:  line.ProductName,
			Price:     line.Price,
			Quantity:  line.Quantity,
			Total:     line.Total,
			StaffName: line.StaffName,
		}
		if line.StaffID != nil && *line.StaffID != "" {
			staffID, err := uuid.Parse(*line.StaffID)
			if err != nil {
				return nil, invalidRef(common.CodeStaffInvalid, "staff id is not a valid UUID")
			}
			rec.StaffID = &staffID
		}
		out = append(out, rec)
	}
	return out, nil
}

// payloadFromRecords reconstructs the wire payload of a stored invoice.
func payloadFromRecords(rec repo.InvoiceRecord, lines []repo.InvoiceLineRecord) (billing.Payload, error) {
	p := billing.Payload{
		Subtotal:       rec.Subtotal,
		DiscountType:   billing.DiscountType(rec.DiscountType),
		DiscountValue:  rec.DiscountValue,
		DiscountAmount: rec.DiscountAmount,
		TaxAmount:      rec.TaxAmount,
		TipAmount:      rec.TipAmount,
		Total:          rec.Total,
		PaymentMethod:  rec.PaymentMethod,
	}
	if rec.Notes != nil {
		p.Notes = *rec.Notes
	}
	if len(rec.TaxComponents) > 0 {
		if err := json.Unmarshal(rec.TaxComponents, &p.TaxComponents); err != nil {
			return billing.Payload{}, fmt.Errorf("decode tax components: %w", err)
		}
	}
	if rec.CustomerID != nil {
		p.CustomerID = rec.CustomerID.String()
	} else {
		p.CustomerID = billing.GuestCustomerID
	}
	if rec.StaffID != nil {
		p.StaffID = rec.StaffID.String()
	}
	p.InvoiceServices = make([]billing.ServiceLine, 0)
	p.InvoiceProducts = make([]billing.ProductLine, 0)
	for _, line := range lines {
		var staffID *string
		if line.StaffID != nil {
			id := line.StaffID.String()
			staffID = &id
		}
		switch line.Kind {
		case string(billing.KindService):
			id := ""
			if line.ServiceID != nil {
				id = line.ServiceID.String()
			}
			p.InvoiceServices = append(p.InvoiceServices, billing.ServiceLine{
				ServiceID:   id,
				ServiceName: line.ItemName,
				Price:       line.Price,
				Quantity:    line.Quantity,
				Total:       line.Total,
				StaffID:     staffID,
				StaffName:   line.StaffName,
			})
		case string(billing.KindProduct):
			id := ""
			if line.ProductID != nil {
				id = line.ProductID.String()
			}
			p.InvoiceProducts = append(p.InvoiceProducts, billing.ProductLine{
				ProductID:   id,
				ProductName: line.ItemName,
				Price:       line.Price,
				Quantity:    line.Quantity,
				Total:       line.Total,
				StaffID:     staffID,
				StaffName:   line.StaffName,
			})
		}
	}
	return p, nil
}

func invalidRef(code, message string) error {
	return &common.AppError{Code: code, Message: message, HTTPStatus: http.StatusUnprocessableEntity}
}

// mapDraftError translates billing sentinel errors into API errors.
func mapDraftError(err error) error {
	switch {
	case errors.Is(err, billing.ErrNoServices),
		errors.Is(err, billing.ErrUnassignedStaff),
		errors.Is(err, billing.ErrCustomerUnresolved),
		errors.Is(err, billing.ErrPaymentMethodMissing):
		return &common.AppError{Code: common.CodeValidation, Message: err.Error(), HTTPStatus: http.StatusUnprocessableEntity, Err: err}
	default:
		return err
	}
}

// mapStoreError translates foreign key violations raised at persist time
// into the same reference error codes the pre-checks use. The pre-checks
// make these rare, but a row deleted between lookup and insert still lands
// here.
func mapStoreError(err error) error {
	switch constraint := repo.ForeignKeyConstraint(err); constraint {
	case "":
		return err
	case "invoices_customer_id_fkey":
		return invalidRef(common.CodeCustomerInvalid, "customer does not exist")
	case "invoices_staff_id_fkey", "invoice_lines_staff_id_fkey":
		return invalidRef(common.CodeStaffInvalid, "staff member does not exist")
	case "invoice_lines_service_id_fkey":
		return invalidRef(common.CodeServiceInvalid, "service does not exist")
	case "invoice_lines_product_id_fkey":
		return invalidRef(common.CodeProductInvalid, "product does not exist")
	default:
		return err
	}
}

func countSubmission(op, result string) {
	if obs.InvoiceSubmissionTotal != nil {
		obs.InvoiceSubmissionTotal.WithLabelValues(op, result).Inc()
	}
}
