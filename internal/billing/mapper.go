package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ServiceLine is the wire shape of one aggregated service row.
type ServiceLine struct {
	ServiceID   string          `json:"service_id"`
	ServiceName string          `json:"service_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
	StaffID     *string         `json:"staff_id"`
	StaffName   *string         `json:"staff_name"`
}

// ProductLine is the wire shape of one aggregated product row.
type ProductLine struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
	StaffID     *string         `json:"staff_id"`
	StaffName   *string         `json:"staff_name"`
}

// Payload is the invoice wire shape the backend accepts on create. Edit
// uses the same shape minus the customer subsection.
type Payload struct {
	CustomerID      string           `json:"customer_id,omitempty"`
	IsNewCustomer   bool             `json:"is_new_customer,omitempty"`
	CustomerDetails *CustomerDetails `json:"customer_details,omitempty"`

	StaffID   string `json:"staff_id,omitempty"`
	StaffName string `json:"staff_name,omitempty"`

	InvoiceServices []ServiceLine `json:"invoiceServices"`
	InvoiceProducts []ProductLine `json:"invoiceProducts"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountType   DiscountType    `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Tax            decimal.Decimal `json:"tax"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TaxComponents  []TaxComponent  `json:"tax_components,omitempty"`
	TipAmount      decimal.Decimal `json:"tip_amount"`
	Total          decimal.Decimal `json:"total"`
	PaymentMethod  string          `json:"payment_method"`
	Notes          string          `json:"notes,omitempty"`
}

// BuildPayload maps a validated draft to the wire shape: every line is
// expanded into units and re-merged against the loaded catalog, and all
// derived amounts are recomputed from scratch.
func BuildPayload(draft *InvoiceDraft, catalog CatalogLookup, staff StaffLookup) (Payload, error) {
	if err := draft.Validate(); err != nil {
		return Payload{}, err
	}

	serviceLines := mergeDrafts(draft.Services, catalog, staff)
	productLines := mergeDrafts(draft.Products, catalog, staff)

	result := Price(PriceInput{
		ServicesSubtotal: SubtotalOf(serviceLines),
		ProductsSubtotal: SubtotalOf(productLines),
		DiscountType:     draft.DiscountType,
		DiscountValue:    draft.DiscountValue,
		TaxRate:          draft.TaxRate,
		TaxComponents:    draft.TaxComponents,
		TipAmount:        draft.TipAmount,
	})

	p := Payload{
		InvoiceServices: toServiceLines(serviceLines),
		InvoiceProducts: toProductLines(productLines),
		Subtotal:        result.Subtotal,
		DiscountType:    normalizeDiscountType(draft.DiscountType),
		DiscountValue:   draft.DiscountValue.Round(2),
		DiscountAmount:  result.DiscountAmount,
		Tax:             draft.TaxRate,
		TaxAmount:       result.TaxAmount,
		TaxComponents:   result.TaxComponents,
		TipAmount:       result.TipAmount,
		Total:           result.Total,
		PaymentMethod:   draft.PaymentMethod,
		Notes:           draft.Notes,
	}

	switch {
	case draft.NewCustomer != nil:
		p.IsNewCustomer = true
		details := *draft.NewCustomer
		p.CustomerDetails = &details
	case draft.Guest:
		p.CustomerID = GuestCustomerID
	default:
		p.CustomerID = draft.CustomerID
	}

	if id, name := primaryStaff(serviceLines, productLines); id != "" {
		p.StaffID = id
		p.StaffName = name
	}
	return p, nil
}

// DraftFromWire reconstructs an editable draft from a persisted invoice.
// Each persisted line already carries its own staff id and quantity; the
// lines are expanded back into unit entries and regrouped by item id alone
// so one LineItemDraft per distinct item comes out, with a staff slot per
// unit. Re-merging that draft reproduces the persisted lines up to order.
func DraftFromWire(p Payload) *InvoiceDraft {
	draft := NewDraft()
	draft.DiscountType = normalizeDiscountType(p.DiscountType)
	draft.DiscountValue = p.DiscountValue
	draft.TipAmount = p.TipAmount
	draft.PaymentMethod = p.PaymentMethod
	draft.TaxRate = p.Tax
	draft.Notes = p.Notes
	if len(p.TaxComponents) > 0 {
		draft.TaxComponents = make([]TaxComponent, len(p.TaxComponents))
		copy(draft.TaxComponents, p.TaxComponents)
	}

	switch {
	case p.IsNewCustomer && p.CustomerDetails != nil:
		draft.UseNewCustomer(*p.CustomerDetails)
	case p.CustomerID == GuestCustomerID:
		draft.UseGuest()
	case p.CustomerID != "":
		draft.UseExistingCustomer(p.CustomerID)
	}

	for _, line := range p.InvoiceServices {
		regroup(draft, KindService, line.ServiceID, line.Quantity, line.StaffID)
	}
	for _, line := range p.InvoiceProducts {
		regroup(draft, KindProduct, line.ProductID, line.Quantity, line.StaffID)
	}
	return draft
}

func regroup(draft *InvoiceDraft, kind ItemKind, itemID string, quantity int, staffID *string) {
	if itemID == "" || quantity < 1 {
		return
	}
	staff := ""
	if staffID != nil {
		staff = *staffID
	}
	line := draft.find(kind, itemID)
	if line == nil {
		draft.Select(kind, itemID)
		line = draft.find(kind, itemID)
		line.StaffIDs[0] = staff
		quantity--
	}
	for i := 0; i < quantity; i++ {
		line.IncrementQuantity()
		line.StaffIDs[len(line.StaffIDs)-1] = staff
	}
}

func mergeDrafts(lines []LineItemDraft, catalog CatalogLookup, staff StaffLookup) []MergedLine {
	var entries []UnitEntry
	for _, line := range lines {
		entries = append(entries, Expand(line)...)
	}
	return Merge(entries, catalog, staff)
}

func toServiceLines(merged []MergedLine) []ServiceLine {
	out := make([]ServiceLine, 0, len(merged))
	for _, m := range merged {
		out = append(out, ServiceLine{
			ServiceID:   m.ItemID,
			ServiceName: m.ItemName,
			Price:       m.Price,
			Quantity:    m.Quantity,
			Total:       m.Total,
			StaffID:     nullable(m.StaffID),
			StaffName:   nullable(m.StaffName),
		})
	}
	return out
}

func toProductLines(merged []MergedLine) []ProductLine {
	out := make([]ProductLine, 0, len(merged))
	for _, m := range merged {
		out = append(out, ProductLine{
			ProductID:   m.ItemID,
			ProductName: m.ItemName,
			Price:       m.Price,
			Quantity:    m.Quantity,
			Total:       m.Total,
			StaffID:     nullable(m.StaffID),
			StaffName:   nullable(m.StaffName),
		})
	}
	return out
}

func primaryStaff(services []MergedLine, products []MergedLine) (string, string) {
	for _, l := range services {
		if l.StaffID != "" {
			return l.StaffID, l.StaffName
		}
	}
	for _, l := range products {
		if l.StaffID != "" {
			return l.StaffID, l.StaffName
		}
	}
	return "", ""
}

func normalizeDiscountType(t DiscountType) DiscountType {
	switch DiscountType(strings.ToLower(string(t))) {
	case DiscountPercentage:
		return DiscountPercentage
	case DiscountFixed:
		return DiscountFixed
	default:
		return DiscountNone
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
