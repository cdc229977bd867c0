package billing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// GuestCustomerID is the sentinel customer id the wire contract uses for
// walk-in sales without a customer record.
const GuestCustomerID = "guest-user"

var (
	// ErrNoServices is returned when a draft reaches submission without a single service line.
	ErrNoServices = errors.New("billing: at least one service is required")
	// ErrUnassignedStaff is returned while any unit slot still lacks a staff member.
	ErrUnassignedStaff = errors.New("billing: every unit must be assigned to a staff member")
	// ErrCustomerUnresolved is returned when none or more than one of the customer shapes is active.
	ErrCustomerUnresolved = errors.New("billing: exactly one of existing customer, new customer, or guest must be chosen")
	// ErrPaymentMethodMissing is returned when the payment step is confirmed without a method.
	ErrPaymentMethodMissing = errors.New("billing: payment method is required")
	// ErrLineNotFound is returned when a mutation targets an item that was never selected.
	ErrLineNotFound = errors.New("billing: line item not found")
)

// CustomerDetails is the inline form for a customer created together with
// the invoice.
type CustomerDetails struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// InvoiceDraft accumulates every selection of the POS wizard. One dialog
// owns one draft; nothing here is shared or persisted until submission.
type InvoiceDraft struct {
	CustomerID  string
	NewCustomer *CustomerDetails
	Guest       bool

	Services []LineItemDraft
	Products []LineItemDraft

	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	TipAmount     decimal.Decimal
	PaymentMethod string
	// TaxRate is the flat rate; TaxComponents overrides it when set.
	TaxRate       decimal.Decimal
	TaxComponents []TaxComponent
	Notes         string
}

// NewDraft returns an empty draft with no discount applied.
func NewDraft() *InvoiceDraft {
	return &InvoiceDraft{DiscountType: DiscountNone}
}

// Select adds a new line for an item, or bumps the quantity when the item
// is already selected.
func (d *InvoiceDraft) Select(kind ItemKind, itemID string) {
	lines := d.linesFor(kind)
	for i := range *lines {
		if (*lines)[i].ItemID == itemID {
			(*lines)[i].IncrementQuantity()
			return
		}
	}
	id := fmt.Sprintf("%s-%s-%d", kind, itemID, len(*lines))
	*lines = append(*lines, NewLineItemDraft(id, itemID, kind))
}

// Deselect removes the line for an item regardless of its quantity.
func (d *InvoiceDraft) Deselect(kind ItemKind, itemID string) {
	lines := d.linesFor(kind)
	for i := range *lines {
		if (*lines)[i].ItemID == itemID {
			*lines = append((*lines)[:i], (*lines)[i+1:]...)
			return
		}
	}
}

// Increment adds one unit to an existing line.
func (d *InvoiceDraft) Increment(kind ItemKind, itemID string) error {
	line := d.find(kind, itemID)
	if line == nil {
		return ErrLineNotFound
	}
	line.IncrementQuantity()
	return nil
}

// Decrement drops one unit; at quantity one the whole line is removed,
// matching deselection.
func (d *InvoiceDraft) Decrement(kind ItemKind, itemID string) error {
	line := d.find(kind, itemID)
	if line == nil {
		return ErrLineNotFound
	}
	if err := line.DecrementQuantity(); errors.Is(err, ErrLineRemoved) {
		d.Deselect(kind, itemID)
	}
	return nil
}

// AssignStaff assigns one unit slot of a line to a staff member.
func (d *InvoiceDraft) AssignStaff(kind ItemKind, itemID string, slot int, staffID string) error {
	line := d.find(kind, itemID)
	if line == nil {
		return ErrLineNotFound
	}
	return line.AssignStaff(slot, staffID)
}

// UseExistingCustomer selects a found customer record, clearing the other shapes.
func (d *InvoiceDraft) UseExistingCustomer(customerID string) {
	d.CustomerID = strings.TrimSpace(customerID)
	d.NewCustomer = nil
	d.Guest = false
}

// UseNewCustomer switches to the inline new-customer form.
func (d *InvoiceDraft) UseNewCustomer(details CustomerDetails) {
	d.NewCustomer = &details
	d.CustomerID = ""
	d.Guest = false
}

// UseGuest marks the sale as a walk-in without a customer record.
func (d *InvoiceDraft) UseGuest() {
	d.Guest = true
	d.CustomerID = ""
	d.NewCustomer = nil
}

// EffectiveTaxComponents merges local overrides over the fetched rates
// without mutating either slice.
func (d *InvoiceDraft) EffectiveTaxComponents(fetched []TaxComponent) []TaxComponent {
	if len(d.TaxComponents) == 0 {
		out := make([]TaxComponent, len(fetched))
		copy(out, fetched)
		return out
	}
	out := make([]TaxComponent, len(d.TaxComponents))
	copy(out, d.TaxComponents)
	return out
}

func (d *InvoiceDraft) linesFor(kind ItemKind) *[]LineItemDraft {
	if kind == KindProduct {
		return &d.Products
	}
	return &d.Services
}

func (d *InvoiceDraft) find(kind ItemKind, itemID string) *LineItemDraft {
	lines := d.linesFor(kind)
	for i := range *lines {
		if (*lines)[i].ItemID == itemID {
			return &(*lines)[i]
		}
	}
	return nil
}

func (d *InvoiceDraft) validateCustomer() error {
	chosen := 0
	if strings.TrimSpace(d.CustomerID) != "" {
		chosen++
	}
	if d.NewCustomer != nil {
		chosen++
	}
	if d.Guest {
		chosen++
	}
	if chosen != 1 {
		return ErrCustomerUnresolved
	}
	if d.NewCustomer != nil {
		if strings.TrimSpace(d.NewCustomer.Name) == "" || strings.TrimSpace(d.NewCustomer.Phone) == "" {
			return ErrCustomerUnresolved
		}
	}
	return nil
}

func (d *InvoiceDraft) validateServices() error {
	if len(d.Services) == 0 {
		return ErrNoServices
	}
	return nil
}

func (d *InvoiceDraft) validateStaff() error {
	for _, line := range d.Services {
		if line.Unassigned() > 0 {
			return ErrUnassignedStaff
		}
	}
	for _, line := range d.Products {
		if line.Unassigned() > 0 {
			return ErrUnassignedStaff
		}
	}
	return nil
}

func (d *InvoiceDraft) validatePayment() error {
	if strings.TrimSpace(d.PaymentMethod) == "" {
		return ErrPaymentMethodMissing
	}
	return nil
}

// Validate is the full pre-submission gate: every per-step check in wizard
// order. Product selection has no check of its own.
func (d *InvoiceDraft) Validate() error {
	if err := d.validateCustomer(); err != nil {
		return err
	}
	if err := d.validateServices(); err != nil {
		return err
	}
	if err := d.validateStaff(); err != nil {
		return err
	}
	return d.validatePayment()
}
