package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountType selects how the invoice-level discount value is interpreted.
type DiscountType string

const (
	DiscountNone       DiscountType = "none"
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

var hundred = decimal.NewFromInt(100)

// TaxComponent is one named sub-rate of a multi-component (GST style) tax.
type TaxComponent struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// PriceInput carries everything the pricing computation depends on.
type PriceInput struct {
	ServicesSubtotal decimal.Decimal
	ProductsSubtotal decimal.Decimal
	DiscountType     DiscountType
	DiscountValue    decimal.Decimal
	// TaxRate is the flat percentage applied when no components are given.
	TaxRate decimal.Decimal
	// TaxComponents, when non-empty, replaces TaxRate: each component is
	// computed on the taxable amount independently and reported by name.
	TaxComponents []TaxComponent
	TipAmount     decimal.Decimal
}

// PricingResult is the derived money breakdown of an invoice. It is
// recomputed from its inputs and never stored on its own.
type PricingResult struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxableAmount  decimal.Decimal
	TaxAmount      decimal.Decimal
	TaxComponents  []TaxComponent
	TipAmount      decimal.Decimal
	Total          decimal.Decimal
}

// Price computes the full breakdown. A fixed discount larger than the
// subtotal is not clamped; the taxable amount goes negative and passes
// through.
func Price(in PriceInput) PricingResult {
	subtotal := in.ServicesSubtotal.Add(in.ProductsSubtotal).Round(2)

	discountValue := in.DiscountValue
	if discountValue.IsNegative() {
		discountValue = decimal.Zero
	}
	var discount decimal.Decimal
	switch in.DiscountType {
	case DiscountPercentage:
		discount = subtotal.Mul(discountValue).Div(hundred).Round(2)
	case DiscountFixed:
		discount = discountValue.Round(2)
	default:
		discount = decimal.Zero
	}

	taxable := subtotal.Sub(discount)

	var taxAmount decimal.Decimal
	var components []TaxComponent
	if len(in.TaxComponents) > 0 {
		components = make([]TaxComponent, 0, len(in.TaxComponents))
		for _, c := range in.TaxComponents {
			amount := taxable.Mul(c.Rate).Div(hundred).Round(2)
			components = append(components, TaxComponent{Name: c.Name, Rate: c.Rate, Amount: amount})
			taxAmount = taxAmount.Add(amount)
		}
	} else {
		taxAmount = taxable.Mul(in.TaxRate).Div(hundred).Round(2)
	}

	tip := in.TipAmount
	if tip.IsNegative() {
		tip = decimal.Zero
	}
	tip = tip.Round(2)

	return PricingResult{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxableAmount:  taxable.Round(2),
		TaxAmount:      taxAmount,
		TaxComponents:  components,
		TipAmount:      tip,
		Total:          taxable.Add(taxAmount).Add(tip).Round(2),
	}
}

// ParseAmount converts free-form numeric input into a decimal amount.
// Anything that does not parse (empty strings, stray characters, the NaN
// a browser produces from an empty number field) coerces to zero so bad
// input can never poison a computed total.
func ParseAmount(raw string) decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseRate parses a percentage rate with the same zero-on-garbage policy
// as ParseAmount, additionally clamping negatives to zero.
func ParseRate(raw string) decimal.Decimal {
	d := ParseAmount(raw)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
