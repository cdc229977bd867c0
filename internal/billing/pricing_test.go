package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPriceSimpleInvoice(t *testing.T) {
	// One service at 40, no discount, 7.5% tax, tip 5.
	result := Price(PriceInput{
		ServicesSubtotal: dec("40"),
		DiscountType:     DiscountNone,
		TaxRate:          dec("7.5"),
		TipAmount:        dec("5"),
	})
	require.True(t, dec("40.00").Equal(result.Subtotal), "subtotal %s", result.Subtotal)
	require.True(t, result.DiscountAmount.IsZero())
	require.True(t, dec("3.00").Equal(result.TaxAmount), "tax %s", result.TaxAmount)
	require.True(t, dec("48.00").Equal(result.Total), "total %s", result.Total)
}

func TestPricePercentageDiscount(t *testing.T) {
	result := Price(PriceInput{
		ServicesSubtotal: dec("100"),
		ProductsSubtotal: dec("50"),
		DiscountType:     DiscountPercentage,
		DiscountValue:    dec("10"),
		TaxRate:          dec("5"),
	})
	require.True(t, dec("150.00").Equal(result.Subtotal))
	require.True(t, dec("15.00").Equal(result.DiscountAmount))
	require.True(t, dec("135.00").Equal(result.TaxableAmount))
	require.True(t, dec("6.75").Equal(result.TaxAmount))
	require.True(t, dec("141.75").Equal(result.Total))
}

func TestPriceFixedDiscountExceedingSubtotal(t *testing.T) {
	// The fixed discount is not clamped; a negative taxable amount is the
	// accepted behavior until product decides otherwise.
	result := Price(PriceInput{
		ServicesSubtotal: dec("50"),
		DiscountType:     DiscountFixed,
		DiscountValue:    dec("80"),
	})
	require.True(t, dec("-30.00").Equal(result.TaxableAmount), "taxable %s", result.TaxableAmount)
	require.True(t, dec("-30.00").Equal(result.Total))
}

func TestPriceTaxComponents(t *testing.T) {
	result := Price(PriceInput{
		ServicesSubtotal: dec("200"),
		TaxComponents: []TaxComponent{
			{Name: "CGST", Rate: dec("2.5")},
			{Name: "SGST", Rate: dec("2.5")},
		},
	})
	require.Len(t, result.TaxComponents, 2)
	require.True(t, dec("5.00").Equal(result.TaxComponents[0].Amount))
	require.True(t, dec("5.00").Equal(result.TaxComponents[1].Amount))
	require.True(t, dec("10.00").Equal(result.TaxAmount))
	require.True(t, dec("210.00").Equal(result.Total))

	summed := decimal.Zero
	for _, c := range result.TaxComponents {
		summed = summed.Add(c.Amount)
	}
	require.True(t, summed.Equal(result.TaxAmount))
}

func TestPriceDeterministic(t *testing.T) {
	in := PriceInput{
		ServicesSubtotal: dec("73.33"),
		ProductsSubtotal: dec("11.11"),
		DiscountType:     DiscountPercentage,
		DiscountValue:    dec("12.5"),
		TaxRate:          dec("18"),
		TipAmount:        dec("4.44"),
	}
	first := Price(in)
	for i := 0; i < 20; i++ {
		again := Price(in)
		require.True(t, first.Total.Equal(again.Total))
		require.True(t, first.TaxAmount.Equal(again.TaxAmount))
	}
	require.False(t, first.Subtotal.IsNegative())
	require.False(t, first.TaxAmount.IsNegative())
}

func TestPriceNegativeInputsClamped(t *testing.T) {
	result := Price(PriceInput{
		ServicesSubtotal: dec("10"),
		DiscountType:     DiscountFixed,
		DiscountValue:    dec("-5"),
		TipAmount:        dec("-3"),
	})
	require.True(t, result.DiscountAmount.IsZero())
	require.True(t, result.TipAmount.IsZero())
	require.True(t, dec("10.00").Equal(result.Total))
}

func TestParseAmountCoercesGarbageToZero(t *testing.T) {
	cases := []string{"", "   ", "not-a-number", "NaN", "12.3.4", "--5"}
	for _, raw := range cases {
		require.True(t, ParseAmount(raw).IsZero(), "input %q", raw)
	}
	require.True(t, dec("12.50").Equal(ParseAmount(" 12.50 ")))
	require.True(t, dec("-3").Equal(ParseAmount("-3")))
}

func TestParseRateClampsNegative(t *testing.T) {
	require.True(t, ParseRate("-7.5").IsZero())
	require.True(t, dec("7.5").Equal(ParseRate("7.5")))
	require.True(t, ParseRate("junk").IsZero())
}

func TestPriceNaNSafety(t *testing.T) {
	// Malformed numeric input enters through ParseAmount and must land as
	// zero in every field, never as a propagated NaN.
	result := Price(PriceInput{
		ServicesSubtotal: ParseAmount("oops"),
		DiscountType:     DiscountPercentage,
		DiscountValue:    ParseAmount("not-a-number"),
		TaxRate:          ParseRate(""),
		TipAmount:        ParseAmount("NaN"),
	})
	require.True(t, result.Subtotal.IsZero())
	require.True(t, result.DiscountAmount.IsZero())
	require.True(t, result.TaxAmount.IsZero())
	require.True(t, result.TipAmount.IsZero())
	require.True(t, result.Total.IsZero())
}
