package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	discountdomain "github.com/smallbiznis/folio/internal/discount/domain"
	invoicedomain "github.com/smallbiznis/folio/internal/invoice/domain"
	"github.com/smallbiznis/folio/internal/money"
	taxdomain "github.com/smallbiznis/folio/internal/tax/domain"
)

func exclusiveRate(rate float64) *taxdomain.TaxDefinition {
	return &taxdomain.TaxDefinition{Name: "VAT", TaxMode: taxdomain.TaxModeExclusive, Rate: rate, IsEnabled: true}
}

func inclusiveRate(rate float64) *taxdomain.TaxDefinition {
	return &taxdomain.TaxDefinition{Name: "VAT", TaxMode: taxdomain.TaxModeInclusive, Rate: rate, IsEnabled: true}
}

func item(qty int64, unit money.Money) invoicedomain.InvoiceItem {
	return invoicedomain.InvoiceItem{Quantity: qty, UnitAmount: unit}
}

func TestCalculateLine(t *testing.T) {
	tests := []struct {
		name string
		in   LineInput
		want LineResult
	}{
		{
			name: "bare line",
			in:   LineInput{Item: item(3, 250)},
			want: LineResult{LineAmount: 750, TaxableAmount: 750},
		},
		{
			name: "exclusive tax 20 percent",
			in:   LineInput{Item: item(1, 10000), TaxRate: exclusiveRate(20)},
			want: LineResult{LineAmount: 10000, TaxableAmount: 10000, TaxAmount: 2000},
		},
		{
			name: "inclusive tax 20 percent extracts 1666",
			in:   LineInput{Item: item(1, 10000), TaxRate: inclusiveRate(20)},
			want: LineResult{LineAmount: 10000, TaxableAmount: 10000, TaxAmount: 1666, Inclusive: true},
		},
		{
			name: "fractional exclusive rate floors",
			in:   LineInput{Item: item(1, 999), TaxRate: exclusiveRate(7.25)},
			want: LineResult{LineAmount: 999, TaxableAmount: 999, TaxAmount: 72},
		},
		{
			name: "percentage discount before tax",
			in: LineInput{
				Item:     item(1, 10000),
				TaxRate:  exclusiveRate(20),
				Discount: &discountdomain.Discount{Kind: discountdomain.DiscountKindPercentage, PercentOff: 10},
			},
			want: LineResult{LineAmount: 10000, DiscountAmount: 1000, TaxableAmount: 9000, TaxAmount: 1800},
		},
		{
			name: "fixed discount larger than line is capped",
			in: LineInput{
				Item:     item(1, 500),
				Discount: &discountdomain.Discount{Kind: discountdomain.DiscountKindFixedAmount, AmountOff: 1000},
			},
			want: LineResult{LineAmount: 500, DiscountAmount: 500, TaxableAmount: 0},
		},
		{
			name: "full discount leaves zero tax",
			in: LineInput{
				Item:     item(1, 2000),
				TaxRate:  exclusiveRate(20),
				Discount: &discountdomain.Discount{Kind: discountdomain.DiscountKindPercentage, PercentOff: 100},
			},
			want: LineResult{LineAmount: 2000, DiscountAmount: 2000, TaxableAmount: 0, TaxAmount: 0},
		},
		{
			name: "zero rate",
			in:   LineInput{Item: item(2, 100), TaxRate: exclusiveRate(0)},
			want: LineResult{LineAmount: 200, TaxableAmount: 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateLine(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateLineOverflow(t *testing.T) {
	_, err := CalculateLine(LineInput{Item: item(1<<32, 1<<32)})
	assert.ErrorIs(t, err, money.ErrOverflow)
}

func TestCalculateTotalsExclusiveAddsTax(t *testing.T) {
	totals, lines, err := CalculateTotals(invoicedomain.InvoiceStatusDraft, []LineInput{
		{Item: item(1, 10000), TaxRate: exclusiveRate(20)},
	})
	require.NoError(t, err)
	require.Len(t, lines, 1)

	assert.Equal(t, money.Money(10000), totals.Subtotal)
	assert.Equal(t, money.Money(2000), totals.TaxTotal)
	assert.Equal(t, money.Money(12000), totals.Total)
	assert.Equal(t, totals.Total, totals.AmountDue)
}

func TestCalculateTotalsInclusiveDoesNotInflateTotal(t *testing.T) {
	totals, _, err := CalculateTotals(invoicedomain.InvoiceStatusDraft, []LineInput{
		{Item: item(1, 10000), TaxRate: inclusiveRate(20)},
	})
	require.NoError(t, err)

	assert.Equal(t, money.Money(10000), totals.Subtotal)
	assert.Equal(t, money.Money(1666), totals.TaxTotal)
	assert.Equal(t, money.Money(10000), totals.Total)
}

func TestCalculateTotalsMixedConventions(t *testing.T) {
	totals, _, err := CalculateTotals(invoicedomain.InvoiceStatusDraft, []LineInput{
		{Item: item(1, 10000), TaxRate: exclusiveRate(20)},
		{Item: item(1, 10000), TaxRate: inclusiveRate(20)},
		{Item: item(4, 500)},
	})
	require.NoError(t, err)

	assert.Equal(t, money.Money(22000), totals.Subtotal)
	assert.Equal(t, money.Money(3666), totals.TaxTotal)
	// 12000 exclusive line + 10000 inclusive line + 2000 untaxed.
	assert.Equal(t, money.Money(24000), totals.Total)
}

func TestCalculateTotalsDiscountTotal(t *testing.T) {
	totals, _, err := CalculateTotals(invoicedomain.InvoiceStatusDraft, []LineInput{
		{Item: item(1, 500), Discount: &discountdomain.Discount{Kind: discountdomain.DiscountKindFixedAmount, AmountOff: 1000}},
		{Item: item(1, 10000), Discount: &discountdomain.Discount{Kind: discountdomain.DiscountKindPercentage, PercentOff: 10}},
	})
	require.NoError(t, err)

	// The fixed discount is capped at the 500 line amount.
	assert.Equal(t, money.Money(1500), totals.DiscountTotal)
	assert.Equal(t, money.Money(9000), totals.Total)
	assert.GreaterOrEqual(t, int64(totals.Total), int64(0))
}

func TestCalculateTotalsAmountDueBinary(t *testing.T) {
	lines := []LineInput{{Item: item(1, 10000), TaxRate: exclusiveRate(20)}}

	open, _, err := CalculateTotals(invoicedomain.InvoiceStatusOpen, lines)
	require.NoError(t, err)
	assert.Equal(t, money.Money(12000), open.AmountDue)

	paid, _, err := CalculateTotals(invoicedomain.InvoiceStatusPaid, lines)
	require.NoError(t, err)
	assert.Equal(t, money.Money(0), paid.AmountDue)
	assert.Equal(t, money.Money(12000), paid.Total)
}

func TestCalculateTotalsEmpty(t *testing.T) {
	totals, lines, err := CalculateTotals(invoicedomain.InvoiceStatusDraft, nil)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Equal(t, Totals{}, totals)
}

func TestCalculateTotalsDeterministic(t *testing.T) {
	lines := []LineInput{
		{Item: item(3, 333), TaxRate: inclusiveRate(17.5)},
		{Item: item(7, 1299), TaxRate: exclusiveRate(8.875), Discount: &discountdomain.Discount{Kind: discountdomain.DiscountKindPercentage, PercentOff: 12.5}},
	}

	first, _, err := CalculateTotals(invoicedomain.InvoiceStatusDraft, lines)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, _, err := CalculateTotals(invoicedomain.InvoiceStatusDraft, lines)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestApplyTotals(t *testing.T) {
	inv := &invoicedomain.Invoice{Status: invoicedomain.InvoiceStatusDraft}
	ApplyTotals(inv, Totals{Subtotal: 100, DiscountTotal: 10, TaxTotal: 18, Total: 108, AmountDue: 108})

	assert.Equal(t, money.Money(100), inv.SubtotalAmount)
	assert.Equal(t, money.Money(10), inv.DiscountTotal)
	assert.Equal(t, money.Money(18), inv.TaxTotal)
	assert.Equal(t, money.Money(108), inv.TotalAmount)
	assert.Equal(t, money.Money(108), inv.AmountDue)
}
