// Package engine computes invoice totals and applies lifecycle
// transitions.
//
// Everything in this package is a pure function over in-memory values:
// no storage, no clock reads, no logging. Given the same items and the
// same resolved catalog, the output is bit-identical on every call.
package engine

import (
	discountdomain "github.com/smallbiznis/folio/internal/discount/domain"
	invoicedomain "github.com/smallbiznis/folio/internal/invoice/domain"
	"github.com/smallbiznis/folio/internal/money"
	taxdomain "github.com/smallbiznis/folio/internal/tax/domain"
)

// LineInput pairs an item with its already-resolved catalog definitions.
// A nil TaxRate or Discount means the reference did not resolve and the
// line is priced without it.
type LineInput struct {
	Item     invoicedomain.InvoiceItem
	TaxRate  *taxdomain.TaxDefinition
	Discount *discountdomain.Discount
}

// LineResult is one line's contribution to the document totals.
type LineResult struct {
	LineAmount     money.Money
	DiscountAmount money.Money
	TaxableAmount  money.Money
	TaxAmount      money.Money

	// Inclusive records the tax convention of the applied rate. Inclusive
	// tax is already embedded in TaxableAmount and must not be added to
	// the document total again.
	Inclusive bool
}

// TotalContribution is the line's share of the document total: the
// taxable amount plus exclusive tax. Inclusive tax is informational only.
func (r LineResult) TotalContribution() (money.Money, error) {
	if r.Inclusive {
		return r.TaxableAmount, nil
	}
	return money.Add(r.TaxableAmount, r.TaxAmount)
}

// Totals are the derived document-level amounts.
type Totals struct {
	Subtotal      money.Money
	DiscountTotal money.Money
	TaxTotal      money.Money
	Total         money.Money
	AmountDue     money.Money
}

// CalculateLine prices a single line.
//
//  1. lineAmount = unitAmount * quantity
//  2. discountAmount: percentage -> floor(lineAmount * pct / 100),
//     fixed -> min(value, lineAmount)
//  3. taxableAmount = lineAmount - discountAmount
//  4. taxAmount: inclusive -> floor(taxable * rate / (100 + rate)),
//     exclusive -> floor(taxable * rate / 100)
//
// The only failure mode is int64 overflow; zero rates, zero amounts, and
// 100% discounts fall out of the formulas without special cases.
func CalculateLine(in LineInput) (LineResult, error) {
	lineAmount, err := money.Multiply(in.Item.UnitAmount, in.Item.Quantity)
	if err != nil {
		return LineResult{}, err
	}

	var discountAmount money.Money
	if in.Discount != nil {
		switch in.Discount.Kind {
		case discountdomain.DiscountKindPercentage:
			discountAmount, err = money.PercentOf(lineAmount, money.RateToBasisPoints(in.Discount.PercentOff))
			if err != nil {
				return LineResult{}, err
			}
		case discountdomain.DiscountKindFixedAmount:
			discountAmount = money.Min(in.Discount.AmountOff, lineAmount)
		}
	}

	taxableAmount := money.SubtractCapped(lineAmount, discountAmount)

	var taxAmount money.Money
	inclusive := false
	if in.TaxRate != nil {
		bps := money.RateToBasisPoints(in.TaxRate.Rate)
		if in.TaxRate.Inclusive() {
			inclusive = true
			taxAmount, err = money.InclusivePortion(taxableAmount, bps)
		} else {
			taxAmount, err = money.PercentOf(taxableAmount, bps)
		}
		if err != nil {
			return LineResult{}, err
		}
	}

	return LineResult{
		LineAmount:     lineAmount,
		DiscountAmount: discountAmount,
		TaxableAmount:  taxableAmount,
		TaxAmount:      taxAmount,
		Inclusive:      inclusive,
	}, nil
}

// CalculateTotals aggregates all lines into document totals.
//
// taxTotal sums exclusive and inclusive-extracted amounts into one bucket
// as an informational breakdown; only exclusive tax is additive in the
// document total. amountDue is the full total until the document is paid,
// then zero.
func CalculateTotals(status invoicedomain.InvoiceStatus, lines []LineInput) (Totals, []LineResult, error) {
	var totals Totals
	results := make([]LineResult, 0, len(lines))

	for _, line := range lines {
		result, err := CalculateLine(line)
		if err != nil {
			return Totals{}, nil, err
		}
		results = append(results, result)

		if totals.Subtotal, err = money.Add(totals.Subtotal, result.LineAmount); err != nil {
			return Totals{}, nil, err
		}
		if totals.DiscountTotal, err = money.Add(totals.DiscountTotal, result.DiscountAmount); err != nil {
			return Totals{}, nil, err
		}
		if totals.TaxTotal, err = money.Add(totals.TaxTotal, result.TaxAmount); err != nil {
			return Totals{}, nil, err
		}

		contribution, err := result.TotalContribution()
		if err != nil {
			return Totals{}, nil, err
		}
		if totals.Total, err = money.Add(totals.Total, contribution); err != nil {
			return Totals{}, nil, err
		}
	}

	if status == invoicedomain.InvoiceStatusPaid {
		totals.AmountDue = 0
	} else {
		totals.AmountDue = totals.Total
	}

	return totals, results, nil
}

// ApplyTotals writes derived totals onto the aggregate. This is the only
// place the totals fields are assigned.
func ApplyTotals(inv *invoicedomain.Invoice, totals Totals) {
	inv.SubtotalAmount = totals.Subtotal
	inv.DiscountTotal = totals.DiscountTotal
	inv.TaxTotal = totals.TaxTotal
	inv.TotalAmount = totals.Total
	inv.AmountDue = totals.AmountDue
}
