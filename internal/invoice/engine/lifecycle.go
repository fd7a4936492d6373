package engine

import (
	"time"

	invoicedomain "github.com/smallbiznis/folio/internal/invoice/domain"
	"github.com/smallbiznis/folio/internal/paymentlink"
)

// EnsureEditable guards item mutation: only drafts accept item changes.
func EnsureEditable(inv *invoicedomain.Invoice, command string) error {
	if inv.Status != invoicedomain.InvoiceStatusDraft {
		return invoicedomain.NewIllegalTransition(command, inv.Status)
	}
	return nil
}

// EnsureOpenable checks the preconditions of finalization without
// mutating the document. Callers run this before contacting the payment
// link issuer so a doomed request never leaves the process.
func EnsureOpenable(inv *invoicedomain.Invoice) error {
	if inv.Status != invoicedomain.InvoiceStatusDraft {
		return invoicedomain.NewIllegalTransition("finalize", inv.Status)
	}
	if len(inv.Items) == 0 {
		return invoicedomain.ErrEmptyInvoice
	}
	return nil
}

// Open commits draft -> open with the issued payment link. The issuer
// call happens outside this package; by the time Open runs the side
// effect has already succeeded.
func Open(inv *invoicedomain.Invoice, link paymentlink.PaymentLink, number string, now time.Time, dueAt *time.Time) error {
	if err := EnsureOpenable(inv); err != nil {
		return err
	}
	inv.Status = invoicedomain.InvoiceStatusOpen
	inv.InvoiceNumber = &number
	inv.PaymentLinkID = &link.ID
	inv.PaymentLinkURL = &link.URL
	inv.FinalizedAt = &now
	inv.DueAt = dueAt
	return nil
}

// MarkPaid commits open -> paid and zeroes the amount due.
func MarkPaid(inv *invoicedomain.Invoice, now time.Time) error {
	if inv.Status != invoicedomain.InvoiceStatusOpen {
		return invoicedomain.NewIllegalTransition("pay", inv.Status)
	}
	inv.Status = invoicedomain.InvoiceStatusPaid
	inv.PaidAt = &now
	inv.AmountDue = 0
	return nil
}

// Void commits draft -> void or open -> void.
func Void(inv *invoicedomain.Invoice, now time.Time) error {
	switch inv.Status {
	case invoicedomain.InvoiceStatusDraft, invoicedomain.InvoiceStatusOpen:
	default:
		return invoicedomain.NewIllegalTransition("void", inv.Status)
	}
	inv.Status = invoicedomain.InvoiceStatusVoid
	inv.VoidedAt = &now
	return nil
}

// MarkUncollectible commits open -> uncollectible. The amount due stays
// as-is; the debt is written off, not settled.
func MarkUncollectible(inv *invoicedomain.Invoice) error {
	if inv.Status != invoicedomain.InvoiceStatusOpen {
		return invoicedomain.NewIllegalTransition("mark_uncollectible", inv.Status)
	}
	inv.Status = invoicedomain.InvoiceStatusUncollectible
	return nil
}
