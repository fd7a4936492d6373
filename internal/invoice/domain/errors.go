package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")

	ErrInvalidCurrency   = errors.New("invalid_currency")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidUnitAmount = errors.New("invalid_unit_amount")

	// ErrEmptyInvoice rejects finalizing a draft with no items.
	ErrEmptyInvoice = errors.New("empty_invoice")

	// Strict-reference failures. Only returned when
	// invoicing.strictReferences is enabled; the default policy treats an
	// unresolved reference as "not applicable".
	ErrUnresolvedTaxRate  = errors.New("unresolved_tax_rate")
	ErrUnresolvedDiscount = errors.New("unresolved_discount")

	// ErrConcurrentTransition reports that another request changed the
	// invoice status between load and commit.
	ErrConcurrentTransition = errors.New("concurrent_transition")

	// ErrTotalsMismatch reports that a verification recalculation produced
	// different totals than the stored ones. Finalized documents are frozen
	// so this indicates catalog drift or data corruption.
	ErrTotalsMismatch = errors.New("totals_mismatch")
)

// IllegalTransitionError rejects a lifecycle command issued against a
// document whose state does not permit it. State is left unchanged.
type IllegalTransitionError struct {
	Command string
	Status  InvoiceStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal_transition: cannot %s invoice in status %s", e.Command, e.Status)
}

// NewIllegalTransition builds an IllegalTransitionError for a command.
func NewIllegalTransition(command string, status InvoiceStatus) error {
	return &IllegalTransitionError{Command: command, Status: status}
}

// IsIllegalTransition reports whether err is a lifecycle guard rejection.
func IsIllegalTransition(err error) bool {
	var target *IllegalTransitionError
	return errors.As(err, &target)
}
