// Package paymentlink talks to the external payment link provider. A
// link is issued exactly once per finalization; the invoice service owns
// ordering and rollback.
package paymentlink

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/folio/internal/money"
)

// PaymentLink is the provider's handle for collecting an invoice.
type PaymentLink struct {
	ID  string
	URL string
}

// IssueRequest carries everything the provider needs to build a hosted
// payment page. Amount is in minor units.
type IssueRequest struct {
	InvoiceID     snowflake.ID
	OrgID         snowflake.ID
	InvoiceNumber string
	Currency      string
	Amount        money.Money
	ReturnURL     string
}

// Issuer creates payment links. Implementations must be safe for
// concurrent use.
type Issuer interface {
	Issue(ctx context.Context, req IssueRequest) (PaymentLink, error)
}

// ProviderError wraps a failure from the external provider so callers
// can distinguish it from local validation errors.
type ProviderError struct {
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("payment_link_provider_failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("payment_link_provider_failed: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
