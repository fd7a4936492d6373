package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/folio/internal/money"
	"github.com/smallbiznis/folio/pkg/db/pagination"
)

// ItemInput is a caller-supplied line, validated before it reaches the
// calculation engine.
type ItemInput struct {
	Description string         `json:"description"`
	Quantity    int64          `json:"quantity"`
	UnitAmount  money.Money    `json:"unit_amount"`
	TaxRateID   *snowflake.ID  `json:"tax_rate_id,omitempty,string"`
	DiscountID  *snowflake.ID  `json:"discount_id,omitempty,string"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type CreateInvoiceRequest struct {
	CustomerID  *snowflake.ID
	Currency    string
	Description string
	Items       []ItemInput
	Metadata    map[string]any
}

type ListInvoiceRequest struct {
	pagination.Pagination

	Status      *InvoiceStatus
	CustomerID  *snowflake.ID
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

// Service is the lifecycle entry point. Every method loads the aggregate,
// applies the engine, and persists the result; the engine itself holds no
// state.
type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error)
	GetByID(ctx context.Context, id string) (*Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)

	// ReplaceItems swaps the draft's line items and recomputes totals.
	// Rejected with IllegalTransitionError outside draft.
	ReplaceItems(ctx context.Context, id string, items []ItemInput) (*Invoice, error)

	// Finalize issues a payment link and moves draft -> open. Issuer
	// failure leaves the document in draft with no link stored.
	Finalize(ctx context.Context, id string) (*Invoice, error)

	MarkPaid(ctx context.Context, id string) (*Invoice, error)
	Void(ctx context.Context, id string) (*Invoice, error)
	MarkUncollectible(ctx context.Context, id string) (*Invoice, error)

	// Recalculate recomputes totals through the same path as item edits.
	// On a draft it persists the refreshed totals; on any other status it
	// verifies the stored totals are still reproducible.
	Recalculate(ctx context.Context, id string) (*Invoice, error)
}
