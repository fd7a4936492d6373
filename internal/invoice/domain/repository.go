package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/folio/pkg/db/option"
)

// Repository persists the invoice aggregate. The engine never touches
// storage; services load the prior state and save the engine's result.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, orgID, id snowflake.ID) (*Invoice, error)
	Find(ctx context.Context, filter *Invoice, opts ...option.QueryOption) ([]*Invoice, error)

	// ReplaceItems deletes and re-inserts the draft's items together with
	// the recomputed totals, in one transaction.
	ReplaceItems(ctx context.Context, inv *Invoice) error

	// Save persists header fields and totals (not items).
	Save(ctx context.Context, inv *Invoice) error

	// TransitionStatus performs a compare-and-swap on the status column.
	// It returns ErrConcurrentTransition when the row no longer holds the
	// expected prior status.
	TransitionStatus(ctx context.Context, inv *Invoice, from InvoiceStatus) error
}
