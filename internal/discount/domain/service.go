package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/folio/internal/money"
)

// Resolver looks up the discount referenced by an invoice item. A nil
// result with a nil error means the reference did not resolve.
type Resolver interface {
	ResolveByID(ctx context.Context, orgID, id snowflake.ID) (*Discount, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Disable(ctx context.Context, id string) (*Response, error)
}

type ListRequest struct {
	Name      string
	IsEnabled *bool
	SortBy    string
	OrderBy   string
}

type CreateRequest struct {
	Name       string       `json:"name"`
	Kind       DiscountKind `json:"kind"`
	PercentOff float64      `json:"percent_off"`
	AmountOff  money.Money  `json:"amount_off"`
	IsEnabled  *bool        `json:"is_enabled"`
}

type Response struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organization_id"`
	Name           string       `json:"name"`
	Kind           DiscountKind `json:"kind"`
	PercentOff     float64      `json:"percent_off,omitempty"`
	AmountOff      money.Money  `json:"amount_off,omitempty"`
	IsEnabled      bool         `json:"is_enabled"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
