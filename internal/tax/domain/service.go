package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Resolver looks up the tax definition referenced by an invoice item.
//
// A nil result with a nil error means the reference did not resolve; by
// default the calculator treats that as "no tax applies" rather than an
// error. Disabled definitions do not resolve.
type Resolver interface {
	ResolveByID(ctx context.Context, orgID, id snowflake.ID) (*TaxDefinition, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Disable(ctx context.Context, id string) (*Response, error)
}

type ListRequest struct {
	Name      string
	IsEnabled *bool
	SortBy    string
	OrderBy   string
}

type CreateRequest struct {
	Name        string   `json:"name"`
	TaxMode     TaxMode  `json:"tax_mode"`
	Rate        float64  `json:"rate"`
	Description *string  `json:"description"`
	IsEnabled   *bool    `json:"is_enabled"`
}

type UpdateRequest struct {
	ID          string   `json:"id"`
	Name        *string  `json:"name,omitempty"`
	TaxMode     *TaxMode `json:"tax_mode,omitempty"`
	Rate        *float64 `json:"rate,omitempty"`
	Description *string  `json:"description,omitempty"`
}

type Response struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	TaxMode        TaxMode   `json:"tax_mode"`
	Rate           float64   `json:"rate"`
	Description    *string   `json:"description,omitempty"`
	IsEnabled      bool      `json:"is_enabled"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
