package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	discountdomain "github.com/smallbiznis/folio/internal/discount/domain"
)

type resolver struct {
	repo discountdomain.Repository
}

func NewResolver(repo discountdomain.Repository) discountdomain.Resolver {
	return &resolver{repo: repo}
}

// ResolveByID returns the referenced discount, or nil when it is missing
// or disabled. Absence is not an error.
func (r *resolver) ResolveByID(ctx context.Context, orgID, id snowflake.ID) (*discountdomain.Discount, error) {
	discount, err := r.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if discount == nil || !discount.IsEnabled {
		return nil, nil
	}
	return discount, nil
}
