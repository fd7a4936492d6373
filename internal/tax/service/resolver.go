package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/folio/internal/tax/domain"
)

type resolver struct {
	repo taxdomain.Repository
}

func NewResolver(repo taxdomain.Repository) taxdomain.Resolver {
	return &resolver{repo: repo}
}

// ResolveByID returns the referenced definition, or nil when it is missing
// or disabled. Absence is not an error.
func (r *resolver) ResolveByID(ctx context.Context, orgID, id snowflake.ID) (*taxdomain.TaxDefinition, error) {
	def, err := r.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if def == nil || !def.IsEnabled {
		return nil, nil
	}
	return def, nil
}
