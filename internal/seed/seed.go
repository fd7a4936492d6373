// Package seed bootstraps the default organization so a fresh install
// is usable without any manual setup.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	organizationdomain "github.com/smallbiznis/folio/internal/organization/domain"
	"github.com/smallbiznis/folio/pkg/repository"
	"gorm.io/gorm"
)

const (
	defaultOrgName = "Main"
	defaultOrgSlug = "main"
)

// EnsureDefaultOrg creates the default organization if none exists.
func EnsureDefaultOrg(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}
	return ensureOrg(db, node.Generate())
}

// EnsureDefaultOrgWithID creates the default organization under a fixed
// ID, so DEFAULT_ORG in the environment matches the seeded row.
func EnsureDefaultOrgWithID(db *gorm.DB, id int64) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	return ensureOrg(db, snowflake.ID(id))
}

func ensureOrg(db *gorm.DB, id snowflake.ID) error {
	ctx := context.Background()
	orgs := repository.ProvideStore[organizationdomain.Organization](db)

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := orgs.WithTrx(tx)
		existing, err := store.FindOne(ctx, &organizationdomain.Organization{Slug: defaultOrgSlug})
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		return store.Create(ctx, &organizationdomain.Organization{
			ID:   id,
			Name: defaultOrgName,
			Slug: defaultOrgSlug,
		})
	})
}
