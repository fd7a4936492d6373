package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, discount *Discount) error
	FindByID(ctx context.Context, orgID, id snowflake.ID) (*Discount, error)
	List(ctx context.Context, orgID snowflake.ID, filter ListRequest) ([]Discount, error)
	Update(ctx context.Context, discount *Discount) error
}
