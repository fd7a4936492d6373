package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	discountdomain "github.com/smallbiznis/folio/internal/discount/domain"
	"github.com/smallbiznis/folio/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) discountdomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, discount *discountdomain.Discount) error {
	return r.db.WithContext(ctx).Create(discount).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, id snowflake.ID) (*discountdomain.Discount, error) {
	var discount discountdomain.Discount
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&discount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

func (r *repository) List(ctx context.Context, orgID snowflake.ID, filter discountdomain.ListRequest) ([]discountdomain.Discount, error) {
	var items []discountdomain.Discount
	stmt := r.db.WithContext(ctx).
		Model(&discountdomain.Discount{}).
		Where("org_id = ?", orgID)

	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}
	if filter.IsEnabled != nil {
		stmt = stmt.Where("is_enabled = ?", *filter.IsEnabled)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Update(ctx context.Context, discount *discountdomain.Discount) error {
	return r.db.WithContext(ctx).
		Model(&discountdomain.Discount{}).
		Where("org_id = ? AND id = ?", discount.OrgID, discount.ID).
		Updates(map[string]any{
			"name":        discount.Name,
			"kind":        discount.Kind,
			"percent_off": discount.PercentOff,
			"amount_off":  discount.AmountOff,
			"is_enabled":  discount.IsEnabled,
			"updated_at":  discount.UpdatedAt,
		}).Error
}
