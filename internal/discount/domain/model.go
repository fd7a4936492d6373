package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/folio/internal/money"
)

// DiscountKind selects how a discount value is interpreted.
type DiscountKind string

const (
	// DiscountKindPercentage takes a percentage off the line amount.
	DiscountKindPercentage DiscountKind = "percentage"
	// DiscountKindFixedAmount takes a fixed minor-unit amount off the line,
	// capped at the line amount.
	DiscountKindFixedAmount DiscountKind = "fixed_amount"
)

// Discount is an org-scoped discount definition, referenced by ID from
// invoice items. Unresolved or disabled references apply no discount
// unless strict references are enabled.
type Discount struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	OrgID snowflake.ID `gorm:"column:org_id;not null;index"`

	Name string       `gorm:"type:text;not null"`
	Kind DiscountKind `gorm:"type:text;not null"`

	// PercentOff is a percentage (0-100) for percentage discounts.
	PercentOff float64 `gorm:"column:percent_off;type:numeric(6,3);not null;default:0"`

	// AmountOff is a minor-unit amount for fixed-amount discounts.
	AmountOff money.Money `gorm:"column:amount_off;not null;default:0"`

	IsEnabled bool `gorm:"column:is_enabled;not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Discount) TableName() string { return "discounts" }

func (d *Discount) Validate() error {
	if d.Name == "" {
		return ErrInvalidName
	}
	switch d.Kind {
	case DiscountKindPercentage:
		if d.PercentOff < 0 || d.PercentOff > 100 {
			return ErrInvalidValue
		}
	case DiscountKindFixedAmount:
		if d.AmountOff < 0 {
			return ErrInvalidValue
		}
	default:
		return ErrInvalidKind
	}
	return nil
}
