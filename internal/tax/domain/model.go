package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TaxMode represents how a rate applies to a line amount.
type TaxMode string

const (
	// TaxModeExclusive adds the tax on top of the taxable amount.
	TaxModeExclusive TaxMode = "exclusive"
	// TaxModeInclusive treats the taxable amount as already containing the
	// tax; the tax portion is extracted, never added.
	TaxModeInclusive TaxMode = "inclusive"
)

// TaxDefinition is an org-scoped tax rate.
//
// Definitions are referenced by ID from invoice items, never embedded. An
// item pointing at a missing or disabled definition is priced as untaxed
// unless strict references are enabled.
type TaxDefinition struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	OrgID snowflake.ID `gorm:"column:org_id;not null;index"`

	Name    string  `gorm:"type:text;not null"`
	TaxMode TaxMode `gorm:"column:tax_mode;type:text;not null"`

	// Rate is a percentage (0-100); fractional rates are allowed and are
	// converted to basis points before any arithmetic.
	Rate float64 `gorm:"type:numeric(6,3);not null"`

	Description *string `gorm:"type:text"`

	IsEnabled bool `gorm:"column:is_enabled;not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TaxDefinition) TableName() string { return "tax_definitions" }

func (t *TaxDefinition) Validate() error {
	if t.Name == "" {
		return ErrInvalidName
	}
	if t.TaxMode != TaxModeExclusive && t.TaxMode != TaxModeInclusive {
		return ErrInvalidTaxMode
	}
	if t.Rate < 0 || t.Rate > 100 {
		return ErrInvalidTaxRate
	}
	return nil
}

// Inclusive reports whether the definition uses the inclusive convention.
func (t *TaxDefinition) Inclusive() bool {
	return t != nil && t.TaxMode == TaxModeInclusive
}
