// Package domain contains the invoice aggregate and its contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/folio/internal/money"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
//
// draft -> {open, void}; open -> {paid, void, uncollectible};
// paid, void, and uncollectible are terminal. No transition re-enters
// draft, and items are immutable once the document leaves draft.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusOpen          InvoiceStatus = "OPEN"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusVoid          InvoiceStatus = "VOID"
	InvoiceStatusUncollectible InvoiceStatus = "UNCOLLECTIBLE"
)

// Terminal reports whether no further transition is permitted.
func (s InvoiceStatus) Terminal() bool {
	switch s {
	case InvoiceStatusPaid, InvoiceStatusVoid, InvoiceStatusUncollectible:
		return true
	default:
		return false
	}
}

// Invoice is the aggregate root. The totals fields are derived from Items
// by the calculation engine and are never set directly by callers.
type Invoice struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID  `gorm:"not null;index" json:"org_id"`
	CustomerID    *snowflake.ID `gorm:"index" json:"customer_id,omitempty"`
	InvoiceNumber *string       `gorm:"type:text;uniqueIndex:ux_invoices_number" json:"invoice_number,omitempty"`

	Currency    string        `gorm:"type:text;not null" json:"currency"`
	Description string        `gorm:"type:text" json:"description"`
	Status      InvoiceStatus `gorm:"type:text;not null;default:'DRAFT'" json:"status"`

	SubtotalAmount money.Money `gorm:"not null;default:0" json:"subtotal_amount"`
	DiscountTotal  money.Money `gorm:"not null;default:0" json:"discount_total"`
	TaxTotal       money.Money `gorm:"not null;default:0" json:"tax_total"`
	TotalAmount    money.Money `gorm:"not null;default:0" json:"total_amount"`
	AmountDue      money.Money `gorm:"not null;default:0" json:"amount_due"`

	PaymentLinkID  *string `gorm:"type:text" json:"payment_link_id,omitempty"`
	PaymentLinkURL *string `gorm:"type:text" json:"payment_link_url,omitempty"`

	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	VoidedAt    *time.Time `json:"voided_at,omitempty"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Items are loaded and saved through the repository; gorm does not
	// manage the association.
	Items []InvoiceItem `gorm:"-" json:"items"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem represents a line on an invoice. Items belong to exactly one
// invoice and can only change while that invoice is in draft.
type InvoiceItem struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"org_id"`
	InvoiceID snowflake.ID `gorm:"not null;index" json:"invoice_id"`

	Description string      `gorm:"type:text" json:"description"`
	Quantity    int64       `gorm:"not null" json:"quantity"`
	UnitAmount  money.Money `gorm:"not null" json:"unit_amount"`
	Amount      money.Money `gorm:"not null" json:"amount"`

	TaxRateID  *snowflake.ID `gorm:"index" json:"tax_rate_id,omitempty"`
	DiscountID *snowflake.ID `gorm:"index" json:"discount_id,omitempty"`

	// Position preserves the caller-supplied line order; totals are
	// order-independent but rendering is not.
	Position int `gorm:"not null;default:0" json:"position"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }

// Validate rejects items the engine must never see.
func (i *InvoiceItem) Validate() error {
	if i.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if i.UnitAmount < 0 {
		return ErrInvalidUnitAmount
	}
	return nil
}
