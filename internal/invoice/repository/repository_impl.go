package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/folio/internal/invoice/domain"
	"github.com/smallbiznis/folio/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) invoicedomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, inv *invoicedomain.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(inv).Error; err != nil {
			return err
		}
		if len(inv.Items) > 0 {
			if err := tx.Create(&inv.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, orgID, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var inv invoicedomain.Invoice
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", inv.ID).
		Order("position ASC").
		Find(&inv.Items).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) Find(ctx context.Context, filter *invoicedomain.Invoice, opts ...option.QueryOption) ([]*invoicedomain.Invoice, error) {
	var invoices []*invoicedomain.Invoice
	stmt := r.db.WithContext(ctx).Model(&invoicedomain.Invoice{}).Where(filter)
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	if err := stmt.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repository) ReplaceItems(ctx context.Context, inv *invoicedomain.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", inv.ID).
			Delete(&invoicedomain.InvoiceItem{}).Error; err != nil {
			return err
		}
		if len(inv.Items) > 0 {
			if err := tx.Create(&inv.Items).Error; err != nil {
				return err
			}
		}
		return saveHeader(tx, inv)
	})
}

func (r *repository) Save(ctx context.Context, inv *invoicedomain.Invoice) error {
	return saveHeader(r.db.WithContext(ctx), inv)
}

func (r *repository) TransitionStatus(ctx context.Context, inv *invoicedomain.Invoice, from invoicedomain.InvoiceStatus) error {
	result := r.db.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("org_id = ? AND id = ? AND status = ?", inv.OrgID, inv.ID, from).
		Updates(headerColumns(inv))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return invoicedomain.ErrConcurrentTransition
	}
	return nil
}

func saveHeader(tx *gorm.DB, inv *invoicedomain.Invoice) error {
	return tx.Model(&invoicedomain.Invoice{}).
		Where("org_id = ? AND id = ?", inv.OrgID, inv.ID).
		Updates(headerColumns(inv)).Error
}

// headerColumns lists every mutable header field explicitly; gorm's
// struct updates skip zero values, which would drop a zeroed amount_due.
func headerColumns(inv *invoicedomain.Invoice) map[string]any {
	return map[string]any{
		"customer_id":      inv.CustomerID,
		"invoice_number":   inv.InvoiceNumber,
		"description":      inv.Description,
		"status":           inv.Status,
		"subtotal_amount":  inv.SubtotalAmount,
		"discount_total":   inv.DiscountTotal,
		"tax_total":        inv.TaxTotal,
		"total_amount":     inv.TotalAmount,
		"amount_due":       inv.AmountDue,
		"payment_link_id":  inv.PaymentLinkID,
		"payment_link_url": inv.PaymentLinkURL,
		"finalized_at":     inv.FinalizedAt,
		"due_at":           inv.DueAt,
		"paid_at":          inv.PaidAt,
		"voided_at":        inv.VoidedAt,
		"metadata":         inv.Metadata,
		"updated_at":       time.Now().UTC(),
	}
}
