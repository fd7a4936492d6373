package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/smallbiznis/folio/internal/clock"
	"github.com/smallbiznis/folio/internal/config"
	discountdomain "github.com/smallbiznis/folio/internal/discount/domain"
	invoicedomain "github.com/smallbiznis/folio/internal/invoice/domain"
	"github.com/smallbiznis/folio/internal/invoice/engine"
	"github.com/smallbiznis/folio/internal/locker"
	"github.com/smallbiznis/folio/internal/observability/metrics"
	"github.com/smallbiznis/folio/internal/orgcontext"
	"github.com/smallbiznis/folio/internal/paymentlink"
	taxdomain "github.com/smallbiznis/folio/internal/tax/domain"
	"github.com/smallbiznis/folio/pkg/db/option"
	"github.com/smallbiznis/folio/pkg/db/pagination"
)

const finalizeLockTTL = 15 * time.Second

type ServiceParam struct {
	fx.In

	Log              *zap.Logger
	GenID            *snowflake.Node
	Clock            clock.Clock
	Repository       invoicedomain.Repository
	TaxResolver      taxdomain.Resolver
	DiscountResolver discountdomain.Resolver
	Issuer           paymentlink.Issuer
	Invoicing        *config.InvoicingConfigHolder
	Locker           *locker.Locker   `optional:"true"`
	Metrics          *metrics.Metrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      invoicedomain.Repository
	taxes     taxdomain.Resolver
	discounts discountdomain.Resolver
	issuer    paymentlink.Issuer
	invoicing *config.InvoicingConfigHolder
	locker    *locker.Locker
	metrics   *metrics.Metrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		log:       p.Log.Named("invoice.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repository,
		taxes:     p.TaxResolver,
		discounts: p.DiscountResolver,
		issuer:    p.Issuer,
		invoicing: p.Invoicing,
		locker:    p.Locker,
		metrics:   p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, invoicedomain.ErrInvalidOrganization
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if !validCurrency(currency) {
		return nil, invoicedomain.ErrInvalidCurrency
	}

	now := s.clock.Now()
	inv := &invoicedomain.Invoice{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		CustomerID:  req.CustomerID,
		Currency:    currency,
		Description: strings.TrimSpace(req.Description),
		Status:      invoicedomain.InvoiceStatusDraft,
		Metadata:    datatypes.JSONMap(req.Metadata),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	items, err := s.buildItems(inv, req.Items, now)
	if err != nil {
		return nil, err
	}
	inv.Items = items

	if err := s.recompute(ctx, inv); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.metrics.RecordInvoiceCreated(ctx, inv.Currency)
	s.log.Info("invoice created",
		zap.String("invoice_id", inv.ID.String()),
		zap.Int("items", len(inv.Items)),
	)
	return inv, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, invoicedomain.ErrInvalidOrganization
	}
	invoiceID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	inv, err := s.repo.GetByID(ctx, orgID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, invoicedomain.ErrNotFound
	}
	return inv, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidOrganization
	}

	filter := &invoicedomain.Invoice{OrgID: orgID}
	if req.Status != nil {
		filter.Status = *req.Status
	}
	if req.CustomerID != nil {
		filter.CustomerID = req.CustomerID
	}

	limit := req.PageSize
	if limit <= 0 {
		limit = 25
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.WithQuerySortBy("id", "DESC", map[string]bool{"id": true})),
		option.WithLimit(limit + 1),
	}
	if req.CreatedFrom != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "created_at", Operator: option.GTE, Value: *req.CreatedFrom}))
	}
	if req.CreatedTo != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "created_at", Operator: option.LTE, Value: *req.CreatedTo}))
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidID
		}
		cursorID, err := parseID(cursor.ID)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, err
		}
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "id", Operator: option.LT, Value: cursorID}))
	}

	rows, err := s.repo.Find(ctx, filter, opts...)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	pageInfo, rows := pagination.BuildCursorPageInfo(rows, limit, func(inv *invoicedomain.Invoice) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: inv.ID.String()})
		return token
	})

	invoices := make([]invoicedomain.Invoice, 0, len(rows))
	for _, row := range rows {
		invoices = append(invoices, *row)
	}
	return invoicedomain.ListInvoiceResponse{PageInfo: *pageInfo, Invoices: invoices}, nil
}

func (s *Service) ReplaceItems(ctx context.Context, id string, items []invoicedomain.ItemInput) (*invoicedomain.Invoice, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := engine.EnsureEditable(inv, "replace_items"); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	newItems, err := s.buildItems(inv, items, now)
	if err != nil {
		return nil, err
	}
	inv.Items = newItems

	if err := s.recompute(ctx, inv); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceItems(ctx, inv); err != nil {
		return nil, err
	}

	s.metrics.RecordRecalculation(ctx, "replace_items")
	return inv, nil
}

func (s *Service) Finalize(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Guard before any side effect so a doomed finalize never reaches the
	// payment provider.
	if err := engine.EnsureOpenable(inv); err != nil {
		return nil, err
	}

	lockKey := fmt.Sprintf("folio:invoice:finalize:%s", inv.ID)
	token, acquired, err := s.locker.TryLock(ctx, lockKey, finalizeLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, invoicedomain.ErrConcurrentTransition
	}
	defer func() {
		if err := s.locker.Release(ctx, lockKey, token); err != nil {
			s.log.Warn("finalize lock release failed", zap.Error(err))
		}
	}()

	// Freeze the totals against the catalog as of now.
	if err := s.recompute(ctx, inv); err != nil {
		return nil, err
	}

	policy := s.invoicing.Current()
	number := fmt.Sprintf("INV-%s", s.genID.Generate())

	link, err := s.issuer.Issue(ctx, paymentlink.IssueRequest{
		InvoiceID:     inv.ID,
		OrgID:         inv.OrgID,
		InvoiceNumber: number,
		Currency:      inv.Currency,
		Amount:        inv.AmountDue,
		ReturnURL:     policy.PaymentLinkReturnURL,
	})
	if err != nil {
		s.metrics.RecordPaymentLinkError(ctx)
		s.log.Error("payment link issuance failed",
			zap.String("invoice_id", inv.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.RecordPaymentLinkIssued(ctx)

	now := s.clock.Now()
	var dueAt *time.Time
	if policy.DefaultDueDays > 0 {
		due := now.AddDate(0, 0, policy.DefaultDueDays)
		dueAt = &due
	}

	if err := engine.Open(inv, link, number, now, dueAt); err != nil {
		return nil, err
	}
	if err := s.repo.TransitionStatus(ctx, inv, invoicedomain.InvoiceStatusDraft); err != nil {
		return nil, err
	}

	s.metrics.RecordInvoiceFinalized(ctx, inv.Currency)
	s.log.Info("invoice finalized",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", number),
		zap.Int64("amount_due", int64(inv.AmountDue)),
	)
	return inv, nil
}

func (s *Service) MarkPaid(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := engine.MarkPaid(inv, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.TransitionStatus(ctx, inv, invoicedomain.InvoiceStatusOpen); err != nil {
		return nil, err
	}

	s.log.Info("invoice paid", zap.String("invoice_id", inv.ID.String()))
	return inv, nil
}

func (s *Service) Void(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := inv.Status
	if err := engine.Void(inv, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.TransitionStatus(ctx, inv, from); err != nil {
		return nil, err
	}

	s.log.Info("invoice voided", zap.String("invoice_id", inv.ID.String()))
	return inv, nil
}

func (s *Service) MarkUncollectible(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := engine.MarkUncollectible(inv); err != nil {
		return nil, err
	}
	if err := s.repo.TransitionStatus(ctx, inv, invoicedomain.InvoiceStatusOpen); err != nil {
		return nil, err
	}

	s.log.Info("invoice marked uncollectible", zap.String("invoice_id", inv.ID.String()))
	return inv, nil
}

func (s *Service) Recalculate(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRecalculation(ctx, "manual")

	if inv.Status == invoicedomain.InvoiceStatusDraft {
		if err := s.recompute(ctx, inv); err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceItems(ctx, inv); err != nil {
			return nil, err
		}
		return inv, nil
	}

	// Finalized documents are frozen; recalculation only verifies that the
	// stored totals are still reproducible from the stored lines.
	check := *inv
	check.Items = make([]invoicedomain.InvoiceItem, len(inv.Items))
	copy(check.Items, inv.Items)
	if err := s.recompute(ctx, &check); err != nil {
		return nil, err
	}
	if check.SubtotalAmount != inv.SubtotalAmount ||
		check.DiscountTotal != inv.DiscountTotal ||
		check.TaxTotal != inv.TaxTotal ||
		check.TotalAmount != inv.TotalAmount {
		s.log.Error("stored totals are not reproducible",
			zap.String("invoice_id", inv.ID.String()),
			zap.Int64("stored_total", int64(inv.TotalAmount)),
			zap.Int64("computed_total", int64(check.TotalAmount)),
		)
		return nil, invoicedomain.ErrTotalsMismatch
	}
	return inv, nil
}

// buildItems validates caller input and assigns identifiers and positions.
func (s *Service) buildItems(inv *invoicedomain.Invoice, inputs []invoicedomain.ItemInput, now time.Time) ([]invoicedomain.InvoiceItem, error) {
	items := make([]invoicedomain.InvoiceItem, 0, len(inputs))
	for i, in := range inputs {
		item := invoicedomain.InvoiceItem{
			ID:          s.genID.Generate(),
			OrgID:       inv.OrgID,
			InvoiceID:   inv.ID,
			Description: strings.TrimSpace(in.Description),
			Quantity:    in.Quantity,
			UnitAmount:  in.UnitAmount,
			TaxRateID:   in.TaxRateID,
			DiscountID:  in.DiscountID,
			Position:    i,
			Metadata:    datatypes.JSONMap(in.Metadata),
			CreatedAt:   now,
		}
		if err := item.Validate(); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// recompute resolves catalog references, runs the calculation engine, and
// writes line amounts and document totals back onto the aggregate.
func (s *Service) recompute(ctx context.Context, inv *invoicedomain.Invoice) error {
	strict := s.invoicing.Current().StrictReferences

	lines := make([]engine.LineInput, 0, len(inv.Items))
	for i := range inv.Items {
		item := &inv.Items[i]
		line := engine.LineInput{Item: *item}

		if item.TaxRateID != nil {
			def, err := s.taxes.ResolveByID(ctx, inv.OrgID, *item.TaxRateID)
			if err != nil {
				return err
			}
			if def == nil && strict {
				return invoicedomain.ErrUnresolvedTaxRate
			}
			line.TaxRate = def
		}
		if item.DiscountID != nil {
			disc, err := s.discounts.ResolveByID(ctx, inv.OrgID, *item.DiscountID)
			if err != nil {
				return err
			}
			if disc == nil && strict {
				return invoicedomain.ErrUnresolvedDiscount
			}
			line.Discount = disc
		}
		lines = append(lines, line)
	}

	totals, results, err := engine.CalculateTotals(inv.Status, lines)
	if err != nil {
		return err
	}
	for i := range results {
		inv.Items[i].Amount = results[i].LineAmount
	}
	engine.ApplyTotals(inv, totals)
	return nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, invoicedomain.ErrInvalidID
	}
	return id, nil
}

func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
