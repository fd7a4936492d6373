package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/folio/internal/clock"
	"github.com/smallbiznis/folio/internal/config"
	discountdomain "github.com/smallbiznis/folio/internal/discount/domain"
	discountrepo "github.com/smallbiznis/folio/internal/discount/repository"
	discountservice "github.com/smallbiznis/folio/internal/discount/service"
	invoicedomain "github.com/smallbiznis/folio/internal/invoice/domain"
	invoicerepo "github.com/smallbiznis/folio/internal/invoice/repository"
	"github.com/smallbiznis/folio/internal/money"
	"github.com/smallbiznis/folio/internal/orgcontext"
	"github.com/smallbiznis/folio/internal/paymentlink"
	taxdomain "github.com/smallbiznis/folio/internal/tax/domain"
	taxrepo "github.com/smallbiznis/folio/internal/tax/repository"
	taxservice "github.com/smallbiznis/folio/internal/tax/service"
)

const testOrgID int64 = 42

type fixture struct {
	svc       invoicedomain.Service
	db        *gorm.DB
	genID     *snowflake.Node
	clock     *clock.FakeClock
	issuer    *paymentlink.FakeIssuer
	invoicing *config.InvoicingConfigHolder
	taxes     taxdomain.Repository
	discounts discountdomain.Repository
	ctx       context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&taxdomain.TaxDefinition{},
		&discountdomain.Discount{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC))
	issuer := paymentlink.NewFakeIssuer()
	holder := &config.InvoicingConfigHolder{}
	holder.Store(config.DefaultInvoicingConfig())

	taxes := taxrepo.NewRepository(db)
	discounts := discountrepo.NewRepository(db)

	svc := NewService(ServiceParam{
		Log:              zap.NewNop(),
		GenID:            node,
		Clock:            fakeClock,
		Repository:       invoicerepo.NewRepository(db),
		TaxResolver:      taxservice.NewResolver(taxes),
		DiscountResolver: discountservice.NewResolver(discounts),
		Issuer:           issuer,
		Invoicing:        holder,
	})

	return &fixture{
		svc:       svc,
		db:        db,
		genID:     node,
		clock:     fakeClock,
		issuer:    issuer,
		invoicing: holder,
		taxes:     taxes,
		discounts: discounts,
		ctx:       orgcontext.WithOrgID(context.Background(), testOrgID),
	}
}

func (f *fixture) seedTax(t *testing.T, mode taxdomain.TaxMode, rate float64) snowflake.ID {
	t.Helper()
	def := &taxdomain.TaxDefinition{
		ID:        f.genID.Generate(),
		OrgID:     snowflake.ID(testOrgID),
		Name:      "VAT",
		TaxMode:   mode,
		Rate:      rate,
		IsEnabled: true,
	}
	require.NoError(t, f.taxes.Create(f.ctx, def))
	return def.ID
}

func (f *fixture) seedDiscount(t *testing.T, kind discountdomain.DiscountKind, percentOff float64, amountOff money.Money) snowflake.ID {
	t.Helper()
	disc := &discountdomain.Discount{
		ID:         f.genID.Generate(),
		OrgID:      snowflake.ID(testOrgID),
		Name:       "PROMO",
		Kind:       kind,
		PercentOff: percentOff,
		AmountOff:  amountOff,
		IsEnabled:  true,
	}
	require.NoError(t, f.discounts.Create(f.ctx, disc))
	return disc.ID
}

func (f *fixture) createDraft(t *testing.T, items []invoicedomain.ItemInput) *invoicedomain.Invoice {
	t.Helper()
	inv, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		Currency: "USD",
		Items:    items,
	})
	require.NoError(t, err)
	return inv
}

func (f *fixture) reload(t *testing.T, id snowflake.ID) *invoicedomain.Invoice {
	t.Helper()
	inv, err := f.svc.GetByID(f.ctx, id.String())
	require.NoError(t, err)
	return inv
}

func TestCreateComputesTotals(t *testing.T) {
	f := newFixture(t)
	taxID := f.seedTax(t, taxdomain.TaxModeExclusive, 20)

	inv := f.createDraft(t, []invoicedomain.ItemInput{
		{Description: "Consulting", Quantity: 1, UnitAmount: 10000, TaxRateID: &taxID},
	})

	assert.Equal(t, invoicedomain.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, money.Money(10000), inv.SubtotalAmount)
	assert.Equal(t, money.Money(2000), inv.TaxTotal)
	assert.Equal(t, money.Money(12000), inv.TotalAmount)
	assert.Equal(t, money.Money(12000), inv.AmountDue)

	stored := f.reload(t, inv.ID)
	assert.Equal(t, inv.TotalAmount, stored.TotalAmount)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, money.Money(10000), stored.Items[0].Amount)
}

func TestCreateInclusiveTax(t *testing.T) {
	f := newFixture(t)
	taxID := f.seedTax(t, taxdomain.TaxModeInclusive, 20)

	inv := f.createDraft(t, []invoicedomain.ItemInput{
		{Quantity: 1, UnitAmount: 10000, TaxRateID: &taxID},
	})

	assert.Equal(t, money.Money(1666), inv.TaxTotal)
	assert.Equal(t, money.Money(10000), inv.TotalAmount)
}

func TestCreateRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{Currency: "usd!", Items: nil})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidCurrency)

	_, err = f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		Currency: "USD",
		Items:    []invoicedomain.ItemInput{{Quantity: 0, UnitAmount: 100}},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidQuantity)

	_, err = f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		Currency: "USD",
		Items:    []invoicedomain.ItemInput{{Quantity: 1, UnitAmount: -5}},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidUnitAmount)

	_, err = f.svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{Currency: "USD"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidOrganization)
}

func TestUnresolvedReferenceDefaultsToNoTax(t *testing.T) {
	f := newFixture(t)
	missing := f.genID.Generate()

	inv := f.createDraft(t, []invoicedomain.ItemInput{
		{Quantity: 1, UnitAmount: 10000, TaxRateID: &missing},
	})

	assert.Equal(t, money.Money(0), inv.TaxTotal)
	assert.Equal(t, money.Money(10000), inv.TotalAmount)
}

func TestStrictReferencesRejectUnresolved(t *testing.T) {
	f := newFixture(t)
	f.invoicing.Store(config.InvoicingConfig{StrictReferences: true, DefaultDueDays: 30})
	missing := f.genID.Generate()

	_, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		Currency: "USD",
		Items:    []invoicedomain.ItemInput{{Quantity: 1, UnitAmount: 10000, TaxRateID: &missing}},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrUnresolvedTaxRate)

	_, err = f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		Currency: "USD",
		Items:    []invoicedomain.ItemInput{{Quantity: 1, UnitAmount: 10000, DiscountID: &missing}},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrUnresolvedDiscount)
}

func TestDisabledDefinitionDoesNotResolve(t *testing.T) {
	f := newFixture(t)
	taxID := f.seedTax(t, taxdomain.TaxModeExclusive, 20)

	def, err := f.taxes.FindByID(f.ctx, snowflake.ID(testOrgID), taxID)
	require.NoError(t, err)
	def.IsEnabled = false
	require.NoError(t, f.taxes.Update(f.ctx, def))

	inv := f.createDraft(t, []invoicedomain.ItemInput{
		{Quantity: 1, UnitAmount: 10000, TaxRateID: &taxID},
	})
	assert.Equal(t, money.Money(0), inv.TaxTotal)
}

func TestReplaceItemsRecomputes(t *testing.T) {
	f := newFixture(t)
	discID := f.seedDiscount(t, discountdomain.DiscountKindFixedAmount, 0, 1000)

	inv := f.createDraft(t, []invoicedomain.ItemInput{
		{Quantity: 1, UnitAmount: 10000},
	})

	updated, err := f.svc.ReplaceItems(f.ctx, inv.ID.String(), []invoicedomain.ItemInput{
		{Quantity: 1, UnitAmount: 500, DiscountID: &discID},
		{Quantity: 2, UnitAmount: 750},
	})
	require.NoError(t, err)

	// The 1000 fixed discount is capped at the 500 line amount.
	assert.Equal(t, money.Money(2000), updated.SubtotalAmount)
	assert.Equal(t, money.Money(500), updated.DiscountTotal)
	assert.Equal(t, money.Money(1500), updated.TotalAmount)

	stored := f.reload(t, inv.ID)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, money.Money(1500), stored.TotalAmount)
}

func TestReplaceItemsRejectedOutsideDraft(t *testing.T) {
	f := newFixture(t)
	inv := f.createDraft(t, []invoicedomain.ItemInput{{Quantity: 1, UnitAmount: 10000}})

	_, err := f.svc.Finalize(f.ctx, inv.ID.String())
	require.NoError(t, err)

	_, err = f.svc.ReplaceItems(f.ctx, inv.ID.String(), []invoicedomain.ItemInput{
		{Quantity: 1, UnitAmount: 1},
	})
	assert.True(t, invoicedomain.IsIllegalTransition(err))

	stored := f.reload(t, inv.ID)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, money.Money(10000), stored.Items[0].UnitAmount)
	assert.Equal(t, money.Money(10000), stored.TotalAmount)
}

func TestFinalize(t *testing.T) {
	f := newFixture(t)
	taxID := f.seedTax(t, taxdomain.TaxModeExclusive, 20)
	inv := f.createDraft(t, []invoicedomain.ItemInput{
		{Quantity: 1, UnitAmount: 10000, TaxRateID: &taxID},
	})

	finalized, err := f.svc.Finalize(f.ctx, inv.ID.String())
	require.NoError(t, err)

	assert.Equal(t, invoicedomain.InvoiceStatusOpen, finalized.Status)
	require.NotNil(t, finalized.InvoiceNumber)
	assert.True(t, strings.HasPrefix(*finalized.InvoiceNumber, "INV-"))
	require.NotNil(t, finalized.PaymentLinkID)
	require.NotNil(t, finalized.PaymentLinkURL)
	require.NotNil(t, finalized.FinalizedAt)
	require.NotNil(t, finalized.DueAt)
	assert.Equal(t, f.clock.Now().AddDate(0, 0, 30), *finalized.DueAt)

	issued := f.issuer.Issued()
	require.Len(t, issued, 1)
	assert.Equal(t, inv.ID, issued[0].InvoiceID)
	assert.Equal(t, money.Money(12000), issued[0].Amount)
	assert.Equal(t, "USD", issued[0].Currency)

	stored := f.reload(t, inv.ID)
	assert.Equal(t, invoicedomain.InvoiceStatusOpen, stored.Status)
	assert.Equal(t, *finalized.PaymentLinkURL, *stored.PaymentLinkURL)
}

func TestFinalizeEmptyDraft(t *testing.T) {
	f := newFixture(t)
	inv := f.createDraft(t, nil)

	_, err := f.svc.Finalize(f.ctx, inv.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrEmptyInvoice)
	assert.Empty(t, f.issuer.Issued())

	stored := f.reload(t, inv.ID)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, stored.Status)
}

func TestFinalizeIssuerFailureLeavesDraft(t *testing.T) {
	f := newFixture(t)
	f.issuer.Fail = &paymentlink.ProviderError{StatusCode: 503}
	inv := f.createDraft(t, []invoicedomain.ItemInput{{Quantity: 1, UnitAmount: 10000}})

	_, err := f.svc.Finalize(f.ctx, inv.ID.String())
	var provErr *paymentlink.ProviderError
	assert.True(t, errors.As(err, &provErr))

	stored := f.reload(t, inv.ID)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, stored.Status)
	assert.Nil(t, stored.PaymentLinkID)
	assert.Nil(t, stored.InvoiceNumber)
	assert.Nil(t, stored.FinalizedAt)

	// Recovery: the same draft finalizes once the provider is back.
	f.issuer.Fail = nil
	finalized, err := f.svc.Finalize(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusOpen, finalized.Status)
	assert.Len(t, f.issuer.Issued(), 1)
}

func TestFinalizeTwice(t *testing.T) {
	f := newFixture(t)
	inv := f.createDraft(t, []invoicedomain.ItemInput{{Quantity: 1, UnitAmount: 10000}})

	_, err := f.svc.Finalize(f.ctx, inv.ID.String())
	require.NoError(t, err)

	_, err = f.svc.Finalize(f.ctx, inv.ID.String())
	assert.True(t, invoicedomain.IsIllegalTransition(err))
	assert.Len(t, f.issuer.Issued(), 1)
}

func TestMarkPaid(t *testing.T) {
	f := newFixture(t)
	inv := f.createDraft(t, []invoicedomain.ItemInput{{Quantity: 1, UnitAmount: 10000}})

	_, err := f.svc.Finalize(f.ctx, inv.ID.String())
	require.NoError(t, err)

	paid, err := f.svc.MarkPaid(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, paid.Status)
	assert.Equal(t, money.Money(0), paid.AmountDue)
	assert.Equal(t, money.Money(10000), paid.TotalAmount)
	require.NotNil(t, paid.PaidAt)

	stored := f.reload(t, inv.ID)
	assert.Equal(t, money.Money(0), stored.AmountDue)
	assert.Equal(t, money.Money(10000), stored.TotalAmount)
}

func TestMarkPaidRejectsDraft(t *testing.T) {
	f := newFixture(t)
	inv := f.createDraft(t, []invoicedomain.ItemInput{{Quantity: 1, UnitAmount: 10000}})

	_, err := f.svc.MarkPaid(f.ctx, inv.ID.String())
	assert.True(t, invoicedomain.IsIllegalTransition(err))
}

func TestVoid(t *testing.T) {
	f := newFixture(t)

	draft := f.createDraft(t, []invoicedomain.ItemInput{{Quantity: 1, UnitAmount: 100}})
	voided, err := f.svc.Void(f.ctx, draft.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusVoid, voided.Status)
	require.NotNil(t, voided.VoidedAt)

	open := f.createDraft(t, []invoicedomain.ItemInput{{Quantity: 1, UnitAmount: 100}})
	_, err = f.svc.Finalize(f.ctx, open.ID.String())
	require.NoError(t, err)
	voided, err = f.svc.Void(f.ctx, open.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusVoid, voided.Status)

	// Terminal states reject every further command.
	_, err = f.svc.Void(f.ctx, open.ID.String())
	assert.True(t, invoicedomain.IsIllegalTransition(err))
	_, err = f.svc.MarkPaid(f.ctx, open.ID.String())
	assert.True(t, invoicedomain.IsIllegalTransition(err))
}

func TestMarkUncollectible(t *testing.T) {
	f := newFixture(t)
	inv := f.createDraft(t, []invoicedomain.ItemInput{{Quantity: 1, UnitAmount: 10000}})

	_, err := f.svc.MarkUncollectible(f.ctx, inv.ID.String())
	assert.True(t, invoicedomain.IsIllegalTransition(err))

	_, err = f.svc.Finalize(f.ctx, inv.ID.String())
	require.NoError(t, err)

	out, err := f.svc.MarkUncollectible(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusUncollectible, out.Status)
	// The debt is written off, not settled.
	assert.Equal(t, money.Money(10000), out.AmountDue)
}

func TestRecalculateDraftRefreshesTotals(t *testing.T) {
	f := newFixture(t)
	taxID := f.seedTax(t, taxdomain.TaxModeExclusive, 20)
	inv := f.createDraft(t, []invoicedomain.ItemInput{
		{Quantity: 1, UnitAmount: 10000, TaxRateID: &taxID},
	})

	// Catalog changes flow into drafts on recalculation.
	def, err := f.taxes.FindByID(f.ctx, snowflake.ID(testOrgID), taxID)
	require.NoError(t, err)
	def.Rate = 10
	require.NoError(t, f.taxes.Update(f.ctx, def))

	out, err := f.svc.Recalculate(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, money.Money(1000), out.TaxTotal)
	assert.Equal(t, money.Money(11000), out.TotalAmount)

	stored := f.reload(t, inv.ID)
	assert.Equal(t, money.Money(11000), stored.TotalAmount)
}

func TestRecalculateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	taxID := f.seedTax(t, taxdomain.TaxModeInclusive, 17.5)
	inv := f.createDraft(t, []invoicedomain.ItemInput{
		{Quantity: 3, UnitAmount: 3333, TaxRateID: &taxID},
	})

	first, err := f.svc.Recalculate(f.ctx, inv.ID.String())
	require.NoError(t, err)
	second, err := f.svc.Recalculate(f.ctx, inv.ID.String())
	require.NoError(t, err)

	assert.Equal(t, first.TotalAmount, second.TotalAmount)
	assert.Equal(t, first.TaxTotal, second.TaxTotal)
	assert.Equal(t, inv.TotalAmount, second.TotalAmount)
}

func TestRecalculateVerifiesFinalizedTotals(t *testing.T) {
	f := newFixture(t)
	taxID := f.seedTax(t, taxdomain.TaxModeExclusive, 20)
	inv := f.createDraft(t, []invoicedomain.ItemInput{
		{Quantity: 1, UnitAmount: 10000, TaxRateID: &taxID},
	})
	_, err := f.svc.Finalize(f.ctx, inv.ID.String())
	require.NoError(t, err)

	out, err := f.svc.Recalculate(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, money.Money(12000), out.TotalAmount)

	// A catalog change after finalization makes the stored totals
	// unreproducible; the document itself stays untouched.
	def, err := f.taxes.FindByID(f.ctx, snowflake.ID(testOrgID), taxID)
	require.NoError(t, err)
	def.Rate = 10
	require.NoError(t, f.taxes.Update(f.ctx, def))

	_, err = f.svc.Recalculate(f.ctx, inv.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrTotalsMismatch)

	stored := f.reload(t, inv.ID)
	assert.Equal(t, money.Money(12000), stored.TotalAmount)
	assert.Equal(t, invoicedomain.InvoiceStatusOpen, stored.Status)
}

func TestListPagination(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.createDraft(t, []invoicedomain.ItemInput{{Quantity: 1, UnitAmount: money.Money(100 * (i + 1))}})
	}

	page1, err := f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{})
	require.NoError(t, err)
	assert.Len(t, page1.Invoices, 5)
	assert.False(t, page1.HasMore)

	req := invoicedomain.ListInvoiceRequest{}
	req.PageSize = 2
	page2, err := f.svc.List(f.ctx, req)
	require.NoError(t, err)
	assert.Len(t, page2.Invoices, 2)
	assert.True(t, page2.HasMore)

	req.PageToken = page2.NextPageToken
	page3, err := f.svc.List(f.ctx, req)
	require.NoError(t, err)
	assert.Len(t, page3.Invoices, 2)
	assert.True(t, page3.HasMore)
	assert.NotEqual(t, page2.Invoices[0].ID, page3.Invoices[0].ID)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	a := f.createDraft(t, []invoicedomain.ItemInput{{Quantity: 1, UnitAmount: 100}})
	f.createDraft(t, []invoicedomain.ItemInput{{Quantity: 1, UnitAmount: 200}})

	_, err := f.svc.Finalize(f.ctx, a.ID.String())
	require.NoError(t, err)

	open := invoicedomain.InvoiceStatusOpen
	res, err := f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{Status: &open})
	require.NoError(t, err)
	require.Len(t, res.Invoices, 1)
	assert.Equal(t, a.ID, res.Invoices[0].ID)
}

func TestGetByIDNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetByID(f.ctx, f.genID.Generate().String())
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)

	_, err = f.svc.GetByID(f.ctx, "not-a-snowflake")
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidID)
}
