package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billingconfigdomain "github.com/laiahq/platform/internal/billingconfig/domain"
	billingconfigrepo "github.com/laiahq/platform/internal/billingconfig/repository"
	billingconfigservice "github.com/laiahq/platform/internal/billingconfig/service"
	"github.com/laiahq/platform/internal/clock"
	"github.com/laiahq/platform/internal/config"
	"github.com/laiahq/platform/internal/invoice/domain"
	invoicerepo "github.com/laiahq/platform/internal/invoice/repository"
	"github.com/laiahq/platform/internal/providers/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type memDocs struct {
	saved []string
}

func (d *memDocs) SaveInvoice(ctx context.Context, invoiceNumber string, doc io.Reader) (string, error) {
	if _, err := io.ReadAll(doc); err != nil {
		return "", err
	}
	path := "invoices/" + invoiceNumber + ".pdf"
	d.saved = append(d.saved, path)
	return path, nil
}

func (d *memDocs) Root() string { return "" }

type failingPDF struct{}

func (failingPDF) GenerateInvoice(ctx context.Context, data pdf.InvoiceData) (io.Reader, error) {
	return nil, errors.New("render exploded")
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Invoice{},
		&domain.InvoiceItem{},
		&billingconfigdomain.BillingProfile{},
	))
	return db
}

func newTestService(t *testing.T, db *gorm.DB, fakeClock clock.Clock, renderer pdf.Provider) (domain.Service, *memDocs) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	holder := config.NewStaticBillingPolicyHolder(config.DefaultBillingPolicy())

	profileSvc := billingconfigservice.NewService(billingconfigservice.Params{
		DB:         db,
		Log:        log,
		GenID:      node,
		Repo:       billingconfigrepo.Provide(),
		BillingCfg: holder,
	})

	docs := &memDocs{}
	svc := NewService(Params{
		DB:         db,
		Log:        log,
		GenID:      node,
		Clock:      fakeClock,
		Repo:       invoicerepo.Provide(),
		ProfileSvc: profileSvc,
		PDF:        renderer,
		Docs:       docs,
		BillingCfg: holder,
	})
	return svc, docs
}

func subscriptionItem(cents int64) []domain.CreateInvoiceItem {
	return []domain.CreateInvoiceItem{
		{Description: "Abonnement Laia premium", Quantity: 1, UnitAmountCents: cents},
	}
}

func TestCreateInvoice_NumbersAreSequentialAndUnique(t *testing.T) {
	db := newTestDB(t)
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, docs := newTestService(t, db, fakeClock, &pdf.NoOpProvider{})

	node, _ := snowflake.NewNode(2)
	orgID := node.Generate()

	seen := map[string]bool{}
	for i := 1; i <= 3; i++ {
		inv, err := svc.Create(context.Background(), domain.CreateInvoiceRequest{
			OrgID:      orgID,
			BillToName: "Institut Rosalie",
			Items:      subscriptionItem(9900),
		})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("LAIA-2026-%06d", i), inv.InvoiceNumber)
		assert.False(t, seen[inv.InvoiceNumber])
		seen[inv.InvoiceNumber] = true

		require.NotNil(t, inv.DocumentPath)
		assert.Equal(t, "invoices/"+inv.InvoiceNumber+".pdf", *inv.DocumentPath)
	}
	assert.Len(t, docs.saved, 3)
}

func TestCreateInvoice_VATRoundedOnceAfterSummation(t *testing.T) {
	db := newTestDB(t)
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, db, fakeClock, &pdf.NoOpProvider{})

	node, _ := snowflake.NewNode(2)

	// Per-line 20% VAT on 1 cent rounds to zero three times; on the summed
	// subtotal it rounds to one cent.
	inv, err := svc.Create(context.Background(), domain.CreateInvoiceRequest{
		OrgID: node.Generate(),
		Items: []domain.CreateInvoiceItem{
			{Description: "a", Quantity: 1, UnitAmountCents: 1},
			{Description: "b", Quantity: 1, UnitAmountCents: 1},
			{Description: "c", Quantity: 1, UnitAmountCents: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), inv.SubtotalCents)
	assert.Equal(t, int64(1), inv.VATCents)
	assert.Equal(t, int64(4), inv.AmountCents)
}

func TestCreateInvoice_PaidStatusSetsPaidAt(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, db, clock.NewFakeClock(now), &pdf.NoOpProvider{})

	node, _ := snowflake.NewNode(2)
	inv, err := svc.Create(context.Background(), domain.CreateInvoiceRequest{
		OrgID:  node.Generate(),
		Status: domain.InvoiceStatusPaid,
		Items:  subscriptionItem(4900),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, inv.Status)
	require.NotNil(t, inv.PaidAt)
	assert.Equal(t, now, inv.PaidAt.UTC())

	// Default payment terms drive the due date.
	assert.Equal(t, now.AddDate(0, 0, 14), inv.DueAt.UTC())
}

func TestCreateInvoice_RejectsInvalidInput(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db, clock.NewFakeClock(time.Now()), &pdf.NoOpProvider{})
	node, _ := snowflake.NewNode(2)

	_, err := svc.Create(context.Background(), domain.CreateInvoiceRequest{OrgID: 0, Items: subscriptionItem(100)})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)

	_, err = svc.Create(context.Background(), domain.CreateInvoiceRequest{OrgID: node.Generate()})
	assert.ErrorIs(t, err, domain.ErrInvalidItems)

	_, err = svc.Create(context.Background(), domain.CreateInvoiceRequest{
		OrgID: node.Generate(),
		Items: []domain.CreateInvoiceItem{{Description: "x", Quantity: 0, UnitAmountCents: 100}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidItems)
}

func TestCreateInvoice_RenderFailureDoesNotFailCreation(t *testing.T) {
	db := newTestDB(t)
	svc, docs := newTestService(t, db, clock.NewFakeClock(time.Now()), failingPDF{})

	node, _ := snowflake.NewNode(2)
	inv, err := svc.Create(context.Background(), domain.CreateInvoiceRequest{
		OrgID: node.Generate(),
		Items: subscriptionItem(4900),
	})
	require.NoError(t, err)
	assert.Nil(t, inv.DocumentPath)
	assert.Empty(t, docs.saved)
}

func TestMarkRefunded(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db, clock.NewFakeClock(time.Now()), &pdf.NoOpProvider{})

	node, _ := snowflake.NewNode(2)
	orgID := node.Generate()

	paid, err := svc.Create(context.Background(), domain.CreateInvoiceRequest{
		OrgID:  orgID,
		Status: domain.InvoiceStatusPaid,
		Items:  subscriptionItem(9900),
	})
	require.NoError(t, err)
	require.NoError(t, svc.MarkRefunded(context.Background(), orgID, paid.ID))

	got, err := svc.GetByID(context.Background(), orgID, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusRefunded, got.Status)

	// Already refunded: the guarded transition finds nothing to flip.
	assert.ErrorIs(t, svc.MarkRefunded(context.Background(), orgID, paid.ID), domain.ErrNotRefundable)

	pending, err := svc.Create(context.Background(), domain.CreateInvoiceRequest{
		OrgID: orgID,
		Items: subscriptionItem(9900),
	})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.MarkRefunded(context.Background(), orgID, pending.ID), domain.ErrNotRefundable)
}
