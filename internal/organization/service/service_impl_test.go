package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	activitylogdomain "github.com/laiahq/platform/internal/activitylog/domain"
	activitylogrepo "github.com/laiahq/platform/internal/activitylog/repository"
	activitylogservice "github.com/laiahq/platform/internal/activitylog/service"
	billingconfigdomain "github.com/laiahq/platform/internal/billingconfig/domain"
	billingconfigrepo "github.com/laiahq/platform/internal/billingconfig/repository"
	billingconfigservice "github.com/laiahq/platform/internal/billingconfig/service"
	"github.com/laiahq/platform/internal/clock"
	"github.com/laiahq/platform/internal/config"
	"github.com/laiahq/platform/internal/docstore"
	invoicedomain "github.com/laiahq/platform/internal/invoice/domain"
	invoicerepo "github.com/laiahq/platform/internal/invoice/repository"
	invoiceservice "github.com/laiahq/platform/internal/invoice/service"
	notificationdomain "github.com/laiahq/platform/internal/notification/domain"
	notificationrepo "github.com/laiahq/platform/internal/notification/repository"
	"github.com/laiahq/platform/internal/organization/domain"
	orgrepo "github.com/laiahq/platform/internal/organization/repository"
	"github.com/laiahq/platform/internal/providers/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Organization{},
		&domain.Member{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&billingconfigdomain.BillingProfile{},
		&notificationdomain.Scheduled{},
		&activitylogdomain.Entry{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC))
	holder := config.NewStaticBillingPolicyHolder(config.DefaultBillingPolicy())

	docs, err := docstore.NewFS(t.TempDir())
	require.NoError(t, err)

	activitySvc := activitylogservice.NewService(activitylogservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  activitylogrepo.Provide(),
	})

	profileSvc := billingconfigservice.NewService(billingconfigservice.Params{
		DB:         db,
		Log:        log,
		GenID:      node,
		Repo:       billingconfigrepo.Provide(),
		BillingCfg: holder,
	})

	invoiceSvc := invoiceservice.NewService(invoiceservice.Params{
		DB:         db,
		Log:        log,
		GenID:      node,
		Clock:      fakeClock,
		Repo:       invoicerepo.Provide(),
		ProfileSvc: profileSvc,
		PDF:        &pdf.NoOpProvider{},
		Docs:       docs,
		BillingCfg: holder,
	})

	svc := NewService(Params{
		DB:               db,
		Log:              log,
		GenID:            node,
		Clock:            fakeClock,
		Repo:             orgrepo.Provide(),
		InvoiceSvc:       invoiceSvc,
		ActivitySvc:      activitySvc,
		NotificationRepo: notificationrepo.Provide(),
		BillingCfg:       holder,
	})
	return svc, db, fakeClock
}

func onboardRequest() domain.OnboardRequest {
	return domain.OnboardRequest{
		Name:       "Institut Belle Vue",
		Plan:       domain.PlanPremium,
		OwnerName:  "Camille",
		OwnerEmail: "camille@example.fr",
	}
}

func TestOnboard_CreatesTrialTenant(t *testing.T) {
	svc, db, fakeClock := newTestService(t)
	userID := snowflake.ID(42)

	org, err := svc.Onboard(context.Background(), userID, onboardRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusTrial, org.Status)
	assert.Equal(t, domain.PlanPremium, org.Plan)
	require.NotNil(t, org.TrialEndsAt)
	assert.Equal(t, fakeClock.Now().AddDate(0, 0, 30), *org.TrialEndsAt)
	assert.Contains(t, org.Slug, "institut-belle-vue")
	assert.Equal(t, "camille@example.fr", org.BillingEmail)

	var member domain.Member
	require.NoError(t, db.First(&member, "org_id = ? AND user_id = ?", org.ID, userID).Error)
	assert.Equal(t, domain.RoleOwner, member.Role)
}

func TestOnboard_IssuesFirstPaidInvoice(t *testing.T) {
	svc, db, fakeClock := newTestService(t)

	org, err := svc.Onboard(context.Background(), snowflake.ID(42), onboardRequest())
	require.NoError(t, err)

	var inv invoicedomain.Invoice
	require.NoError(t, db.Preload("Items").First(&inv, "org_id = ?", org.ID).Error)
	assert.Equal(t, "LAIA-2026-000001", inv.InvoiceNumber)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, inv.Status)
	require.NotNil(t, inv.PaidAt)
	assert.Equal(t, int64(9900), inv.SubtotalCents)
	assert.Equal(t, int64(1980), inv.VATCents)
	assert.Equal(t, int64(11880), inv.AmountCents)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "Abonnement Laia premium — premier mois", inv.Items[0].Description)
	assert.WithinDuration(t, fakeClock.Now(), inv.IssuedAt, time.Second)
}

func TestOnboard_SchedulesWelcomeFollowup(t *testing.T) {
	svc, db, fakeClock := newTestService(t)

	org, err := svc.Onboard(context.Background(), snowflake.ID(42), onboardRequest())
	require.NoError(t, err)

	var scheduled notificationdomain.Scheduled
	require.NoError(t, db.First(&scheduled, "org_id = ?", org.ID).Error)
	assert.Equal(t, "welcome_followup", scheduled.Template)
	assert.Equal(t, "camille@example.fr", scheduled.Recipient)
	assert.WithinDuration(t, fakeClock.Now().Add(48*time.Hour), scheduled.SendAt, time.Second)
	assert.Nil(t, scheduled.SentAt)
	assert.Equal(t, "Institut Belle Vue", scheduled.Payload["org_name"])

	var entries []activitylogdomain.Entry
	require.NoError(t, db.Where("entity_type = ? AND entity_id = ?",
		activitylogdomain.EntityOrganization, org.ID.String()).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, activitylogdomain.ActionOrganizationCreated, entries[0].Action)
}

func TestOnboard_Validation(t *testing.T) {
	svc, db, _ := newTestService(t)

	req := onboardRequest()
	req.Name = "  "
	_, err := svc.Onboard(context.Background(), 42, req)
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	req = onboardRequest()
	req.OwnerEmail = "not-an-email"
	_, err = svc.Onboard(context.Background(), 42, req)
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	req = onboardRequest()
	req.Plan = "platine"
	_, err = svc.Onboard(context.Background(), 42, req)
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)

	var n int64
	require.NoError(t, db.Model(&domain.Organization{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestOnboard_SlugsNeverCollide(t *testing.T) {
	svc, _, _ := newTestService(t)

	first, err := svc.Onboard(context.Background(), 42, onboardRequest())
	require.NoError(t, err)
	second, err := svc.Onboard(context.Background(), 43, onboardRequest())
	require.NoError(t, err)

	assert.NotEqual(t, first.Slug, second.Slug)
}

func TestSuspend_Transitions(t *testing.T) {
	svc, db, _ := newTestService(t)

	org, err := svc.Onboard(context.Background(), 42, onboardRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Suspend(context.Background(), org.ID))
	got, err := svc.GetByID(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuspended, got.Status)

	// Repeating the suspension is a no-op, not an error.
	require.NoError(t, svc.Suspend(context.Background(), org.ID))

	// A cancelled tenant can no longer be suspended.
	require.NoError(t, db.Model(&domain.Organization{}).
		Where("id = ?", org.ID).
		Update("status", domain.StatusCancelled).Error)
	assert.ErrorIs(t, svc.Suspend(context.Background(), org.ID), domain.ErrInvalidTransition)

	assert.ErrorIs(t, svc.Suspend(context.Background(), snowflake.ID(999)), domain.ErrNotFound)
}

func TestMemberRole(t *testing.T) {
	svc, _, _ := newTestService(t)

	org, err := svc.Onboard(context.Background(), 42, onboardRequest())
	require.NoError(t, err)

	role, err := svc.MemberRole(context.Background(), org.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, role)

	_, err = svc.MemberRole(context.Background(), org.ID, 43)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
