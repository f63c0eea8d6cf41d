package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	activitylogdomain "github.com/laiahq/platform/internal/activitylog/domain"
	activitylogrepo "github.com/laiahq/platform/internal/activitylog/repository"
	activitylogservice "github.com/laiahq/platform/internal/activitylog/service"
	"github.com/laiahq/platform/internal/clock"
	"github.com/laiahq/platform/internal/config"
	invoicedomain "github.com/laiahq/platform/internal/invoice/domain"
	invoicerepo "github.com/laiahq/platform/internal/invoice/repository"
	notificationdomain "github.com/laiahq/platform/internal/notification/domain"
	notificationrepo "github.com/laiahq/platform/internal/notification/repository"
	orgdomain "github.com/laiahq/platform/internal/organization/domain"
	orgrepo "github.com/laiahq/platform/internal/organization/repository"
	orgservice "github.com/laiahq/platform/internal/organization/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type sentMail struct {
	To       string
	Template string
	Data     map[string]any
}

// recorderEmail captures outbound mail and can be primed to fail for a
// specific recipient.
type recorderEmail struct {
	mu      sync.Mutex
	Sent    []sentMail
	FailFor string
}

func (r *recorderEmail) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	return nil
}

func (r *recorderEmail) SendTemplate(ctx context.Context, to []string, templateName string, data map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(to) > 0 && to[0] == r.FailFor {
		return errors.New("smtp unavailable")
	}
	r.Sent = append(r.Sent, sentMail{To: to[0], Template: templateName, Data: data})
	return nil
}

func (r *recorderEmail) byTemplate(name string) []sentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentMail
	for _, m := range r.Sent {
		if m.Template == name {
			out = append(out, m)
		}
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	email    *recorderEmail
	orgSvc   orgdomain.Service
	activity activitylogdomain.Service
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&orgdomain.Organization{},
		&orgdomain.Member{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&activitylogdomain.Entry{},
		&notificationdomain.Scheduled{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	fakeClock := clock.NewFakeClock(time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC))
	holder := config.NewStaticBillingPolicyHolder(config.DefaultBillingPolicy())
	mail := &recorderEmail{}

	activitySvc := activitylogservice.NewService(activitylogservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  activitylogrepo.Provide(),
	})

	orgSvc := orgservice.NewService(orgservice.Params{
		DB:               db,
		Log:              log,
		GenID:            node,
		Clock:            fakeClock,
		Repo:             orgrepo.Provide(),
		ActivitySvc:      activitySvc,
		NotificationRepo: notificationrepo.Provide(),
		BillingCfg:       holder,
	})

	svc := NewService(Params{
		DB:               db,
		Log:              log,
		Clock:            fakeClock,
		InvoiceRepo:      invoicerepo.Provide(),
		OrgSvc:           orgSvc,
		ActivitySvc:      activitySvc,
		NotificationRepo: notificationrepo.Provide(),
		Email:            mail,
		BillingCfg:       holder,
	}).(*Service)

	return &fixture{
		db:       db,
		node:     node,
		clock:    fakeClock,
		email:    mail,
		orgSvc:   orgSvc,
		activity: activitySvc,
		svc:      svc,
	}
}

func (f *fixture) seedOrg(t *testing.T, name string, status orgdomain.Status) *orgdomain.Organization {
	t.Helper()
	now := f.clock.Now()
	org := &orgdomain.Organization{
		ID:         f.node.Generate(),
		Name:       name,
		Slug:       name,
		Status:     status,
		Plan:       orgdomain.PlanPremium,
		OwnerName:  "Camille",
		OwnerEmail: name + "@example.fr",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, f.db.Create(org).Error)
	return org
}

// seedOverdue creates a PENDING invoice issued daysAgo days before the fake
// clock's now, with a due date already in the past.
func (f *fixture) seedOverdue(t *testing.T, org *orgdomain.Organization, daysAgo int) *invoicedomain.Invoice {
	t.Helper()
	now := f.clock.Now()
	issued := now.AddDate(0, 0, -daysAgo)
	inv := &invoicedomain.Invoice{
		ID:            f.node.Generate(),
		OrgID:         org.ID,
		InvoiceNumber: fmt.Sprintf("LAIA-2026-%06d", f.node.Generate()%1000000),
		Status:        invoicedomain.InvoiceStatusPending,
		SubtotalCents: 9900,
		VATCents:      1980,
		AmountCents:   11880,
		IssuedAt:      issued,
		DueAt:         now.AddDate(0, 0, -1),
		CreatedAt:     issued,
		UpdatedAt:     issued,
	}
	require.NoError(t, f.db.Create(inv).Error)
	return inv
}

func (f *fixture) entriesFor(t *testing.T, entityType, entityID string) []activitylogdomain.Entry {
	t.Helper()
	var entries []activitylogdomain.Entry
	require.NoError(t, f.db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).Find(&entries).Error)
	return entries
}

func TestRun_FirstReminderFiresExactlyOnce(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, "institut-a", orgdomain.StatusActive)
	inv := f.seedOverdue(t, org, 10)

	summary, err := f.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Stats.Total)
	assert.Equal(t, 1, summary.Stats.FirstReminder)
	assert.Equal(t, []string{"institut-a"}, summary.Details.FirstReminder)
	assert.Zero(t, summary.Stats.SecondReminder)
	assert.Zero(t, summary.Stats.Suspended)
	assert.Zero(t, summary.Stats.Errors)

	require.Len(t, f.email.byTemplate("payment_reminder_1"), 1)
	entries := f.entriesFor(t, activitylogdomain.EntityInvoice, inv.ID.String())
	require.Len(t, entries, 1)
	assert.Equal(t, activitylogdomain.ActionPaymentReminder1, entries[0].Action)
}

func TestRun_TwiceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, "institut-a", orgdomain.StatusActive)
	inv := f.seedOverdue(t, org, 10)

	_, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	second, err := f.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, second.Stats.Total)
	assert.Zero(t, second.Stats.FirstReminder)
	assert.Len(t, f.email.byTemplate("payment_reminder_1"), 1)
	assert.Len(t, f.entriesFor(t, activitylogdomain.EntityInvoice, inv.ID.String()), 1)
}

func TestRun_SecondReminderNotGatedOnFirst(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, "institut-a", orgdomain.StatusActive)
	inv := f.seedOverdue(t, org, 15)

	// No stage-1 entry exists; the day window alone selects stage 2.
	summary, err := f.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Stats.SecondReminder)
	assert.Zero(t, summary.Stats.FirstReminder)
	require.Len(t, f.email.byTemplate("payment_reminder_2"), 1)

	entries := f.entriesFor(t, activitylogdomain.EntityInvoice, inv.ID.String())
	require.Len(t, entries, 1)
	assert.Equal(t, activitylogdomain.ActionPaymentReminder2, entries[0].Action)

	// Next run in the same window stays quiet.
	again, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.Stats.SecondReminder)
	assert.Len(t, f.email.byTemplate("payment_reminder_2"), 1)
}

func TestRun_SuspendsAfterTwentyOneDays(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, "institut-a", orgdomain.StatusActive)
	f.seedOverdue(t, org, 22)

	summary, err := f.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Stats.Suspended)
	assert.Equal(t, []string{"institut-a"}, summary.Details.Suspended)

	got, err := f.orgSvc.GetByID(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Equal(t, orgdomain.StatusSuspended, got.Status)

	require.Len(t, f.email.byTemplate("suspension_notice"), 1)
	entries := f.entriesFor(t, activitylogdomain.EntityOrganization, org.ID.String())
	require.Len(t, entries, 1)
	assert.Equal(t, activitylogdomain.ActionOrganizationSuspended, entries[0].Action)
}

func TestRun_AlreadySuspendedOrgIsUntouched(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, "institut-a", orgdomain.StatusSuspended)
	f.seedOverdue(t, org, 25)

	summary, err := f.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Stats.Total)
	assert.Zero(t, summary.Stats.Suspended)
	assert.Zero(t, summary.Stats.Errors)
	assert.Empty(t, f.email.Sent)
	assert.Empty(t, f.entriesFor(t, activitylogdomain.EntityOrganization, org.ID.String()))
}

func TestRun_PerOrganizationErrorIsolation(t *testing.T) {
	f := newFixture(t)
	broken := f.seedOrg(t, "institut-broken", orgdomain.StatusActive)
	healthy := f.seedOrg(t, "institut-healthy", orgdomain.StatusActive)
	f.seedOverdue(t, broken, 10)
	f.seedOverdue(t, healthy, 10)
	f.email.FailFor = broken.OwnerEmail

	summary, err := f.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Stats.Total)
	assert.Equal(t, 1, summary.Stats.FirstReminder)
	assert.Equal(t, 1, summary.Stats.Errors)
	require.Len(t, summary.Details.Errors, 1)
	assert.Equal(t, "institut-broken", summary.Details.Errors[0].Org)

	// The failed send left no reminder entry, so the next run retries it.
	f.email.FailFor = ""
	retry, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Stats.FirstReminder)
	assert.Zero(t, retry.Stats.Errors)
}

func TestRun_DrainsDueScheduledNotifications(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, "institut-a", orgdomain.StatusTrial)

	now := f.clock.Now()
	repo := notificationrepo.Provide()
	require.NoError(t, repo.Insert(context.Background(), f.db, &notificationdomain.Scheduled{
		ID:        f.node.Generate(),
		OrgID:     org.ID,
		Recipient: org.OwnerEmail,
		Template:  "welcome_followup",
		Payload:   map[string]any{"org_name": org.Name},
		SendAt:    now.Add(-time.Hour),
		CreatedAt: now.Add(-48 * time.Hour),
	}))
	require.NoError(t, repo.Insert(context.Background(), f.db, &notificationdomain.Scheduled{
		ID:        f.node.Generate(),
		OrgID:     org.ID,
		Recipient: org.OwnerEmail,
		Template:  "welcome_followup",
		SendAt:    now.Add(time.Hour),
		CreatedAt: now,
	}))

	_, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.email.byTemplate("welcome_followup"), 1)

	// Second run: the sent one stays sent, the future one is still pending.
	_, err = f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.email.byTemplate("welcome_followup"), 1)

	f.clock.Advance(2 * time.Hour)
	_, err = f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.email.byTemplate("welcome_followup"), 2)
}
