package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	activitylogdomain "github.com/laiahq/platform/internal/activitylog/domain"
	"github.com/laiahq/platform/internal/clock"
	"github.com/laiahq/platform/internal/config"
	invoicedomain "github.com/laiahq/platform/internal/invoice/domain"
	"github.com/laiahq/platform/internal/invoice/format"
	notificationdomain "github.com/laiahq/platform/internal/notification/domain"
	"github.com/laiahq/platform/internal/observability/metrics"
	orgdomain "github.com/laiahq/platform/internal/organization/domain"
	"github.com/laiahq/platform/internal/providers/email"
	"github.com/laiahq/platform/internal/reminder/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// scheduledBatchSize bounds how many due notifications one run drains.
const scheduledBatchSize = 200

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	Clock            clock.Clock
	InvoiceRepo      invoicedomain.Repository
	OrgSvc           orgdomain.Service
	ActivitySvc      activitylogdomain.Service
	NotificationRepo notificationdomain.Repository
	Email            email.Provider
	BillingCfg       *config.BillingPolicyHolder
}

type Service struct {
	db               *gorm.DB
	log              *zap.Logger
	clock            clock.Clock
	invoiceRepo      invoicedomain.Repository
	orgSvc           orgdomain.Service
	activitySvc      activitylogdomain.Service
	notificationRepo notificationdomain.Repository
	email            email.Provider
	billingCfg       *config.BillingPolicyHolder
}

func NewService(p Params) domain.Service {
	return &Service{
		db:               p.DB,
		log:              p.Log.Named("reminder.service"),
		clock:            p.Clock,
		invoiceRepo:      p.InvoiceRepo,
		orgSvc:           p.OrgSvc,
		activitySvc:      p.ActivitySvc,
		notificationRepo: p.NotificationRepo,
		email:            p.Email,
		billingCfg:       p.BillingCfg,
	}
}

// Run processes every overdue PENDING/FAILED invoice independently. One
// organization's failure never aborts the batch; errors are accumulated into
// the summary instead.
func (s *Service) Run(ctx context.Context) (*domain.Summary, error) {
	now := s.clock.Now()
	started := now
	policy := s.billingCfg.Get()
	m := metrics.Billing()
	m.IncJobRun(metrics.JobPaymentReminders)

	overdue, err := s.invoiceRepo.ListOverdue(ctx, s.db,
		[]invoicedomain.InvoiceStatus{invoicedomain.InvoiceStatusPending, invoicedomain.InvoiceStatusFailed}, now)
	if err != nil {
		return nil, err
	}

	summary := &domain.Summary{}
	summary.Stats.Total = len(overdue)

	orgs := map[snowflake.ID]*orgdomain.Organization{}
	for i := range overdue {
		inv := &overdue[i]

		org, ok := orgs[inv.OrgID]
		if !ok {
			org, err = s.orgSvc.GetByID(ctx, inv.OrgID)
			if err != nil {
				s.recordError(summary, m, inv.OrgID.String(), err)
				continue
			}
			orgs[inv.OrgID] = org
		}

		daysSinceIssue := int(now.Sub(inv.IssuedAt).Hours() / 24)
		switch {
		case daysSinceIssue >= policy.SuspensionDays:
			if err := s.suspend(ctx, org, inv); err != nil {
				s.recordError(summary, m, org.Name, err)
				continue
			}
			if org.Status != orgdomain.StatusSuspended {
				org.Status = orgdomain.StatusSuspended
				summary.Stats.Suspended++
				summary.Details.Suspended = append(summary.Details.Suspended, org.Name)
				m.IncReminderAction(metrics.ReminderActionSuspended)
			}

		case daysSinceIssue >= policy.SecondReminderDays:
			sent, err := s.remind(ctx, org, inv, activitylogdomain.ActionPaymentReminder2)
			if err != nil {
				s.recordError(summary, m, org.Name, err)
				continue
			}
			if sent {
				summary.Stats.SecondReminder++
				summary.Details.SecondReminder = append(summary.Details.SecondReminder, org.Name)
				m.IncReminderAction(metrics.ReminderActionSecond)
			}

		case daysSinceIssue >= policy.FirstReminderDays:
			sent, err := s.remind(ctx, org, inv, activitylogdomain.ActionPaymentReminder1)
			if err != nil {
				s.recordError(summary, m, org.Name, err)
				continue
			}
			if sent {
				summary.Stats.FirstReminder++
				summary.Details.FirstReminder = append(summary.Details.FirstReminder, org.Name)
				m.IncReminderAction(metrics.ReminderActionFirst)
			}
		}
	}

	s.drainScheduled(ctx, now)

	m.ObserveJobDuration(metrics.JobPaymentReminders, s.clock.Now().Sub(started))
	return summary, nil
}

// remind sends one reminder stage at most once per invoice. Stage 1 is
// skipped when any prior reminder exists; stage 2 is gated only on its own
// prior entry, not on stage 1 having fired, since the day windows are
// disjoint.
func (s *Service) remind(ctx context.Context, org *orgdomain.Organization, inv *invoicedomain.Invoice, action string) (bool, error) {
	guardActions := []string{action}
	if action == activitylogdomain.ActionPaymentReminder1 {
		guardActions = []string{activitylogdomain.ActionPaymentReminder1, activitylogdomain.ActionPaymentReminder2}
	}
	prior, err := s.activitySvc.LatestByEntity(ctx, activitylogdomain.EntityInvoice, inv.ID.String(), guardActions...)
	if err != nil {
		return false, err
	}
	if prior != nil {
		return false, nil
	}

	template := "payment_reminder_1"
	if action == activitylogdomain.ActionPaymentReminder2 {
		template = "payment_reminder_2"
	}
	if err := s.email.SendTemplate(ctx, []string{billingRecipient(org)}, template, map[string]any{
		"owner_name":     org.OwnerName,
		"invoice_number": inv.InvoiceNumber,
		"amount":         format.Euros(inv.AmountCents),
		"due_date":       inv.DueAt.Format("02/01/2006"),
	}); err != nil {
		return false, fmt.Errorf("send %s: %w", template, err)
	}

	if err := s.activitySvc.Record(ctx, org.ID, activitylogdomain.EntityInvoice, inv.ID.String(), action, map[string]any{
		"invoice_number": inv.InvoiceNumber,
		"amount_cents":   inv.AmountCents,
	}); err != nil {
		return false, err
	}
	return true, nil
}

// suspend applies the day-21 branch. An already-suspended organization is a
// no-op: nothing is sent and nothing is logged.
func (s *Service) suspend(ctx context.Context, org *orgdomain.Organization, inv *invoicedomain.Invoice) error {
	if org.Status == orgdomain.StatusSuspended {
		return nil
	}

	if err := s.orgSvc.Suspend(ctx, org.ID); err != nil {
		return err
	}

	// Suspension notice failures are logged and swallowed: the status
	// change is authoritative, the email is best effort.
	if err := s.email.SendTemplate(ctx, []string{billingRecipient(org)}, "suspension_notice", map[string]any{
		"owner_name":     org.OwnerName,
		"invoice_number": inv.InvoiceNumber,
		"amount":         format.Euros(inv.AmountCents),
	}); err != nil {
		s.log.Warn("suspension notice failed",
			zap.String("org_id", org.ID.String()),
			zap.Error(err),
		)
	}

	if err := s.activitySvc.Record(ctx, org.ID, activitylogdomain.EntityOrganization, org.ID.String(), activitylogdomain.ActionOrganizationSuspended, map[string]any{
		"invoice_number": inv.InvoiceNumber,
	}); err != nil {
		return err
	}
	return nil
}

// drainScheduled delivers due scheduled notifications. Each item is claimed
// with a guarded mark before sending so overlapping runs cannot double-send;
// a send failure after the claim is logged and swallowed.
func (s *Service) drainScheduled(ctx context.Context, now time.Time) {
	due, err := s.notificationRepo.ListDue(ctx, s.db, now, scheduledBatchSize)
	if err != nil {
		s.log.Warn("scheduled notification scan failed", zap.Error(err))
		return
	}

	for i := range due {
		item := &due[i]

		claimed, err := s.notificationRepo.MarkSent(ctx, s.db, item.ID, now)
		if err != nil {
			s.log.Warn("scheduled notification claim failed",
				zap.String("id", item.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !claimed {
			continue
		}

		data := make(map[string]any, len(item.Payload))
		for k, v := range item.Payload {
			data[k] = v
		}
		if err := s.email.SendTemplate(ctx, []string{item.Recipient}, item.Template, data); err != nil {
			s.log.Warn("scheduled notification send failed",
				zap.String("id", item.ID.String()),
				zap.String("template", item.Template),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) recordError(summary *domain.Summary, m *metrics.BillingMetrics, org string, err error) {
	summary.Stats.Errors++
	summary.Details.Errors = append(summary.Details.Errors, domain.OrgError{Org: org, Error: err.Error()})
	m.IncJobError(metrics.JobPaymentReminders)
	s.log.Error("escalation item failed", zap.String("org", org), zap.Error(err))
}

func billingRecipient(org *orgdomain.Organization) string {
	if org.BillingEmail != "" {
		return org.BillingEmail
	}
	return org.OwnerEmail
}
