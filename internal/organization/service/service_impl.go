package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	activitylogdomain "github.com/laiahq/platform/internal/activitylog/domain"
	"github.com/laiahq/platform/internal/clock"
	"github.com/laiahq/platform/internal/config"
	invoicedomain "github.com/laiahq/platform/internal/invoice/domain"
	notificationdomain "github.com/laiahq/platform/internal/notification/domain"
	"github.com/laiahq/platform/internal/organization/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// welcomeFollowupDelay is how long after onboarding the follow-up message is
// scheduled. Durable: a restart between onboarding and the send does not lose it.
const welcomeFollowupDelay = 48 * time.Hour

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	GenID            *snowflake.Node
	Clock            clock.Clock
	Repo             domain.Repository
	InvoiceSvc       invoicedomain.Service
	ActivitySvc      activitylogdomain.Service
	NotificationRepo notificationdomain.Repository
	BillingCfg       *config.BillingPolicyHolder
}

type Service struct {
	db               *gorm.DB
	log              *zap.Logger
	genID            *snowflake.Node
	clock            clock.Clock
	repo             domain.Repository
	invoiceSvc       invoicedomain.Service
	activitySvc      activitylogdomain.Service
	notificationRepo notificationdomain.Repository
	billingCfg       *config.BillingPolicyHolder
}

func NewService(p Params) domain.Service {
	return &Service{
		db:               p.DB,
		log:              p.Log.Named("organization.service"),
		genID:            p.GenID,
		clock:            p.Clock,
		repo:             p.Repo,
		invoiceSvc:       p.InvoiceSvc,
		activitySvc:      p.ActivitySvc,
		notificationRepo: p.NotificationRepo,
		billingCfg:       p.BillingCfg,
	}
}

func (s *Service) Onboard(ctx context.Context, userID snowflake.ID, req domain.OnboardRequest) (*domain.Organization, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	ownerEmail := strings.TrimSpace(req.OwnerEmail)
	if ownerEmail == "" || !strings.Contains(ownerEmail, "@") {
		return nil, domain.ErrInvalidEmail
	}
	policy := s.billingCfg.Get()
	price, ok := policy.PlanPriceCents[string(req.Plan)]
	if !ok {
		return nil, domain.ErrInvalidPlan
	}

	now := s.clock.Now()
	trialEnds := now.AddDate(0, 0, policy.TrialDays)
	billingEmail := strings.TrimSpace(req.BillingEmail)
	if billingEmail == "" {
		billingEmail = ownerEmail
	}

	org := &domain.Organization{
		ID:           s.genID.Generate(),
		Name:         name,
		Slug:         uniqueSlug(name, s.genID.Generate()),
		Status:       domain.StatusTrial,
		Plan:         req.Plan,
		TrialEndsAt:  &trialEnds,
		OwnerName:    strings.TrimSpace(req.OwnerName),
		OwnerEmail:   ownerEmail,
		BillingEmail: billingEmail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, org); err != nil {
			return err
		}
		if err := s.repo.AddMember(ctx, tx, &domain.Member{
			ID:        s.genID.Generate(),
			OrgID:     org.ID,
			UserID:    userID,
			Role:      domain.RoleOwner,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		return s.notificationRepo.Insert(ctx, tx, &notificationdomain.Scheduled{
			ID:        s.genID.Generate(),
			OrgID:     org.ID,
			Recipient: ownerEmail,
			Template:  "welcome_followup",
			Payload: datatypes.JSONMap{
				"owner_name":    org.OwnerName,
				"org_name":      org.Name,
				"trial_ends_at": trialEnds.Format("02/01/2006"),
			},
			SendAt:    now.Add(welcomeFollowupDelay),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	// The first subscription cycle is settled at onboarding; its invoice is
	// created directly in PAID.
	if _, err := s.invoiceSvc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		OrgID:         org.ID,
		Status:        invoicedomain.InvoiceStatusPaid,
		IssuedAt:      now,
		BillToName:    org.Name,
		BillToEmail:   billingEmail,
		BillToAddress: "",
		Items: []invoicedomain.CreateInvoiceItem{
			{
				Description:     fmt.Sprintf("Abonnement Laia %s — premier mois", req.Plan),
				Quantity:        1,
				UnitAmountCents: price,
			},
		},
	}); err != nil {
		// The tenant exists; a failed first invoice is surfaced but must
		// not roll back onboarding.
		s.log.Error("first invoice creation failed",
			zap.String("org_id", org.ID.String()),
			zap.Error(err),
		)
	}

	if err := s.activitySvc.Record(ctx, org.ID, activitylogdomain.EntityOrganization, org.ID.String(), activitylogdomain.ActionOrganizationCreated, map[string]any{
		"plan": string(req.Plan),
	}); err != nil {
		s.log.Warn("activity log write failed", zap.Error(err))
	}

	return org, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	org, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return org, nil
}

// Suspend moves the organization out of TRIAL or ACTIVE. The guarded update
// makes overlapping escalation runs idempotent: the second run finds no row
// to change and reports ErrInvalidTransition.
func (s *Service) Suspend(ctx context.Context, orgID snowflake.ID) error {
	org, err := s.GetByID(ctx, orgID)
	if err != nil {
		return err
	}
	if org.Status == domain.StatusSuspended {
		return nil
	}
	if !domain.CanTransition(org.Status, domain.StatusSuspended) {
		return domain.ErrInvalidTransition
	}

	changed, err := s.repo.UpdateStatus(ctx, s.db, orgID, org.Status, domain.StatusSuspended)
	if err != nil {
		return err
	}
	if !changed {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (s *Service) MemberRole(ctx context.Context, orgID, userID snowflake.ID) (string, error) {
	role, err := s.repo.MemberRole(ctx, s.db, orgID, userID)
	if err != nil {
		return "", err
	}
	if role == "" {
		return "", domain.ErrForbidden
	}
	return role, nil
}

func uniqueSlug(name string, suffix snowflake.ID) string {
	base := slug.Make(name)
	if base == "" {
		base = "institut"
	}
	return fmt.Sprintf("%s-%s", base, suffix.Base36())
}
