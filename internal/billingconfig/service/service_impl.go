package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/laiahq/platform/internal/billingconfig/domain"
	"github.com/laiahq/platform/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Default profile values. Rendering must always have legal text to print, so
// these are explicit rather than empty strings left to the template.
const (
	defaultLegalName   = "Institut de beauté"
	defaultCountry     = "France"
	defaultLegalFooter = "TVA non applicable, art. 293 B du CGI sauf mention contraire. " +
		"Paiement par prélèvement SEPA. Tout retard de paiement entraîne des pénalités " +
		"conformément à l'article L441-10 du Code de commerce."
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	BillingCfg *config.BillingPolicyHolder
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	billingCfg *config.BillingPolicyHolder
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("billingconfig.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		billingCfg: p.BillingCfg,
	}
}

// Resolve returns the stored billing profile for the organization, creating
// one from defaults when absent. Lookup or insert failures degrade to the
// in-memory defaults instead of propagating: a broken profile row must never
// block invoice generation.
func (s *Service) Resolve(ctx context.Context, orgID snowflake.ID) domain.ResolvedProfile {
	profile, err := s.repo.FindByOrg(ctx, s.db, orgID)
	if err != nil {
		s.log.Warn("billing profile lookup failed, using defaults",
			zap.String("org_id", orgID.String()),
			zap.Error(err),
		)
		return domain.ResolvedProfile{BillingProfile: s.defaults(orgID), UsedDefaults: true}
	}
	if profile != nil {
		return domain.ResolvedProfile{BillingProfile: *profile, UsedDefaults: false}
	}

	created := s.defaults(orgID)
	if err := s.repo.Insert(ctx, s.db, &created); err != nil {
		s.log.Warn("billing profile create failed, using defaults",
			zap.String("org_id", orgID.String()),
			zap.Error(err),
		)
	}
	return domain.ResolvedProfile{BillingProfile: created, UsedDefaults: true}
}

func (s *Service) defaults(orgID snowflake.ID) domain.BillingProfile {
	policy := s.billingCfg.Get()
	now := time.Now().UTC()
	return domain.BillingProfile{
		ID:              s.genID.Generate(),
		OrgID:           orgID,
		LegalName:       defaultLegalName,
		Country:         defaultCountry,
		InvoicePrefix:   policy.InvoicePrefix,
		LegalFooter:     defaultLegalFooter,
		PaymentTermDays: policy.PaymentTermDays,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
