package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ResolvedProfile is a billing profile plus the origin of its values.
// UsedDefaults is observable so callers (and tests) can tell a stored profile
// apart from the fallback one.
type ResolvedProfile struct {
	BillingProfile
	UsedDefaults bool
}

// Service resolves the billing profile used to render invoices. Resolution
// never fails the caller: missing profiles are created with defaults and read
// errors fall back to the same defaults. Invoice rendering sits on the
// critical path of onboarding and the escalation job and must not be blocked
// by profile lookups.
type Service interface {
	Resolve(ctx context.Context, orgID snowflake.ID) ResolvedProfile
}

type Repository interface {
	FindByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*BillingProfile, error)
	Insert(ctx context.Context, db *gorm.DB, profile *BillingProfile) error
}
