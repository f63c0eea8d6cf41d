// Package domain contains persistence models for organizations.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status represents the organization billing lifecycle state.
type Status string

const (
	StatusTrial     Status = "TRIAL"
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusCancelled Status = "CANCELLED"
)

// Plan is the subscription tier driving the monthly price.
type Plan string

const (
	PlanEssential  Plan = "essential"
	PlanPremium    Plan = "premium"
	PlanExcellence Plan = "excellence"
)

// Organization represents a tenant (a beauty institute on subscription).
type Organization struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"type:text;not null" json:"name"`
	Slug         string       `gorm:"type:text;not null;uniqueIndex:ux_organizations_slug" json:"slug"`
	Status       Status       `gorm:"type:text;not null;default:'TRIAL'" json:"status"`
	Plan         Plan         `gorm:"type:text;not null" json:"plan"`
	TrialEndsAt  *time.Time   `gorm:"" json:"trial_ends_at"`
	OwnerName    string       `gorm:"type:text;not null" json:"owner_name"`
	OwnerEmail   string       `gorm:"type:text;not null" json:"owner_email"`
	BillingEmail string       `gorm:"type:text" json:"billing_email"`

	// Payment-processor references. ConnectedAccountID is the merchant
	// sub-account funds settle on for end-customer payments.
	ProcessorCustomerID     string `gorm:"type:text;column:processor_customer_id" json:"-"`
	ProcessorSubscriptionID string `gorm:"type:text;column:processor_subscription_id" json:"-"`
	ConnectedAccountID      string `gorm:"type:text;column:connected_account_id" json:"-"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

// Member represents membership of a user in an organization.
type Member struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_org_user,priority:1" json:"org_id"`
	UserID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_org_user,priority:2" json:"user_id"`
	Role      string       `gorm:"type:text;not null" json:"role"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Member) TableName() string { return "organization_members" }
