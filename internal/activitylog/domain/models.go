// Package domain contains persistence models for the activity log.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Actions recorded by the billing engine. The log is append-only and doubles
// as the idempotency ledger for the reminder escalation job.
const (
	ActionPaymentReminder1      = "PAYMENT_REMINDER_1"
	ActionPaymentReminder2      = "PAYMENT_REMINDER_2"
	ActionOrganizationSuspended = "ORGANIZATION_SUSPENDED"
	ActionOrganizationCreated   = "ORGANIZATION_CREATED"
	ActionRefundCompleted       = "REFUND_COMPLETED"
	ActionRefundFailed          = "REFUND_FAILED"
)

// Entity types referenced by log entries.
const (
	EntityInvoice      = "invoice"
	EntityOrganization = "organization"
	EntityRefund       = "refund"
)

// Entry is a single immutable activity record.
type Entry struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID      `gorm:"not null;index" json:"org_id"`
	EntityType string            `gorm:"type:text;not null;index:idx_activity_entity,priority:1" json:"entity_type"`
	EntityID   string            `gorm:"type:text;not null;index:idx_activity_entity,priority:2" json:"entity_id"`
	Action     string            `gorm:"type:text;not null" json:"action"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "activity_logs" }
