// Package domain contains the durable outbound-notification queue. Delayed
// sends (like the onboarding follow-up) are enqueued here instead of armed on
// an in-process timer, so a restart cannot silently drop them.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Scheduled is one pending outbound notification.
type Scheduled struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID      `gorm:"not null;index" json:"org_id"`
	Recipient string            `gorm:"type:text;not null" json:"recipient"`
	Template  string            `gorm:"type:text;not null" json:"template"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb" json:"payload"`
	SendAt    time.Time         `gorm:"not null;index" json:"send_at"`
	SentAt    *time.Time        `gorm:"" json:"sent_at"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Scheduled) TableName() string { return "scheduled_notifications" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, item *Scheduled) error
	ListDue(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]Scheduled, error)

	// MarkSent is guarded on sent_at still being null so overlapping job
	// runs cannot double-send.
	MarkSent(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error)
}
