// Package domain contains the reservation surface the refund orchestrator
// needs. Booking itself (calendar, availability, customer flows) lives
// outside this engine.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Reservation is an end-customer booking paid through the institute's
// connected processor account.
type Reservation struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID  `gorm:"not null;index" json:"org_id"`
	CustomerName  string        `gorm:"type:text;not null" json:"customer_name"`
	CustomerEmail string        `gorm:"type:text;not null" json:"customer_email"`
	StartsAt      time.Time     `gorm:"not null" json:"starts_at"`
	AmountCents   int64         `gorm:"not null" json:"amount_cents"`
	Status        Status        `gorm:"type:text;not null;default:'confirmed'" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:text;not null;default:'pending'" json:"payment_status"`

	// ChargeRef is the processor charge on the org's connected account.
	ChargeRef *string `gorm:"type:text;column:charge_ref" json:"charge_ref"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Reservation) TableName() string { return "reservations" }

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Reservation, error)

	// MarkRefunded flips both status and payment status; guarded on the
	// payment currently being paid.
	MarkRefunded(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}

var ErrNotFound = errors.New("reservation_not_found")
