// Package domain contains the refund record and its target sum type.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// RefundStatus represents refund lifecycle states. COMPLETED and FAILED are
// terminal; a refund record is immutable once it reaches either.
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "PENDING"
	RefundStatusApproved  RefundStatus = "APPROVED"
	RefundStatusCompleted RefundStatus = "COMPLETED"
	RefundStatusRejected  RefundStatus = "REJECTED"
	RefundStatusFailed    RefundStatus = "FAILED"
)

// TargetKind discriminates what a refund is issued against.
type TargetKind string

const (
	TargetInvoice     TargetKind = "invoice"
	TargetReservation TargetKind = "reservation"
)

// Target identifies exactly one billing object. The kind also selects the
// processor path: invoices refund through the platform account, reservations
// through the institute's connected account. "Both" and "neither" are not
// representable; ParseTarget rejects them at the API boundary.
type Target struct {
	Kind TargetKind
	ID   snowflake.ID
}

func InvoiceTarget(id snowflake.ID) Target {
	return Target{Kind: TargetInvoice, ID: id}
}

func ReservationTarget(id snowflake.ID) Target {
	return Target{Kind: TargetReservation, ID: id}
}

// ParseTarget resolves the optional request fields into a Target.
func ParseTarget(invoiceID, reservationID *snowflake.ID) (Target, error) {
	switch {
	case invoiceID != nil && reservationID != nil:
		return Target{}, ErrInvalidTarget
	case invoiceID != nil:
		return InvoiceTarget(*invoiceID), nil
	case reservationID != nil:
		return ReservationTarget(*reservationID), nil
	default:
		return Target{}, ErrInvalidTarget
	}
}

// Refund is one refund attempt, successful or not. A processor failure is a
// first-class auditable event and still produces a FAILED row.
type Refund struct {
	ID    snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID snowflake.ID `gorm:"not null;index" json:"org_id"`

	// Exactly one of the two is set, matching the Target kind.
	InvoiceID     *snowflake.ID `gorm:"index" json:"invoice_id,omitempty"`
	ReservationID *snowflake.ID `gorm:"index" json:"reservation_id,omitempty"`

	AmountCents int64        `gorm:"not null" json:"amount_cents"`
	Reason      string       `gorm:"type:text;not null" json:"reason"`
	Notes       string       `gorm:"type:text" json:"notes,omitempty"`
	Status      RefundStatus `gorm:"type:text;not null" json:"status"`

	// ExternalRef is the processor refund identifier; nil when FAILED.
	ExternalRef *string `gorm:"type:text" json:"external_ref,omitempty"`

	RequestedBy snowflake.ID  `gorm:"not null" json:"requested_by"`
	ApprovedBy  *snowflake.ID `gorm:"" json:"approved_by,omitempty"`
	ProcessedAt *time.Time    `gorm:"" json:"processed_at,omitempty"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Refund) TableName() string { return "refunds" }
