package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/laiahq/platform/internal/invoice/domain"
	reservationdomain "github.com/laiahq/platform/internal/reservation/domain"
)

type Service interface {
	// Create validates and executes one refund. The processor is called
	// before anything is persisted, so a processor failure still leaves a
	// durable FAILED record; in that case both the record and
	// ErrProcessorFailure are returned.
	Create(ctx context.Context, actor Actor, req CreateRequest) (*CreatedRefund, error)

	// List returns all refunds of the organization with aggregate stats.
	List(ctx context.Context, orgID snowflake.ID) (*ListResult, error)
}

// Actor is the authenticated caller.
type Actor struct {
	UserID snowflake.ID
}

type CreateRequest struct {
	OrgID       snowflake.ID
	Target      Target
	AmountCents int64
	Reason      string
	Notes       string
}

// CreatedRefund carries the persisted record plus a summary of the document
// it targeted, for the API response.
type CreatedRefund struct {
	Refund      *Refund                        `json:"refund"`
	Invoice     *invoicedomain.Invoice         `json:"invoice,omitempty"`
	Reservation *reservationdomain.Reservation `json:"reservation,omitempty"`
}

type ListResult struct {
	Refunds []Refund `json:"refunds"`
	Stats   Stats    `json:"stats"`
}

type Stats struct {
	Total                int64                  `json:"total"`
	ByStatus             map[RefundStatus]int64 `json:"byStatus"`
	TotalAmountCents     int64                  `json:"totalAmountCents"`
	CompletedAmountCents int64                  `json:"completedAmountCents"`
}

var (
	ErrForbidden         = errors.New("refund_forbidden")
	ErrInvalidTarget     = errors.New("refund_target_invalid")
	ErrInvalidAmount     = errors.New("refund_amount_invalid")
	ErrInvalidReason     = errors.New("refund_reason_required")
	ErrTargetNotFound    = errors.New("refund_target_not_found")
	ErrTargetNotPaid     = errors.New("refund_target_not_paid")
	ErrMissingChargeRef  = errors.New("refund_target_missing_charge")
	ErrMissingConnected  = errors.New("refund_missing_connected_account")
	ErrAmountExceedsPaid = errors.New("refund_amount_exceeds_target")
	ErrProcessorFailure  = errors.New("refund_processor_failure")
)
