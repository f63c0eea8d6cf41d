package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Create allocates the next invoice number, renders the PDF document
	// and persists invoice, lines and artifact path.
	Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error)

	GetByID(ctx context.Context, orgID, id snowflake.ID) (*Invoice, error)
	ListByOrg(ctx context.Context, orgID snowflake.ID) ([]Invoice, error)

	// MarkRefunded flips a PAID invoice to REFUNDED. Called only by the
	// refund orchestrator after a successful processor call.
	MarkRefunded(ctx context.Context, orgID, id snowflake.ID) error
}

type CreateInvoiceRequest struct {
	OrgID     snowflake.ID
	Status    InvoiceStatus // zero value defaults to PENDING
	IssuedAt  time.Time     // zero value defaults to now
	ChargeRef *string

	BillToName    string
	BillToAddress string
	BillToEmail   string

	Items []CreateInvoiceItem
}

type CreateInvoiceItem struct {
	Description     string
	Quantity        int64
	UnitAmountCents int64
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidItems        = errors.New("invalid_items")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrNotFound            = errors.New("invoice_not_found")
	ErrNotRefundable       = errors.New("invoice_not_refundable")
	ErrNumberExhausted     = errors.New("invoice_number_allocation_failed")
)
