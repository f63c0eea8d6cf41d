package payment

import (
	"context"
	"errors"
)

// RefundResult is the processor's view of an executed refund.
type RefundResult struct {
	ID     string
	Status string
}

// Processor reverses charges on the payment processor. The two methods map
// to the two payment topologies: platform-collected charges (subscription
// invoices) and charges settled on a merchant sub-account (end-customer
// reservations).
type Processor interface {
	// RefundCharge refunds a charge collected on the platform account.
	RefundCharge(ctx context.Context, chargeRef string, amountCents int64) (*RefundResult, error)

	// RefundConnectedCharge refunds a charge that settled on the given
	// connected account.
	RefundConnectedCharge(ctx context.Context, accountID, chargeRef string, amountCents int64) (*RefundResult, error)
}

var (
	ErrMissingCharge  = errors.New("missing_charge_reference")
	ErrMissingAccount = errors.New("missing_connected_account")
)
