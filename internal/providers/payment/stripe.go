package payment

import (
	"context"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/refund"
	"go.uber.org/zap"
)

// StripeProcessor executes refunds through the Stripe API.
type StripeProcessor struct {
	log *zap.Logger
}

func NewStripe(apiKey string, log *zap.Logger) *StripeProcessor {
	stripe.Key = apiKey
	return &StripeProcessor{log: log.Named("providers.payment.stripe")}
}

func (p *StripeProcessor) RefundCharge(ctx context.Context, chargeRef string, amountCents int64) (*RefundResult, error) {
	params, err := refundParams(ctx, chargeRef, amountCents)
	if err != nil {
		return nil, err
	}

	res, err := refund.New(params)
	if err != nil {
		return nil, err
	}
	return &RefundResult{ID: res.ID, Status: string(res.Status)}, nil
}

func (p *StripeProcessor) RefundConnectedCharge(ctx context.Context, accountID, chargeRef string, amountCents int64) (*RefundResult, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, ErrMissingAccount
	}
	params, err := refundParams(ctx, chargeRef, amountCents)
	if err != nil {
		return nil, err
	}
	params.SetStripeAccount(accountID)

	res, err := refund.New(params)
	if err != nil {
		return nil, err
	}
	return &RefundResult{ID: res.ID, Status: string(res.Status)}, nil
}

func refundParams(ctx context.Context, chargeRef string, amountCents int64) (*stripe.RefundParams, error) {
	chargeRef = strings.TrimSpace(chargeRef)
	if chargeRef == "" {
		return nil, ErrMissingCharge
	}

	params := &stripe.RefundParams{
		Amount: stripe.Int64(amountCents),
	}
	params.Context = ctx

	// Charges may be referenced either directly or through their payment
	// intent, depending on how the original payment was collected.
	if strings.HasPrefix(chargeRef, "pi_") {
		params.PaymentIntent = stripe.String(chargeRef)
	} else {
		params.Charge = stripe.String(chargeRef)
	}
	return params, nil
}
