package payment

import (
	"context"
	"fmt"
	"sync"
)

// Call records one refund dispatched to the mock processor.
type Call struct {
	Connected   bool
	AccountID   string
	ChargeRef   string
	AmountCents int64
}

// MockProcessor records refund calls and can be primed to fail. Used in tests
// and as the processor of last resort when no API key is configured.
type MockProcessor struct {
	mu    sync.Mutex
	seq   int
	Calls []Call
	Err   error
}

func NewMock() *MockProcessor {
	return &MockProcessor{}
}

func (p *MockProcessor) RefundCharge(ctx context.Context, chargeRef string, amountCents int64) (*RefundResult, error) {
	return p.record(Call{ChargeRef: chargeRef, AmountCents: amountCents})
}

func (p *MockProcessor) RefundConnectedCharge(ctx context.Context, accountID, chargeRef string, amountCents int64) (*RefundResult, error) {
	if accountID == "" {
		return nil, ErrMissingAccount
	}
	return p.record(Call{Connected: true, AccountID: accountID, ChargeRef: chargeRef, AmountCents: amountCents})
}

func (p *MockProcessor) record(call Call) (*RefundResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if call.ChargeRef == "" {
		return nil, ErrMissingCharge
	}
	if p.Err != nil {
		return nil, p.Err
	}

	p.seq++
	p.Calls = append(p.Calls, call)
	return &RefundResult{
		ID:     fmt.Sprintf("re_mock_%06d", p.seq),
		Status: "succeeded",
	}, nil
}
