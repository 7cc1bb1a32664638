package payment

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrCaptureMismatch = errors.New("captured payment does not match the order")

// ProviderStatusCompleted is the processor's status for a settled capture.
const ProviderStatusCompleted = "COMPLETED"

// CaptureResult is what the processor reports after capturing an order.
type CaptureResult struct {
	OrderID     string
	CaptureID   string
	Status      string
	Amount      decimal.Decimal
	Currency    string
	ReferenceID string
	CustomID    string
}

// MatchCapture compares the processor's report with the stored payment. The returned
// error names the first mismatch for the internal log only.
//
// CustomID must always carry the payment id; a capture without it is a mismatch.
// Capture webhooks do not echo the purchase unit's reference_id, so ReferenceID is
// compared only when the processor reports one.
func (p *Payment) MatchCapture(c CaptureResult) error {
	if !c.Amount.Equal(p.amount) {
		return errors.Join(ErrCaptureMismatch, errors.New("amount "+c.Amount.StringFixed(2)+" != "+p.amount.StringFixed(2)))
	}
	if !strings.EqualFold(c.Currency, p.currency) {
		return errors.Join(ErrCaptureMismatch, errors.New("currency "+c.Currency+" != "+p.currency))
	}
	if c.ReferenceID != "" && c.ReferenceID != p.planID.String() {
		return errors.Join(ErrCaptureMismatch, errors.New("reference "+c.ReferenceID+" != plan "+p.planID.String()))
	}
	if c.CustomID != p.id.String() {
		return errors.Join(ErrCaptureMismatch, errors.New("custom id "+c.CustomID+" != payment "+p.id.String()))
	}
	return nil
}

func (c CaptureResult) IsCompleted() bool {
	return strings.EqualFold(c.Status, ProviderStatusCompleted)
}
