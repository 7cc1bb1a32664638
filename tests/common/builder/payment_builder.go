//go:build unit || e2e

package builder

import (
	"time"

	"hostdash/internal/domain/grant"
	"hostdash/internal/domain/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentBuilder struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	PlanID       uuid.UUID
	OrderID      *string
	CaptureID    *string
	Amount       decimal.Decimal
	Currency     string
	Status       payment.Status
	BillingCycle grant.BillingCycle
	CouponCode   *string
	CreatedAt    time.Time
}

func NewPaymentBuilder() *PaymentBuilder {
	orderID := "ORDER-" + uuid.NewString()[:8]
	return &PaymentBuilder{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		PlanID:       uuid.New(),
		OrderID:      &orderID,
		Amount:       decimal.RequireFromString("9.99"),
		Currency:     "USD",
		Status:       payment.StatusCreated,
		BillingCycle: grant.CycleMonthly,
		CreatedAt:    time.Now(),
	}
}

func (p *PaymentBuilder) With(mutate func(*PaymentBuilder)) *PaymentBuilder {
	mutate(p)
	return p
}

func (p *PaymentBuilder) BuildDomain() *payment.Payment {
	return payment.Reconstruct(payment.ReconstructParams{
		ID:                p.ID,
		Provider:          payment.ProviderPayPal,
		ProviderOrderID:   p.OrderID,
		ProviderCaptureID: p.CaptureID,
		UserID:            p.UserID,
		PlanID:            p.PlanID,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Status:            p.Status,
		BillingCycle:      p.BillingCycle,
		CouponCode:        p.CouponCode,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.CreatedAt,
	})
}

// BuildCapture is the processor report that matches this payment exactly.
func (p *PaymentBuilder) BuildCapture() payment.CaptureResult {
	return payment.CaptureResult{
		OrderID:     *p.OrderID,
		CaptureID:   "CAPTURE-" + p.ID.String()[:8],
		Status:      payment.ProviderStatusCompleted,
		Amount:      p.Amount,
		Currency:    p.Currency,
		ReferenceID: p.PlanID.String(),
		CustomID:    p.ID.String(),
	}
}

func (p *PaymentBuilder) For(userID, planID uuid.UUID) *PaymentBuilder {
	p.UserID = userID
	p.PlanID = planID
	return p
}

func (p *PaymentBuilder) Completed() *PaymentBuilder {
	captureID := "CAPTURE-" + p.ID.String()[:8]
	p.Status = payment.StatusCompleted
	p.CaptureID = &captureID
	return p
}
