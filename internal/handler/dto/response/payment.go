package response

import (
	"time"

	"hostdash/internal/domain/payment"
	"hostdash/internal/usecase/commands"

	"github.com/google/uuid"
)

type PaymentResponse struct {
	ID              uuid.UUID `json:"id"`
	PlanID          uuid.UUID `json:"planId"`
	Provider        string    `json:"provider"`
	ProviderOrderID *string   `json:"providerOrderId,omitempty"`
	Amount          string    `json:"amount"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	BillingCycle    string    `json:"billingCycle"`
	CouponCode      *string   `json:"couponCode,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type CreateOrderResponse struct {
	Payment    *PaymentResponse `json:"payment"`
	OrderID    string           `json:"orderId"`
	ApproveURL string           `json:"approveUrl"`
}

type CaptureOrderResponse struct {
	Payment  *PaymentResponse `json:"payment"`
	Envelope EnvelopeResponse `json:"envelope"`
	Coins    int64            `json:"coins"`
	Replayed bool             `json:"replayed"`
}

func FromPayment(p *payment.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:              p.ID(),
		PlanID:          p.PlanID(),
		Provider:        p.Provider(),
		ProviderOrderID: p.ProviderOrderID(),
		Amount:          p.Amount().StringFixed(2),
		Currency:        p.Currency(),
		Status:          string(p.Status()),
		BillingCycle:    p.BillingCycle().String(),
		CouponCode:      p.CouponCode(),
		CreatedAt:       p.CreatedAt(),
		UpdatedAt:       p.UpdatedAt(),
	}
}

func FromCreateOrderResult(r *commands.CreateOrderResult) *CreateOrderResponse {
	resp := &CreateOrderResponse{Payment: FromPayment(r.Payment), ApproveURL: r.ApproveURL}
	if id := r.Payment.ProviderOrderID(); id != nil {
		resp.OrderID = *id
	}
	return resp
}

func FromCaptureOrderResult(r *commands.CaptureOrderResult) *CaptureOrderResponse {
	return &CaptureOrderResponse{
		Payment:  FromPayment(r.Payment),
		Envelope: FromEnvelope(r.Envelope),
		Coins:    r.Coins,
		Replayed: r.Replayed,
	}
}
