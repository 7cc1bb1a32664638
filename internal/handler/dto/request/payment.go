package request

import (
	"strings"

	"hostdash/internal/usecase/commands"

	"github.com/google/uuid"
)

type CreateOrderRequest struct {
	PlanID       uuid.UUID `json:"planId" binding:"required"`
	BillingCycle string    `json:"billingCycle" binding:"required,billing_cycle"`
	CouponCode   *string   `json:"couponCode,omitempty" binding:"omitempty,max=64"`
}

func (r CreateOrderRequest) ToInput() commands.CreateOrderInput {
	return commands.CreateOrderInput{
		PlanID:       r.PlanID,
		BillingCycle: r.BillingCycle,
		CouponCode:   r.GetCouponCode(),
	}
}

func (r CreateOrderRequest) GetCouponCode() *string {
	if r.CouponCode == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*r.CouponCode)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
