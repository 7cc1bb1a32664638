package payment

import (
	"errors"

	"hostdash/internal/domain/coupon"
	"hostdash/internal/domain/grant"

	"github.com/shopspring/decimal"
)

var (
	ErrLifetimeNotOffered = errors.New("plan is not offered as lifetime")
	ErrInvalidTaxPercent  = errors.New("tax percent must be between 0 and 100")
)

type PlanPrice struct {
	MonthlyCents  int64
	LifetimeCents *int64
}

type PriceCalculator interface {
	CalculatePrice(plan PlanPrice, cycle grant.BillingCycle, cp *coupon.Coupon, taxPercent decimal.Decimal) (decimal.Decimal, error)
}

type DefaultPriceCalculator struct{}

func NewDefaultPriceCalculator() *DefaultPriceCalculator {
	return &DefaultPriceCalculator{}
}

// CalculatePrice returns (base - coupon) + flat tax, in currency units with two decimals.
func (pc *DefaultPriceCalculator) CalculatePrice(plan PlanPrice, cycle grant.BillingCycle, cp *coupon.Coupon, taxPercent decimal.Decimal) (decimal.Decimal, error) {
	if taxPercent.IsNegative() || taxPercent.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, ErrInvalidTaxPercent
	}

	var baseCents int64
	if cycle.IsLifetime() {
		if plan.LifetimeCents == nil {
			return decimal.Zero, ErrLifetimeNotOffered
		}
		baseCents = *plan.LifetimeCents
	} else {
		months, err := cycle.Months()
		if err != nil {
			return decimal.Zero, err
		}
		baseCents = plan.MonthlyCents * int64(months)
	}

	if cp != nil {
		baseCents = cp.ApplyDiscount(baseCents)
	}

	net := decimal.New(baseCents, -2)
	tax := net.Mul(taxPercent).Div(decimal.NewFromInt(100))
	return net.Add(tax).Round(2), nil
}
