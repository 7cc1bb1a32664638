//go:build unit

package payment_test

import (
	"testing"
	"time"

	"hostdash/internal/domain/coupon"
	"hostdash/internal/domain/grant"
	"hostdash/internal/domain/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func newPayment(t *testing.T) *payment.Payment {
	t.Helper()
	p, err := payment.New(payment.NewParams{
		Provider:     payment.ProviderPayPal,
		UserID:       uuid.New(),
		PlanID:       uuid.New(),
		Amount:       decimal.RequireFromString("10.00"),
		Currency:     "usd",
		BillingCycle: grant.CycleMonthly,
		Now:          now,
	})
	require.NoError(t, err)
	return p
}

func TestLifecycle(t *testing.T) {
	t.Run("created to completed to refunded", func(t *testing.T) {
		p := newPayment(t)
		assert.Equal(t, "USD", p.Currency())
		require.NoError(t, p.AttachOrder("ORDER-1", now))
		assert.ErrorIs(t, p.AttachOrder("ORDER-2", now), payment.ErrOrderIDAssigned)

		require.NoError(t, p.MarkCompleted("CAP-1", now))
		assert.Equal(t, payment.StatusCompleted, p.Status())
		assert.Equal(t, "CAP-1", *p.ProviderCaptureID())

		assert.ErrorIs(t, p.MarkCompleted("CAP-2", now), payment.ErrInvalidTransition)
		assert.ErrorIs(t, p.MarkFailed("late", now), payment.ErrInvalidTransition)

		require.NoError(t, p.Refund(now))
		assert.Equal(t, payment.StatusRefunded, p.Status())
		assert.ErrorIs(t, p.Void(now), payment.ErrInvalidTransition)
	})

	t.Run("failed payments cannot complete", func(t *testing.T) {
		p := newPayment(t)
		require.NoError(t, p.MarkFailed("processor said no", now))
		assert.True(t, p.Status().IsTerminalFailure())
		assert.ErrorIs(t, p.MarkCompleted("CAP", now), payment.ErrInvalidTransition)
	})

	t.Run("refund requires completion", func(t *testing.T) {
		p := newPayment(t)
		assert.ErrorIs(t, p.Refund(now), payment.ErrInvalidTransition)
	})

	t.Run("rejects bad amounts and currencies", func(t *testing.T) {
		_, err := payment.New(payment.NewParams{Amount: decimal.Zero, Currency: "USD"})
		assert.ErrorIs(t, err, payment.ErrInvalidAmount)
		_, err = payment.New(payment.NewParams{Amount: decimal.NewFromInt(1), Currency: "US"})
		assert.ErrorIs(t, err, payment.ErrInvalidCurrency)
	})
}

func TestMatchCapture(t *testing.T) {
	p := newPayment(t)
	ok := payment.CaptureResult{
		Status:      "COMPLETED",
		Amount:      decimal.RequireFromString("10"),
		Currency:    "USD",
		ReferenceID: p.PlanID().String(),
		CustomID:    p.ID().String(),
	}
	assert.NoError(t, p.MatchCapture(ok))
	assert.True(t, ok.IsCompleted())

	noReference := ok
	noReference.ReferenceID = ""
	assert.NoError(t, p.MatchCapture(noReference))

	cases := map[string]func(*payment.CaptureResult){
		"amount":            func(c *payment.CaptureResult) { c.Amount = decimal.RequireFromString("9.99") },
		"currency":          func(c *payment.CaptureResult) { c.Currency = "EUR" },
		"reference":         func(c *payment.CaptureResult) { c.ReferenceID = uuid.NewString() },
		"custom id":         func(c *payment.CaptureResult) { c.CustomID = uuid.NewString() },
		"custom id missing": func(c *payment.CaptureResult) { c.CustomID = "" },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			c := ok
			mut(&c)
			assert.ErrorIs(t, p.MatchCapture(c), payment.ErrCaptureMismatch)
		})
	}
}

func TestDefaultPriceCalculator(t *testing.T) {
	calc := payment.NewDefaultPriceCalculator()
	lifetime := int64(9900)
	plan := payment.PlanPrice{MonthlyCents: 500, LifetimeCents: &lifetime}

	t.Run("months multiply the monthly price", func(t *testing.T) {
		got, err := calc.CalculatePrice(plan, grant.CycleAnnual, nil, decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, "60.00", got.StringFixed(2))
	})

	t.Run("coupon before tax", func(t *testing.T) {
		d, _ := coupon.NewPercentageDiscount(decimal.NewFromInt(10))
		cp, err := coupon.NewCoupon(coupon.Params{ID: uuid.New(), Code: "TENOFF", Discount: d, Active: true})
		require.NoError(t, err)

		got, err := calc.CalculatePrice(plan, grant.CycleQuarterly, cp, decimal.NewFromInt(20))
		require.NoError(t, err)
		// 15.00 - 1.50 = 13.50, +20% = 16.20
		assert.Equal(t, "16.20", got.StringFixed(2))
	})

	t.Run("lifetime price", func(t *testing.T) {
		got, err := calc.CalculatePrice(plan, grant.CycleLifetime, nil, decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, "99.00", got.StringFixed(2))

		_, err = calc.CalculatePrice(payment.PlanPrice{MonthlyCents: 500}, grant.CycleLifetime, nil, decimal.Zero)
		assert.ErrorIs(t, err, payment.ErrLifetimeNotOffered)
	})

	t.Run("tax out of range", func(t *testing.T) {
		_, err := calc.CalculatePrice(plan, grant.CycleMonthly, nil, decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, payment.ErrInvalidTaxPercent)
	})
}
