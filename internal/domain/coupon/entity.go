package coupon

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCouponExpired     = errors.New("coupon has expired")
	ErrCouponNotYetValid = errors.New("coupon is not yet valid")
	ErrCouponExhausted   = errors.New("coupon has no uses left")
	ErrCouponInactive    = errors.New("coupon is not active")
)

type Coupon struct {
	id        uuid.UUID
	code      Code
	discount  Discount
	validFrom *time.Time
	validTo   *time.Time
	maxUses   *int64
	uses      int64
	active    bool
}

type Params struct {
	ID        uuid.UUID
	Code      string
	Discount  Discount
	ValidFrom *time.Time
	ValidTo   *time.Time
	MaxUses   *int64
	Uses      int64
	Active    bool
}

func NewCoupon(p Params) (*Coupon, error) {
	code, err := NewCouponCode(p.Code)
	if err != nil {
		return nil, err
	}
	if !p.Discount.IsFixed() && !p.Discount.IsPercentage() {
		return nil, ErrMissingDiscount
	}
	return &Coupon{
		id:        p.ID,
		code:      code,
		discount:  p.Discount,
		validFrom: p.ValidFrom,
		validTo:   p.ValidTo,
		maxUses:   p.MaxUses,
		uses:      p.Uses,
		active:    p.Active,
	}, nil
}

func (c *Coupon) IsValidAt(t time.Time) bool {
	if c.validFrom != nil && t.Before(*c.validFrom) {
		return false
	}
	if c.validTo != nil && t.After(*c.validTo) {
		return false
	}
	return true
}

func (c *Coupon) ValidateUsage(t time.Time) error {
	if !c.active {
		return ErrCouponInactive
	}
	if c.validFrom != nil && t.Before(*c.validFrom) {
		return ErrCouponNotYetValid
	}
	if !c.IsValidAt(t) {
		return ErrCouponExpired
	}
	if c.maxUses != nil && c.uses >= *c.maxUses {
		return ErrCouponExhausted
	}
	return nil
}

func (c *Coupon) ApplyDiscount(basePriceCents int64) int64 {
	return c.discount.Apply(basePriceCents)
}

func (c *Coupon) ID() uuid.UUID         { return c.id }
func (c *Coupon) Code() Code            { return c.code }
func (c *Coupon) Discount() Discount    { return c.discount }
func (c *Coupon) ValidFrom() *time.Time { return c.validFrom }
func (c *Coupon) ValidTo() *time.Time   { return c.validTo }
func (c *Coupon) MaxUses() *int64       { return c.maxUses }
func (c *Coupon) Uses() int64           { return c.uses }
