package grant

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidBillingCycle = errors.New("invalid billing cycle")

type Source string

const (
	SourcePlan     Source = "plan"
	SourceShop     Source = "shop"
	SourceGift     Source = "gift"
	SourceReferral Source = "referral"
)

func (s Source) String() string { return string(s) }

type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string { return string(s) }

type BillingCycle string

const (
	CycleMonthly    BillingCycle = "monthly"
	CycleQuarterly  BillingCycle = "quarterly"
	CycleSemiAnnual BillingCycle = "semi-annual"
	CycleAnnual     BillingCycle = "annual"
	CycleLifetime   BillingCycle = "lifetime"
)

var cycleMonths = map[BillingCycle]int{
	CycleMonthly:    1,
	CycleQuarterly:  3,
	CycleSemiAnnual: 6,
	CycleAnnual:     12,
}

func ParseBillingCycle(s string) (BillingCycle, error) {
	c := BillingCycle(strings.ToLower(strings.TrimSpace(s)))
	if c == CycleLifetime {
		return c, nil
	}
	if _, ok := cycleMonths[c]; !ok {
		return "", ErrInvalidBillingCycle
	}
	return c, nil
}

func (c BillingCycle) String() string { return string(c) }

func (c BillingCycle) IsLifetime() bool { return c == CycleLifetime }

// Months returns the number of months the cycle buys. Lifetime has no month count.
func (c BillingCycle) Months() (int, error) {
	n, ok := cycleMonths[c]
	if !ok {
		return 0, ErrInvalidBillingCycle
	}
	return n, nil
}

// ExpiresAt is nil for lifetime cycles.
func (c BillingCycle) ExpiresAt(purchasedAt time.Time) (*time.Time, error) {
	if c.IsLifetime() {
		return nil, nil
	}
	n, err := c.Months()
	if err != nil {
		return nil, err
	}
	t := purchasedAt.AddDate(0, n, 0)
	return &t, nil
}
