package grant

import (
	"errors"
	"time"

	"hostdash/internal/domain/entitlement"

	"github.com/google/uuid"
)

var (
	ErrAlreadyApplied   = errors.New("grant benefits already applied")
	ErrNotActive        = errors.New("grant is not active")
	ErrNegativeAmount   = errors.New("grant amounts cannot be negative")
	ErrEmptyGrant       = errors.New("grant carries no coins or resources")
	ErrMissingSourceRef = errors.New("grant source reference is required")
)

// Amount is what a grant adds to a user. Recurring resources are revoked when the grant
// expires; one-time resources and coins are kept.
type Amount struct {
	Coins     int64
	Recurring entitlement.Resources // memory, disk, cpu
	OneTime   OneTime
}

type OneTime struct {
	Backups     int64
	Databases   int64
	Allocations int64
	ServerSlots int64
}

func (a Amount) validate() error {
	r := a.Recurring
	if a.Coins < 0 || r.MemoryMB < 0 || r.DiskMB < 0 || r.CPUPercent < 0 ||
		a.OneTime.Backups < 0 || a.OneTime.Databases < 0 || a.OneTime.Allocations < 0 || a.OneTime.ServerSlots < 0 {
		return ErrNegativeAmount
	}
	if a == (Amount{}) {
		return ErrEmptyGrant
	}
	return nil
}

// Delta is the change to a user's stored totals.
type Delta struct {
	Coins       int64
	Resources   entitlement.Resources
	ServerSlots int64
}

func (a Amount) Delta() Delta {
	return Delta{
		Coins: a.Coins,
		Resources: entitlement.Resources{
			DiskMB:      a.Recurring.DiskMB,
			MemoryMB:    a.Recurring.MemoryMB,
			CPUPercent:  a.Recurring.CPUPercent,
			Backups:     a.OneTime.Backups,
			Databases:   a.OneTime.Databases,
			Allocations: a.OneTime.Allocations,
		},
		ServerSlots: a.OneTime.ServerSlots,
	}
}

// RevocationDelta removes only the recurring contribution.
func (a Amount) RevocationDelta() Delta {
	return Delta{
		Resources: entitlement.Resources{
			DiskMB:     -a.Recurring.DiskMB,
			MemoryMB:   -a.Recurring.MemoryMB,
			CPUPercent: -a.Recurring.CPUPercent,
		},
	}
}

// State is either Pending or Applied. Apply is the only way to move between them.
type State interface {
	isState()
	Applied() bool
}

type Pending struct{}

type Applied struct {
	At time.Time
}

func (Pending) isState()        {}
func (Pending) Applied() bool   { return false }
func (Applied) isState()        {}
func (a Applied) Applied() bool { return true }

type Grant struct {
	id           uuid.UUID
	userID       uuid.UUID
	source       Source
	sourceRef    string
	planID       *uuid.UUID
	amount       Amount
	status       Status
	billingCycle BillingCycle
	purchasedAt  time.Time
	expiresAt    *time.Time
	state        State
}

type NewParams struct {
	UserID       uuid.UUID
	Source       Source
	SourceRef    string
	PlanID       *uuid.UUID
	Amount       Amount
	BillingCycle BillingCycle
	PurchasedAt  time.Time
}

func New(p NewParams) (*Grant, error) {
	if p.SourceRef == "" {
		return nil, ErrMissingSourceRef
	}
	if err := p.Amount.validate(); err != nil {
		return nil, err
	}
	cycle := p.BillingCycle
	if cycle == "" {
		cycle = CycleLifetime
	}
	expiresAt, err := cycle.ExpiresAt(p.PurchasedAt)
	if err != nil {
		return nil, err
	}
	return &Grant{
		id:           uuid.New(),
		userID:       p.UserID,
		source:       p.Source,
		sourceRef:    p.SourceRef,
		planID:       p.PlanID,
		amount:       p.Amount,
		status:       StatusActive,
		billingCycle: cycle,
		purchasedAt:  p.PurchasedAt,
		expiresAt:    expiresAt,
		state:        Pending{},
	}, nil
}

type ReconstructParams struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Source       Source
	SourceRef    string
	PlanID       *uuid.UUID
	Amount       Amount
	Status       Status
	BillingCycle BillingCycle
	PurchasedAt  time.Time
	ExpiresAt    *time.Time
	AppliedAt    *time.Time
}

func Reconstruct(p ReconstructParams) *Grant {
	var state State = Pending{}
	if p.AppliedAt != nil {
		state = Applied{At: *p.AppliedAt}
	}
	return &Grant{
		id:           p.ID,
		userID:       p.UserID,
		source:       p.Source,
		sourceRef:    p.SourceRef,
		planID:       p.PlanID,
		amount:       p.Amount,
		status:       p.Status,
		billingCycle: p.BillingCycle,
		purchasedAt:  p.PurchasedAt,
		expiresAt:    p.ExpiresAt,
		state:        state,
	}
}

// Apply transitions Pending -> Applied and returns the delta to add to the user's totals.
func (g *Grant) Apply(now time.Time) (Delta, error) {
	if g.state.Applied() {
		return Delta{}, ErrAlreadyApplied
	}
	if g.status != StatusActive {
		return Delta{}, ErrNotActive
	}
	g.state = Applied{At: now}
	return g.amount.Delta(), nil
}

// Expire marks an active grant expired. The returned delta revokes the recurring part,
// and is zero when the benefits were never applied.
func (g *Grant) Expire() (Delta, error) {
	return g.end(StatusExpired)
}

func (g *Grant) Cancel() (Delta, error) {
	return g.end(StatusCancelled)
}

func (g *Grant) end(to Status) (Delta, error) {
	if g.status != StatusActive {
		return Delta{}, ErrNotActive
	}
	g.status = to
	if !g.state.Applied() {
		return Delta{}, nil
	}
	return g.amount.RevocationDelta(), nil
}

func (g *Grant) IsExpiredAt(t time.Time) bool {
	return g.expiresAt != nil && !t.Before(*g.expiresAt)
}

func (g *Grant) ID() uuid.UUID              { return g.id }
func (g *Grant) UserID() uuid.UUID          { return g.userID }
func (g *Grant) Source() Source             { return g.source }
func (g *Grant) SourceRef() string          { return g.sourceRef }
func (g *Grant) PlanID() *uuid.UUID         { return g.planID }
func (g *Grant) Amount() Amount             { return g.amount }
func (g *Grant) Status() Status             { return g.status }
func (g *Grant) BillingCycle() BillingCycle { return g.billingCycle }
func (g *Grant) IsLifetime() bool           { return g.expiresAt == nil }
func (g *Grant) PurchasedAt() time.Time     { return g.purchasedAt }
func (g *Grant) ExpiresAt() *time.Time      { return g.expiresAt }
func (g *Grant) State() State               { return g.state }

func (g *Grant) AppliedAt() *time.Time {
	if a, ok := g.state.(Applied); ok {
		t := a.At
		return &t
	}
	return nil
}
