package user

import (
	"errors"
	"time"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/domain/grant"

	"github.com/google/uuid"
)

var (
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrSelfReferral      = errors.New("cannot use your own referral code")
	ErrAlreadyReferred   = errors.New("referral already claimed")
)

// User carries the stored entitlement totals. Every applied grant is already folded in.
type User struct {
	id           uuid.UUID
	email        Email
	role         Role
	panelUserID  int64
	totals       entitlement.Envelope
	coins        int64
	referralCode ReferralCode
	referredBy   *uuid.UUID
	createdAt    time.Time
	updatedAt    time.Time
}

type ReconstructParams struct {
	ID           uuid.UUID
	Email        string
	Role         Role
	PanelUserID  int64
	Totals       entitlement.Envelope
	Coins        int64
	ReferralCode string
	ReferredBy   *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func Reconstruct(p ReconstructParams) *User {
	return &User{
		id:           p.ID,
		email:        Email{value: p.Email},
		role:         p.Role,
		panelUserID:  p.PanelUserID,
		totals:       p.Totals,
		coins:        p.Coins,
		referralCode: ReferralCode(p.ReferralCode),
		referredBy:   p.ReferredBy,
		createdAt:    p.CreatedAt,
		updatedAt:    p.UpdatedAt,
	}
}

// ApplyDelta adds a grant delta to the totals. Negative results are clamped at zero.
func (u *User) ApplyDelta(d grant.Delta, now time.Time) {
	u.totals.Resources = u.totals.Resources.Add(d.Resources).ClampZero()
	u.totals.ServerSlots = max(u.totals.ServerSlots+d.ServerSlots, 0)
	u.coins = max(u.coins+d.Coins, 0)
	u.updatedAt = now
}

func (u *User) SpendCoins(amount int64, now time.Time) error {
	if amount < 0 || u.coins < amount {
		return ErrInsufficientCoins
	}
	u.coins -= amount
	u.updatedAt = now
	return nil
}

func (u *User) AcceptReferral(referrerID uuid.UUID, now time.Time) error {
	if referrerID == u.id {
		return ErrSelfReferral
	}
	if u.referredBy != nil {
		return ErrAlreadyReferred
	}
	u.referredBy = &referrerID
	u.updatedAt = now
	return nil
}

func (u *User) Envelope() entitlement.Envelope {
	return entitlement.EffectiveEnvelope(u.totals)
}

func (u *User) ID() uuid.UUID                { return u.id }
func (u *User) Email() Email                 { return u.email }
func (u *User) Role() Role                   { return u.role }
func (u *User) PanelUserID() int64           { return u.panelUserID }
func (u *User) Totals() entitlement.Envelope { return u.totals }
func (u *User) Coins() int64                 { return u.coins }
func (u *User) ReferralCode() ReferralCode   { return u.referralCode }
func (u *User) ReferredBy() *uuid.UUID       { return u.referredBy }
func (u *User) CreatedAt() time.Time         { return u.createdAt }
func (u *User) UpdatedAt() time.Time         { return u.updatedAt }
