//go:build unit || e2e

package builder

import (
	"strings"
	"time"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/domain/user"

	"github.com/google/uuid"
)

type UserBuilder struct {
	ID           uuid.UUID
	Email        string
	Role         user.Role
	PanelUserID  int64
	Totals       entitlement.Envelope
	Coins        int64
	ReferralCode string
	ReferredBy   *uuid.UUID
}

func NewUserBuilder() *UserBuilder {
	id := uuid.New()
	return &UserBuilder{
		ID:          id,
		Email:       "player@example.com",
		Role:        user.RoleUser,
		PanelUserID: 42,
		Totals: entitlement.Envelope{
			Resources: entitlement.Resources{
				MemoryMB:    4096,
				DiskMB:      20480,
				CPUPercent:  200,
				Backups:     2,
				Databases:   2,
				Allocations: 2,
			},
			ServerSlots: 2,
		},
		ReferralCode: "REF" + strings.ToUpper(id.String()[:8]),
	}
}

func (u *UserBuilder) With(mutate func(*UserBuilder)) *UserBuilder {
	mutate(u)
	return u
}

// Build methods
func (u *UserBuilder) BuildDomain() *user.User {
	now := time.Now()
	return user.Reconstruct(user.ReconstructParams{
		ID:           u.ID,
		Email:        u.Email,
		Role:         u.Role,
		PanelUserID:  u.PanelUserID,
		Totals:       u.Totals,
		Coins:        u.Coins,
		ReferralCode: u.ReferralCode,
		ReferredBy:   u.ReferredBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (u *UserBuilder) Principal() user.Principal {
	return user.Principal{UserID: u.ID, Role: u.Role}
}

// Fluent builder methods
func (u *UserBuilder) WithTotals(r entitlement.Resources, slots int64) *UserBuilder {
	u.Totals = entitlement.Envelope{Resources: r, ServerSlots: slots}
	return u
}

func (u *UserBuilder) WithCoins(coins int64) *UserBuilder {
	u.Coins = coins
	return u
}

func (u *UserBuilder) WithReferralCode(code string) *UserBuilder {
	u.ReferralCode = code
	return u
}

func (u *UserBuilder) AsAdmin() *UserBuilder {
	u.Role = user.RoleAdmin
	return u
}

func (u *UserBuilder) WithoutEntitlement() *UserBuilder {
	u.Totals = entitlement.Envelope{}
	return u
}
