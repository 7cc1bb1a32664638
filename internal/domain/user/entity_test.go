//go:build unit

package user_test

import (
	"testing"
	"time"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/domain/grant"
	"hostdash/internal/domain/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

func newUser(coins int64) *user.User {
	return user.Reconstruct(user.ReconstructParams{
		ID:    uuid.New(),
		Email: "player@example.com",
		Role:  user.RoleUser,
		Totals: entitlement.Envelope{
			Resources:   entitlement.Resources{MemoryMB: 1024, DiskMB: 2048, CPUPercent: 50},
			ServerSlots: 1,
		},
		Coins:        coins,
		ReferralCode: "ABCDEF23",
	})
}

func TestApplyDelta(t *testing.T) {
	u := newUser(10)
	u.ApplyDelta(grant.Delta{
		Coins:       5,
		Resources:   entitlement.Resources{MemoryMB: 512, Backups: 1},
		ServerSlots: 1,
	}, now)
	assert.Equal(t, int64(15), u.Coins())
	assert.Equal(t, int64(1536), u.Totals().MemoryMB)
	assert.Equal(t, int64(1), u.Totals().Backups)
	assert.Equal(t, int64(2), u.Totals().ServerSlots)

	t.Run("revocation never drives totals negative", func(t *testing.T) {
		u.ApplyDelta(grant.Delta{Resources: entitlement.Resources{MemoryMB: -99999}}, now)
		assert.Zero(t, u.Totals().MemoryMB)
		assert.Equal(t, int64(2048), u.Totals().DiskMB)
	})
}

func TestSpendCoins(t *testing.T) {
	u := newUser(100)
	require.NoError(t, u.SpendCoins(60, now))
	assert.Equal(t, int64(40), u.Coins())
	assert.ErrorIs(t, u.SpendCoins(41, now), user.ErrInsufficientCoins)
	assert.Equal(t, int64(40), u.Coins())
}

func TestAcceptReferral(t *testing.T) {
	u := newUser(0)
	assert.ErrorIs(t, u.AcceptReferral(u.ID(), now), user.ErrSelfReferral)

	referrer := uuid.New()
	require.NoError(t, u.AcceptReferral(referrer, now))
	assert.Equal(t, referrer, *u.ReferredBy())
	assert.ErrorIs(t, u.AcceptReferral(uuid.New(), now), user.ErrAlreadyReferred)
}

func TestValueObjects(t *testing.T) {
	t.Run("roles", func(t *testing.T) {
		for _, r := range []string{"user", "admin"} {
			_, err := user.NewRole(r)
			assert.NoError(t, err)
		}
		_, err := user.NewRole("operator")
		assert.ErrorIs(t, err, user.ErrInvalidRole)
	})

	t.Run("emails", func(t *testing.T) {
		_, err := user.NewEmail("valid@example.com")
		assert.NoError(t, err)
		_, err = user.NewEmail("invalid-email")
		assert.ErrorIs(t, err, user.ErrInvalidEmail)
	})

	t.Run("referral codes", func(t *testing.T) {
		code, err := user.NewReferralCode(" abcd2345 ")
		require.NoError(t, err)
		assert.Equal(t, user.ReferralCode("ABCD2345"), code)

		_, err = user.NewReferralCode("ab")
		assert.ErrorIs(t, err, user.ErrInvalidReferralCode)

		gen, err := user.GenerateReferralCode()
		require.NoError(t, err)
		_, err = user.NewReferralCode(gen.String())
		assert.NoError(t, err)
	})
}
