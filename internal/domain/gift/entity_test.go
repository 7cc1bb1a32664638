//go:build unit

package gift_test

import (
	"testing"
	"time"

	"hostdash/internal/domain/gift"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanRedeem(t *testing.T) {
	now := time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC)
	expires := now.Add(time.Hour)

	code := gift.Code{Code: "WELCOME", MaxRedemptions: 2, Redemptions: 1, ExpiresAt: &expires}
	assert.NoError(t, code.CanRedeem(false, now))
	assert.ErrorIs(t, code.CanRedeem(true, now), gift.ErrAlreadyRedeemed)
	assert.ErrorIs(t, code.CanRedeem(false, expires), gift.ErrExpired)

	code.Redemptions = 2
	assert.ErrorIs(t, code.CanRedeem(false, now), gift.ErrExhausted)

	unlimited := gift.Code{Code: "OPEN", Redemptions: 1000}
	assert.NoError(t, unlimited.CanRedeem(false, now))
}

func TestNormalizeCode(t *testing.T) {
	c, err := gift.NormalizeCode("  welcome-26 ")
	require.NoError(t, err)
	assert.Equal(t, "WELCOME-26", c)

	_, err = gift.NormalizeCode("ab")
	assert.ErrorIs(t, err, gift.ErrInvalidCode)
}
