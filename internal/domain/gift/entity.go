package gift

import (
	"errors"
	"strings"
	"time"

	"hostdash/internal/domain/grant"

	"github.com/google/uuid"
)

var (
	ErrInvalidCode     = errors.New("invalid gift code")
	ErrExpired         = errors.New("gift code has expired")
	ErrExhausted       = errors.New("gift code has been fully redeemed")
	ErrAlreadyRedeemed = errors.New("gift code already redeemed")
)

type Code struct {
	ID             uuid.UUID
	Code           string
	Amount         grant.Amount
	MaxRedemptions int64
	Redemptions    int64
	ExpiresAt      *time.Time
}

func NormalizeCode(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 4 || len(s) > 64 {
		return "", ErrInvalidCode
	}
	return s, nil
}

// CanRedeem checks a single user's attempt against the code's limits.
func (c *Code) CanRedeem(alreadyRedeemed bool, now time.Time) error {
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return ErrExpired
	}
	if alreadyRedeemed {
		return ErrAlreadyRedeemed
	}
	if c.MaxRedemptions > 0 && c.Redemptions >= c.MaxRedemptions {
		return ErrExhausted
	}
	return nil
}
