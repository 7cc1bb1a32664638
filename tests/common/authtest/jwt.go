//go:build unit || e2e

package authtest

import (
	"testing"
	"time"

	"hostdash/internal/domain/user"
	"hostdash/internal/pkg/config"
	"hostdash/internal/pkg/jwt"

	"github.com/stretchr/testify/require"
)

// JWTHelper mints bearer tokens signed with the server's own settings.
type JWTHelper struct {
	cfg config.JWTConfig
}

func NewJWTHelper(cfg config.JWTConfig) *JWTHelper {
	return &JWTHelper{cfg: cfg}
}

func (h *JWTHelper) Token(t *testing.T, principal user.Principal) string {
	t.Helper()
	duration, err := time.ParseDuration(h.cfg.Duration)
	require.NoError(t, err)
	return h.sign(t, principal, duration)
}

func (h *JWTHelper) ExpiredToken(t *testing.T, principal user.Principal) string {
	t.Helper()
	return h.sign(t, principal, -time.Hour)
}

// ForeignToken is well formed but signed with a different secret.
func (h *JWTHelper) ForeignToken(t *testing.T, principal user.Principal) string {
	t.Helper()
	token, err := jwt.NewService(h.cfg.Secret+"-other", h.cfg.Issuer, time.Hour).GenerateToken(principal.UserID, principal.Role)
	require.NoError(t, err)
	return token
}

func (h *JWTHelper) sign(t *testing.T, principal user.Principal, d time.Duration) string {
	t.Helper()
	token, err := jwt.NewService(h.cfg.Secret, h.cfg.Issuer, d).GenerateToken(principal.UserID, principal.Role)
	require.NoError(t, err)
	return token
}
