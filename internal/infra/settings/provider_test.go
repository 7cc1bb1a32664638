//go:build unit

package settings_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"hostdash/internal/infra/settings"
	"hostdash/internal/pkg/config"
	"hostdash/internal/usecase/shared"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

type fakeSource struct {
	rows  map[string]string
	err   error
	loads atomic.Int32
}

func (s *fakeSource) Load(context.Context) (map[string]string, error) {
	s.loads.Add(1)
	return s.rows, s.err
}

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time { return c.now }

func newProvider(src settings.Source, clk *manualClock) *settings.Provider {
	billing := config.BillingConfig{
		Currency:              "USD",
		TaxPercent:            decimal.Zero,
		ReferralReferrerCoins: 100,
		ReferralRefereeCoins:  50,
		SettingsCacheTTL:      30 * time.Second,
	}
	return settings.NewProvider(src, billing, config.PayPalConfig{WebhookID: "WH-DEFAULT"}, clk)
}

func TestProvider_MergesOverDefaults(t *testing.T) {
	tests := []struct {
		name string
		rows map[string]string
		want shared.Settings
	}{
		{
			name: "empty table keeps defaults",
			rows: map[string]string{},
			want: shared.Settings{
				Currency:              "USD",
				PayPalWebhookID:       "WH-DEFAULT",
				ReferralReferrerCoins: 100,
				ReferralRefereeCoins:  50,
				TaxPercent:            decimal.Zero,
			},
		},
		{
			name: "stored values win",
			rows: map[string]string{
				settings.KeyCurrency:              "eur",
				settings.KeyPayPalWebhookID:       "WH-STORED",
				settings.KeyReferralReferrerCoins: "250",
				settings.KeyTaxPercent:            "19.5",
			},
			want: shared.Settings{
				Currency:              "EUR",
				PayPalWebhookID:       "WH-STORED",
				ReferralReferrerCoins: 250,
				ReferralRefereeCoins:  50,
				TaxPercent:            decimal.RequireFromString("19.5"),
			},
		},
		{
			name: "invalid values are skipped",
			rows: map[string]string{
				settings.KeyReferralRefereeCoins: "-3",
				settings.KeyTaxPercent:           "lots",
				settings.KeyCurrency:             "  ",
			},
			want: shared.Settings{
				Currency:              "USD",
				PayPalWebhookID:       "WH-DEFAULT",
				ReferralReferrerCoins: 100,
				ReferralRefereeCoins:  50,
				TaxPercent:            decimal.Zero,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProvider(&fakeSource{rows: tt.rows}, &manualClock{now: time.Now()})

			got, err := p.Settings(context.Background())
			require.NoError(t, err)

			if diff := cmp.Diff(tt.want, got, decimalEqual); diff != "" {
				t.Errorf("Settings() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProvider_CachesUntilTTL(t *testing.T) {
	src := &fakeSource{rows: map[string]string{settings.KeyCurrency: "EUR"}}
	clk := &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	p := newProvider(src, clk)
	ctx := context.Background()

	_, err := p.Settings(ctx)
	require.NoError(t, err)
	_, err = p.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.loads.Load())

	clk.now = clk.now.Add(31 * time.Second)
	_, err = p.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.loads.Load())

	p.Invalidate()
	_, err = p.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(3), src.loads.Load())
}

func TestProvider_ServesStaleOnRefreshFailure(t *testing.T) {
	src := &fakeSource{rows: map[string]string{settings.KeyCurrency: "EUR"}}
	clk := &manualClock{now: time.Now()}
	p := newProvider(src, clk)
	ctx := context.Background()

	_, err := p.Settings(ctx)
	require.NoError(t, err)

	src.err = errors.New("connection refused")
	clk.now = clk.now.Add(time.Minute)
	got, err := p.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EUR", got.Currency)
}

func TestProvider_FailsWithoutCache(t *testing.T) {
	p := newProvider(&fakeSource{err: errors.New("connection refused")}, &manualClock{now: time.Now()})

	_, err := p.Settings(context.Background())
	require.Error(t, err)
}
