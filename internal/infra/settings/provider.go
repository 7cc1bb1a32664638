package settings

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"hostdash/internal/infra/db"
	"hostdash/internal/pkg/clock"
	"hostdash/internal/pkg/config"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	KeyCurrency              = "currency"
	KeyPayPalWebhookID       = "paypal_webhook_id"
	KeyReferralReferrerCoins = "referral_referrer_coins"
	KeyReferralRefereeCoins  = "referral_referee_coins"
	KeyTaxPercent            = "tax_percent"
)

// Source loads the raw key/value rows.
type Source interface {
	Load(ctx context.Context) (map[string]string, error)
}

type PostgresSource struct {
	db db.DBTX
}

func NewPostgresSource(db db.DBTX) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Load(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, errs.Wrap(err, "query settings")
	}
	type kv struct {
		Key   string
		Value string
	}
	pairs, err := pgx.CollectRows(rows, pgx.RowToStructByPos[kv])
	if err != nil {
		return nil, errs.Wrap(err, "scan settings")
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		out[p.Key] = p.Value
	}
	return out, nil
}

// Provider merges stored settings over configured defaults and caches the result for ttl.
// A failed refresh keeps serving the last good value.
type Provider struct {
	source   Source
	defaults shared.Settings
	ttl      time.Duration
	clock    clock.Clock

	group     singleflight.Group
	mu        sync.RWMutex
	cached    *shared.Settings
	expiresAt time.Time
}

func NewProvider(source Source, billing config.BillingConfig, paypal config.PayPalConfig, clk clock.Clock) *Provider {
	return &Provider{
		source: source,
		defaults: shared.Settings{
			Currency:              billing.Currency,
			PayPalWebhookID:       paypal.WebhookID,
			ReferralReferrerCoins: billing.ReferralReferrerCoins,
			ReferralRefereeCoins:  billing.ReferralRefereeCoins,
			TaxPercent:            billing.TaxPercent,
		},
		ttl:   billing.SettingsCacheTTL,
		clock: clk,
	}
}

var _ shared.SettingsProvider = (*Provider)(nil)

func (p *Provider) Settings(ctx context.Context) (shared.Settings, error) {
	p.mu.RLock()
	cached, fresh := p.cached, p.clock.Now().Before(p.expiresAt)
	p.mu.RUnlock()
	if cached != nil && fresh {
		return *cached, nil
	}

	v, err, _ := p.group.Do("settings", func() (any, error) {
		return p.refresh(ctx)
	})
	if err != nil {
		if cached != nil {
			slog.Warn("settings refresh failed, serving cached values", "error", err)
			return *cached, nil
		}
		return shared.Settings{}, err
	}
	return v.(shared.Settings), nil
}

// Invalidate drops the cached value so the next read hits the store.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expiresAt = time.Time{}
}

func (p *Provider) refresh(ctx context.Context) (shared.Settings, error) {
	raw, err := p.source.Load(ctx)
	if err != nil {
		return shared.Settings{}, errs.Wrap(err, "load settings")
	}
	s := merge(p.defaults, raw)

	p.mu.Lock()
	p.cached = &s
	p.expiresAt = p.clock.Now().Add(p.ttl)
	p.mu.Unlock()
	return s, nil
}

// merge overlays stored values on defaults. Unparseable values are logged and skipped.
func merge(defaults shared.Settings, raw map[string]string) shared.Settings {
	s := defaults
	for key, value := range raw {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch key {
		case KeyCurrency:
			s.Currency = strings.ToUpper(value)
		case KeyPayPalWebhookID:
			s.PayPalWebhookID = value
		case KeyReferralReferrerCoins, KeyReferralRefereeCoins:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil || n < 0 {
				slog.Warn("ignoring invalid setting", "key", key, "value", value)
				continue
			}
			if key == KeyReferralReferrerCoins {
				s.ReferralReferrerCoins = n
			} else {
				s.ReferralRefereeCoins = n
			}
		case KeyTaxPercent:
			d, err := decimal.NewFromString(value)
			if err != nil || d.IsNegative() {
				slog.Warn("ignoring invalid setting", "key", key, "value", value)
				continue
			}
			s.TaxPercent = d
		}
	}
	return s
}
