//go:build unit

package commands_test

import (
	"context"
	"sync"
	"time"

	"hostdash/internal/usecase/commands"
	"hostdash/internal/usecase/shared"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// effectLog records dispatched effects in call order.
type effectLog struct {
	mu      sync.Mutex
	effects []commands.Effect
}

var _ commands.EffectDispatcher = (*effectLog)(nil)

func (l *effectLog) Dispatch(_ context.Context, effects ...commands.Effect) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.effects = append(l.effects, effects...)
}

func (l *effectLog) audits() []shared.AuditEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []shared.AuditEvent
	for _, e := range l.effects {
		if e.Audit != nil {
			out = append(out, *e.Audit)
		}
	}
	return out
}

func (l *effectLog) notifications() []commands.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []commands.Notification
	for _, e := range l.effects {
		if e.Notify != nil {
			out = append(out, *e.Notify)
		}
	}
	return out
}

// lastAudit returns the most recent audit event for action, or nil.
func (l *effectLog) lastAudit(action string) *shared.AuditEvent {
	audits := l.audits()
	for i := len(audits) - 1; i >= 0; i-- {
		if audits[i].Action == action {
			return &audits[i]
		}
	}
	return nil
}

func defaultSettings() shared.Settings {
	return shared.Settings{
		Currency:              "USD",
		PayPalWebhookID:       "WH-TEST",
		ReferralReferrerCoins: 50,
		ReferralRefereeCoins:  25,
		TaxPercent:            decimal.Zero,
	}
}
