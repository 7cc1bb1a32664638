package effects

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"hostdash/internal/pkg/clock"
	"hostdash/internal/usecase/commands"
	"hostdash/internal/usecase/shared"
)

const redacted = "[REDACTED]"

var sensitiveKeys = []string{"email", "password", "token", "secret", "authorization", "api_key", "card"}

// Dispatcher writes audit events and notification jobs after the request has committed.
// Each batch runs detached from the caller's cancellation, bounded by its own timeout.
type Dispatcher struct {
	uow     shared.UnitOfWork
	clock   clock.Clock
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(uow shared.UnitOfWork, clk clock.Clock, timeout time.Duration) *Dispatcher {
	return &Dispatcher{uow: uow, clock: clk, timeout: timeout}
}

var _ commands.EffectDispatcher = (*Dispatcher)(nil)

func (d *Dispatcher) Dispatch(ctx context.Context, effects ...commands.Effect) {
	if len(effects) == 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		for _, e := range effects {
			d.apply(runCtx, e)
		}
	}()
}

// Wait blocks until in-flight batches finish or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) apply(ctx context.Context, e commands.Effect) {
	if e.Audit != nil {
		event := *e.Audit
		event.Payload = redactJSON(event.Payload)
		err := d.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
			return tx.Audit().Append(ctx, event)
		})
		if err != nil {
			slog.Warn("failed to write audit event", "action", event.Action, "subject", event.Subject, "error", err)
		}
	}

	if e.Notify != nil {
		payload, err := json.Marshal(redact(e.Notify.Payload))
		if err != nil {
			slog.Warn("failed to encode notification payload", "kind", e.Notify.Kind, "error", err)
			return
		}
		err = d.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
			return tx.Notifications().CreateJob(ctx, e.Notify.Kind, e.Notify.Topic, payload, d.clock.Now())
		})
		if err != nil {
			slog.Warn("failed to enqueue notification", "kind", e.Notify.Kind, "topic", e.Notify.Topic, "error", err)
		}
	}
}

func redactJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw
	}
	out, err := json.Marshal(redact(v))
	if err != nil {
		return raw
	}
	return out
}

// redact replaces values under sensitive keys at any depth. Values that are not plain
// maps or slices are round-tripped through JSON first.
func redact(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if isSensitive(k) {
				out[k] = redacted
				continue
			}
			out[k] = redact(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = redact(val)
		}
		return out
	case string, bool, float64, int, int64:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return t
		}
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return t
		}
		return redact(generic)
	}
}

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
