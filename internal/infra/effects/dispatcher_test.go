//go:build unit

package effects_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"hostdash/internal/infra/effects"
	"hostdash/internal/pkg/clock"
	"hostdash/internal/usecase/commands"
	"hostdash/internal/usecase/shared"
	"hostdash/tests/common/memstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func waitIdle(t *testing.T, d *effects.Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Wait(ctx))
}

func TestDispatcher_WritesAuditWithRedactedPayload(t *testing.T) {
	store := memstore.New()
	d := effects.NewDispatcher(store, clock.NewMockClock(now), time.Second)
	payload, err := json.Marshal(map[string]any{
		"email":  "player@example.com",
		"limits": map[string]any{"memoryMb": 1024},
		"nested": []any{map[string]any{"api_key": "k-123"}},
	})
	require.NoError(t, err)

	d.Dispatch(context.Background(), commands.Effect{Audit: &shared.AuditEvent{
		ID:        uuid.New(),
		Action:    "server.create",
		Outcome:   "success",
		Payload:   payload,
		CreatedAt: now,
	}})
	waitIdle(t, d)

	events := store.AuditEvents()
	require.Len(t, events, 1)
	var got map[string]any
	require.NoError(t, json.Unmarshal(events[0].Payload, &got))
	assert.Equal(t, "[REDACTED]", got["email"])
	assert.Equal(t, map[string]any{"memoryMb": float64(1024)}, got["limits"])
	assert.Equal(t, []any{map[string]any{"api_key": "[REDACTED]"}}, got["nested"])
}

func TestDispatcher_EnqueuesNotification(t *testing.T) {
	store := memstore.New()
	d := effects.NewDispatcher(store, clock.NewMockClock(now), time.Second)
	paymentID := uuid.New()

	d.Dispatch(context.Background(), commands.Effect{Notify: &commands.Notification{
		Kind:  "email",
		Topic: "payment_completed",
		Payload: struct {
			PaymentID uuid.UUID `json:"payment_id"`
			Token     string    `json:"token"`
		}{paymentID, "secret-token"},
	}})
	waitIdle(t, d)

	jobs := store.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "payment_completed", jobs[0].Topic)
	assert.Equal(t, now, jobs[0].RunAt)
	assert.JSONEq(t, `{"payment_id":"`+paymentID.String()+`","token":"[REDACTED]"}`, string(jobs[0].Payload))
}

func TestDispatcher_SurvivesCallerCancellationAndFailures(t *testing.T) {
	store := memstore.New()
	store.FailOn("audit.append", errors.New("relation does not exist"))
	d := effects.NewDispatcher(store, clock.NewMockClock(now), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx,
		commands.Effect{Audit: &shared.AuditEvent{ID: uuid.New(), Action: "first"}},
		commands.Effect{Audit: &shared.AuditEvent{ID: uuid.New(), Action: "second"}},
	)
	cancel()
	waitIdle(t, d)

	events := store.AuditEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "second", events[0].Action)
}

func TestDispatcher_IgnoresEmptyBatch(t *testing.T) {
	store := memstore.New()
	d := effects.NewDispatcher(store, clock.NewMockClock(now), time.Second)

	d.Dispatch(context.Background())
	waitIdle(t, d)

	assert.Zero(t, store.Commits())
}
