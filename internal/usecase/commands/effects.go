package commands

import (
	"encoding/json"
	"log/slog"
	"time"

	"hostdash/internal/usecase/shared"

	"github.com/google/uuid"
)

func newAuditEvent(
	actor *uuid.UUID,
	action, subject, outcome string,
	payload map[string]any,
	now time.Time,
) *shared.AuditEvent {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			slog.Warn("failed to encode audit payload", "action", action, "error", err)
		} else {
			raw = b
		}
	}
	return &shared.AuditEvent{
		ID:        uuid.New(),
		ActorID:   actor,
		Action:    action,
		Subject:   subject,
		Outcome:   outcome,
		Payload:   raw,
		CreatedAt: now,
	}
}
