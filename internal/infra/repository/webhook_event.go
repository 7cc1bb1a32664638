package repository

import (
	"context"
	"time"

	"hostdash/internal/infra"
	"hostdash/internal/infra/db"
)

type WebhookEventRepository struct {
	db db.DBTX
}

func NewWebhookEventRepository(db db.DBTX) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

func (r *WebhookEventRepository) Exists(ctx context.Context, provider, eventID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM webhook_events WHERE provider = $1 AND event_id = $2)`,
		provider, eventID).Scan(&exists)
	if err != nil {
		return false, infra.WrapRepoErr("failed to check webhook event", err)
	}
	return exists, nil
}

// Record inserts the event id. A concurrent delivery that committed first makes this a no-op
// and returns false.
func (r *WebhookEventRepository) Record(ctx context.Context, provider, eventID, eventType string, processedAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO webhook_events (provider, event_id, event_type, processed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider, event_id) DO NOTHING`,
		provider, eventID, eventType, processedAt)
	if err != nil {
		return false, infra.WrapRepoErr("failed to record webhook event", err)
	}
	return tag.RowsAffected() == 1, nil
}
