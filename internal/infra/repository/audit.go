package repository

import (
	"context"

	"hostdash/internal/infra"
	"hostdash/internal/infra/db"
	"hostdash/internal/pkg/pgconv"
	"hostdash/internal/usecase/shared"
)

type AuditRepository struct {
	db db.DBTX
}

func NewAuditRepository(db db.DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, e shared.AuditEvent) error {
	var payload any
	if len(e.Payload) > 0 {
		payload = []byte(e.Payload)
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_events (id, actor_id, action, subject, outcome, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, pgconv.UUIDPtrToPgtype(e.ActorID), e.Action, e.Subject, e.Outcome, payload, e.CreatedAt)
	if err != nil {
		return infra.WrapRepoErr("failed to append audit event", err)
	}
	return nil
}
