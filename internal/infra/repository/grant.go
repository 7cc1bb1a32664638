package repository

import (
	"context"
	"time"

	"hostdash/internal/domain/grant"
	"hostdash/internal/infra"
	"hostdash/internal/infra/db"
	"hostdash/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const grantColumns = `id, user_id, source, source_ref, plan_id,
	coins, memory_mb, disk_mb, cpu_percent, backups, databases, allocations, server_slots,
	status, billing_cycle, purchased_at, expires_at, applied_at`

type GrantRepository struct {
	db db.DBTX
}

func NewGrantRepository(db db.DBTX) *GrantRepository {
	return &GrantRepository{db: db}
}

// Create skips the insert on a source conflict so the surrounding transaction stays usable.
func (r *GrantRepository) Create(ctx context.Context, g *grant.Grant) error {
	a := g.Amount()
	tag, err := r.db.Exec(ctx, `
		INSERT INTO grants (
			id, user_id, source, source_ref, plan_id,
			coins, memory_mb, disk_mb, cpu_percent, backups, databases, allocations, server_slots,
			status, billing_cycle, purchased_at, expires_at, benefits_applied, applied_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (source, source_ref) DO NOTHING`,
		g.ID(), g.UserID(), g.Source().String(), g.SourceRef(), pgconv.UUIDPtrToPgtype(g.PlanID()),
		a.Coins, a.Recurring.MemoryMB, a.Recurring.DiskMB, a.Recurring.CPUPercent,
		a.OneTime.Backups, a.OneTime.Databases, a.OneTime.Allocations, a.OneTime.ServerSlots,
		g.Status().String(), g.BillingCycle().String(), g.PurchasedAt(), pgconv.TimePtrToPgtype(g.ExpiresAt()),
		g.State().Applied(), pgconv.TimePtrToPgtype(g.AppliedAt()),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create grant", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.Duplicate("grant already exists for source")
	}
	return nil
}

func (r *GrantRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*grant.Grant, error) {
	row := r.db.QueryRow(ctx, `SELECT `+grantColumns+` FROM grants WHERE id = $1 FOR UPDATE`, id)
	g, err := scanGrant(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to lock grant", err)
	}
	return g, nil
}

func (r *GrantRepository) FindBySource(ctx context.Context, source grant.Source, sourceRef string) (*grant.Grant, error) {
	row := r.db.QueryRow(ctx, `SELECT `+grantColumns+` FROM grants WHERE source = $1 AND source_ref = $2`,
		source.String(), sourceRef)
	g, err := scanGrant(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find grant by source", err)
	}
	return g, nil
}

// Update persists status and the applied marker; amounts never change after creation.
func (r *GrantRepository) Update(ctx context.Context, g *grant.Grant) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE grants SET status = $2, benefits_applied = $3, applied_at = $4
		WHERE id = $1`,
		g.ID(), g.Status().String(), g.State().Applied(), pgconv.TimePtrToPgtype(g.AppliedAt()),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update grant", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NotFound("grant not found")
	}
	return nil
}

func (r *GrantRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*grant.Grant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+grantColumns+` FROM grants
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list active grants", err)
	}
	grants, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*grant.Grant, error) {
		return scanGrant(row)
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan active grants", err)
	}
	return grants, nil
}

func (r *GrantRepository) ListExpiredIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM grants
		WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at <= $1
		ORDER BY expires_at, id
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list expired grants", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan expired grant ids", err)
	}
	return ids, nil
}

func scanGrant(row pgx.Row) (*grant.Grant, error) {
	var (
		p         grant.ReconstructParams
		source    string
		status    string
		cycle     string
		planID    pgtype.UUID
		expiresAt pgtype.Timestamptz
		appliedAt pgtype.Timestamptz
	)
	a := &p.Amount
	err := row.Scan(
		&p.ID, &p.UserID, &source, &p.SourceRef, &planID,
		&a.Coins, &a.Recurring.MemoryMB, &a.Recurring.DiskMB, &a.Recurring.CPUPercent,
		&a.OneTime.Backups, &a.OneTime.Databases, &a.OneTime.Allocations, &a.OneTime.ServerSlots,
		&status, &cycle, &p.PurchasedAt, &expiresAt, &appliedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Source = grant.Source(source)
	p.Status = grant.Status(status)
	p.BillingCycle = grant.BillingCycle(cycle)
	p.PlanID = pgconv.UUIDPtrFromPgtype(planID)
	p.ExpiresAt = pgconv.TimePtrFromPgtype(expiresAt)
	p.AppliedAt = pgconv.TimePtrFromPgtype(appliedAt)
	return grant.Reconstruct(p), nil
}
