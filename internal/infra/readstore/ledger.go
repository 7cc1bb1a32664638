package readstore

import (
	"context"

	"hostdash/internal/infra"
	"hostdash/internal/infra/db"
	"hostdash/internal/pkg/pgconv"
	"hostdash/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Keyset pagination: a NULL cursor selects the first page.
const (
	listGrantsSQL = `
		SELECT g.id, g.source, g.source_ref, g.plan_id, p.name,
			g.coins, g.memory_mb, g.disk_mb, g.cpu_percent,
			g.status, g.billing_cycle, g.benefits_applied, g.purchased_at, g.expires_at, g.created_at
		FROM grants g
		LEFT JOIN plans p ON p.id = g.plan_id
		WHERE g.user_id = $1
			AND ($2::timestamptz IS NULL OR (g.created_at, g.id) < ($2, $3::uuid))
		ORDER BY g.created_at DESC, g.id DESC
		LIMIT $4`

	listPaymentsSQL = `
		SELECT py.id, py.plan_id, p.name, py.provider, py.provider_order_id,
			py.amount::text, py.currency, py.status, py.billing_cycle, py.created_at
		FROM payments py
		JOIN plans p ON p.id = py.plan_id
		WHERE py.user_id = $1
			AND ($2::timestamptz IS NULL OR (py.created_at, py.id) < ($2, $3::uuid))
		ORDER BY py.created_at DESC, py.id DESC
		LIMIT $4`
)

type LedgerReadStore struct {
	db db.DBTX
}

func NewLedgerReadStore(db db.DBTX) *LedgerReadStore {
	return &LedgerReadStore{db: db}
}

func (r *LedgerReadStore) ListGrants(ctx context.Context, userID uuid.UUID, p queries.KeysetPage) ([]*queries.GrantView, error) {
	rows, err := r.db.Query(ctx, listGrantsSQL,
		userID, pgconv.TimePtrToPgtype(p.AfterCreatedAt), pgconv.UUIDPtrToPgtype(p.AfterID), p.Limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list grants", err)
	}
	views, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*queries.GrantView, error) {
		var (
			v         queries.GrantView
			planID    pgtype.UUID
			planName  pgtype.Text
			expiresAt pgtype.Timestamptz
		)
		err := row.Scan(
			&v.ID, &v.Source, &v.SourceRef, &planID, &planName,
			&v.Coins, &v.MemoryMB, &v.DiskMB, &v.CPUPercent,
			&v.Status, &v.BillingCycle, &v.Applied, &v.PurchasedAt, &expiresAt, &v.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		v.PlanID = pgconv.UUIDPtrFromPgtype(planID)
		v.PlanName = pgconv.StringPtrFromPgtype(planName)
		v.ExpiresAt = pgconv.TimePtrFromPgtype(expiresAt)
		return &v, nil
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan grants", err)
	}
	return views, nil
}

func (r *LedgerReadStore) ListPayments(ctx context.Context, userID uuid.UUID, p queries.KeysetPage) ([]*queries.PaymentView, error) {
	rows, err := r.db.Query(ctx, listPaymentsSQL,
		userID, pgconv.TimePtrToPgtype(p.AfterCreatedAt), pgconv.UUIDPtrToPgtype(p.AfterID), p.Limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list payments", err)
	}
	views, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*queries.PaymentView, error) {
		var (
			v       queries.PaymentView
			orderID pgtype.Text
		)
		err := row.Scan(
			&v.ID, &v.PlanID, &v.PlanName, &v.Provider, &orderID,
			&v.Amount, &v.Currency, &v.Status, &v.BillingCycle, &v.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		v.ProviderOrderID = pgconv.StringPtrFromPgtype(orderID)
		return &v, nil
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan payments", err)
	}
	return views, nil
}
