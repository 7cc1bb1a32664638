package repository

import (
	"context"

	"hostdash/internal/infra"
	"hostdash/internal/infra/db"
	"hostdash/internal/pkg/pgconv"
	"hostdash/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// CatalogRepository reads plans, eggs, locations and shop items. Those tables are
// maintained by the admin tooling.
type CatalogRepository struct {
	db db.DBTX
}

func NewCatalogRepository(db db.DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) PlanByID(ctx context.Context, id uuid.UUID) (*shared.PlanSnapshot, error) {
	var (
		p        shared.PlanSnapshot
		lifetime pgtype.Int8
	)
	a := &p.Amount
	err := r.db.QueryRow(ctx, `
		SELECT id, name, price_cents, lifetime_cents, active,
			coins, memory_mb, disk_mb, cpu_percent, backups, databases, allocations, server_slots
		FROM plans WHERE id = $1`, id).Scan(
		&p.ID, &p.Name, &p.PriceCents, &lifetime, &p.Active,
		&a.Coins, &a.Recurring.MemoryMB, &a.Recurring.DiskMB, &a.Recurring.CPUPercent,
		&a.OneTime.Backups, &a.OneTime.Databases, &a.OneTime.Allocations, &a.OneTime.ServerSlots,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find plan", err)
	}
	p.LifetimeCents = pgconv.Int64PtrFromPgtype(lifetime)
	return &p, nil
}

func (r *CatalogRepository) EggByID(ctx context.Context, id uuid.UUID) (*shared.EggSnapshot, error) {
	var e shared.EggSnapshot
	err := r.db.QueryRow(ctx, `
		SELECT e.id, e.name, e.panel_egg_id, e.panel_nest_id, e.docker_image, e.startup, e.environment,
			COALESCE(array_agg(rp.plan_id) FILTER (WHERE rp.plan_id IS NOT NULL), '{}')
		FROM eggs e
		LEFT JOIN egg_required_plans rp ON rp.egg_id = e.id
		WHERE e.id = $1
		GROUP BY e.id`, id).Scan(
		&e.ID, &e.Name, &e.PanelEggID, &e.PanelNestID, &e.DockerImage, &e.Startup, &e.Environment,
		&e.RequiredPlanIDs,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find egg", err)
	}
	return &e, nil
}

func (r *CatalogRepository) LocationByID(ctx context.Context, id uuid.UUID) (*shared.LocationSnapshot, error) {
	var (
		l     shared.LocationSnapshot
		limit pgtype.Int8
	)
	err := r.db.QueryRow(ctx, `
		SELECT l.id, l.name, l.panel_location_id, l.server_limit,
			COALESCE(array_agg(rp.plan_id) FILTER (WHERE rp.plan_id IS NOT NULL), '{}')
		FROM locations l
		LEFT JOIN location_required_plans rp ON rp.location_id = l.id
		WHERE l.id = $1
		GROUP BY l.id`, id).Scan(
		&l.ID, &l.Name, &l.PanelLocationID, &limit, &l.RequiredPlanIDs,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find location", err)
	}
	l.ServerLimit = pgconv.Int64PtrFromPgtype(limit)
	return &l, nil
}

func (r *CatalogRepository) ShopItemByID(ctx context.Context, id uuid.UUID) (*shared.ShopItemSnapshot, error) {
	var s shared.ShopItemSnapshot
	a := &s.Amount
	err := r.db.QueryRow(ctx, `
		SELECT id, name, coin_cost, active,
			coins, memory_mb, disk_mb, cpu_percent, backups, databases, allocations, server_slots
		FROM shop_items WHERE id = $1`, id).Scan(
		&s.ID, &s.Name, &s.CoinCost, &s.Active,
		&a.Coins, &a.Recurring.MemoryMB, &a.Recurring.DiskMB, &a.Recurring.CPUPercent,
		&a.OneTime.Backups, &a.OneTime.Databases, &a.OneTime.Allocations, &a.OneTime.ServerSlots,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find shop item", err)
	}
	return &s, nil
}
