package repository

import (
	"context"
	"time"

	"hostdash/internal/domain/gift"
	"hostdash/internal/infra"
	"hostdash/internal/infra/db"
	"hostdash/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type GiftRepository struct {
	db db.DBTX
}

func NewGiftRepository(db db.DBTX) *GiftRepository {
	return &GiftRepository{db: db}
}

func (r *GiftRepository) FindByCodeForUpdate(ctx context.Context, code string) (*gift.Code, error) {
	var (
		c         gift.Code
		expiresAt pgtype.Timestamptz
	)
	a := &c.Amount
	err := r.db.QueryRow(ctx, `
		SELECT id, code,
			coins, memory_mb, disk_mb, cpu_percent, backups, databases, allocations, server_slots,
			max_redemptions, redemptions, expires_at
		FROM gift_codes
		WHERE code = $1
		FOR UPDATE`, code).Scan(
		&c.ID, &c.Code,
		&a.Coins, &a.Recurring.MemoryMB, &a.Recurring.DiskMB, &a.Recurring.CPUPercent,
		&a.OneTime.Backups, &a.OneTime.Databases, &a.OneTime.Allocations, &a.OneTime.ServerSlots,
		&c.MaxRedemptions, &c.Redemptions, &expiresAt,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to lock gift code", err)
	}
	c.ExpiresAt = pgconv.TimePtrFromPgtype(expiresAt)
	return &c, nil
}

func (r *GiftRepository) HasRedeemed(ctx context.Context, codeID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM gift_redemptions WHERE gift_code_id = $1 AND user_id = $2)`,
		codeID, userID).Scan(&exists)
	if err != nil {
		return false, infra.WrapRepoErr("failed to check gift redemption", err)
	}
	return exists, nil
}

// RecordRedemption stores the redemption and bumps the code's counter. A second redemption
// by the same user surfaces as a duplicate.
func (r *GiftRepository) RecordRedemption(ctx context.Context, codeID, userID uuid.UUID, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO gift_redemptions (gift_code_id, user_id, redeemed_at) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		codeID, userID, at)
	if err != nil {
		return infra.WrapRepoErr("failed to record gift redemption", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.Duplicate("gift code already redeemed by user")
	}
	if _, err := r.db.Exec(ctx, `
		UPDATE gift_codes SET redemptions = redemptions + 1 WHERE id = $1`, codeID); err != nil {
		return infra.WrapRepoErr("failed to increment gift redemptions", err)
	}
	return nil
}
