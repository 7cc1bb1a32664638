package repository

import (
	"context"
	"strings"

	"hostdash/internal/infra"
	"hostdash/internal/infra/db"
	"hostdash/internal/pkg/pgconv"
	"hostdash/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CouponRepository struct {
	db db.DBTX
}

func NewCouponRepository(db db.DBTX) *CouponRepository {
	return &CouponRepository{db: db}
}

// FindByCode matches case-insensitively; codes are stored upper-case.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*shared.CouponSnapshot, error) {
	var (
		c          shared.CouponSnapshot
		amountOff  pgtype.Int8
		percentOff pgtype.Numeric
		validFrom  pgtype.Timestamptz
		validTo    pgtype.Timestamptz
		maxUses    pgtype.Int8
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, code, amount_off_cents, percent_off, valid_from, valid_to, max_uses, uses, active
		FROM coupons
		WHERE code = $1`, strings.ToUpper(strings.TrimSpace(code))).Scan(
		&c.ID, &c.Code, &amountOff, &percentOff, &validFrom, &validTo, &maxUses, &c.Uses, &c.Active,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find coupon by code", err)
	}

	if c.PercentOff, err = pgconv.DecimalPtrFromNumeric(percentOff); err != nil {
		return nil, infra.WrapRepoErr("failed to convert coupon percent", err)
	}
	c.AmountOffCents = pgconv.Int64PtrFromPgtype(amountOff)
	c.ValidFrom = pgconv.TimePtrFromPgtype(validFrom)
	c.ValidTo = pgconv.TimePtrFromPgtype(validTo)
	c.MaxUses = pgconv.Int64PtrFromPgtype(maxUses)
	return &c, nil
}

func (r *CouponRepository) IncrementUses(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `UPDATE coupons SET uses = uses + 1 WHERE id = $1`, id); err != nil {
		return infra.WrapRepoErr("failed to increment coupon uses", err)
	}
	return nil
}
