package repository

import (
	"context"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/domain/user"
	"hostdash/internal/infra"
	"hostdash/internal/infra/db"
	"hostdash/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, email, role, panel_user_id,
	disk_mb, memory_mb, cpu_percent, backups, databases, allocations, server_slots,
	coins, referral_code, referred_by, created_at, updated_at`

type UserRepository struct {
	db db.DBTX
}

func NewUserRepository(db db.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find user by id", err)
	}
	return u, nil
}

func (r *UserRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*user.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to lock user", err)
	}
	return u, nil
}

func (r *UserRepository) FindByReferralCode(ctx context.Context, code user.ReferralCode) (*user.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code.String())
	u, err := scanUser(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find user by referral code", err)
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	t := u.Totals()
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			disk_mb = $2, memory_mb = $3, cpu_percent = $4,
			backups = $5, databases = $6, allocations = $7, server_slots = $8,
			coins = $9, referred_by = $10, updated_at = $11
		WHERE id = $1`,
		u.ID(),
		t.DiskMB, t.MemoryMB, t.CPUPercent,
		t.Backups, t.Databases, t.Allocations, t.ServerSlots,
		u.Coins(), pgconv.UUIDPtrToPgtype(u.ReferredBy()), u.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update user", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NotFound("user not found")
	}
	return nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		p          user.ReconstructParams
		role       string
		referredBy pgtype.UUID
		t          entitlement.Envelope
	)
	err := row.Scan(
		&p.ID, &p.Email, &role, &p.PanelUserID,
		&t.DiskMB, &t.MemoryMB, &t.CPUPercent, &t.Backups, &t.Databases, &t.Allocations, &t.ServerSlots,
		&p.Coins, &p.ReferralCode, &referredBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Role = user.Role(role)
	p.Totals = t
	p.ReferredBy = pgconv.UUIDPtrFromPgtype(referredBy)
	return user.Reconstruct(p), nil
}
