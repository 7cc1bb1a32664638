package commands

import (
	"context"
	"log/slog"
	"time"

	"hostdash/internal/domain/grant"
	"hostdash/internal/domain/user"
	"hostdash/internal/pkg/clock"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/shared"

	"github.com/google/uuid"
)

const expirySweepBatch = 100

type ApplyResult struct {
	Grant    *grant.Grant
	User     *user.User
	Replayed bool
}

// GrantIssuer is the only path that folds grant contributions into user totals.
type GrantIssuer struct {
	uow   shared.UnitOfWork
	clock clock.Clock
}

func NewGrantIssuer(uow shared.UnitOfWork, clk clock.Clock) *GrantIssuer {
	return &GrantIssuer{uow: uow, clock: clk}
}

// Issue stores a new grant and applies it. A grant with the same source and reference is
// reused, so a retried caller never applies twice.
func (gi *GrantIssuer) Issue(ctx context.Context, tx shared.Tx, p grant.NewParams) (*ApplyResult, error) {
	g, err := grant.New(p)
	if err != nil {
		return nil, invalid(err)
	}

	if err := tx.Grants().Create(ctx, g); err != nil {
		if !errs.Is(err, shared.ErrDuplicate) {
			return nil, errs.Wrap(err, "create grant")
		}
		existing, findErr := tx.Grants().FindBySource(ctx, p.Source, p.SourceRef)
		if findErr != nil {
			return nil, errs.Wrap(findErr, "load existing grant")
		}
		g = existing
	}

	return gi.Apply(ctx, tx, g.ID())
}

// Apply must run inside a transaction. The user totals are changed before the grant is
// flagged as applied; both writes share tx.
func (gi *GrantIssuer) Apply(ctx context.Context, tx shared.Tx, grantID uuid.UUID) (*ApplyResult, error) {
	g, err := tx.Grants().FindByIDForUpdate(ctx, grantID)
	if err != nil {
		return nil, errs.Wrap(err, "lock grant")
	}

	if g.State().Applied() {
		u, err := tx.Users().FindByID(ctx, g.UserID())
		if err != nil {
			return nil, gi.userErr(err)
		}
		return &ApplyResult{Grant: g, User: u, Replayed: true}, nil
	}

	u, err := tx.Users().FindByIDForUpdate(ctx, g.UserID())
	if err != nil {
		return nil, gi.userErr(err)
	}

	now := gi.clock.Now()
	delta, err := g.Apply(now)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrConflict)
	}

	u.ApplyDelta(delta, now)
	if err := tx.Users().Update(ctx, u); err != nil {
		return nil, errs.Wrap(err, "update user totals")
	}
	if err := tx.Grants().Update(ctx, g); err != nil {
		return nil, errs.Wrap(err, "mark grant applied")
	}

	slog.Info("grant applied",
		"grant_id", g.ID(),
		"user_id", u.ID(),
		"source", g.Source(),
		"coins", delta.Coins)
	return &ApplyResult{Grant: g, User: u}, nil
}

// Cancel ends a grant early and revokes its recurring contribution.
func (gi *GrantIssuer) Cancel(ctx context.Context, tx shared.Tx, grantID uuid.UUID) (*ApplyResult, error) {
	return gi.end(ctx, tx, grantID, (*grant.Grant).Cancel)
}

func (gi *GrantIssuer) expire(ctx context.Context, tx shared.Tx, grantID uuid.UUID) (*ApplyResult, error) {
	return gi.end(ctx, tx, grantID, (*grant.Grant).Expire)
}

func (gi *GrantIssuer) end(
	ctx context.Context,
	tx shared.Tx,
	grantID uuid.UUID,
	transition func(*grant.Grant) (grant.Delta, error),
) (*ApplyResult, error) {
	g, err := tx.Grants().FindByIDForUpdate(ctx, grantID)
	if err != nil {
		return nil, errs.Wrap(err, "lock grant")
	}

	u, err := tx.Users().FindByIDForUpdate(ctx, g.UserID())
	if err != nil {
		return nil, gi.userErr(err)
	}

	delta, err := transition(g)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrConflict)
	}

	now := gi.clock.Now()
	u.ApplyDelta(delta, now)
	if err := tx.Users().Update(ctx, u); err != nil {
		return nil, errs.Wrap(err, "revoke user totals")
	}
	if err := tx.Grants().Update(ctx, g); err != nil {
		return nil, errs.Wrap(err, "update grant status")
	}
	return &ApplyResult{Grant: g, User: u}, nil
}

// ExpireGrants ends every time-boxed grant whose expiry has passed. Each grant gets its own
// transaction so one bad row does not block the sweep.
func (gi *GrantIssuer) ExpireGrants(ctx context.Context) (int, error) {
	now := gi.clock.Now()
	expired := 0

	for {
		var ids []uuid.UUID
		err := gi.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
			var err error
			ids, err = tx.Grants().ListExpiredIDs(ctx, now, expirySweepBatch)
			return err
		})
		if err != nil {
			return expired, errs.Wrap(err, "list expired grants")
		}
		if len(ids) == 0 {
			return expired, nil
		}

		progressed := 0
		for _, id := range ids {
			ok, err := gi.expireOne(ctx, id, now)
			if err != nil {
				slog.Error("grant expiry failed", "grant_id", id, "error", err)
				continue
			}
			if ok {
				expired++
				progressed++
			}
		}
		if progressed == 0 || len(ids) < expirySweepBatch {
			return expired, nil
		}
	}
}

func (gi *GrantIssuer) expireOne(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	return shared.RunInTx(ctx, gi.uow, func(ctx context.Context, tx shared.Tx) (bool, error) {
		g, err := tx.Grants().FindByIDForUpdate(ctx, id)
		if err != nil {
			return false, err
		}
		if g.Status() != grant.StatusActive || !g.IsExpiredAt(now) {
			return false, nil
		}
		if _, err := gi.expire(ctx, tx, id); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (gi *GrantIssuer) userErr(err error) error {
	if errs.Is(err, shared.ErrNotFound) {
		return ErrUserNotFound
	}
	return errs.Wrap(err, "lock user")
}
