package queries

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/queries/$GOFILE -package=queriesmock

import (
	"context"
	"log/slog"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/domain/server"
	"hostdash/internal/domain/user"
	"hostdash/internal/pkg/clock"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/shared"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultReconcileConcurrency = 4

var (
	ErrServerNotFound = errs.Sentinel("server not found", errs.ErrNotFound)
	ErrServerAccess   = errs.Sentinel("server access denied", errs.ErrForbidden)
	ErrUserNotFound   = errs.Sentinel("user not found", errs.ErrNotFound)
)

// ServerView is a server after reconciliation against the panel.
type ServerView struct {
	Server       *server.Server
	Flags        server.Flags
	RemoteStatus string
}

type ServerQueries interface {
	ListServers(ctx context.Context, principal user.Principal) ([]ServerView, error)
	GetServer(ctx context.Context, principal user.Principal, id uuid.UUID) (*ServerView, error)
	Usage(ctx context.Context, principal user.Principal) (*shared.Usage, error)
}

type serverQueriesImpl struct {
	uow         shared.UnitOfWork
	panel       shared.PanelClient
	clock       clock.Clock
	concurrency int
}

func NewServerQueries(uow shared.UnitOfWork, panel shared.PanelClient, clk clock.Clock, concurrency int) ServerQueries {
	if concurrency <= 0 {
		concurrency = defaultReconcileConcurrency
	}
	return &serverQueriesImpl{uow: uow, panel: panel, clock: clk, concurrency: concurrency}
}

func (q *serverQueriesImpl) ListServers(ctx context.Context, principal user.Principal) ([]ServerView, error) {
	var owned []*server.Server
	err := q.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		owned, err = tx.Servers().ListByOwner(ctx, principal.UserID)
		return err
	})
	if err != nil {
		return nil, errs.Wrap(err, "list servers")
	}
	return q.reconcile(ctx, owned), nil
}

func (q *serverQueriesImpl) GetServer(ctx context.Context, principal user.Principal, id uuid.UUID) (*ServerView, error) {
	var srv *server.Server
	err := q.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		srv, err = tx.Servers().FindByID(ctx, id)
		return err
	})
	if err != nil {
		if errs.Is(err, shared.ErrNotFound) {
			return nil, ErrServerNotFound
		}
		return nil, errs.Wrap(err, "load server")
	}
	if !srv.IsOwnedBy(principal.UserID) && !principal.IsAdmin() {
		return nil, ErrServerAccess
	}

	views := q.reconcile(ctx, []*server.Server{srv})
	return &views[0], nil
}

// Usage reports the envelope against reconciled server limits.
func (q *serverQueriesImpl) Usage(ctx context.Context, principal user.Principal) (*shared.Usage, error) {
	type snapshot struct {
		user  *user.User
		owned []*server.Server
	}
	snap, err := shared.ReadOnly(ctx, q.uow, func(ctx context.Context, tx shared.Tx) (snapshot, error) {
		u, err := tx.Users().FindByID(ctx, principal.UserID)
		if err != nil {
			if errs.Is(err, shared.ErrNotFound) {
				return snapshot{}, ErrUserNotFound
			}
			return snapshot{}, err
		}
		owned, err := tx.Servers().ListByOwner(ctx, principal.UserID)
		if err != nil {
			return snapshot{}, err
		}
		return snapshot{user: u, owned: owned}, nil
	})
	if err != nil {
		return nil, errs.Wrap(err, "load usage")
	}

	views := q.reconcile(ctx, snap.owned)
	reconciled := make([]*server.Server, 0, len(views))
	for _, v := range views {
		reconciled = append(reconciled, v.Server)
	}

	owned := server.OwnedServers(reconciled)
	env := snap.user.Envelope()
	used, slots := entitlement.Used(owned, nil)
	return &shared.Usage{
		Envelope:  env,
		Used:      used,
		UsedSlots: slots,
		Remaining: entitlement.RemainingFor(env, owned, nil),
		Coins:     snap.user.Coins(),
	}, nil
}

// reconcile fetches every server from the panel with bounded concurrency. Panel failures
// only set flags; they never fail the read.
func (q *serverQueriesImpl) reconcile(ctx context.Context, servers []*server.Server) []ServerView {
	views := make([]ServerView, len(servers))

	var g errgroup.Group
	g.SetLimit(q.concurrency)
	for i, srv := range servers {
		views[i] = ServerView{Server: srv}
		g.Go(func() error {
			q.reconcileOne(ctx, &views[i])
			return nil
		})
	}
	_ = g.Wait()

	return views
}

func (q *serverQueriesImpl) reconcileOne(ctx context.Context, view *ServerView) {
	srv := view.Server
	remote, err := q.panel.FetchServer(ctx, srv.RemoteServerID())
	switch {
	case errs.Is(err, shared.ErrRemoteNotFound):
		if srv.Status() != server.StatusError && srv.TransitionTo(server.StatusError, q.clock.Now()) == nil {
			q.persist(ctx, srv)
		}
		return
	case err != nil:
		view.Flags.Unreachable = true
		slog.Warn("panel unreachable during reconciliation", "server_id", srv.ID(), "error", err)
		return
	}

	view.Flags.Suspended = remote.Suspended
	view.RemoteStatus = remote.Status

	changed := false
	if srv.Drifted(remote.Limits) && remote.Limits.Validate() == nil {
		if err := srv.ChangeLimits(remote.Limits, q.clock.Now()); err == nil {
			changed = true
		}
	}
	if srv.Status() == server.StatusError && srv.TransitionTo(server.StatusActive, q.clock.Now()) == nil {
		changed = true
	}
	if changed {
		q.persist(ctx, srv)
	}
}

func (q *serverQueriesImpl) persist(ctx context.Context, srv *server.Server) {
	err := q.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Servers().Update(ctx, srv)
	})
	if err != nil {
		slog.Warn("failed to write reconciled server", "server_id", srv.ID(), "error", err)
	}
}
