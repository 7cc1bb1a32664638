package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/$GOFILE -package=commandsmock

import (
	"context"
	"log/slog"
	"slices"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/domain/grant"
	"hostdash/internal/domain/server"
	"hostdash/internal/domain/user"
	"hostdash/internal/pkg/clock"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/pkg/patch"
	"hostdash/internal/usecase/shared"

	"github.com/google/uuid"
)

type CreateServerInput struct {
	Name       string
	EggID      uuid.UUID
	LocationID uuid.UUID
	Limits     entitlement.Resources
}

// LimitsPatch carries only the dimensions the caller wants to change.
type LimitsPatch struct {
	DiskMB      *int64
	MemoryMB    *int64
	CPUPercent  *int64
	Backups     *int64
	Databases   *int64
	Allocations *int64
}

func (p LimitsPatch) IsEmpty() bool {
	return p == LimitsPatch{}
}

func (p LimitsPatch) ApplyTo(base entitlement.Resources) entitlement.Resources {
	return entitlement.Resources{
		DiskMB:      patch.Coalesce(p.DiskMB, base.DiskMB),
		MemoryMB:    patch.Coalesce(p.MemoryMB, base.MemoryMB),
		CPUPercent:  patch.Coalesce(p.CPUPercent, base.CPUPercent),
		Backups:     patch.Coalesce(p.Backups, base.Backups),
		Databases:   patch.Coalesce(p.Databases, base.Databases),
		Allocations: patch.Coalesce(p.Allocations, base.Allocations),
	}
}

type UpdateServerInput struct {
	Name   *string
	Limits LimitsPatch
}

type ProvisioningCommands interface {
	CreateServer(ctx context.Context, principal user.Principal, in CreateServerInput) (*server.Server, error)
	UpdateServer(ctx context.Context, principal user.Principal, serverID uuid.UUID, in UpdateServerInput) (*server.Server, error)
	DeleteServer(ctx context.Context, principal user.Principal, serverID uuid.UUID) error
	// SetSuspended is admin-only. The panel holds the suspension state; nothing is cached.
	SetSuspended(ctx context.Context, principal user.Principal, serverID uuid.UUID, suspended bool) error
}

type provisioningUseCaseImpl struct {
	uow     shared.UnitOfWork
	panel   shared.PanelClient
	locker  Locker
	effects EffectDispatcher
	clock   clock.Clock
}

func NewProvisioningUseCase(
	uow shared.UnitOfWork,
	panel shared.PanelClient,
	locker Locker,
	effects EffectDispatcher,
	clk clock.Clock,
) ProvisioningCommands {
	return &provisioningUseCaseImpl{
		uow:     uow,
		panel:   panel,
		locker:  locker,
		effects: effects,
		clock:   clk,
	}
}

type provisioningContext struct {
	user       *user.User
	egg        *shared.EggSnapshot
	location   *shared.LocationSnapshot
	owned      []*server.Server
	planIDs    []uuid.UUID
	atCapacity bool
}

func (p *provisioningUseCaseImpl) CreateServer(
	ctx context.Context,
	principal user.Principal,
	in CreateServerInput,
) (*server.Server, error) {
	name, err := server.NormalizeName(in.Name)
	if err != nil {
		return nil, invalid(err)
	}
	if err := in.Limits.Validate(); err != nil {
		return nil, invalid(err)
	}

	unlock, err := p.locker.Lock(ctx, provisioningLockKey(principal.UserID))
	if err != nil {
		return nil, errs.Wrap(err, "acquire provisioning lock")
	}
	defer unlock()

	pc, err := p.loadCreateContext(ctx, principal.UserID, in.EggID, in.LocationID)
	if err != nil {
		return nil, err
	}

	if !satisfiesPlanGate(pc.egg.RequiredPlanIDs, pc.planIDs) || !satisfiesPlanGate(pc.location.RequiredPlanIDs, pc.planIDs) {
		return nil, ErrPlanRequired
	}
	if pc.atCapacity {
		return nil, ErrLocationFull
	}

	remaining := entitlement.RemainingFor(pc.user.Envelope(), server.OwnedServers(pc.owned), nil)
	if v := entitlement.Check(in.Limits, remaining, true); !v.Empty() {
		return nil, &QuotaViolationError{Violations: v, Remaining: remaining}
	}

	remote, err := p.panel.CreateServer(ctx, shared.CreateServerRequest{
		Name:        name,
		PanelUserID: pc.user.PanelUserID(),
		EggID:       pc.egg.PanelEggID,
		NestID:      pc.egg.PanelNestID,
		DockerImage: pc.egg.DockerImage,
		Startup:     pc.egg.Startup,
		Environment: pc.egg.Environment,
		LocationID:  pc.location.PanelLocationID,
		Limits:      in.Limits,
		ExternalID:  uuid.NewString(),
	})
	if err != nil {
		p.audit(ctx, principal, "server.create", "", "failure", map[string]any{"error": err.Error()})
		return nil, errs.Wrap(err, "create remote server")
	}

	srv, err := server.NewActive(server.NewParams{
		OwnerID:          principal.UserID,
		RemoteServerID:   remote.ID,
		RemoteIdentifier: remote.Identifier,
		Name:             name,
		EggID:            in.EggID,
		LocationID:       in.LocationID,
		Limits:           in.Limits,
		Now:              p.clock.Now(),
	})
	if err == nil {
		err = p.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
			return tx.Servers().Create(ctx, srv)
		})
	}
	if err != nil {
		p.compensateCreate(ctx, remote.ID)
		return nil, errs.Wrap(err, "persist server")
	}

	p.audit(ctx, principal, "server.create", srv.ID().String(), "success", map[string]any{
		"remote_server_id": remote.ID,
		"limits":           in.Limits,
	})
	return srv, nil
}

func (p *provisioningUseCaseImpl) loadCreateContext(
	ctx context.Context,
	userID, eggID, locationID uuid.UUID,
) (*provisioningContext, error) {
	return shared.ReadOnly(ctx, p.uow, func(ctx context.Context, tx shared.Tx) (*provisioningContext, error) {
		u, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return nil, mapNotFound(err, ErrUserNotFound)
		}
		egg, err := tx.Catalog().EggByID(ctx, eggID)
		if err != nil {
			return nil, mapNotFound(err, ErrEggNotFound)
		}
		loc, err := tx.Catalog().LocationByID(ctx, locationID)
		if err != nil {
			return nil, mapNotFound(err, ErrLocationNotFound)
		}
		owned, err := tx.Servers().ListByOwner(ctx, userID)
		if err != nil {
			return nil, errs.Wrap(err, "list owned servers")
		}
		planIDs, err := activePlanIDs(ctx, tx, userID)
		if err != nil {
			return nil, err
		}

		full := false
		if loc.ServerLimit != nil {
			count, err := tx.Servers().CountByLocation(ctx, locationID)
			if err != nil {
				return nil, errs.Wrap(err, "count location servers")
			}
			full = count >= *loc.ServerLimit
		}

		return &provisioningContext{
			user:       u,
			egg:        egg,
			location:   loc,
			owned:      owned,
			planIDs:    planIDs,
			atCapacity: full,
		}, nil
	})
}

// compensateCreate removes a remote server whose local record could not be stored.
func (p *provisioningUseCaseImpl) compensateCreate(ctx context.Context, remoteID int64) {
	if err := p.panel.DeleteServer(context.WithoutCancel(ctx), remoteID); err != nil {
		slog.Error("compensating remote delete failed",
			"remote_server_id", remoteID,
			"error", err)
	}
}

func (p *provisioningUseCaseImpl) UpdateServer(
	ctx context.Context,
	principal user.Principal,
	serverID uuid.UUID,
	in UpdateServerInput,
) (*server.Server, error) {
	var newName string
	if in.Name != nil {
		n, err := server.NormalizeName(*in.Name)
		if err != nil {
			return nil, invalid(err)
		}
		newName = n
	}
	if in.Name == nil && in.Limits.IsEmpty() {
		return nil, ErrNothingToUpdate
	}

	srv, err := p.loadOwnedServer(ctx, principal, serverID)
	if err != nil {
		return nil, err
	}

	remote, err := p.panel.FetchServer(ctx, srv.RemoteServerID())
	if err != nil {
		slog.Warn("remote fetch failed before update", "server_id", srv.ID(), "error", err)
		return nil, ErrServerUnreachable
	}
	if remote.Suspended {
		return nil, ErrServerSuspended
	}
	if server.IsBusyRemoteStatus(remote.Status) {
		return nil, ErrServerBusy
	}

	if !in.Limits.IsEmpty() {
		limits := in.Limits.ApplyTo(remote.Limits)
		if err := limits.Validate(); err != nil {
			return nil, invalid(err)
		}
		if limits != remote.Limits {
			if err := p.resize(ctx, principal, srv, limits); err != nil {
				return nil, err
			}
		} else if srv.Drifted(limits) {
			p.syncLimits(ctx, srv, limits)
		}
	}

	if in.Name != nil && newName != srv.Name() {
		if err := p.rename(ctx, principal, srv, newName); err != nil {
			return nil, err
		}
	}

	return srv, nil
}

func (p *provisioningUseCaseImpl) resize(
	ctx context.Context,
	principal user.Principal,
	srv *server.Server,
	limits entitlement.Resources,
) error {
	unlock, err := p.locker.Lock(ctx, provisioningLockKey(srv.OwnerID()))
	if err != nil {
		return errs.Wrap(err, "acquire provisioning lock")
	}
	defer unlock()

	type snapshot struct {
		user  *user.User
		owned []*server.Server
	}
	snap, err := shared.ReadOnly(ctx, p.uow, func(ctx context.Context, tx shared.Tx) (snapshot, error) {
		u, err := tx.Users().FindByID(ctx, srv.OwnerID())
		if err != nil {
			return snapshot{}, mapNotFound(err, ErrUserNotFound)
		}
		owned, err := tx.Servers().ListByOwner(ctx, srv.OwnerID())
		if err != nil {
			return snapshot{}, errs.Wrap(err, "list owned servers")
		}
		return snapshot{user: u, owned: owned}, nil
	})
	if err != nil {
		return err
	}

	exclude := srv.ID()
	remaining := entitlement.RemainingFor(snap.user.Envelope(), server.OwnedServers(snap.owned), &exclude)
	if v := entitlement.Check(limits, remaining, false); !v.Empty() {
		return &QuotaViolationError{Violations: v, Remaining: remaining}
	}

	updated, err := p.panel.UpdateBuild(ctx, srv.RemoteServerID(), limits)
	if err != nil {
		p.audit(ctx, principal, "server.resize", srv.ID().String(), "failure", map[string]any{"error": err.Error()})
		return errs.Wrap(err, "update remote build")
	}
	applied := limits
	if updated != nil && updated.Limits.Validate() == nil {
		applied = updated.Limits
	}

	if err := srv.ChangeLimits(applied, p.clock.Now()); err != nil {
		return invalid(err)
	}
	if err := p.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Servers().Update(ctx, srv)
	}); err != nil {
		slog.Error("remote build updated but local cache write failed",
			"server_id", srv.ID(),
			"error", err)
		return errs.Wrap(err, "persist server limits")
	}

	p.audit(ctx, principal, "server.resize", srv.ID().String(), "success", map[string]any{"limits": applied})
	return nil
}

// syncLimits overwrites the local cache with the panel's values. Failures are only logged.
func (p *provisioningUseCaseImpl) syncLimits(ctx context.Context, srv *server.Server, limits entitlement.Resources) {
	if err := srv.ChangeLimits(limits, p.clock.Now()); err != nil {
		return
	}
	if err := p.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Servers().Update(ctx, srv)
	}); err != nil {
		slog.Warn("failed to sync server limits", "server_id", srv.ID(), "error", err)
	}
}

func (p *provisioningUseCaseImpl) rename(
	ctx context.Context,
	principal user.Principal,
	srv *server.Server,
	name string,
) error {
	owner, err := shared.ReadOnly(ctx, p.uow, func(ctx context.Context, tx shared.Tx) (*user.User, error) {
		u, err := tx.Users().FindByID(ctx, srv.OwnerID())
		if err != nil {
			return nil, mapNotFound(err, ErrUserNotFound)
		}
		return u, nil
	})
	if err != nil {
		return err
	}

	if err := p.panel.RenameServer(ctx, srv.RemoteServerID(), name, owner.PanelUserID()); err != nil {
		return errs.Wrap(err, "rename remote server")
	}
	if err := srv.Rename(name, p.clock.Now()); err != nil {
		return invalid(err)
	}
	if err := p.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Servers().Update(ctx, srv)
	}); err != nil {
		return errs.Wrap(err, "persist server name")
	}

	p.audit(ctx, principal, "server.rename", srv.ID().String(), "success", map[string]any{"name": name})
	return nil
}

func (p *provisioningUseCaseImpl) DeleteServer(
	ctx context.Context,
	principal user.Principal,
	serverID uuid.UUID,
) error {
	srv, err := p.loadOwnedServer(ctx, principal, serverID)
	if err != nil {
		return err
	}

	remote, err := p.panel.FetchServer(ctx, srv.RemoteServerID())
	switch {
	case errs.Is(err, shared.ErrRemoteNotFound):
		remote = nil
	case err != nil:
		slog.Warn("remote fetch failed before delete", "server_id", srv.ID(), "error", err)
		return ErrServerUnreachable
	}
	if remote != nil && remote.Suspended {
		return ErrServerSuspended
	}

	if remote != nil {
		if err := p.panel.DeleteServer(ctx, srv.RemoteServerID()); err != nil {
			p.audit(ctx, principal, "server.delete", srv.ID().String(), "failure", map[string]any{"error": err.Error()})
			return errs.Wrap(err, "delete remote server")
		}
	}

	if err := p.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Servers().Delete(ctx, srv.ID())
	}); err != nil {
		return errs.Wrap(err, "delete server record")
	}

	p.audit(ctx, principal, "server.delete", srv.ID().String(), "success", nil)
	return nil
}

func (p *provisioningUseCaseImpl) SetSuspended(
	ctx context.Context,
	principal user.Principal,
	serverID uuid.UUID,
	suspended bool,
) error {
	if !principal.IsAdmin() {
		return ErrAdminOnly
	}
	srv, err := p.loadOwnedServer(ctx, principal, serverID)
	if err != nil {
		return err
	}

	action := "server.unsuspend"
	call := p.panel.UnsuspendServer
	if suspended {
		action = "server.suspend"
		call = p.panel.SuspendServer
	}
	if err := call(ctx, srv.RemoteServerID()); err != nil {
		p.audit(ctx, principal, action, srv.ID().String(), "failure", map[string]any{"error": err.Error()})
		if errs.Is(err, shared.ErrRemoteNotFound) {
			return ErrServerNotFound
		}
		return errs.Wrap(err, "change remote suspension")
	}

	p.audit(ctx, principal, action, srv.ID().String(), "success", map[string]any{"owner_id": srv.OwnerID()})
	return nil
}

func (p *provisioningUseCaseImpl) loadOwnedServer(
	ctx context.Context,
	principal user.Principal,
	serverID uuid.UUID,
) (*server.Server, error) {
	var srv *server.Server
	err := p.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		srv, err = tx.Servers().FindByID(ctx, serverID)
		return err
	})
	if err != nil {
		return nil, mapNotFound(err, ErrServerNotFound)
	}
	if !srv.IsOwnedBy(principal.UserID) && !principal.IsAdmin() {
		return nil, ErrNotServerOwner
	}
	return srv, nil
}

func (p *provisioningUseCaseImpl) audit(
	ctx context.Context,
	principal user.Principal,
	action, subject, outcome string,
	payload map[string]any,
) {
	actor := principal.UserID
	p.effects.Dispatch(ctx, Effect{Audit: newAuditEvent(&actor, action, subject, outcome, payload, p.clock.Now())})
}

func provisioningLockKey(userID uuid.UUID) string {
	return "provision:" + userID.String()
}

// satisfiesPlanGate passes when nothing is required or the user holds one of the plans.
func satisfiesPlanGate(required, held []uuid.UUID) bool {
	if len(required) == 0 {
		return true
	}
	for _, id := range held {
		if slices.Contains(required, id) {
			return true
		}
	}
	return false
}

func activePlanIDs(ctx context.Context, tx shared.Tx, userID uuid.UUID) ([]uuid.UUID, error) {
	grants, err := tx.Grants().ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, errs.Wrap(err, "list active grants")
	}
	var ids []uuid.UUID
	for _, g := range grants {
		if g.Source() == grant.SourcePlan && g.PlanID() != nil {
			ids = append(ids, *g.PlanID())
		}
	}
	return ids, nil
}

func mapNotFound(err, target error) error {
	if errs.Is(err, shared.ErrNotFound) {
		return target
	}
	return err
}
