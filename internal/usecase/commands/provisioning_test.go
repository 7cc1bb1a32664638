//go:build unit

package commands_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/domain/grant"
	"hostdash/internal/domain/server"
	"hostdash/internal/infra/lock"
	"hostdash/internal/pkg/clock"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/commands"
	"hostdash/internal/usecase/shared"
	"hostdash/tests/common/builder"
	"hostdash/tests/common/memstore"
	sharedmock "hostdash/tests/mock/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ProvisioningSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	store   *memstore.Store
	panel   *sharedmock.MockPanelClient
	effects *effectLog
	uc      commands.ProvisioningCommands

	owner *builder.UserBuilder
	egg   shared.EggSnapshot
	loc   shared.LocationSnapshot
}

func TestProvisioningSuite(t *testing.T) {
	suite.Run(t, new(ProvisioningSuite))
}

func (s *ProvisioningSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = memstore.New()
	s.panel = sharedmock.NewMockPanelClient(s.ctrl)
	s.effects = &effectLog{}
	s.uc = commands.NewProvisioningUseCase(s.store, s.panel, lock.NewLocalLocker(), s.effects, clock.NewMockClock(testNow))

	s.owner = builder.NewUserBuilder()
	s.egg = builder.NewEgg()
	s.loc = builder.NewLocation()
	s.store.PutUser(s.owner.BuildDomain())
	s.store.PutEgg(s.egg)
	s.store.PutLocation(s.loc)
}

func (s *ProvisioningSuite) createInput(limits entitlement.Resources) commands.CreateServerInput {
	return commands.CreateServerInput{
		Name:       "survival",
		EggID:      s.egg.ID,
		LocationID: s.loc.ID,
		Limits:     limits,
	}
}

func (s *ProvisioningSuite) ownServer(limits entitlement.Resources) *server.Server {
	srv := builder.NewServerBuilder().OwnedBy(s.owner.ID).WithLimits(limits).AtLocation(s.loc.ID).BuildDomain()
	s.store.PutServer(srv)
	return srv
}

func (s *ProvisioningSuite) TestCreateServer_Success() {
	limits := builder.DefaultLimits()
	s.panel.EXPECT().
		CreateServer(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req shared.CreateServerRequest) (*shared.RemoteServer, error) {
			s.Equal(s.owner.PanelUserID, req.PanelUserID)
			s.Equal(s.egg.PanelEggID, req.EggID)
			s.Equal(s.loc.PanelLocationID, req.LocationID)
			s.Equal(limits, req.Limits)
			s.NotEmpty(req.ExternalID)
			return &shared.RemoteServer{ID: 7, Identifier: "abcd1234", Limits: req.Limits}, nil
		})

	srv, err := s.uc.CreateServer(context.Background(), s.owner.Principal(), s.createInput(limits))

	s.Require().NoError(err)
	s.Equal(int64(7), srv.RemoteServerID())
	s.Equal(server.StatusActive, srv.Status())
	stored := s.store.Server(srv.ID())
	s.Require().NotNil(stored)
	s.Equal(limits, stored.Limits())

	audit := s.effects.lastAudit("server.create")
	s.Require().NotNil(audit)
	s.Equal("success", audit.Outcome)
	s.Equal(s.owner.ID, *audit.ActorID)
}

func (s *ProvisioningSuite) TestCreateServer_QuotaExceeded() {
	s.ownServer(entitlement.Resources{MemoryMB: 3072, DiskMB: 1024, CPUPercent: 50})
	req := builder.DefaultLimits()
	req.MemoryMB = 2048

	_, err := s.uc.CreateServer(context.Background(), s.owner.Principal(), s.createInput(req))

	var quota *commands.QuotaViolationError
	s.Require().ErrorAs(err, &quota)
	s.Contains(quota.Violations, entitlement.DimMemoryMB)
	s.NotContains(quota.Violations, entitlement.DimDiskMB)
	s.Equal(int64(1024), quota.Remaining.MemoryMB)
	s.Len(s.store.ServersOf(s.owner.ID), 1)
}

func (s *ProvisioningSuite) TestCreateServer_NoFreeSlot() {
	s.store.PutUser(s.owner.WithTotals(s.owner.Totals.Resources, 1).BuildDomain())
	s.ownServer(entitlement.Resources{MemoryMB: 512, DiskMB: 512, CPUPercent: 10})

	_, err := s.uc.CreateServer(context.Background(), s.owner.Principal(), s.createInput(builder.DefaultLimits()))

	var quota *commands.QuotaViolationError
	s.Require().ErrorAs(err, &quota)
	s.Contains(quota.Violations, entitlement.DimServerSlots)
	s.Equal(int64(0), quota.Remaining.ServerSlots)
}

func (s *ProvisioningSuite) TestCreateServer_InvalidInput() {
	cases := map[string]commands.CreateServerInput{
		"empty name":      {Name: "  ", EggID: s.egg.ID, LocationID: s.loc.ID, Limits: builder.DefaultLimits()},
		"negative memory": {Name: "ok", EggID: s.egg.ID, LocationID: s.loc.ID, Limits: entitlement.Resources{MemoryMB: -1}},
	}
	for name, in := range cases {
		s.Run(name, func() {
			_, err := s.uc.CreateServer(context.Background(), s.owner.Principal(), in)
			s.True(errs.Is(err, errs.ErrValidation), "got %v", err)
		})
	}
}

func (s *ProvisioningSuite) TestCreateServer_UnknownEgg() {
	in := s.createInput(builder.DefaultLimits())
	in.EggID = uuid.New()

	_, err := s.uc.CreateServer(context.Background(), s.owner.Principal(), in)

	s.ErrorIs(err, commands.ErrEggNotFound)
}

func (s *ProvisioningSuite) TestCreateServer_PlanGate() {
	planID := uuid.New()
	s.egg.RequiredPlanIDs = []uuid.UUID{planID}
	s.store.PutEgg(s.egg)

	_, err := s.uc.CreateServer(context.Background(), s.owner.Principal(), s.createInput(builder.DefaultLimits()))
	s.Require().ErrorIs(err, commands.ErrPlanRequired)

	g, err := grant.New(grant.NewParams{
		UserID:       s.owner.ID,
		Source:       grant.SourcePlan,
		SourceRef:    uuid.NewString(),
		PlanID:       &planID,
		Amount:       grant.Amount{Coins: 1},
		BillingCycle: grant.CycleMonthly,
		PurchasedAt:  testNow,
	})
	s.Require().NoError(err)
	s.store.PutGrant(g)
	s.panel.EXPECT().CreateServer(gomock.Any(), gomock.Any()).Return(&shared.RemoteServer{ID: 9}, nil)

	_, err = s.uc.CreateServer(context.Background(), s.owner.Principal(), s.createInput(builder.DefaultLimits()))
	s.NoError(err)
}

func (s *ProvisioningSuite) TestCreateServer_LocationFull() {
	limit := int64(1)
	s.loc.ServerLimit = &limit
	s.store.PutLocation(s.loc)
	other := builder.NewServerBuilder().AtLocation(s.loc.ID).BuildDomain()
	s.store.PutServer(other)

	_, err := s.uc.CreateServer(context.Background(), s.owner.Principal(), s.createInput(builder.DefaultLimits()))

	s.ErrorIs(err, commands.ErrLocationFull)
}

func (s *ProvisioningSuite) TestCreateServer_RemoteFailure() {
	s.panel.EXPECT().CreateServer(gomock.Any(), gomock.Any()).Return(nil, shared.ErrRemoteUnavailable)

	_, err := s.uc.CreateServer(context.Background(), s.owner.Principal(), s.createInput(builder.DefaultLimits()))

	s.True(errs.Is(err, errs.ErrRemoteUnavailable))
	s.Empty(s.store.ServersOf(s.owner.ID))
	audit := s.effects.lastAudit("server.create")
	s.Require().NotNil(audit)
	s.Equal("failure", audit.Outcome)
}

func (s *ProvisioningSuite) TestCreateServer_CompensatesWhenLocalWriteFails() {
	s.store.FailOn("servers.create", errors.New("connection reset"))
	gomock.InOrder(
		s.panel.EXPECT().CreateServer(gomock.Any(), gomock.Any()).Return(&shared.RemoteServer{ID: 77}, nil),
		s.panel.EXPECT().DeleteServer(gomock.Any(), int64(77)).Return(nil),
	)

	_, err := s.uc.CreateServer(context.Background(), s.owner.Principal(), s.createInput(builder.DefaultLimits()))

	s.Error(err)
	s.Empty(s.store.ServersOf(s.owner.ID))
}

func (s *ProvisioningSuite) TestUpdateServer_ResizeWithinQuota() {
	srv := s.ownServer(builder.DefaultLimits())
	remote := builder.NewServerBuilder().WithLimits(srv.Limits()).WithRemoteID(srv.RemoteServerID()).BuildRemote()
	memory := int64(3072)
	want := srv.Limits()
	want.MemoryMB = memory

	s.panel.EXPECT().FetchServer(gomock.Any(), srv.RemoteServerID()).Return(remote, nil)
	s.panel.EXPECT().UpdateBuild(gomock.Any(), srv.RemoteServerID(), want).
		Return(&shared.RemoteServer{ID: srv.RemoteServerID(), Limits: want}, nil)

	updated, err := s.uc.UpdateServer(context.Background(), s.owner.Principal(), srv.ID(), commands.UpdateServerInput{
		Limits: commands.LimitsPatch{MemoryMB: &memory},
	})

	s.Require().NoError(err)
	s.Equal(want, updated.Limits())
	s.Equal(want, s.store.Server(srv.ID()).Limits())
}

func (s *ProvisioningSuite) TestUpdateServer_RemoteResizeFailureKeepsLocalLimits() {
	srv := s.ownServer(builder.DefaultLimits())
	remote := builder.NewServerBuilder().WithLimits(srv.Limits()).WithRemoteID(srv.RemoteServerID()).BuildRemote()
	memory := int64(3072)

	s.panel.EXPECT().FetchServer(gomock.Any(), srv.RemoteServerID()).Return(remote, nil)
	s.panel.EXPECT().UpdateBuild(gomock.Any(), srv.RemoteServerID(), gomock.Any()).Return(nil, shared.ErrRemoteUnavailable)

	_, err := s.uc.UpdateServer(context.Background(), s.owner.Principal(), srv.ID(), commands.UpdateServerInput{
		Limits: commands.LimitsPatch{MemoryMB: &memory},
	})

	s.ErrorIs(err, shared.ErrRemoteUnavailable)
	s.Equal(builder.DefaultLimits(), s.store.Server(srv.ID()).Limits())
	s.Zero(s.store.Calls("servers.update"))
	audit := s.effects.lastAudit("server.resize")
	s.Require().NotNil(audit)
	s.Equal("failure", audit.Outcome)
}

func (s *ProvisioningSuite) TestUpdateServer_ResizeBeyondQuota() {
	srv := s.ownServer(builder.DefaultLimits())
	s.ownServer(entitlement.Resources{MemoryMB: 2048, DiskMB: 1024, CPUPercent: 50})
	remote := builder.NewServerBuilder().WithLimits(srv.Limits()).BuildRemote()
	memory := int64(2049)

	s.panel.EXPECT().FetchServer(gomock.Any(), srv.RemoteServerID()).Return(remote, nil)

	_, err := s.uc.UpdateServer(context.Background(), s.owner.Principal(), srv.ID(), commands.UpdateServerInput{
		Limits: commands.LimitsPatch{MemoryMB: &memory},
	})

	var quota *commands.QuotaViolationError
	s.Require().ErrorAs(err, &quota)
	s.Equal(int64(2048), quota.Remaining.MemoryMB)
	s.Equal(builder.DefaultLimits(), s.store.Server(srv.ID()).Limits())
}

func (s *ProvisioningSuite) TestUpdateServer_PatchesFromRemoteValues() {
	srv := s.ownServer(builder.DefaultLimits())
	drifted := srv.Limits()
	drifted.DiskMB = 8192
	remote := builder.NewServerBuilder().WithLimits(drifted).BuildRemote()
	cpu := int64(150)
	want := drifted
	want.CPUPercent = cpu

	s.panel.EXPECT().FetchServer(gomock.Any(), srv.RemoteServerID()).Return(remote, nil)
	s.panel.EXPECT().UpdateBuild(gomock.Any(), srv.RemoteServerID(), want).Return(nil, nil)

	updated, err := s.uc.UpdateServer(context.Background(), s.owner.Principal(), srv.ID(), commands.UpdateServerInput{
		Limits: commands.LimitsPatch{CPUPercent: &cpu},
	})

	s.Require().NoError(err)
	s.Equal(int64(8192), updated.Limits().DiskMB)
}

func (s *ProvisioningSuite) TestUpdateServer_SyncsDriftWithoutRemoteWrite() {
	srv := s.ownServer(builder.DefaultLimits())
	drifted := srv.Limits()
	drifted.MemoryMB = 2048
	remote := builder.NewServerBuilder().WithLimits(drifted).BuildRemote()
	memory := drifted.MemoryMB

	s.panel.EXPECT().FetchServer(gomock.Any(), srv.RemoteServerID()).Return(remote, nil)

	_, err := s.uc.UpdateServer(context.Background(), s.owner.Principal(), srv.ID(), commands.UpdateServerInput{
		Limits: commands.LimitsPatch{MemoryMB: &memory},
	})

	s.Require().NoError(err)
	s.Equal(drifted, s.store.Server(srv.ID()).Limits())
}

func (s *ProvisioningSuite) TestUpdateServer_RemoteStates() {
	cases := []struct {
		name   string
		remote func(*shared.RemoteServer) (*shared.RemoteServer, error)
		want   error
	}{
		{
			name:   "unreachable",
			remote: func(*shared.RemoteServer) (*shared.RemoteServer, error) { return nil, shared.ErrRemoteUnavailable },
			want:   commands.ErrServerUnreachable,
		},
		{
			name: "suspended",
			remote: func(r *shared.RemoteServer) (*shared.RemoteServer, error) {
				r.Suspended = true
				return r, nil
			},
			want: commands.ErrServerSuspended,
		},
		{
			name: "installing",
			remote: func(r *shared.RemoteServer) (*shared.RemoteServer, error) {
				r.Status = server.RemoteStatusInstalling
				return r, nil
			},
			want: commands.ErrServerBusy,
		},
	}
	for _, c := range cases {
		s.Run(c.name, func() {
			srv := s.ownServer(builder.DefaultLimits())
			remote, err := c.remote(builder.NewServerBuilder().WithLimits(srv.Limits()).BuildRemote())
			s.panel.EXPECT().FetchServer(gomock.Any(), srv.RemoteServerID()).Return(remote, err)
			memory := int64(2048)

			_, err = s.uc.UpdateServer(context.Background(), s.owner.Principal(), srv.ID(), commands.UpdateServerInput{
				Limits: commands.LimitsPatch{MemoryMB: &memory},
			})

			s.ErrorIs(err, c.want)
		})
	}
}

func (s *ProvisioningSuite) TestUpdateServer_Rename() {
	srv := s.ownServer(builder.DefaultLimits())
	remote := builder.NewServerBuilder().WithLimits(srv.Limits()).BuildRemote()
	name := "  creative  "

	s.panel.EXPECT().FetchServer(gomock.Any(), srv.RemoteServerID()).Return(remote, nil)
	s.panel.EXPECT().RenameServer(gomock.Any(), srv.RemoteServerID(), "creative", s.owner.PanelUserID).Return(nil)

	updated, err := s.uc.UpdateServer(context.Background(), s.owner.Principal(), srv.ID(), commands.UpdateServerInput{Name: &name})

	s.Require().NoError(err)
	s.Equal("creative", updated.Name())
	s.Equal("creative", s.store.Server(srv.ID()).Name())
}

func (s *ProvisioningSuite) TestUpdateServer_NothingToUpdate() {
	srv := s.ownServer(builder.DefaultLimits())

	_, err := s.uc.UpdateServer(context.Background(), s.owner.Principal(), srv.ID(), commands.UpdateServerInput{})

	s.ErrorIs(err, commands.ErrNothingToUpdate)
}

func (s *ProvisioningSuite) TestUpdateServer_NotOwner() {
	other := builder.NewServerBuilder().BuildDomain()
	s.store.PutServer(other)
	name := "mine now"

	_, err := s.uc.UpdateServer(context.Background(), s.owner.Principal(), other.ID(), commands.UpdateServerInput{Name: &name})

	s.ErrorIs(err, commands.ErrNotServerOwner)
}

func (s *ProvisioningSuite) TestDeleteServer() {
	s.Run("removes remote then local", func() {
		srv := s.ownServer(builder.DefaultLimits())
		gomock.InOrder(
			s.panel.EXPECT().FetchServer(gomock.Any(), srv.RemoteServerID()).Return(builder.NewServerBuilder().BuildRemote(), nil),
			s.panel.EXPECT().DeleteServer(gomock.Any(), srv.RemoteServerID()).Return(nil),
		)

		s.Require().NoError(s.uc.DeleteServer(context.Background(), s.owner.Principal(), srv.ID()))
		s.Nil(s.store.Server(srv.ID()))
	})

	s.Run("remote already gone", func() {
		srv := s.ownServer(builder.DefaultLimits())
		s.panel.EXPECT().FetchServer(gomock.Any(), srv.RemoteServerID()).Return(nil, shared.ErrRemoteNotFound)

		s.Require().NoError(s.uc.DeleteServer(context.Background(), s.owner.Principal(), srv.ID()))
		s.Nil(s.store.Server(srv.ID()))
	})

	s.Run("suspended remote is kept", func() {
		srv := s.ownServer(builder.DefaultLimits())
		remote := builder.NewServerBuilder().BuildRemote()
		remote.Suspended = true
		s.panel.EXPECT().FetchServer(gomock.Any(), srv.RemoteServerID()).Return(remote, nil)

		s.ErrorIs(s.uc.DeleteServer(context.Background(), s.owner.Principal(), srv.ID()), commands.ErrServerSuspended)
		s.NotNil(s.store.Server(srv.ID()))
	})

	s.Run("admin may delete any server", func() {
		srv := builder.NewServerBuilder().BuildDomain()
		s.store.PutServer(srv)
		admin := builder.NewUserBuilder().AsAdmin().Principal()
		s.panel.EXPECT().FetchServer(gomock.Any(), srv.RemoteServerID()).Return(nil, shared.ErrRemoteNotFound)

		s.NoError(s.uc.DeleteServer(context.Background(), admin, srv.ID()))
	})
}

func (s *ProvisioningSuite) TestSetSuspended() {
	admin := builder.NewUserBuilder().AsAdmin().Principal()

	s.Run("admin suspends on the panel", func() {
		srv := s.ownServer(builder.DefaultLimits())
		s.panel.EXPECT().SuspendServer(gomock.Any(), srv.RemoteServerID()).Return(nil)

		s.Require().NoError(s.uc.SetSuspended(context.Background(), admin, srv.ID(), true))
		audit := s.effects.lastAudit("server.suspend")
		s.Require().NotNil(audit)
		s.Equal("success", audit.Outcome)
	})

	s.Run("admin unsuspends on the panel", func() {
		srv := s.ownServer(builder.DefaultLimits())
		s.panel.EXPECT().UnsuspendServer(gomock.Any(), srv.RemoteServerID()).Return(nil)

		s.Require().NoError(s.uc.SetSuspended(context.Background(), admin, srv.ID(), false))
	})

	s.Run("owner cannot change suspension", func() {
		srv := s.ownServer(builder.DefaultLimits())

		s.ErrorIs(s.uc.SetSuspended(context.Background(), s.owner.Principal(), srv.ID(), false), commands.ErrAdminOnly)
	})

	s.Run("server missing on the panel", func() {
		srv := s.ownServer(builder.DefaultLimits())
		s.panel.EXPECT().SuspendServer(gomock.Any(), srv.RemoteServerID()).Return(shared.ErrRemoteNotFound)

		s.ErrorIs(s.uc.SetSuspended(context.Background(), admin, srv.ID(), true), commands.ErrServerNotFound)
	})
}

func TestCreateServer_ConcurrentRequestsNeverOvercommit(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := memstore.New()
	panel := sharedmock.NewMockPanelClient(ctrl)

	owner := builder.NewUserBuilder()
	egg := builder.NewEgg()
	loc := builder.NewLocation()
	store.PutUser(owner.BuildDomain())
	store.PutEgg(egg)
	store.PutLocation(loc)

	var remoteIDs atomic.Int64
	panel.EXPECT().
		CreateServer(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req shared.CreateServerRequest) (*shared.RemoteServer, error) {
			return &shared.RemoteServer{ID: remoteIDs.Add(1), Limits: req.Limits}, nil
		}).
		AnyTimes()

	uc := commands.NewProvisioningUseCase(store, panel, lock.NewLocalLocker(), &effectLog{}, clock.NewMockClock(testNow))
	limits := entitlement.Resources{MemoryMB: 2048, DiskMB: 1024, CPUPercent: 50}

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
	)
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.CreateServer(context.Background(), owner.Principal(), commands.CreateServerInput{
				Name:       "race",
				EggID:      egg.ID,
				LocationID: loc.ID,
				Limits:     limits,
			})
			var quota *commands.QuotaViolationError
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.As(err, &quota):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(2), succeeded.Load())
	assert.Equal(t, int32(4), rejected.Load())

	var used int64
	for _, srv := range store.ServersOf(owner.ID) {
		used += srv.Limits().MemoryMB
	}
	require.LessOrEqual(t, used, owner.Totals.MemoryMB)
}
