//go:build unit

package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/domain/server"
	"hostdash/internal/pkg/clock"
	"hostdash/internal/usecase/queries"
	"hostdash/internal/usecase/shared"
	"hostdash/tests/common/builder"
	"hostdash/tests/common/memstore"
	sharedmock "hostdash/tests/mock/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store *memstore.Store
	panel *sharedmock.MockPanelClient
	q     queries.ServerQueries
	owner *builder.UserBuilder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		store: memstore.New(),
		panel: sharedmock.NewMockPanelClient(ctrl),
		owner: builder.NewUserBuilder(),
	}
	f.q = queries.NewServerQueries(f.store, f.panel, clock.NewMockClock(now), 2)
	f.store.PutUser(f.owner.BuildDomain())
	return f
}

func (f *fixture) server(remoteID int64, limits entitlement.Resources) *server.Server {
	srv := builder.NewServerBuilder().OwnedBy(f.owner.ID).WithRemoteID(remoteID).WithLimits(limits).BuildDomain()
	f.store.PutServer(srv)
	return srv
}

func TestListServers_OverwritesDriftedLimits(t *testing.T) {
	f := newFixture(t)
	srv := f.server(1, builder.DefaultLimits())
	remoteLimits := builder.DefaultLimits()
	remoteLimits.MemoryMB = 2048
	f.panel.EXPECT().FetchServer(gomock.Any(), int64(1)).
		Return(&shared.RemoteServer{ID: 1, Limits: remoteLimits, Status: "running"}, nil)

	views, err := f.q.ListServers(context.Background(), f.owner.Principal())

	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, remoteLimits, views[0].Server.Limits())
	assert.Equal(t, "running", views[0].RemoteStatus)
	assert.Equal(t, remoteLimits, f.store.Server(srv.ID()).Limits())
}

func TestListServers_PanelFailuresNeverFailTheRead(t *testing.T) {
	f := newFixture(t)
	reachable := f.server(1, builder.DefaultLimits())
	down := f.server(2, builder.DefaultLimits())
	suspended := f.server(3, builder.DefaultLimits())
	gone := f.server(4, builder.DefaultLimits())

	f.panel.EXPECT().FetchServer(gomock.Any(), int64(1)).Return(&shared.RemoteServer{ID: 1, Limits: reachable.Limits()}, nil)
	f.panel.EXPECT().FetchServer(gomock.Any(), int64(2)).Return(nil, shared.ErrRemoteUnavailable)
	f.panel.EXPECT().FetchServer(gomock.Any(), int64(3)).Return(&shared.RemoteServer{ID: 3, Limits: suspended.Limits(), Suspended: true}, nil)
	f.panel.EXPECT().FetchServer(gomock.Any(), int64(4)).Return(nil, shared.ErrRemoteNotFound)

	views, err := f.q.ListServers(context.Background(), f.owner.Principal())

	require.NoError(t, err)
	require.Len(t, views, 4)
	byID := map[uuid.UUID]queries.ServerView{}
	for _, v := range views {
		byID[v.Server.ID()] = v
	}
	assert.Equal(t, server.Flags{}, byID[reachable.ID()].Flags)
	assert.True(t, byID[down.ID()].Flags.Unreachable)
	assert.Equal(t, builder.DefaultLimits(), byID[down.ID()].Server.Limits())
	assert.True(t, byID[suspended.ID()].Flags.Suspended)
	assert.Equal(t, server.StatusError, byID[gone.ID()].Server.Status())
	assert.Equal(t, server.StatusError, f.store.Server(gone.ID()).Status())
}

func TestListServers_CacheWriteFailureIsTolerated(t *testing.T) {
	f := newFixture(t)
	f.server(1, builder.DefaultLimits())
	remoteLimits := builder.DefaultLimits()
	remoteLimits.DiskMB = 9999
	f.panel.EXPECT().FetchServer(gomock.Any(), int64(1)).Return(&shared.RemoteServer{ID: 1, Limits: remoteLimits}, nil)
	f.store.FailOn("servers.update", errors.New("read-only replica"))

	views, err := f.q.ListServers(context.Background(), f.owner.Principal())

	require.NoError(t, err)
	assert.Equal(t, remoteLimits, views[0].Server.Limits())
}

func TestGetServer_RecoversFromError(t *testing.T) {
	f := newFixture(t)
	srv := builder.NewServerBuilder().OwnedBy(f.owner.ID).With(func(b *builder.ServerBuilder) {
		b.Status = server.StatusError
	}).BuildDomain()
	f.store.PutServer(srv)
	f.panel.EXPECT().FetchServer(gomock.Any(), srv.RemoteServerID()).Return(&shared.RemoteServer{Limits: srv.Limits()}, nil)

	view, err := f.q.GetServer(context.Background(), f.owner.Principal(), srv.ID())

	require.NoError(t, err)
	assert.Equal(t, server.StatusActive, view.Server.Status())
}

func TestGetServer_Access(t *testing.T) {
	f := newFixture(t)
	other := builder.NewServerBuilder().BuildDomain()
	f.store.PutServer(other)

	_, err := f.q.GetServer(context.Background(), f.owner.Principal(), other.ID())
	assert.ErrorIs(t, err, queries.ErrServerAccess)

	_, err = f.q.GetServer(context.Background(), f.owner.Principal(), uuid.New())
	assert.ErrorIs(t, err, queries.ErrServerNotFound)

	f.panel.EXPECT().FetchServer(gomock.Any(), other.RemoteServerID()).Return(nil, shared.ErrRemoteUnavailable)
	admin := builder.NewUserBuilder().AsAdmin().Principal()
	view, err := f.q.GetServer(context.Background(), admin, other.ID())
	require.NoError(t, err)
	assert.True(t, view.Flags.Unreachable)
}

func TestUsage_UsesReconciledLimits(t *testing.T) {
	f := newFixture(t)
	f.server(1, builder.DefaultLimits())
	remoteLimits := builder.DefaultLimits()
	remoteLimits.MemoryMB = 3000
	f.panel.EXPECT().FetchServer(gomock.Any(), int64(1)).Return(&shared.RemoteServer{ID: 1, Limits: remoteLimits}, nil)

	usage, err := f.q.Usage(context.Background(), f.owner.Principal())

	require.NoError(t, err)
	assert.Equal(t, int64(3000), usage.Used.MemoryMB)
	assert.Equal(t, int64(1), usage.UsedSlots)
	assert.Equal(t, f.owner.Totals.MemoryMB-3000, usage.Remaining.MemoryMB)
	assert.Equal(t, f.owner.Totals.ServerSlots-1, usage.Remaining.ServerSlots)
}

func TestUsage_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.q.Usage(context.Background(), builder.NewUserBuilder().Principal())

	assert.ErrorIs(t, err, queries.ErrUserNotFound)
}
