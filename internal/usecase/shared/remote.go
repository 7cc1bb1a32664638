package shared

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/shared/$GOFILE -package=sharedmock

import (
	"context"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/pkg/errs"
)

var (
	ErrRemoteNotFound    = errs.Sentinel("remote resource not found", errs.ErrNotFound)
	ErrRemoteUnavailable = errs.Sentinel("hosting panel unavailable", errs.ErrRemoteUnavailable)
	ErrRemoteRejected    = errs.Sentinel("hosting panel rejected the request", errs.ErrConflict)
)

// RemoteServer is the panel's authoritative view of a server.
type RemoteServer struct {
	ID         int64
	Identifier string
	Name       string
	Limits     entitlement.Resources
	Suspended  bool
	Status     string
}

type CreateServerRequest struct {
	Name        string
	PanelUserID int64
	EggID       int64
	NestID      int64
	DockerImage string
	Startup     string
	Environment map[string]string
	LocationID  int64
	Limits      entitlement.Resources
	ExternalID  string
}

// PanelClient talks to the hosting control plane. Implementations translate transport
// failures into ErrRemoteNotFound, ErrRemoteUnavailable or ErrRemoteRejected.
type PanelClient interface {
	CreateServer(ctx context.Context, req CreateServerRequest) (*RemoteServer, error)
	FetchServer(ctx context.Context, remoteID int64) (*RemoteServer, error)
	UpdateBuild(ctx context.Context, remoteID int64, limits entitlement.Resources) (*RemoteServer, error)
	RenameServer(ctx context.Context, remoteID int64, name string, panelUserID int64) error
	DeleteServer(ctx context.Context, remoteID int64) error
	SuspendServer(ctx context.Context, remoteID int64) error
	UnsuspendServer(ctx context.Context, remoteID int64) error
}

type SettingsProvider interface {
	Settings(ctx context.Context) (Settings, error)
}
