//go:build unit || e2e

package builder

import (
	"time"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/domain/server"
	reqdto "hostdash/internal/handler/dto/request"
	"hostdash/internal/usecase/queries"
	"hostdash/internal/usecase/shared"

	"github.com/google/uuid"
)

type ServerBuilder struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	RemoteServerID   int64
	RemoteIdentifier string
	Name             string
	EggID            uuid.UUID
	LocationID       uuid.UUID
	Limits           entitlement.Resources
	Status           server.Status
	CreatedAt        time.Time
}

func NewServerBuilder() *ServerBuilder {
	return &ServerBuilder{
		ID:               uuid.New(),
		OwnerID:          uuid.New(),
		RemoteServerID:   101,
		RemoteIdentifier: "1a2b3c4d",
		Name:             "survival",
		EggID:            uuid.New(),
		LocationID:       uuid.New(),
		Limits:           DefaultLimits(),
		Status:           server.StatusActive,
		CreatedAt:        time.Now(),
	}
}

// DefaultLimits fits inside the default user envelope with room to spare.
func DefaultLimits() entitlement.Resources {
	return entitlement.Resources{
		MemoryMB:    1024,
		DiskMB:      5120,
		CPUPercent:  100,
		Backups:     1,
		Databases:   1,
		Allocations: 1,
	}
}

func (s *ServerBuilder) With(mutate func(*ServerBuilder)) *ServerBuilder {
	mutate(s)
	return s
}

// Build methods
func (s *ServerBuilder) BuildDomain() *server.Server {
	return server.Reconstruct(server.ReconstructParams{
		ID:               s.ID,
		OwnerID:          s.OwnerID,
		RemoteServerID:   s.RemoteServerID,
		RemoteIdentifier: s.RemoteIdentifier,
		Name:             s.Name,
		EggID:            s.EggID,
		LocationID:       s.LocationID,
		Limits:           s.Limits,
		Status:           s.Status,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.CreatedAt,
	})
}

func (s *ServerBuilder) BuildView() queries.ServerView {
	return queries.ServerView{Server: s.BuildDomain(), RemoteStatus: "running"}
}

func (s *ServerBuilder) BuildRemote() *shared.RemoteServer {
	return &shared.RemoteServer{
		ID:         s.RemoteServerID,
		Identifier: s.RemoteIdentifier,
		Name:       s.Name,
		Limits:     s.Limits,
		Status:     "running",
	}
}

func (s *ServerBuilder) BuildCreateRequestDTO() reqdto.CreateServerRequest {
	return reqdto.CreateServerRequest{
		Name:       s.Name,
		EggID:      s.EggID,
		LocationID: s.LocationID,
		Limits: reqdto.ResourcesRequest{
			MemoryMB:    s.Limits.MemoryMB,
			DiskMB:      s.Limits.DiskMB,
			CPUPercent:  s.Limits.CPUPercent,
			Backups:     s.Limits.Backups,
			Databases:   s.Limits.Databases,
			Allocations: s.Limits.Allocations,
		},
	}
}

// Fluent builder methods
func (s *ServerBuilder) OwnedBy(userID uuid.UUID) *ServerBuilder {
	s.OwnerID = userID
	return s
}

func (s *ServerBuilder) WithLimits(r entitlement.Resources) *ServerBuilder {
	s.Limits = r
	return s
}

func (s *ServerBuilder) AtLocation(id uuid.UUID) *ServerBuilder {
	s.LocationID = id
	return s
}

func (s *ServerBuilder) WithRemoteID(id int64) *ServerBuilder {
	s.RemoteServerID = id
	return s
}
