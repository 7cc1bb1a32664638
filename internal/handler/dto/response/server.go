package response

import (
	"time"

	"hostdash/internal/domain/server"
	"hostdash/internal/usecase/queries"

	"github.com/google/uuid"
)

type ServerResponse struct {
	ID               uuid.UUID         `json:"id"`
	Name             string            `json:"name"`
	EggID            uuid.UUID         `json:"eggId"`
	LocationID       uuid.UUID         `json:"locationId"`
	RemoteServerID   int64             `json:"remoteServerId"`
	RemoteIdentifier string            `json:"remoteIdentifier"`
	Status           string            `json:"status"`
	Limits           ResourcesResponse `json:"limits"`
	Suspended        bool              `json:"suspended"`
	Unreachable      bool              `json:"unreachable"`
	RemoteStatus     string            `json:"remoteStatus,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

func FromServer(s *server.Server) *ServerResponse {
	return &ServerResponse{
		ID:               s.ID(),
		Name:             s.Name(),
		EggID:            s.EggID(),
		LocationID:       s.LocationID(),
		RemoteServerID:   s.RemoteServerID(),
		RemoteIdentifier: s.RemoteIdentifier(),
		Status:           string(s.Status()),
		Limits:           FromResources(s.Limits()),
		CreatedAt:        s.CreatedAt(),
		UpdatedAt:        s.UpdatedAt(),
	}
}

func FromServerView(v queries.ServerView) *ServerResponse {
	resp := FromServer(v.Server)
	resp.Suspended = v.Flags.Suspended
	resp.Unreachable = v.Flags.Unreachable
	resp.RemoteStatus = v.RemoteStatus
	return resp
}

func FromServerViews(views []queries.ServerView) []*ServerResponse {
	out := make([]*ServerResponse, len(views))
	for i, v := range views {
		out[i] = FromServerView(v)
	}
	return out
}
