package server

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"hostdash/internal/domain/entitlement"

	"github.com/google/uuid"
)

var (
	ErrInvalidName       = errors.New("server name must be 1-191 characters")
	ErrInvalidTransition = errors.New("invalid server status transition")
	ErrMissingRemoteID   = errors.New("remote server id is required")
)

type Status string

const (
	StatusCreating Status = "creating"
	StatusActive   Status = "active"
	StatusError    Status = "error"
	StatusDeleting Status = "deleting"
)

func (s Status) String() string { return string(s) }

var transitions = map[Status][]Status{
	StatusCreating: {StatusActive, StatusError},
	StatusActive:   {StatusError, StatusDeleting},
	StatusError:    {StatusActive, StatusDeleting},
	StatusDeleting: {StatusError},
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

const maxNameLength = 191

func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

// Server is the locally cached view of a server on the hosting panel.
type Server struct {
	id               uuid.UUID
	ownerID          uuid.UUID
	remoteServerID   int64
	remoteIdentifier string
	name             string
	eggID            uuid.UUID
	locationID       uuid.UUID
	limits           entitlement.Resources
	status           Status
	createdAt        time.Time
	updatedAt        time.Time
}

type NewParams struct {
	OwnerID          uuid.UUID
	RemoteServerID   int64
	RemoteIdentifier string
	Name             string
	EggID            uuid.UUID
	LocationID       uuid.UUID
	Limits           entitlement.Resources
	Now              time.Time
}

// NewActive records a server the panel has already created.
func NewActive(p NewParams) (*Server, error) {
	if p.RemoteServerID <= 0 {
		return nil, ErrMissingRemoteID
	}
	name, err := NormalizeName(p.Name)
	if err != nil {
		return nil, err
	}
	if err := p.Limits.Validate(); err != nil {
		return nil, err
	}
	return &Server{
		id:               uuid.New(),
		ownerID:          p.OwnerID,
		remoteServerID:   p.RemoteServerID,
		remoteIdentifier: p.RemoteIdentifier,
		name:             name,
		eggID:            p.EggID,
		locationID:       p.LocationID,
		limits:           p.Limits,
		status:           StatusActive,
		createdAt:        p.Now,
		updatedAt:        p.Now,
	}, nil
}

type ReconstructParams struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	RemoteServerID   int64
	RemoteIdentifier string
	Name             string
	EggID            uuid.UUID
	LocationID       uuid.UUID
	Limits           entitlement.Resources
	Status           Status
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func Reconstruct(p ReconstructParams) *Server {
	return &Server{
		id:               p.ID,
		ownerID:          p.OwnerID,
		remoteServerID:   p.RemoteServerID,
		remoteIdentifier: p.RemoteIdentifier,
		name:             p.Name,
		eggID:            p.EggID,
		locationID:       p.LocationID,
		limits:           p.Limits,
		status:           p.Status,
		createdAt:        p.CreatedAt,
		updatedAt:        p.UpdatedAt,
	}
}

func (s *Server) IsOwnedBy(userID uuid.UUID) bool { return s.ownerID == userID }

func (s *Server) TransitionTo(to Status, now time.Time) error {
	if s.status == to {
		return nil
	}
	if !s.status.CanTransitionTo(to) {
		return ErrInvalidTransition
	}
	s.status = to
	s.updatedAt = now
	return nil
}

func (s *Server) ChangeLimits(limits entitlement.Resources, now time.Time) error {
	if err := limits.Validate(); err != nil {
		return err
	}
	s.limits = limits
	s.updatedAt = now
	return nil
}

func (s *Server) Rename(name string, now time.Time) error {
	n, err := NormalizeName(name)
	if err != nil {
		return err
	}
	s.name = n
	s.updatedAt = now
	return nil
}

// Drifted reports whether the panel's limits differ from the cached ones.
func (s *Server) Drifted(remote entitlement.Resources) bool {
	return s.limits != remote
}

func (s *Server) Owned() entitlement.OwnedServer {
	return entitlement.OwnedServer{ID: s.id, Limits: s.limits}
}

func (s *Server) ID() uuid.UUID                 { return s.id }
func (s *Server) OwnerID() uuid.UUID            { return s.ownerID }
func (s *Server) RemoteServerID() int64         { return s.remoteServerID }
func (s *Server) RemoteIdentifier() string      { return s.remoteIdentifier }
func (s *Server) Name() string                  { return s.name }
func (s *Server) EggID() uuid.UUID              { return s.eggID }
func (s *Server) LocationID() uuid.UUID         { return s.locationID }
func (s *Server) Limits() entitlement.Resources { return s.limits }
func (s *Server) Status() Status                { return s.status }
func (s *Server) CreatedAt() time.Time          { return s.createdAt }
func (s *Server) UpdatedAt() time.Time          { return s.updatedAt }

// OwnedServers projects servers for quota calculation.
func OwnedServers(servers []*Server) []entitlement.OwnedServer {
	out := make([]entitlement.OwnedServer, 0, len(servers))
	for _, s := range servers {
		out = append(out, s.Owned())
	}
	return out
}
