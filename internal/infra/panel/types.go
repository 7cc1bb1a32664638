package panel

import (
	"hostdash/internal/domain/entitlement"
	"hostdash/internal/usecase/shared"
)

type limits struct {
	Memory int64 `json:"memory"`
	Swap   int64 `json:"swap"`
	Disk   int64 `json:"disk"`
	IO     int64 `json:"io"`
	CPU    int64 `json:"cpu"`
}

type featureLimits struct {
	Databases   int64 `json:"databases"`
	Allocations int64 `json:"allocations"`
	Backups     int64 `json:"backups"`
}

type deploy struct {
	Locations   []int64  `json:"locations"`
	DedicatedIP bool     `json:"dedicated_ip"`
	PortRange   []string `json:"port_range"`
}

type createServerBody struct {
	Name        string            `json:"name"`
	User        int64             `json:"user"`
	Egg         int64             `json:"egg"`
	DockerImage string            `json:"docker_image"`
	Startup     string            `json:"startup"`
	Environment map[string]string `json:"environment"`
	Limits      limits            `json:"limits"`
	Features    featureLimits     `json:"feature_limits"`
	Deploy      deploy            `json:"deploy"`
	ExternalID  string            `json:"external_id,omitempty"`
}

type buildBody struct {
	Allocation int64         `json:"allocation"`
	Memory     int64         `json:"memory"`
	Swap       int64         `json:"swap"`
	Disk       int64         `json:"disk"`
	IO         int64         `json:"io"`
	CPU        int64         `json:"cpu"`
	Features   featureLimits `json:"feature_limits"`
}

type detailsBody struct {
	Name string `json:"name"`
	User int64  `json:"user"`
}

type serverEnvelope struct {
	Object     string           `json:"object"`
	Attributes serverAttributes `json:"attributes"`
}

type serverAttributes struct {
	ID         int64         `json:"id"`
	Identifier string        `json:"identifier"`
	Name       string        `json:"name"`
	Suspended  bool          `json:"suspended"`
	Status     *string       `json:"status"`
	Allocation int64         `json:"allocation"`
	Limits     limits        `json:"limits"`
	Features   featureLimits `json:"feature_limits"`
}

func (a serverAttributes) toRemote() *shared.RemoteServer {
	status := ""
	if a.Status != nil {
		status = *a.Status
	}
	return &shared.RemoteServer{
		ID:         a.ID,
		Identifier: a.Identifier,
		Name:       a.Name,
		Limits: entitlement.Resources{
			DiskMB:      a.Limits.Disk,
			MemoryMB:    a.Limits.Memory,
			CPUPercent:  a.Limits.CPU,
			Backups:     a.Features.Backups,
			Databases:   a.Features.Databases,
			Allocations: a.Features.Allocations,
		},
		Suspended: a.Suspended,
		Status:    status,
	}
}

func toLimits(r entitlement.Resources) limits {
	return limits{Memory: r.MemoryMB, Disk: r.DiskMB, IO: 500, CPU: r.CPUPercent}
}

func toFeatures(r entitlement.Resources) featureLimits {
	return featureLimits{Databases: r.Databases, Allocations: r.Allocations, Backups: r.Backups}
}
