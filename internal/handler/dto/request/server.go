package request

import (
	"strings"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ResourcesRequest struct {
	MemoryMB    int64 `json:"memoryMb" binding:"min=0"`
	DiskMB      int64 `json:"diskMb" binding:"min=0"`
	CPUPercent  int64 `json:"cpuPercent" binding:"min=0"`
	Backups     int64 `json:"backups" binding:"min=0"`
	Databases   int64 `json:"databases" binding:"min=0"`
	Allocations int64 `json:"allocations" binding:"min=0"`
}

type CreateServerRequest struct {
	Name       string           `json:"name" binding:"required,max=191"`
	EggID      uuid.UUID        `json:"eggId" binding:"required"`
	LocationID uuid.UUID        `json:"locationId" binding:"required"`
	Limits     ResourcesRequest `json:"limits" binding:"required"`
}

func (r CreateServerRequest) ToInput() (commands.CreateServerInput, error) {
	var limits entitlement.Resources
	if err := copier.Copy(&limits, &r.Limits); err != nil {
		return commands.CreateServerInput{}, err
	}
	return commands.CreateServerInput{
		Name:       strings.TrimSpace(r.Name),
		EggID:      r.EggID,
		LocationID: r.LocationID,
		Limits:     limits,
	}, nil
}

// LimitsPatchRequest leaves absent dimensions untouched.
type LimitsPatchRequest struct {
	MemoryMB    *int64 `json:"memoryMb" binding:"omitempty,min=0"`
	DiskMB      *int64 `json:"diskMb" binding:"omitempty,min=0"`
	CPUPercent  *int64 `json:"cpuPercent" binding:"omitempty,min=0"`
	Backups     *int64 `json:"backups" binding:"omitempty,min=0"`
	Databases   *int64 `json:"databases" binding:"omitempty,min=0"`
	Allocations *int64 `json:"allocations" binding:"omitempty,min=0"`
}

type UpdateServerRequest struct {
	Name   *string             `json:"name" binding:"omitempty,min=1,max=191"`
	Limits *LimitsPatchRequest `json:"limits"`
}

func (r UpdateServerRequest) ToInput() (commands.UpdateServerInput, error) {
	in := commands.UpdateServerInput{}
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		in.Name = &name
	}
	if r.Limits != nil {
		if err := copier.Copy(&in.Limits, r.Limits); err != nil {
			return commands.UpdateServerInput{}, err
		}
	}
	return in, nil
}
