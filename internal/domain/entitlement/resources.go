package entitlement

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMemory   = errors.New("memory must be greater than 0")
	ErrInvalidDisk     = errors.New("disk must be greater than 0")
	ErrInvalidCPU      = errors.New("cpu must be greater than 0")
	ErrNegativeFeature = errors.New("feature limits cannot be negative")
)

type Dimension string

const (
	DimDiskMB      Dimension = "diskMb"
	DimMemoryMB    Dimension = "memoryMb"
	DimCPUPercent  Dimension = "cpuPercent"
	DimBackups     Dimension = "backups"
	DimDatabases   Dimension = "databases"
	DimAllocations Dimension = "allocations"
	DimServerSlots Dimension = "serverSlots"
)

// Resources is the six-dimension limit vector carried by a server.
type Resources struct {
	DiskMB      int64
	MemoryMB    int64
	CPUPercent  int64
	Backups     int64
	Databases   int64
	Allocations int64
}

func (r Resources) Validate() error {
	var errs []error
	if r.MemoryMB <= 0 {
		errs = append(errs, ErrInvalidMemory)
	}
	if r.DiskMB <= 0 {
		errs = append(errs, ErrInvalidDisk)
	}
	if r.CPUPercent <= 0 {
		errs = append(errs, ErrInvalidCPU)
	}
	if r.Backups < 0 || r.Databases < 0 || r.Allocations < 0 {
		errs = append(errs, ErrNegativeFeature)
	}
	return errors.Join(errs...)
}

func (r Resources) Add(o Resources) Resources {
	return Resources{
		DiskMB:      r.DiskMB + o.DiskMB,
		MemoryMB:    r.MemoryMB + o.MemoryMB,
		CPUPercent:  r.CPUPercent + o.CPUPercent,
		Backups:     r.Backups + o.Backups,
		Databases:   r.Databases + o.Databases,
		Allocations: r.Allocations + o.Allocations,
	}
}

func (r Resources) Sub(o Resources) Resources {
	return Resources{
		DiskMB:      r.DiskMB - o.DiskMB,
		MemoryMB:    r.MemoryMB - o.MemoryMB,
		CPUPercent:  r.CPUPercent - o.CPUPercent,
		Backups:     r.Backups - o.Backups,
		Databases:   r.Databases - o.Databases,
		Allocations: r.Allocations - o.Allocations,
	}
}

func (r Resources) ClampZero() Resources {
	return Resources{
		DiskMB:      max(r.DiskMB, 0),
		MemoryMB:    max(r.MemoryMB, 0),
		CPUPercent:  max(r.CPUPercent, 0),
		Backups:     max(r.Backups, 0),
		Databases:   max(r.Databases, 0),
		Allocations: max(r.Allocations, 0),
	}
}

// Get returns the value of a single dimension. ServerSlots is not part of Resources.
func (r Resources) Get(d Dimension) int64 {
	switch d {
	case DimDiskMB:
		return r.DiskMB
	case DimMemoryMB:
		return r.MemoryMB
	case DimCPUPercent:
		return r.CPUPercent
	case DimBackups:
		return r.Backups
	case DimDatabases:
		return r.Databases
	case DimAllocations:
		return r.Allocations
	default:
		return 0
	}
}

func (r Resources) String() string {
	return fmt.Sprintf("disk=%dMB memory=%dMB cpu=%d%% backups=%d databases=%d allocations=%d",
		r.DiskMB, r.MemoryMB, r.CPUPercent, r.Backups, r.Databases, r.Allocations)
}

// resourceDimensions is the fixed check order, kept stable so violation output is deterministic.
var resourceDimensions = []Dimension{
	DimMemoryMB,
	DimDiskMB,
	DimCPUPercent,
	DimBackups,
	DimDatabases,
	DimAllocations,
}
