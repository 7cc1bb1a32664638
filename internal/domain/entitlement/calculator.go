package entitlement

import (
	"fmt"

	"github.com/google/uuid"
)

// Envelope is the total quota a user may consume across all owned servers.
type Envelope struct {
	Resources
	ServerSlots int64
}

// Contribution is what a single active grant adds to a user's envelope.
type Contribution struct {
	Recurring   Resources // only memory, disk and cpu are populated for plan grants
	ServerSlots int64
}

type Remaining struct {
	Resources
	ServerSlots int64
}

type OwnedServer struct {
	ID     uuid.UUID
	Limits Resources
}

// Violations maps a dimension to a human-readable reason.
type Violations map[Dimension]string

func (v Violations) Empty() bool { return len(v) == 0 }

// EffectiveEnvelope trusts the stored totals, which already include every applied grant.
func EffectiveEnvelope(totals Envelope) Envelope {
	return Envelope{
		Resources:   totals.Resources.ClampZero(),
		ServerSlots: max(totals.ServerSlots, 0),
	}
}

// Derive rebuilds an envelope from the base allotment and active grant contributions.
func Derive(base Envelope, contributions ...Contribution) Envelope {
	env := base
	for _, c := range contributions {
		env.Resources = env.Resources.Add(c.Recurring)
		env.ServerSlots += c.ServerSlots
	}
	return EffectiveEnvelope(env)
}

// Used sums the limits of the owned servers, skipping exclude when set.
func Used(owned []OwnedServer, exclude *uuid.UUID) (Resources, int64) {
	var used Resources
	var count int64
	for _, s := range owned {
		if exclude != nil && s.ID == *exclude {
			continue
		}
		used = used.Add(s.Limits)
		count++
	}
	return used, count
}

func RemainingFor(env Envelope, owned []OwnedServer, exclude *uuid.UUID) Remaining {
	env = EffectiveEnvelope(env)
	used, count := Used(owned, exclude)
	return Remaining{
		Resources:   env.Resources.Sub(used).ClampZero(),
		ServerSlots: max(env.ServerSlots-count, 0),
	}
}

// Check compares requested limits against remaining capacity and collects every violation.
func Check(requested Resources, remaining Remaining, needSlot bool) Violations {
	v := Violations{}
	for _, d := range resourceDimensions {
		want, have := requested.Get(d), remaining.Get(d)
		if want > have {
			v[d] = violationMessage(d, have)
		}
	}
	if needSlot && remaining.ServerSlots < 1 {
		v[DimServerSlots] = "No server slots remaining"
	}
	return v
}

func violationMessage(d Dimension, have int64) string {
	switch d {
	case DimMemoryMB:
		return fmt.Sprintf("Exceeds remaining memory (%d MB)", have)
	case DimDiskMB:
		return fmt.Sprintf("Exceeds remaining disk (%d MB)", have)
	case DimCPUPercent:
		return fmt.Sprintf("Exceeds remaining CPU (%d%%)", have)
	case DimBackups:
		return fmt.Sprintf("Exceeds remaining backups (%d)", have)
	case DimDatabases:
		return fmt.Sprintf("Exceeds remaining databases (%d)", have)
	case DimAllocations:
		return fmt.Sprintf("Exceeds remaining allocations (%d)", have)
	default:
		return fmt.Sprintf("Exceeds remaining %s (%d)", d, have)
	}
}
