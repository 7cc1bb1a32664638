package response

import (
	"hostdash/internal/domain/entitlement"
	"hostdash/internal/usecase/shared"

	"github.com/jinzhu/copier"
)

type ResourcesResponse struct {
	MemoryMB    int64 `json:"memoryMb"`
	DiskMB      int64 `json:"diskMb"`
	CPUPercent  int64 `json:"cpuPercent"`
	Backups     int64 `json:"backups"`
	Databases   int64 `json:"databases"`
	Allocations int64 `json:"allocations"`
}

type EnvelopeResponse struct {
	ResourcesResponse
	ServerSlots int64 `json:"serverSlots"`
}

type UsageResponse struct {
	Envelope  EnvelopeResponse  `json:"envelope"`
	Used      ResourcesResponse `json:"used"`
	UsedSlots int64             `json:"usedSlots"`
	Remaining EnvelopeResponse  `json:"remaining"`
	Coins     int64             `json:"coins"`
}

func FromResources(r entitlement.Resources) ResourcesResponse {
	var out ResourcesResponse
	_ = copier.Copy(&out, &r)
	return out
}

func FromEnvelope(e entitlement.Envelope) EnvelopeResponse {
	return EnvelopeResponse{ResourcesResponse: FromResources(e.Resources), ServerSlots: e.ServerSlots}
}

func FromRemaining(r entitlement.Remaining) EnvelopeResponse {
	return EnvelopeResponse{ResourcesResponse: FromResources(r.Resources), ServerSlots: r.ServerSlots}
}

func FromUsage(u *shared.Usage) *UsageResponse {
	return &UsageResponse{
		Envelope:  FromEnvelope(u.Envelope),
		Used:      FromResources(u.Used),
		UsedSlots: u.UsedSlots,
		Remaining: FromRemaining(u.Remaining),
		Coins:     u.Coins,
	}
}
