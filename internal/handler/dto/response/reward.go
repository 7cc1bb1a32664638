package response

import (
	"time"

	"hostdash/internal/domain/grant"
	"hostdash/internal/usecase/commands"

	"github.com/google/uuid"
)

type GrantResponse struct {
	ID           uuid.UUID         `json:"id"`
	Source       string            `json:"source"`
	SourceRef    string            `json:"sourceRef"`
	PlanID       *uuid.UUID        `json:"planId,omitempty"`
	Status       string            `json:"status"`
	BillingCycle string            `json:"billingCycle,omitempty"`
	Coins        int64             `json:"coins"`
	Recurring    ResourcesResponse `json:"recurring"`
	Applied      bool              `json:"benefitsApplied"`
	PurchasedAt  time.Time         `json:"purchasedAt"`
	ExpiresAt    *time.Time        `json:"expiresAt,omitempty"`
}

type RewardResponse struct {
	Grants   []*GrantResponse `json:"grants"`
	Envelope EnvelopeResponse `json:"envelope"`
	Coins    int64            `json:"coins"`
}

func FromGrant(g *grant.Grant) *GrantResponse {
	return &GrantResponse{
		ID:           g.ID(),
		Source:       string(g.Source()),
		SourceRef:    g.SourceRef(),
		PlanID:       g.PlanID(),
		Status:       string(g.Status()),
		BillingCycle: g.BillingCycle().String(),
		Coins:        g.Amount().Coins,
		Recurring:    FromResources(g.Amount().Recurring),
		Applied:      g.State().Applied(),
		PurchasedAt:  g.PurchasedAt(),
		ExpiresAt:    g.ExpiresAt(),
	}
}

func FromRewardResult(r *commands.RewardResult) *RewardResponse {
	grants := make([]*GrantResponse, len(r.Grants))
	for i, g := range r.Grants {
		grants[i] = FromGrant(g)
	}
	return &RewardResponse{Grants: grants, Envelope: FromEnvelope(r.Envelope), Coins: r.Coins}
}
