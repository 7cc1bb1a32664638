//go:build unit || e2e

package builder

import (
	"hostdash/internal/domain/entitlement"
	"hostdash/internal/domain/grant"
	"hostdash/internal/usecase/shared"

	"github.com/google/uuid"
)

// NewPlan returns an active plan priced at 9.99 per month that adds one server's worth
// of resources.
func NewPlan() shared.PlanSnapshot {
	return shared.PlanSnapshot{
		ID:         uuid.New(),
		Name:       "Starter",
		PriceCents: 999,
		Active:     true,
		Amount: grant.Amount{
			Recurring: entitlement.Resources{MemoryMB: 2048, DiskMB: 10240, CPUPercent: 100},
			OneTime:   grant.OneTime{Backups: 1, Databases: 1, Allocations: 1, ServerSlots: 1},
		},
	}
}

func NewEgg() shared.EggSnapshot {
	return shared.EggSnapshot{
		ID:          uuid.New(),
		Name:        "Paper",
		PanelEggID:  5,
		PanelNestID: 1,
		DockerImage: "ghcr.io/pterodactyl/yolks:java_21",
		Startup:     "java -jar server.jar",
		Environment: map[string]string{"SERVER_JARFILE": "server.jar"},
	}
}

func NewLocation() shared.LocationSnapshot {
	return shared.LocationSnapshot{
		ID:              uuid.New(),
		Name:            "eu-west",
		PanelLocationID: 1,
	}
}

func NewShopItem(coinCost int64) shared.ShopItemSnapshot {
	return shared.ShopItemSnapshot{
		ID:       uuid.New(),
		Name:     "Extra memory",
		CoinCost: coinCost,
		Amount:   grant.Amount{Recurring: entitlement.Resources{MemoryMB: 512}},
		Active:   true,
	}
}
