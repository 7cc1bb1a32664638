package shared

import (
	"encoding/json"
	"time"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/domain/grant"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PlanSnapshot struct {
	ID            uuid.UUID
	Name          string
	PriceCents    int64
	LifetimeCents *int64
	Active        bool
	Amount        grant.Amount
}

type EggSnapshot struct {
	ID              uuid.UUID
	Name            string
	PanelEggID      int64
	PanelNestID     int64
	DockerImage     string
	Startup         string
	Environment     map[string]string
	RequiredPlanIDs []uuid.UUID
}

type LocationSnapshot struct {
	ID              uuid.UUID
	Name            string
	PanelLocationID int64
	ServerLimit     *int64
	RequiredPlanIDs []uuid.UUID
}

type CouponSnapshot struct {
	ID             uuid.UUID
	Code           string
	AmountOffCents *int64
	PercentOff     *decimal.Decimal
	ValidFrom      *time.Time
	ValidTo        *time.Time
	MaxUses        *int64
	Uses           int64
	Active         bool
}

type ShopItemSnapshot struct {
	ID       uuid.UUID
	Name     string
	CoinCost int64
	Amount   grant.Amount
	Active   bool
}

type AuditEvent struct {
	ID        uuid.UUID
	ActorID   *uuid.UUID
	Action    string
	Subject   string
	Outcome   string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// Settings are the operator-managed values the payment and grant flows depend on.
type Settings struct {
	Currency              string
	PayPalWebhookID       string
	ReferralReferrerCoins int64
	ReferralRefereeCoins  int64
	TaxPercent            decimal.Decimal
}

// Usage is the entitlement summary returned to a user.
type Usage struct {
	Envelope  entitlement.Envelope
	Used      entitlement.Resources
	UsedSlots int64
	Remaining entitlement.Remaining
	Coins     int64
}
