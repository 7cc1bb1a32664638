package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/$GOFILE -package=commandsmock

import (
	"context"

	"hostdash/internal/domain/payment"
	"hostdash/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	PaymentID   uuid.UUID
	PlanID      uuid.UUID
	Description string
	Amount      decimal.Decimal
	Currency    string
}

type CreatedOrder struct {
	OrderID    string
	ApproveURL string
}

// WebhookHeaders are the processor's transmission headers needed for signature checks.
type WebhookHeaders struct {
	TransmissionID   string
	TransmissionTime string
	CertURL          string
	AuthAlgo         string
	TransmissionSig  string
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreatedOrder, error)
	CaptureOrder(ctx context.Context, orderID string) (*payment.CaptureResult, error)
	VerifyWebhook(ctx context.Context, headers WebhookHeaders, webhookID string, body []byte) (bool, error)
}

// Locker serializes provisioning per user. unlock must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type Notification struct {
	Kind    string
	Topic   string
	Payload any
}

// Effect is a non-critical side effect. Failures are logged and never reach the caller.
type Effect struct {
	Audit  *shared.AuditEvent
	Notify *Notification
}

type EffectDispatcher interface {
	Dispatch(ctx context.Context, effects ...Effect)
}
