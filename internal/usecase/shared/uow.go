package shared

import (
	"context"
	"time"

	"hostdash/internal/domain/gift"
	"hostdash/internal/domain/grant"
	"hostdash/internal/domain/payment"
	"hostdash/internal/domain/server"
	"hostdash/internal/domain/subscription"
	"hostdash/internal/domain/user"
	"hostdash/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errs.Sentinel("record not found", errs.ErrNotFound)
	ErrDuplicate = errs.Sentinel("duplicate record", errs.ErrConflict)
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithinReadOnly: Read-only transaction for multi-table consistent reads
	WithinReadOnly(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithDB: Single statements outside a transaction
	WithDB(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes repositories bound to one transaction (or to the pool for WithDB).
type Tx interface {
	Users() UserRepository
	Grants() GrantRepository
	Servers() ServerRepository
	Payments() PaymentRepository
	WebhookEvents() WebhookEventRepository
	Subscriptions() SubscriptionRepository
	Gifts() GiftRepository
	Coupons() CouponRepository
	Catalog() CatalogReads
	Audit() AuditRepository
	Notifications() NotificationRepository
}

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	// FindByIDForUpdate locks the row until the transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*user.User, error)
	FindByReferralCode(ctx context.Context, code user.ReferralCode) (*user.User, error)
	Update(ctx context.Context, u *user.User) error
}

type GrantRepository interface {
	Create(ctx context.Context, g *grant.Grant) error
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*grant.Grant, error)
	FindBySource(ctx context.Context, source grant.Source, sourceRef string) (*grant.Grant, error)
	Update(ctx context.Context, g *grant.Grant) error
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*grant.Grant, error)
	ListExpiredIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

type ServerRepository interface {
	Create(ctx context.Context, s *server.Server) error
	FindByID(ctx context.Context, id uuid.UUID) (*server.Server, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*server.Server, error)
	CountByLocation(ctx context.Context, locationID uuid.UUID) (int64, error)
	Update(ctx context.Context, s *server.Server) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PaymentRepository interface {
	Create(ctx context.Context, p *payment.Payment) error
	Update(ctx context.Context, p *payment.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	FindByProviderOrderID(ctx context.Context, provider, orderID string) (*payment.Payment, error)
}

type WebhookEventRepository interface {
	Exists(ctx context.Context, provider, eventID string) (bool, error)
	// Record returns false when the event id was already stored.
	Record(ctx context.Context, provider, eventID, eventType string, processedAt time.Time) (bool, error)
}

type SubscriptionRepository interface {
	FindByProviderIDForUpdate(ctx context.Context, providerSubscriptionID string) (*subscription.Subscription, error)
	Save(ctx context.Context, s *subscription.Subscription) error
}

type GiftRepository interface {
	FindByCodeForUpdate(ctx context.Context, code string) (*gift.Code, error)
	HasRedeemed(ctx context.Context, codeID, userID uuid.UUID) (bool, error)
	RecordRedemption(ctx context.Context, codeID, userID uuid.UUID, at time.Time) error
}

type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*CouponSnapshot, error)
	IncrementUses(ctx context.Context, id uuid.UUID) error
}

// CatalogReads are lookups into catalog tables maintained elsewhere.
type CatalogReads interface {
	PlanByID(ctx context.Context, id uuid.UUID) (*PlanSnapshot, error)
	EggByID(ctx context.Context, id uuid.UUID) (*EggSnapshot, error)
	LocationByID(ctx context.Context, id uuid.UUID) (*LocationSnapshot, error)
	ShopItemByID(ctx context.Context, id uuid.UUID) (*ShopItemSnapshot, error)
}

type AuditRepository interface {
	Append(ctx context.Context, e AuditEvent) error
}

type NotificationRepository interface {
	CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
}
