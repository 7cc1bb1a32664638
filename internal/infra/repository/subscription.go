package repository

import (
	"context"

	"hostdash/internal/domain/subscription"
	"hostdash/internal/infra"
	"hostdash/internal/infra/db"
	"hostdash/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5/pgtype"
)

type SubscriptionRepository struct {
	db db.DBTX
}

func NewSubscriptionRepository(db db.DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) FindByProviderIDForUpdate(ctx context.Context, providerSubscriptionID string) (*subscription.Subscription, error) {
	var (
		s      subscription.Subscription
		userID pgtype.UUID
		planID pgtype.UUID
		status string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, provider_subscription_id, user_id, plan_id, status, created_at, updated_at
		FROM subscriptions
		WHERE provider_subscription_id = $1
		FOR UPDATE`, providerSubscriptionID).
		Scan(&s.ID, &s.ProviderSubscriptionID, &userID, &planID, &status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to lock subscription", err)
	}
	s.UserID = pgconv.UUIDPtrFromPgtype(userID)
	s.PlanID = pgconv.UUIDPtrFromPgtype(planID)
	s.Status = subscription.Status(status)
	return &s, nil
}

// Save upserts by provider subscription id. User and plan references are only filled in,
// never cleared.
func (r *SubscriptionRepository) Save(ctx context.Context, s *subscription.Subscription) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO subscriptions (id, provider_subscription_id, user_id, plan_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider_subscription_id) DO UPDATE SET
			user_id = COALESCE(subscriptions.user_id, EXCLUDED.user_id),
			plan_id = COALESCE(subscriptions.plan_id, EXCLUDED.plan_id),
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`,
		s.ID, s.ProviderSubscriptionID, pgconv.UUIDPtrToPgtype(s.UserID), pgconv.UUIDPtrToPgtype(s.PlanID),
		string(s.Status), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return infra.WrapRepoErr("failed to save subscription", err)
	}
	return nil
}
