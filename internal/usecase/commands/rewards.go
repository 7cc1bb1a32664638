package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/$GOFILE -package=commandsmock

import (
	"context"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/domain/grant"
	"hostdash/internal/domain/user"
	"hostdash/internal/pkg/clock"
	"hostdash/internal/usecase/shared"

	"github.com/google/uuid"
)

// RewardResult is the caller's state after a non-payment grant was applied.
type RewardResult struct {
	Grants   []*grant.Grant
	Envelope entitlement.Envelope
	Coins    int64
}

func rewardResult(u *user.User, grants ...*grant.Grant) *RewardResult {
	return &RewardResult{Grants: grants, Envelope: u.Envelope(), Coins: u.Coins()}
}

type RewardCommands interface {
	RedeemGift(ctx context.Context, principal user.Principal, code string) (*RewardResult, error)
	ClaimReferral(ctx context.Context, principal user.Principal, code string) (*RewardResult, error)
	PurchaseShopItem(ctx context.Context, principal user.Principal, itemID uuid.UUID, quantity int64) (*RewardResult, error)
}

type rewardUseCaseImpl struct {
	uow      shared.UnitOfWork
	issuer   *GrantIssuer
	settings shared.SettingsProvider
	effects  EffectDispatcher
	clock    clock.Clock
}

func NewRewardUseCase(
	uow shared.UnitOfWork,
	issuer *GrantIssuer,
	settings shared.SettingsProvider,
	effects EffectDispatcher,
	clk clock.Clock,
) RewardCommands {
	return &rewardUseCaseImpl{
		uow:      uow,
		issuer:   issuer,
		settings: settings,
		effects:  effects,
		clock:    clk,
	}
}

func (r *rewardUseCaseImpl) audit(
	ctx context.Context,
	principal user.Principal,
	action, subject, outcome string,
	payload map[string]any,
) {
	actor := principal.UserID
	r.effects.Dispatch(ctx, Effect{Audit: newAuditEvent(&actor, action, subject, outcome, payload, r.clock.Now())})
}
