package commands

import (
	"context"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/domain/grant"
	"hostdash/internal/domain/user"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/shared"

	"github.com/google/uuid"
)

const maxShopQuantity = 100

func (r *rewardUseCaseImpl) PurchaseShopItem(
	ctx context.Context,
	principal user.Principal,
	itemID uuid.UUID,
	quantity int64,
) (*RewardResult, error) {
	if quantity < 1 || quantity > maxShopQuantity {
		return nil, ErrInvalidQuantity
	}

	result, err := shared.RunInTx(ctx, r.uow, func(ctx context.Context, tx shared.Tx) (*RewardResult, error) {
		item, err := tx.Catalog().ShopItemByID(ctx, itemID)
		if err != nil {
			return nil, mapNotFound(err, ErrShopItemNotFound)
		}
		if !item.Active {
			return nil, ErrShopItemNotFound
		}

		u, err := tx.Users().FindByIDForUpdate(ctx, principal.UserID)
		if err != nil {
			return nil, mapNotFound(err, ErrUserNotFound)
		}

		now := r.clock.Now()
		if err := u.SpendCoins(item.CoinCost*quantity, now); err != nil {
			return nil, invalid(err)
		}
		if err := tx.Users().Update(ctx, u); err != nil {
			return nil, errs.Wrap(err, "deduct coins")
		}

		applied, err := r.issuer.Issue(ctx, tx, grant.NewParams{
			UserID:      u.ID(),
			Source:      grant.SourceShop,
			SourceRef:   uuid.NewString(),
			Amount:      scaleAmount(item.Amount, quantity),
			PurchasedAt: now,
		})
		if err != nil {
			return nil, err
		}
		return rewardResult(applied.User, applied.Grant), nil
	})
	if err != nil {
		r.audit(ctx, principal, "shop.purchase", itemID.String(), "failure", map[string]any{"error": err.Error()})
		return nil, err
	}

	r.audit(ctx, principal, "shop.purchase", itemID.String(), "success", map[string]any{"quantity": quantity})
	return result, nil
}

func scaleAmount(a grant.Amount, n int64) grant.Amount {
	return grant.Amount{
		Coins: a.Coins * n,
		Recurring: entitlement.Resources{
			DiskMB:     a.Recurring.DiskMB * n,
			MemoryMB:   a.Recurring.MemoryMB * n,
			CPUPercent: a.Recurring.CPUPercent * n,
		},
		OneTime: grant.OneTime{
			Backups:     a.OneTime.Backups * n,
			Databases:   a.OneTime.Databases * n,
			Allocations: a.OneTime.Allocations * n,
			ServerSlots: a.OneTime.ServerSlots * n,
		},
	}
}
