package commands

import (
	"context"

	"hostdash/internal/domain/gift"
	"hostdash/internal/domain/grant"
	"hostdash/internal/domain/user"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/shared"
)

func (r *rewardUseCaseImpl) RedeemGift(ctx context.Context, principal user.Principal, code string) (*RewardResult, error) {
	normalized, err := gift.NormalizeCode(code)
	if err != nil {
		return nil, invalid(err)
	}

	result, err := shared.RunInTx(ctx, r.uow, func(ctx context.Context, tx shared.Tx) (*RewardResult, error) {
		gc, err := tx.Gifts().FindByCodeForUpdate(ctx, normalized)
		if err != nil {
			return nil, mapNotFound(err, ErrGiftNotFound)
		}

		redeemed, err := tx.Gifts().HasRedeemed(ctx, gc.ID, principal.UserID)
		if err != nil {
			return nil, errs.Wrap(err, "check gift redemption")
		}
		now := r.clock.Now()
		if err := gc.CanRedeem(redeemed, now); err != nil {
			return nil, invalid(err)
		}

		if err := tx.Gifts().RecordRedemption(ctx, gc.ID, principal.UserID, now); err != nil {
			if errs.Is(err, shared.ErrDuplicate) {
				return nil, invalid(gift.ErrAlreadyRedeemed)
			}
			return nil, errs.Wrap(err, "record gift redemption")
		}

		applied, err := r.issuer.Issue(ctx, tx, grant.NewParams{
			UserID:      principal.UserID,
			Source:      grant.SourceGift,
			SourceRef:   gc.ID.String() + ":" + principal.UserID.String(),
			Amount:      gc.Amount,
			PurchasedAt: now,
		})
		if err != nil {
			return nil, err
		}
		return rewardResult(applied.User, applied.Grant), nil
	})
	if err != nil {
		r.audit(ctx, principal, "gift.redeem", normalized, "failure", map[string]any{"error": err.Error()})
		return nil, err
	}

	r.audit(ctx, principal, "gift.redeem", normalized, "success", nil)
	return result, nil
}
