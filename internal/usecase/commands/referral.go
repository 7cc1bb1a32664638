package commands

import (
	"context"

	"hostdash/internal/domain/grant"
	"hostdash/internal/domain/user"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/shared"
)

// ClaimReferral links the caller to a referrer and pays both sides in coins.
func (r *rewardUseCaseImpl) ClaimReferral(ctx context.Context, principal user.Principal, code string) (*RewardResult, error) {
	referral, err := user.NewReferralCode(code)
	if err != nil {
		return nil, invalid(err)
	}

	settings, err := r.settings.Settings(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "load settings")
	}

	result, err := shared.RunInTx(ctx, r.uow, func(ctx context.Context, tx shared.Tx) (*RewardResult, error) {
		referrer, err := tx.Users().FindByReferralCode(ctx, referral)
		if err != nil {
			return nil, mapNotFound(err, ErrReferralCodeNotFound)
		}

		referee, err := tx.Users().FindByIDForUpdate(ctx, principal.UserID)
		if err != nil {
			return nil, mapNotFound(err, ErrUserNotFound)
		}

		now := r.clock.Now()
		if err := referee.AcceptReferral(referrer.ID(), now); err != nil {
			return nil, invalid(err)
		}
		if err := tx.Users().Update(ctx, referee); err != nil {
			return nil, errs.Wrap(err, "store referral link")
		}

		sourceRef := referee.ID().String()
		var grants []*grant.Grant
		if settings.ReferralReferrerCoins > 0 {
			applied, err := r.issuer.Issue(ctx, tx, grant.NewParams{
				UserID:      referrer.ID(),
				Source:      grant.SourceReferral,
				SourceRef:   "referrer:" + sourceRef,
				Amount:      grant.Amount{Coins: settings.ReferralReferrerCoins},
				PurchasedAt: now,
			})
			if err != nil {
				return nil, err
			}
			grants = append(grants, applied.Grant)
		}

		final := referee
		if settings.ReferralRefereeCoins > 0 {
			applied, err := r.issuer.Issue(ctx, tx, grant.NewParams{
				UserID:      referee.ID(),
				Source:      grant.SourceReferral,
				SourceRef:   "referee:" + sourceRef,
				Amount:      grant.Amount{Coins: settings.ReferralRefereeCoins},
				PurchasedAt: now,
			})
			if err != nil {
				return nil, err
			}
			grants = append(grants, applied.Grant)
			final = applied.User
		}
		return rewardResult(final, grants...), nil
	})
	if err != nil {
		r.audit(ctx, principal, "referral.claim", referral.String(), "failure", map[string]any{"error": err.Error()})
		return nil, err
	}

	r.audit(ctx, principal, "referral.claim", referral.String(), "success", nil)
	return result, nil
}
