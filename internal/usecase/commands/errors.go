package commands

import (
	"fmt"
	"sort"
	"strings"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/pkg/errs"
)

var (
	ErrNothingToUpdate   = errs.Sentinel("nothing to update", errs.ErrValidation)
	ErrUserNotFound      = errs.Sentinel("user not found", errs.ErrNotFound)
	ErrServerNotFound    = errs.Sentinel("server not found", errs.ErrNotFound)
	ErrEggNotFound       = errs.Sentinel("egg not found", errs.ErrNotFound)
	ErrLocationNotFound  = errs.Sentinel("location not found", errs.ErrNotFound)
	ErrNotServerOwner    = errs.Sentinel("server belongs to another user", errs.ErrForbidden)
	ErrServerSuspended   = errs.Sentinel("server is suspended", errs.ErrForbidden)
	ErrPlanRequired      = errs.Sentinel("an active plan is required for this selection", errs.ErrForbidden)
	ErrServerUnreachable = errs.Sentinel("server is unreachable on the hosting panel", errs.ErrConflict)
	ErrServerBusy        = errs.Sentinel("server is busy on the hosting panel", errs.ErrConflict)
	ErrLocationFull      = errs.Sentinel("location full", errs.ErrConflict)

	ErrPlanNotFound        = errs.Sentinel("plan not found", errs.ErrNotFound)
	ErrInvalidCoupon       = errs.Sentinel("invalid or expired coupon", errs.ErrValidation)
	ErrPaymentNotFound     = errs.Sentinel("payment not found", errs.ErrNotFound)
	ErrNotPaymentOwner     = errs.Sentinel("payment belongs to another user", errs.ErrForbidden)
	ErrPaymentClosed       = errs.Sentinel("payment can no longer be captured", errs.ErrConflict)
	ErrPaymentNotCompleted = errs.Sentinel("payment is not completed", errs.ErrConflict)
	ErrPaymentMismatch     = errs.Sentinel("captured payment does not match order", errs.ErrPaymentMismatch)
	ErrPaymentDeclined     = errs.Sentinel("payment was not completed by the processor", errs.ErrPaymentMismatch)
	ErrGatewayUnavailable  = errs.Sentinel("payment processor unavailable", errs.ErrRemoteUnavailable)
	ErrAdminOnly           = errs.Sentinel("admin role required", errs.ErrForbidden)

	ErrUnknownProvider  = errs.Sentinel("unknown webhook provider", errs.ErrNotFound)
	ErrInvalidSignature = errs.Sentinel("webhook signature verification failed", errs.ErrValidation)
	ErrMalformedEvent   = errs.Sentinel("malformed webhook event", errs.ErrValidation)

	ErrGiftNotFound         = errs.Sentinel("gift code not found", errs.ErrNotFound)
	ErrReferralCodeNotFound = errs.Sentinel("referral code not found", errs.ErrNotFound)
	ErrShopItemNotFound     = errs.Sentinel("shop item not found", errs.ErrNotFound)
	ErrInvalidQuantity      = errs.Sentinel("quantity must be between 1 and 100", errs.ErrValidation)
)

// invalid marks a domain validation error for the HTTP layer.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return errs.Mark(err, errs.ErrValidation)
}

// QuotaViolationError lists every dimension a request exceeds along with what is left.
type QuotaViolationError struct {
	Violations entitlement.Violations
	Remaining  entitlement.Remaining
}

func (e *QuotaViolationError) Error() string {
	keys := make([]string, 0, len(e.Violations))
	for d := range e.Violations {
		keys = append(keys, string(d))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Violations[entitlement.Dimension(k)])
	}
	return fmt.Sprintf("quota exceeded: %s", strings.Join(parts, "; "))
}
