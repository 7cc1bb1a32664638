package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/$GOFILE -package=commandsmock

import (
	"context"
	"log/slog"
	"time"

	"hostdash/internal/domain/coupon"
	"hostdash/internal/domain/entitlement"
	"hostdash/internal/domain/grant"
	"hostdash/internal/domain/payment"
	"hostdash/internal/domain/user"
	"hostdash/internal/pkg/clock"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/shared"

	"github.com/google/uuid"
)

type CreateOrderInput struct {
	PlanID       uuid.UUID
	BillingCycle string
	CouponCode   *string
}

type CreateOrderResult struct {
	Payment    *payment.Payment
	ApproveURL string
}

type CaptureOrderResult struct {
	Payment  *payment.Payment
	Envelope entitlement.Envelope
	Coins    int64
	Replayed bool
}

type PaymentCommands interface {
	CreateOrder(ctx context.Context, principal user.Principal, in CreateOrderInput) (*CreateOrderResult, error)
	CaptureOrder(ctx context.Context, principal user.Principal, orderID string) (*CaptureOrderResult, error)
	Refund(ctx context.Context, principal user.Principal, paymentID uuid.UUID) (*payment.Payment, error)
	Void(ctx context.Context, principal user.Principal, paymentID uuid.UUID) (*payment.Payment, error)
}

type paymentUseCaseImpl struct {
	settlement
	uow      shared.UnitOfWork
	gateway  PaymentGateway
	settings shared.SettingsProvider
	prices   payment.PriceCalculator
	effects  EffectDispatcher
}

func NewPaymentUseCase(
	uow shared.UnitOfWork,
	gateway PaymentGateway,
	settings shared.SettingsProvider,
	issuer *GrantIssuer,
	prices payment.PriceCalculator,
	effects EffectDispatcher,
	clk clock.Clock,
) PaymentCommands {
	return &paymentUseCaseImpl{
		settlement: settlement{issuer: issuer, clock: clk},
		uow:        uow,
		gateway:    gateway,
		settings:   settings,
		prices:     prices,
		effects:    effects,
	}
}

func (pu *paymentUseCaseImpl) CreateOrder(
	ctx context.Context,
	principal user.Principal,
	in CreateOrderInput,
) (*CreateOrderResult, error) {
	cycle, err := grant.ParseBillingCycle(in.BillingCycle)
	if err != nil {
		return nil, invalid(err)
	}

	settings, err := pu.settings.Settings(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "load settings")
	}

	type catalog struct {
		plan   *shared.PlanSnapshot
		coupon *shared.CouponSnapshot
	}
	cat, err := shared.ReadOnly(ctx, pu.uow, func(ctx context.Context, tx shared.Tx) (catalog, error) {
		plan, err := tx.Catalog().PlanByID(ctx, in.PlanID)
		if err != nil {
			return catalog{}, mapNotFound(err, ErrPlanNotFound)
		}
		if !plan.Active {
			return catalog{}, ErrPlanNotFound
		}
		if in.CouponCode == nil {
			return catalog{plan: plan}, nil
		}
		cp, err := tx.Coupons().FindByCode(ctx, *in.CouponCode)
		if err != nil {
			return catalog{}, mapNotFound(err, ErrInvalidCoupon)
		}
		return catalog{plan: plan, coupon: cp}, nil
	})
	if err != nil {
		return nil, err
	}

	now := pu.clock.Now()
	cp, err := pu.validateCoupon(cat.coupon, now)
	if err != nil {
		return nil, err
	}

	amount, err := pu.prices.CalculatePrice(
		payment.PlanPrice{MonthlyCents: cat.plan.PriceCents, LifetimeCents: cat.plan.LifetimeCents},
		cycle,
		cp,
		settings.TaxPercent,
	)
	if err != nil {
		return nil, invalid(err)
	}

	p, err := payment.New(payment.NewParams{
		Provider:     payment.ProviderPayPal,
		UserID:       principal.UserID,
		PlanID:       cat.plan.ID,
		Amount:       amount,
		Currency:     settings.Currency,
		BillingCycle: cycle,
		CouponCode:   in.CouponCode,
		Now:          now,
	})
	if err != nil {
		return nil, invalid(err)
	}
	if err := pu.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Payments().Create(ctx, p)
	}); err != nil {
		return nil, errs.Wrap(err, "persist payment")
	}

	order, err := pu.gateway.CreateOrder(ctx, CreateOrderRequest{
		PaymentID:   p.ID(),
		PlanID:      cat.plan.ID,
		Description: cat.plan.Name + " (" + cycle.String() + ")",
		Amount:      p.Amount(),
		Currency:    p.Currency(),
	})
	if err != nil {
		slog.Error("processor order creation failed", "payment_id", p.ID(), "error", err)
		pu.fail(ctx, p.ID(), "order creation failed: "+err.Error())
		pu.audit(ctx, principal, "payment.order", p.ID().String(), "failure", nil)
		return nil, ErrGatewayUnavailable
	}

	if err := p.AttachOrder(order.OrderID, pu.clock.Now()); err != nil {
		return nil, errs.Mark(err, errs.ErrConflict)
	}
	if err := pu.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Payments().Update(ctx, p)
	}); err != nil {
		return nil, errs.Wrap(err, "attach provider order")
	}

	pu.audit(ctx, principal, "payment.order", p.ID().String(), "success", map[string]any{
		"order_id": order.OrderID,
		"amount":   p.Amount().StringFixed(2),
		"currency": p.Currency(),
	})
	return &CreateOrderResult{Payment: p, ApproveURL: order.ApproveURL}, nil
}

func (pu *paymentUseCaseImpl) validateCoupon(snap *shared.CouponSnapshot, now time.Time) (*coupon.Coupon, error) {
	if snap == nil {
		return nil, nil
	}
	discount, err := coupon.NewDiscount(snap.AmountOffCents, snap.PercentOff)
	if err != nil {
		return nil, ErrInvalidCoupon
	}
	cp, err := coupon.NewCoupon(coupon.Params{
		ID:        snap.ID,
		Code:      snap.Code,
		Discount:  discount,
		ValidFrom: snap.ValidFrom,
		ValidTo:   snap.ValidTo,
		MaxUses:   snap.MaxUses,
		Uses:      snap.Uses,
		Active:    snap.Active,
	})
	if err != nil {
		return nil, ErrInvalidCoupon
	}
	if err := cp.ValidateUsage(now); err != nil {
		return nil, errs.Wrap(ErrInvalidCoupon, err.Error())
	}
	return cp, nil
}

func (pu *paymentUseCaseImpl) CaptureOrder(
	ctx context.Context,
	principal user.Principal,
	orderID string,
) (*CaptureOrderResult, error) {
	var p *payment.Payment
	err := pu.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		p, err = tx.Payments().FindByProviderOrderID(ctx, payment.ProviderPayPal, orderID)
		return err
	})
	if err != nil {
		return nil, mapNotFound(err, ErrPaymentNotFound)
	}
	if !p.IsOwnedBy(principal.UserID) {
		pu.audit(ctx, principal, "payment.capture", p.ID().String(), "forbidden", nil)
		return nil, ErrNotPaymentOwner
	}

	switch {
	case p.Status() == payment.StatusCompleted:
		return pu.replay(ctx, p)
	case p.Status().IsTerminalFailure():
		pu.audit(ctx, principal, "payment.capture", p.ID().String(), "closed", map[string]any{"status": p.Status().String()})
		return nil, ErrPaymentClosed
	}

	captured, err := pu.gateway.CaptureOrder(ctx, orderID)
	if errs.Is(err, ErrPaymentDeclined) {
		slog.Warn("processor declined capture", "payment_id", p.ID(), "order_id", orderID, "error", err)
		pu.fail(ctx, p.ID(), "processor declined capture")
		pu.audit(ctx, principal, "payment.capture", p.ID().String(), "declined", map[string]any{"error": err.Error()})
		return nil, ErrPaymentDeclined
	}
	if err != nil {
		slog.Error("processor capture failed", "payment_id", p.ID(), "order_id", orderID, "error", err)
		pu.audit(ctx, principal, "payment.capture", p.ID().String(), "failure", map[string]any{"error": err.Error()})
		return nil, ErrGatewayUnavailable
	}

	if err := p.MatchCapture(*captured); err != nil {
		slog.Warn("capture does not match payment", "payment_id", p.ID(), "reason", err)
		pu.fail(ctx, p.ID(), err.Error())
		pu.audit(ctx, principal, "payment.capture", p.ID().String(), "mismatch", nil)
		return nil, ErrPaymentMismatch
	}
	if !captured.IsCompleted() {
		pu.fail(ctx, p.ID(), "processor status "+captured.Status)
		pu.audit(ctx, principal, "payment.capture", p.ID().String(), "declined", map[string]any{"status": captured.Status})
		return nil, ErrPaymentDeclined
	}

	result, err := shared.RunInTx(ctx, pu.uow, func(ctx context.Context, tx shared.Tx) (*CaptureOrderResult, error) {
		return pu.settlement.complete(ctx, tx, p.ID(), captured.CaptureID)
	})
	if err != nil {
		pu.audit(ctx, principal, "payment.capture", p.ID().String(), "failure", map[string]any{"error": err.Error()})
		return nil, err
	}

	if !result.Replayed {
		pu.audit(ctx, principal, "payment.capture", p.ID().String(), "success", map[string]any{
			"capture_id": captured.CaptureID,
			"amount":     result.Payment.Amount().StringFixed(2),
		})
		pu.effects.Dispatch(ctx, Effect{Notify: &Notification{
			Kind:    "email",
			Topic:   "payment_completed",
			Payload: map[string]any{"payment_id": p.ID(), "user_id": p.UserID()},
		}})
	}
	return result, nil
}

// settlement is the completion path shared by capture and the processor webhook.
type settlement struct {
	issuer *GrantIssuer
	clock  clock.Clock
}

// complete marks the payment completed and applies the plan grant. A payment that is
// already completed is returned as a replay without touching the grant.
func (s settlement) complete(
	ctx context.Context,
	tx shared.Tx,
	paymentID uuid.UUID,
	captureID string,
) (*CaptureOrderResult, error) {
	p, err := tx.Payments().FindByIDForUpdate(ctx, paymentID)
	if err != nil {
		return nil, mapNotFound(err, ErrPaymentNotFound)
	}

	switch {
	case p.Status() == payment.StatusCompleted:
		u, err := tx.Users().FindByID(ctx, p.UserID())
		if err != nil {
			return nil, mapNotFound(err, ErrUserNotFound)
		}
		return &CaptureOrderResult{Payment: p, Envelope: u.Envelope(), Coins: u.Coins(), Replayed: true}, nil
	case p.Status() != payment.StatusCreated:
		return nil, ErrPaymentClosed
	}

	now := s.clock.Now()
	if err := p.MarkCompleted(captureID, now); err != nil {
		return nil, errs.Mark(err, errs.ErrConflict)
	}
	if err := tx.Payments().Update(ctx, p); err != nil {
		return nil, errs.Wrap(err, "mark payment completed")
	}

	plan, err := tx.Catalog().PlanByID(ctx, p.PlanID())
	if err != nil {
		return nil, mapNotFound(err, ErrPlanNotFound)
	}
	planID := p.PlanID()
	applied, err := s.issuer.Issue(ctx, tx, grant.NewParams{
		UserID:       p.UserID(),
		Source:       grant.SourcePlan,
		SourceRef:    p.ID().String(),
		PlanID:       &planID,
		Amount:       plan.Amount,
		BillingCycle: p.BillingCycle(),
		PurchasedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	if code := p.CouponCode(); code != nil {
		if err := s.consumeCoupon(ctx, tx, *code); err != nil {
			return nil, err
		}
	}

	return &CaptureOrderResult{
		Payment:  p,
		Envelope: applied.User.Envelope(),
		Coins:    applied.User.Coins(),
	}, nil
}

func (s settlement) consumeCoupon(ctx context.Context, tx shared.Tx, code string) error {
	snap, err := tx.Coupons().FindByCode(ctx, code)
	if errs.Is(err, shared.ErrNotFound) {
		slog.Warn("coupon disappeared before capture", "code", code)
		return nil
	}
	if err != nil {
		return errs.Wrap(err, "load coupon")
	}
	return tx.Coupons().IncrementUses(ctx, snap.ID)
}

func (pu *paymentUseCaseImpl) replay(ctx context.Context, p *payment.Payment) (*CaptureOrderResult, error) {
	var u *user.User
	err := pu.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		u, err = tx.Users().FindByID(ctx, p.UserID())
		return err
	})
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}
	return &CaptureOrderResult{Payment: p, Envelope: u.Envelope(), Coins: u.Coins(), Replayed: true}, nil
}

// fail moves a CREATED payment to FAILED, detached from request cancellation.
func (pu *paymentUseCaseImpl) fail(ctx context.Context, paymentID uuid.UUID, reason string) {
	err := pu.uow.Within(context.WithoutCancel(ctx), func(ctx context.Context, tx shared.Tx) error {
		return failInTx(ctx, tx, paymentID, reason, pu.clock.Now())
	})
	if err != nil {
		slog.Error("failed to mark payment failed", "payment_id", paymentID, "error", err)
	}
}

func failInTx(ctx context.Context, tx shared.Tx, paymentID uuid.UUID, reason string, now time.Time) error {
	p, err := tx.Payments().FindByIDForUpdate(ctx, paymentID)
	if err != nil {
		return err
	}
	if p.Status() != payment.StatusCreated {
		return nil
	}
	if err := p.MarkFailed(reason, now); err != nil {
		return err
	}
	return tx.Payments().Update(ctx, p)
}

func (pu *paymentUseCaseImpl) Refund(
	ctx context.Context,
	principal user.Principal,
	paymentID uuid.UUID,
) (*payment.Payment, error) {
	return pu.reverse(ctx, principal, paymentID, payment.StatusRefunded)
}

func (pu *paymentUseCaseImpl) Void(
	ctx context.Context,
	principal user.Principal,
	paymentID uuid.UUID,
) (*payment.Payment, error) {
	return pu.reverse(ctx, principal, paymentID, payment.StatusVoided)
}

func (pu *paymentUseCaseImpl) reverse(
	ctx context.Context,
	principal user.Principal,
	paymentID uuid.UUID,
	to payment.Status,
) (*payment.Payment, error) {
	if !principal.IsAdmin() {
		return nil, ErrAdminOnly
	}

	p, err := shared.RunInTx(ctx, pu.uow, func(ctx context.Context, tx shared.Tx) (*payment.Payment, error) {
		p, err := tx.Payments().FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			return nil, mapNotFound(err, ErrPaymentNotFound)
		}
		if err := reverseInTx(ctx, tx, pu.issuer, p, to, pu.clock.Now()); err != nil {
			return nil, err
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	pu.audit(ctx, principal, "payment."+string(to), p.ID().String(), "success", map[string]any{"user_id": p.UserID()})
	return p, nil
}

// reverseInTx refunds or voids a locked payment and cancels the grant it paid for.
func reverseInTx(
	ctx context.Context,
	tx shared.Tx,
	issuer *GrantIssuer,
	p *payment.Payment,
	to payment.Status,
	now time.Time,
) error {
	var err error
	if to == payment.StatusVoided {
		err = p.Void(now)
	} else {
		err = p.Refund(now)
	}
	if err != nil {
		return errs.Wrap(ErrPaymentNotCompleted, err.Error())
	}
	if err := tx.Payments().Update(ctx, p); err != nil {
		return errs.Wrap(err, "update payment status")
	}

	g, err := tx.Grants().FindBySource(ctx, grant.SourcePlan, p.ID().String())
	if errs.Is(err, shared.ErrNotFound) {
		slog.Warn("reversed payment has no grant", "payment_id", p.ID())
		return nil
	}
	if err != nil {
		return errs.Wrap(err, "load payment grant")
	}
	if g.Status() != grant.StatusActive {
		return nil
	}
	_, err = issuer.Cancel(ctx, tx, g.ID())
	return err
}

func (pu *paymentUseCaseImpl) audit(
	ctx context.Context,
	principal user.Principal,
	action, subject, outcome string,
	payload map[string]any,
) {
	actor := principal.UserID
	pu.effects.Dispatch(ctx, Effect{Audit: newAuditEvent(&actor, action, subject, outcome, payload, pu.clock.Now())})
}
