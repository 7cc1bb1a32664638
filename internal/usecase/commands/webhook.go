package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/$GOFILE -package=commandsmock

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"hostdash/internal/domain/payment"
	"hostdash/internal/domain/subscription"
	"hostdash/internal/pkg/clock"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventCaptureCompleted      = "PAYMENT.CAPTURE.COMPLETED"
	EventCaptureDenied         = "PAYMENT.CAPTURE.DENIED"
	EventCaptureRefunded       = "PAYMENT.CAPTURE.REFUNDED"
	EventSubscriptionCreated   = "BILLING.SUBSCRIPTION.CREATED"
	EventSubscriptionActivated = "BILLING.SUBSCRIPTION.ACTIVATED"
	EventSubscriptionSuspended = "BILLING.SUBSCRIPTION.SUSPENDED"
	EventSubscriptionCancelled = "BILLING.SUBSCRIPTION.CANCELLED"
)

// Webhook outcomes, also used as metric labels.
const (
	OutcomeProcessed = "processed"
	OutcomeIgnored   = "ignored"
	OutcomeMismatch  = "mismatch"
	OutcomeDuplicate = "duplicate"
)

var errDuplicateEvent = errors.New("webhook event already recorded")

var subscriptionTargets = map[string]subscription.Status{
	EventSubscriptionCreated:   subscription.StatusIncomplete,
	EventSubscriptionActivated: subscription.StatusActive,
	EventSubscriptionSuspended: subscription.StatusPaused,
	EventSubscriptionCancelled: subscription.StatusCanceled,
}

type WebhookResult struct {
	EventID   string
	EventType string
	Outcome   string
}

func (r WebhookResult) Duplicate() bool { return r.Outcome == OutcomeDuplicate }

type WebhookCommands interface {
	HandleWebhook(ctx context.Context, provider string, headers WebhookHeaders, body []byte) (*WebhookResult, error)
}

type webhookEvent struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	ResourceType string          `json:"resource_type"`
	Resource     json.RawMessage `json:"resource"`
}

type money struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currency_code"`
}

type captureResource struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CustomID          string `json:"custom_id"`
	Amount            money  `json:"amount"`
	SupplementaryData struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
}

type subscriptionResource struct {
	ID       string `json:"id"`
	PlanID   string `json:"plan_id"`
	CustomID string `json:"custom_id"`
	Status   string `json:"status"`
}

type webhookUseCaseImpl struct {
	settlement
	uow      shared.UnitOfWork
	gateway  PaymentGateway
	settings shared.SettingsProvider
	effects  EffectDispatcher
}

func NewWebhookUseCase(
	uow shared.UnitOfWork,
	gateway PaymentGateway,
	settings shared.SettingsProvider,
	issuer *GrantIssuer,
	effects EffectDispatcher,
	clk clock.Clock,
) WebhookCommands {
	return &webhookUseCaseImpl{
		settlement: settlement{issuer: issuer, clock: clk},
		uow:        uow,
		gateway:    gateway,
		settings:   settings,
		effects:    effects,
	}
}

// HandleWebhook verifies and applies one processor event. The event id is recorded in the
// same transaction as its effects, so a crash before commit leaves it retryable.
func (w *webhookUseCaseImpl) HandleWebhook(
	ctx context.Context,
	provider string,
	headers WebhookHeaders,
	body []byte,
) (*WebhookResult, error) {
	if provider != payment.ProviderPayPal {
		return nil, ErrUnknownProvider
	}

	settings, err := w.settings.Settings(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "load settings")
	}

	verified, err := w.gateway.VerifyWebhook(ctx, headers, settings.PayPalWebhookID, body)
	if err != nil {
		slog.Error("webhook verification call failed", "error", err)
		return nil, ErrGatewayUnavailable
	}
	if !verified {
		return nil, ErrInvalidSignature
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil || ev.ID == "" || ev.EventType == "" {
		return nil, ErrMalformedEvent
	}
	result := &WebhookResult{EventID: ev.ID, EventType: ev.EventType}

	var seen bool
	if err := w.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		seen, err = tx.WebhookEvents().Exists(ctx, provider, ev.ID)
		return err
	}); err != nil {
		return nil, errs.Wrap(err, "check webhook event")
	}
	if seen {
		result.Outcome = OutcomeDuplicate
		return result, nil
	}

	err = w.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		outcome, err := w.process(ctx, tx, ev)
		if err != nil {
			return err
		}
		recorded, err := tx.WebhookEvents().Record(ctx, provider, ev.ID, ev.EventType, w.clock.Now())
		if err != nil {
			return errs.Wrap(err, "record webhook event")
		}
		if !recorded {
			return errDuplicateEvent
		}
		result.Outcome = outcome
		return nil
	})
	if errors.Is(err, errDuplicateEvent) {
		result.Outcome = OutcomeDuplicate
		return result, nil
	}
	if err != nil {
		w.effects.Dispatch(ctx, Effect{Audit: newAuditEvent(nil, "webhook."+ev.EventType, ev.ID, "failure",
			map[string]any{"error": err.Error()}, w.clock.Now())})
		return nil, err
	}

	w.effects.Dispatch(ctx, Effect{Audit: newAuditEvent(nil, "webhook."+ev.EventType, ev.ID, result.Outcome, nil, w.clock.Now())})
	return result, nil
}

func (w *webhookUseCaseImpl) process(ctx context.Context, tx shared.Tx, ev webhookEvent) (string, error) {
	switch ev.EventType {
	case EventCaptureCompleted, EventCaptureDenied, EventCaptureRefunded:
		var res captureResource
		if err := json.Unmarshal(ev.Resource, &res); err != nil {
			return "", ErrMalformedEvent
		}
		switch ev.EventType {
		case EventCaptureCompleted:
			return w.onCaptureCompleted(ctx, tx, res)
		case EventCaptureDenied:
			return w.onCaptureDenied(ctx, tx, res)
		default:
			return w.onCaptureRefunded(ctx, tx, res)
		}
	}

	if target, ok := subscriptionTargets[ev.EventType]; ok {
		var res subscriptionResource
		if err := json.Unmarshal(ev.Resource, &res); err != nil || res.ID == "" {
			return "", ErrMalformedEvent
		}
		return w.onSubscription(ctx, tx, res, target)
	}

	slog.Info("ignoring unhandled webhook event", "event_id", ev.ID, "event_type", ev.EventType)
	return OutcomeIgnored, nil
}

func (w *webhookUseCaseImpl) onCaptureCompleted(ctx context.Context, tx shared.Tx, res captureResource) (string, error) {
	p, err := findEventPayment(ctx, tx, res)
	if p == nil || err != nil {
		return OutcomeIgnored, err
	}
	if p.Status() != payment.StatusCreated {
		return OutcomeIgnored, nil
	}

	amount, err := decimal.NewFromString(res.Amount.Value)
	if err != nil {
		return "", ErrMalformedEvent
	}
	captured := payment.CaptureResult{
		OrderID:   res.SupplementaryData.RelatedIDs.OrderID,
		CaptureID: res.ID,
		Status:    res.Status,
		Amount:    amount,
		Currency:  res.Amount.CurrencyCode,
		CustomID:  res.CustomID,
	}
	if err := p.MatchCapture(captured); err != nil {
		slog.Warn("webhook capture does not match payment", "payment_id", p.ID(), "reason", err)
		if err := failInTx(ctx, tx, p.ID(), err.Error(), w.clock.Now()); err != nil {
			return "", err
		}
		return OutcomeMismatch, nil
	}

	if _, err := w.complete(ctx, tx, p.ID(), res.ID); err != nil {
		return "", err
	}
	return OutcomeProcessed, nil
}

func (w *webhookUseCaseImpl) onCaptureDenied(ctx context.Context, tx shared.Tx, res captureResource) (string, error) {
	p, err := findEventPayment(ctx, tx, res)
	if p == nil || err != nil {
		return OutcomeIgnored, err
	}
	if p.Status() != payment.StatusCreated {
		return OutcomeIgnored, nil
	}
	if err := failInTx(ctx, tx, p.ID(), "capture denied by processor", w.clock.Now()); err != nil {
		return "", err
	}
	return OutcomeProcessed, nil
}

func (w *webhookUseCaseImpl) onCaptureRefunded(ctx context.Context, tx shared.Tx, res captureResource) (string, error) {
	p, err := findEventPayment(ctx, tx, res)
	if p == nil || err != nil {
		return OutcomeIgnored, err
	}
	if p.Status() != payment.StatusCompleted {
		return OutcomeIgnored, nil
	}
	if err := reverseInTx(ctx, tx, w.issuer, p, payment.StatusRefunded, w.clock.Now()); err != nil {
		return "", err
	}
	return OutcomeProcessed, nil
}

func (w *webhookUseCaseImpl) onSubscription(
	ctx context.Context,
	tx shared.Tx,
	res subscriptionResource,
	target subscription.Status,
) (string, error) {
	now := w.clock.Now()
	sub, err := tx.Subscriptions().FindByProviderIDForUpdate(ctx, res.ID)
	switch {
	case errs.Is(err, shared.ErrNotFound):
		sub = subscription.New(res.ID, parseUUID(res.CustomID), parseUUID(res.PlanID), now)
	case err != nil:
		return "", errs.Wrap(err, "load subscription")
	}

	if err := sub.TransitionTo(target, now); err != nil {
		slog.Warn("ignoring subscription transition",
			"subscription_id", res.ID,
			"from", sub.Status,
			"to", target)
		return OutcomeIgnored, nil
	}
	if err := tx.Subscriptions().Save(ctx, sub); err != nil {
		return "", errs.Wrap(err, "save subscription")
	}
	return OutcomeProcessed, nil
}

// findEventPayment resolves the payment by custom_id first, then by order id. A payment
// that is unknown here is acknowledged, not retried.
func findEventPayment(ctx context.Context, tx shared.Tx, res captureResource) (*payment.Payment, error) {
	var (
		p   *payment.Payment
		err error
	)
	switch {
	case parseUUID(res.CustomID) != nil:
		p, err = tx.Payments().FindByIDForUpdate(ctx, *parseUUID(res.CustomID))
	case res.SupplementaryData.RelatedIDs.OrderID != "":
		p, err = tx.Payments().FindByProviderOrderID(ctx, payment.ProviderPayPal, res.SupplementaryData.RelatedIDs.OrderID)
		if err == nil {
			p, err = tx.Payments().FindByIDForUpdate(ctx, p.ID())
		}
	default:
		slog.Warn("webhook resource carries no payment reference", "resource_id", res.ID)
		return nil, nil
	}
	if errs.Is(err, shared.ErrNotFound) {
		slog.Warn("webhook refers to unknown payment", "resource_id", res.ID, "custom_id", res.CustomID)
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(err, "load payment")
	}
	return p, nil
}

func parseUUID(s string) *uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
