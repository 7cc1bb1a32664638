//go:build unit

package commands_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"hostdash/internal/domain/payment"
	"hostdash/internal/domain/subscription"
	"hostdash/internal/pkg/clock"
	"hostdash/internal/usecase/commands"
	"hostdash/internal/usecase/shared"
	"hostdash/tests/common/builder"
	"hostdash/tests/common/memstore"
	commandsmock "hostdash/tests/mock/commands"
	sharedmock "hostdash/tests/mock/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type WebhookSuite struct {
	suite.Suite
	store   *memstore.Store
	gateway *commandsmock.MockPaymentGateway
	effects *commandsmock.MockEffectDispatcher
	uc      commands.WebhookCommands

	buyer *builder.UserBuilder
	plan  shared.PlanSnapshot
}

func TestWebhookSuite(t *testing.T) {
	suite.Run(t, new(WebhookSuite))
}

func (s *WebhookSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	clk := clock.NewMockClock(testNow)
	s.store = memstore.New()
	s.gateway = commandsmock.NewMockPaymentGateway(ctrl)
	s.effects = commandsmock.NewMockEffectDispatcher(ctrl)
	settings := sharedmock.NewMockSettingsProvider(ctrl)
	settings.EXPECT().Settings(gomock.Any()).Return(defaultSettings(), nil).AnyTimes()
	s.uc = commands.NewWebhookUseCase(s.store, s.gateway, settings, commands.NewGrantIssuer(s.store, clk), s.effects, clk)

	s.buyer = builder.NewUserBuilder()
	s.plan = builder.NewPlan()
	s.store.PutUser(s.buyer.BuildDomain())
	s.store.PutPlan(s.plan)
}

func (s *WebhookSuite) verified() {
	s.gateway.EXPECT().
		VerifyWebhook(gomock.Any(), gomock.Any(), "WH-TEST", gomock.Any()).
		Return(true, nil).
		AnyTimes()
}

func (s *WebhookSuite) expectAudit(times int) {
	s.effects.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Times(times)
}

func captureEvent(id, eventType string, p *builder.PaymentBuilder) []byte {
	resource := map[string]any{
		"id":        "CAPTURE-" + p.ID.String()[:8],
		"status":    "COMPLETED",
		"custom_id": p.ID.String(),
		"amount":    map[string]string{"value": p.Amount.StringFixed(2), "currency_code": p.Currency},
		"supplementary_data": map[string]any{
			"related_ids": map[string]string{"order_id": *p.OrderID},
		},
	}
	return event(id, eventType, resource)
}

func event(id, eventType string, resource any) []byte {
	raw, _ := json.Marshal(resource)
	body, _ := json.Marshal(map[string]any{
		"id":            id,
		"event_type":    eventType,
		"resource_type": "capture",
		"resource":      json.RawMessage(raw),
	})
	return body
}

func (s *WebhookSuite) handle(body []byte) (*commands.WebhookResult, error) {
	return s.uc.HandleWebhook(context.Background(), payment.ProviderPayPal, commands.WebhookHeaders{TransmissionID: "t-1"}, body)
}

func (s *WebhookSuite) TestCaptureCompleted_AppliesGrantOnce() {
	s.verified()
	s.expectAudit(1)
	pb := builder.NewPaymentBuilder().For(s.buyer.ID, s.plan.ID)
	s.store.PutPayment(pb.BuildDomain())
	body := captureEvent("WH-1", commands.EventCaptureCompleted, pb)

	first, err := s.handle(body)
	s.Require().NoError(err)
	s.Equal(commands.OutcomeProcessed, first.Outcome)

	second, err := s.handle(body)
	s.Require().NoError(err)
	s.True(second.Duplicate())

	s.Equal(payment.StatusCompleted, s.store.Payment(pb.ID).Status())
	s.Len(s.store.GrantsOf(s.buyer.ID), 1)
	s.Equal(1, s.store.WebhookEvents())
}

func (s *WebhookSuite) TestCaptureCompleted_AfterClientCaptureIsIgnored() {
	s.verified()
	s.expectAudit(1)
	pb := builder.NewPaymentBuilder().For(s.buyer.ID, s.plan.ID).Completed()
	s.store.PutPayment(pb.BuildDomain())

	res, err := s.handle(captureEvent("WH-2", commands.EventCaptureCompleted, pb))

	s.Require().NoError(err)
	s.Equal(commands.OutcomeIgnored, res.Outcome)
	s.Empty(s.store.GrantsOf(s.buyer.ID))
	s.Equal(1, s.store.WebhookEvents())
}

func (s *WebhookSuite) TestCaptureCompleted_AmountMismatch() {
	s.verified()
	s.expectAudit(1)
	pb := builder.NewPaymentBuilder().For(s.buyer.ID, s.plan.ID)
	s.store.PutPayment(pb.BuildDomain())
	tampered := *pb
	tampered.Amount = decimal.NewFromInt(1)

	res, err := s.handle(captureEvent("WH-3", commands.EventCaptureCompleted, &tampered))

	s.Require().NoError(err)
	s.Equal(commands.OutcomeMismatch, res.Outcome)
	s.Equal(payment.StatusFailed, s.store.Payment(pb.ID).Status())
	s.Empty(s.store.GrantsOf(s.buyer.ID))
}

func (s *WebhookSuite) TestCaptureDenied() {
	s.verified()
	s.expectAudit(1)
	pb := builder.NewPaymentBuilder().For(s.buyer.ID, s.plan.ID)
	s.store.PutPayment(pb.BuildDomain())

	res, err := s.handle(captureEvent("WH-4", commands.EventCaptureDenied, pb))

	s.Require().NoError(err)
	s.Equal(commands.OutcomeProcessed, res.Outcome)
	s.Equal(payment.StatusFailed, s.store.Payment(pb.ID).Status())
}

func (s *WebhookSuite) TestCaptureRefunded_CancelsGrant() {
	s.verified()
	s.expectAudit(2)
	pb := builder.NewPaymentBuilder().For(s.buyer.ID, s.plan.ID)
	s.store.PutPayment(pb.BuildDomain())

	_, err := s.handle(captureEvent("WH-5", commands.EventCaptureCompleted, pb))
	s.Require().NoError(err)
	res, err := s.handle(captureEvent("WH-6", commands.EventCaptureRefunded, pb))
	s.Require().NoError(err)

	s.Equal(commands.OutcomeProcessed, res.Outcome)
	s.Equal(payment.StatusRefunded, s.store.Payment(pb.ID).Status())
	s.Equal(s.buyer.Totals.MemoryMB, s.store.User(s.buyer.ID).Envelope().MemoryMB)
}

func (s *WebhookSuite) TestUnknownPaymentIsAcknowledged() {
	s.verified()
	s.expectAudit(1)
	pb := builder.NewPaymentBuilder()

	res, err := s.handle(captureEvent("WH-7", commands.EventCaptureCompleted, pb))

	s.Require().NoError(err)
	s.Equal(commands.OutcomeIgnored, res.Outcome)
	s.Equal(1, s.store.WebhookEvents())
}

func (s *WebhookSuite) TestSubscriptionLifecycle() {
	s.verified()
	s.expectAudit(4)
	resource := map[string]string{
		"id":        "I-SUB1",
		"plan_id":   s.plan.ID.String(),
		"custom_id": s.buyer.ID.String(),
	}

	steps := []struct {
		event string
		want  subscription.Status
	}{
		{commands.EventSubscriptionCreated, subscription.StatusIncomplete},
		{commands.EventSubscriptionActivated, subscription.StatusActive},
		{commands.EventSubscriptionSuspended, subscription.StatusPaused},
		{commands.EventSubscriptionCancelled, subscription.StatusCanceled},
	}
	for _, step := range steps {
		res, err := s.handle(event(uuid.NewString(), step.event, resource))
		s.Require().NoError(err)
		s.Equal(commands.OutcomeProcessed, res.Outcome, step.event)
		s.Equal(step.want, s.store.Subscription("I-SUB1").Status)
	}
	s.Equal(s.buyer.ID, *s.store.Subscription("I-SUB1").UserID)
}

func (s *WebhookSuite) TestSubscriptionInvalidTransitionIsIgnored() {
	s.verified()
	s.expectAudit(2)
	resource := map[string]string{"id": "I-SUB2"}

	_, err := s.handle(event("WH-8", commands.EventSubscriptionCancelled, resource))
	s.Require().NoError(err)
	res, err := s.handle(event("WH-9", commands.EventSubscriptionActivated, resource))

	s.Require().NoError(err)
	s.Equal(commands.OutcomeIgnored, res.Outcome)
	s.Equal(subscription.StatusCanceled, s.store.Subscription("I-SUB2").Status)
}

func (s *WebhookSuite) TestUnhandledEventType() {
	s.verified()
	s.expectAudit(1)

	res, err := s.handle(event("WH-10", "CHECKOUT.ORDER.APPROVED", map[string]string{"id": "O-1"}))

	s.Require().NoError(err)
	s.Equal(commands.OutcomeIgnored, res.Outcome)
}

func (s *WebhookSuite) TestRejections() {
	s.Run("unknown provider", func() {
		_, err := s.uc.HandleWebhook(context.Background(), "stripe", commands.WebhookHeaders{}, []byte(`{}`))
		s.ErrorIs(err, commands.ErrUnknownProvider)
	})

	s.Run("bad signature", func() {
		s.gateway.EXPECT().VerifyWebhook(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)
		_, err := s.handle([]byte(`{"id":"WH-X","event_type":"PAYMENT.CAPTURE.COMPLETED"}`))
		s.ErrorIs(err, commands.ErrInvalidSignature)
		s.Zero(s.store.WebhookEvents())
	})

	s.Run("verification unavailable", func() {
		s.gateway.EXPECT().VerifyWebhook(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, errors.New("timeout"))
		_, err := s.handle([]byte(`{}`))
		s.ErrorIs(err, commands.ErrGatewayUnavailable)
	})

	s.Run("malformed body", func() {
		s.gateway.EXPECT().VerifyWebhook(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
		_, err := s.handle([]byte(`{"id":""}`))
		s.ErrorIs(err, commands.ErrMalformedEvent)
	})
}

func (s *WebhookSuite) TestSubscriptionActivatedDeliveredTwice() {
	s.verified()
	var outcomes []string
	s.effects.EXPECT().Dispatch(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, effects ...commands.Effect) {
			for _, e := range effects {
				outcomes = append(outcomes, e.Audit.Action+":"+e.Audit.Outcome)
			}
		}).
		Times(2)
	resource := map[string]string{"id": "I-SUB3", "custom_id": s.buyer.ID.String()}

	_, err := s.handle(event("WH-20", commands.EventSubscriptionCreated, resource))
	s.Require().NoError(err)
	activated := event("WH-21", commands.EventSubscriptionActivated, resource)

	first, err := s.handle(activated)
	s.Require().NoError(err)
	second, err := s.handle(activated)
	s.Require().NoError(err)

	s.Equal(commands.OutcomeProcessed, first.Outcome)
	s.True(second.Duplicate())
	s.Equal(subscription.StatusActive, s.store.Subscription("I-SUB3").Status)
	s.Equal(2, s.store.WebhookEvents())
	s.Equal([]string{
		"webhook." + commands.EventSubscriptionCreated + ":" + commands.OutcomeProcessed,
		"webhook." + commands.EventSubscriptionActivated + ":" + commands.OutcomeProcessed,
	}, outcomes)
}

func (s *WebhookSuite) TestFailedProcessingStaysRetryable() {
	s.verified()
	var outcomes []string
	s.effects.EXPECT().Dispatch(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, effects ...commands.Effect) {
			for _, e := range effects {
				outcomes = append(outcomes, e.Audit.Outcome)
			}
		}).
		Times(2)
	pb := builder.NewPaymentBuilder().For(s.buyer.ID, s.plan.ID)
	s.store.PutPayment(pb.BuildDomain())
	body := captureEvent("WH-11", commands.EventCaptureCompleted, pb)
	s.store.FailOn("grants.create", errors.New("connection lost"))

	_, err := s.handle(body)
	s.Require().Error(err)
	s.Zero(s.store.WebhookEvents())
	s.Equal(payment.StatusCreated, s.store.Payment(pb.ID).Status())

	res, err := s.handle(body)
	s.Require().NoError(err)
	s.Equal(commands.OutcomeProcessed, res.Outcome)
	s.Equal([]string{"failure", commands.OutcomeProcessed}, outcomes)
}
