//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/domain/payment"
	"hostdash/internal/domain/user"
	"hostdash/internal/handler/api"
	reqdto "hostdash/internal/handler/dto/request"
	resdto "hostdash/internal/handler/dto/response"
	"hostdash/internal/handler/middleware"
	"hostdash/internal/usecase/commands"
	"hostdash/tests/common/builder"
	"hostdash/tests/common/httptest"
	"hostdash/tests/common/testutil"
	commandsmock "hostdash/tests/mock/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type PaymentHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockPaymentCommands
	handler      *api.PaymentHandler
	caller       user.Principal
}

func (s *PaymentHandlerTestSuite) SetupSuite() {
	s.Require().NoError(reqdto.RegisterValidators())
}

func (s *PaymentHandlerTestSuite) SetupTest() {
	s.router = newTestRouter()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockPaymentCommands(s.mockCtrl)
	s.handler = api.NewPaymentHandler(s.mockCommands)
	s.caller = builder.NewUserBuilder().Principal()

	auth := fakeAuth(s.caller)
	adminOnly := middleware.NewAuthMiddleware(nil).RequireAdmin()
	s.router.POST("/payments/orders", auth, s.handler.CreateOrder)
	s.router.POST("/payments/orders/:orderId/capture", auth, s.handler.CaptureOrder)
	s.router.POST("/payments/:id/refund", auth, adminOnly, s.handler.Refund)
	s.router.POST("/payments/:id/void", auth, adminOnly, s.handler.Void)
}

func (s *PaymentHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestPaymentHandlerSuite(t *testing.T) {
	suite.Run(t, new(PaymentHandlerTestSuite))
}

// ================================================================================
// TestCreateOrder
// ================================================================================

func (s *PaymentHandlerTestSuite) TestCreateOrder() {
	url := "/payments/orders"

	pending := builder.NewPaymentBuilder().For(s.caller.UserID, uuid.New()).BuildDomain()
	coupon := "SPRING10"
	reqBody := reqdto.CreateOrderRequest{PlanID: pending.PlanID(), BillingCycle: "monthly", CouponCode: &coupon}
	result := &commands.CreateOrderResult{Payment: pending, ApproveURL: "https://paypal.test/checkoutnow?token=" + *pending.ProviderOrderID()}

	validation := []struct {
		name       string
		mutate     func(m map[string]any)
		expectCode int
	}{
		{name: "cycle quarterly OK", mutate: testutil.Field("billingCycle", "quarterly"), expectCode: http.StatusCreated},
		{name: "cycle lifetime OK", mutate: testutil.Field("billingCycle", "lifetime"), expectCode: http.StatusCreated},
		{name: "cycle unknown", mutate: testutil.Field("billingCycle", "weekly"), expectCode: http.StatusBadRequest},
		{name: "coupon too long", mutate: testutil.Field("couponCode", strings.Repeat("C", 65)), expectCode: http.StatusBadRequest},
		{name: "missing field: planId (required)", mutate: testutil.Field("planId", nil), expectCode: http.StatusBadRequest},
		{name: "missing field: billingCycle (required)", mutate: testutil.Field("billingCycle", nil), expectCode: http.StatusBadRequest},
		{name: "coupon omitted OK", mutate: testutil.Field("couponCode", nil), expectCode: http.StatusCreated},
	}

	s.Run("success: returns 201 with the approval link", func() {
		s.mockCommands.EXPECT().
			CreateOrder(gomock.Any(), s.caller, commands.CreateOrderInput{
				PlanID:       pending.PlanID(),
				BillingCycle: "monthly",
				CouponCode:   &coupon,
			}).
			Return(result, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, userToken)

		var body resdto.CreateOrderResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(*pending.ProviderOrderID(), body.OrderID)
		s.Equal(result.ApproveURL, body.ApproveURL)
		s.Equal("9.99", body.Payment.Amount)
		s.Equal(string(payment.StatusCreated), body.Payment.Status)
	})

	s.Run("success: blank coupon is dropped", func() {
		s.mockCommands.EXPECT().
			CreateOrder(gomock.Any(), s.caller, commands.CreateOrderInput{PlanID: pending.PlanID(), BillingCycle: "annual"}).
			Return(result, nil).Times(1)

		body := map[string]any{"planId": pending.PlanID(), "billingCycle": "annual", "couponCode": "   "}
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, userToken)

		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, nil)
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		for _, tc := range validation {
			s.Run(tc.name, func() {
				requestMap := testutil.DtoMap(s.T(), reqBody, tc.mutate)

				if tc.expectCode == http.StatusCreated {
					s.mockCommands.EXPECT().CreateOrder(gomock.Any(), gomock.Any(), gomock.Any()).
						Return(result, nil).Times(1)
				}
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, userToken)
				if tc.expectCode == http.StatusCreated {
					httptest.AssertSuccessResponse(s.T(), rec, tc.expectCode, nil)
				} else {
					httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, "Invalid request")
				}
			})
		}
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{name: "unknown plan", commandsError: commands.ErrPlanNotFound, expectedStatus: http.StatusNotFound, expectedMsg: "plan not found"},
			{name: "bad coupon", commandsError: commands.ErrInvalidCoupon, expectedStatus: http.StatusBadRequest, expectedMsg: "coupon"},
			{name: "processor down", commandsError: commands.ErrGatewayUnavailable, expectedStatus: http.StatusBadGateway, expectedMsg: "unavailable"},
			{name: "internal", commandsError: errors.New("tx aborted"), expectedStatus: http.StatusInternalServerError, expectedMsg: "Internal server error"},
		}
		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().CreateOrder(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, userToken)
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}

// ================================================================================
// TestCaptureOrder
// ================================================================================

func (s *PaymentHandlerTestSuite) TestCaptureOrder() {
	paid := builder.NewPaymentBuilder().For(s.caller.UserID, uuid.New()).Completed().BuildDomain()
	url := "/payments/orders/" + *paid.ProviderOrderID() + "/capture"

	s.Run("success: returns the updated envelope", func() {
		s.mockCommands.EXPECT().CaptureOrder(gomock.Any(), s.caller, *paid.ProviderOrderID()).
			Return(&commands.CaptureOrderResult{
				Payment:  paid,
				Envelope: entitlement.Envelope{Resources: entitlement.Resources{MemoryMB: 6144}, ServerSlots: 3},
				Coins:    0,
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, userToken)

		var body resdto.CaptureOrderResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(string(payment.StatusCompleted), body.Payment.Status)
		s.Equal(int64(6144), body.Envelope.MemoryMB)
		s.Equal(int64(3), body.Envelope.ServerSlots)
		s.False(body.Replayed)
	})

	s.Run("success: a repeated capture reports the replay", func() {
		s.mockCommands.EXPECT().CaptureOrder(gomock.Any(), s.caller, *paid.ProviderOrderID()).
			Return(&commands.CaptureOrderResult{Payment: paid, Replayed: true}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, userToken)

		var body resdto.CaptureOrderResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.True(body.Replayed)
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{name: "amount mismatch hides the reason", commandsError: commands.ErrPaymentMismatch, expectedStatus: http.StatusBadRequest, expectedMsg: "payment could not be verified"},
			{name: "declined", commandsError: commands.ErrPaymentDeclined, expectedStatus: http.StatusBadRequest, expectedMsg: "payment could not be verified"},
			{name: "someone else's order", commandsError: commands.ErrNotPaymentOwner, expectedStatus: http.StatusForbidden, expectedMsg: "another user"},
			{name: "already failed", commandsError: commands.ErrPaymentClosed, expectedStatus: http.StatusConflict, expectedMsg: "no longer"},
			{name: "unknown order", commandsError: commands.ErrPaymentNotFound, expectedStatus: http.StatusNotFound, expectedMsg: "payment not found"},
		}
		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().CaptureOrder(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, userToken)
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}

// ================================================================================
// TestRefund / TestVoid
// ================================================================================

func (s *PaymentHandlerTestSuite) TestRefund() {
	paid := builder.NewPaymentBuilder().Completed().BuildDomain()
	url := "/payments/" + paid.ID().String() + "/refund"

	s.Run("success: admin refunds a completed payment", func() {
		refunded := builder.NewPaymentBuilder().With(func(b *builder.PaymentBuilder) {
			b.ID = paid.ID()
			b.Status = payment.StatusRefunded
		}).BuildDomain()
		s.mockCommands.EXPECT().
			Refund(gomock.Any(), user.Principal{UserID: s.caller.UserID, Role: user.RoleAdmin}, paid.ID()).
			Return(refunded, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, adminToken)

		var body resdto.PaymentResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(paid.ID(), body.ID)
		s.Equal(string(payment.StatusRefunded), body.Status)
	})

	s.Run("error: 403 for non-admin callers", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, userToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "Insufficient permissions")
	})

	s.Run("error: 400 on malformed id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/payments/42/refund", nil, adminToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid id format")
	})

	s.Run("error: 409 when the payment never completed", func() {
		s.mockCommands.EXPECT().Refund(gomock.Any(), gomock.Any(), paid.ID()).
			Return(nil, commands.ErrPaymentNotCompleted).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, adminToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "payment is not completed")
	})
}

func (s *PaymentHandlerTestSuite) TestVoid() {
	id := uuid.New()
	url := "/payments/" + id.String() + "/void"

	s.Run("success: routes to Void", func() {
		voided := builder.NewPaymentBuilder().With(func(b *builder.PaymentBuilder) {
			b.ID = id
			b.Status = payment.StatusVoided
		}).BuildDomain()
		s.mockCommands.EXPECT().Void(gomock.Any(), gomock.Any(), id).Return(voided, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, adminToken)

		var body resdto.PaymentResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(string(payment.StatusVoided), body.Status)
	})

	s.Run("error: 401 without a token", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})
}
