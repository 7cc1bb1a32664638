package api

import (
	"context"
	"net/http"
	"strings"

	"hostdash/internal/domain/payment"
	"hostdash/internal/domain/user"
	reqdto "hostdash/internal/handler/dto/request"
	resdto "hostdash/internal/handler/dto/response"
	"hostdash/internal/handler/httperr"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errMissingOrderID = errs.New("missing order id")

type PaymentHandler struct {
	cmds commands.PaymentCommands
}

func NewPaymentHandler(cmds commands.PaymentCommands) *PaymentHandler {
	return &PaymentHandler{cmds: cmds}
}

// @Summary Create order
// @Description Price a plan and open a processor order the caller approves
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateOrderRequest true "Create order request"
// @Success 201 {object} resdto.CreateOrderResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Router /payments/orders [post]
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req reqdto.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.cmds.CreateOrder(c.Request.Context(), principal, req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resdto.FromCreateOrderResult(result))
}

// @Summary Capture order
// @Description Capture an approved order and apply the plan; repeating a capture returns the same result
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param orderId path string true "Processor order ID"
// @Success 200 {object} resdto.CaptureOrderResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Router /payments/orders/{orderId}/capture [post]
func (h *PaymentHandler) CaptureOrder(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	orderID := strings.TrimSpace(c.Param("orderId"))
	if orderID == "" {
		httperr.AbortWithError(c, http.StatusBadRequest, errMissingOrderID, "Invalid orderId format", nil)
		return
	}
	result, err := h.cmds.CaptureOrder(c.Request.Context(), principal, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromCaptureOrderResult(result))
}

// @Summary Refund payment
// @Description Mark a completed payment refunded and revoke its grant (admin)
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} resdto.PaymentResponse
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /payments/{id}/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	h.reverse(c, h.cmds.Refund)
}

// @Summary Void payment
// @Description Void a completed payment and revoke its grant (admin)
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} resdto.PaymentResponse
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /payments/{id}/void [post]
func (h *PaymentHandler) Void(c *gin.Context) {
	h.reverse(c, h.cmds.Void)
}

type reversal func(ctx context.Context, principal user.Principal, id uuid.UUID) (*payment.Payment, error)

func (h *PaymentHandler) reverse(c *gin.Context, op reversal) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	p, err := op(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromPayment(p))
}
