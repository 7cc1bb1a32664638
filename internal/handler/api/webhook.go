package api

import (
	"io"
	"net/http"

	"hostdash/internal/handler/httperr"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

type WebhookRecorder interface {
	ObserveWebhook(provider, outcome string)
}

type WebhookHandler struct {
	cmds     commands.WebhookCommands
	recorder WebhookRecorder
}

func NewWebhookHandler(cmds commands.WebhookCommands, recorder WebhookRecorder) *WebhookHandler {
	return &WebhookHandler{cmds: cmds, recorder: recorder}
}

type webhookAck struct {
	EventID string `json:"eventId"`
	Outcome string `json:"outcome"`
}

// @Summary Processor webhook
// @Description Verify and apply a payment processor event. Redelivered events are acknowledged without effect.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param provider path string true "Provider name"
// @Success 200 {object} webhookAck
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Router /webhooks/{provider} [post]
func (h *WebhookHandler) Handle(c *gin.Context) {
	provider := c.Param("provider")

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		h.observe(provider, "rejected")
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	headers := commands.WebhookHeaders{
		TransmissionID:   c.GetHeader("PAYPAL-TRANSMISSION-ID"),
		TransmissionTime: c.GetHeader("PAYPAL-TRANSMISSION-TIME"),
		CertURL:          c.GetHeader("PAYPAL-CERT-URL"),
		AuthAlgo:         c.GetHeader("PAYPAL-AUTH-ALGO"),
		TransmissionSig:  c.GetHeader("PAYPAL-TRANSMISSION-SIG"),
	}

	result, err := h.cmds.HandleWebhook(c.Request.Context(), provider, headers, body)
	if err != nil {
		if errs.Is(err, errs.ErrValidation) || errs.Is(err, errs.ErrNotFound) {
			h.observe(provider, "rejected")
		} else {
			h.observe(provider, "error")
		}
		respondError(c, err)
		return
	}

	h.observe(provider, result.Outcome)
	c.JSON(http.StatusOK, webhookAck{EventID: result.EventID, Outcome: result.Outcome})
}

func (h *WebhookHandler) observe(provider, outcome string) {
	if h.recorder != nil {
		h.recorder.ObserveWebhook(provider, outcome)
	}
}
