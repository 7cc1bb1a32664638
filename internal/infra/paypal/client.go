package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"hostdash/internal/domain/payment"
	"hostdash/internal/pkg/config"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/commands"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	ordersPath       = "/v2/checkout/orders"
	verifyWebhookURL = "/v1/notifications/verify-webhook-signature"
	tokenPath        = "/v1/oauth2/token"

	issueAlreadyCaptured = "ORDER_ALREADY_CAPTURED"
	issueNotApproved     = "ORDER_NOT_APPROVED"
	verificationSuccess  = "SUCCESS"
)

var errNoCapture = errors.New("order response carries no capture")

// Recorder receives one observation per processor call.
type Recorder interface {
	ObservePaymentCall(operation, result string)
}

// APIError is a non-2xx answer from the processor.
type APIError struct {
	Status int
	Name   string
	Issue  string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal responded %d %s %s", e.Status, e.Name, e.Issue)
}

// Client implements commands.PaymentGateway against the PayPal REST API. Access tokens
// come from an oauth2 client-credentials source that caches and refreshes them.
type Client struct {
	baseURL   string
	http      *http.Client
	returnURL string
	cancelURL string
	recorder  Recorder
}

func NewClient(cfg config.PayPalConfig, recorder Recorder) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     baseURL + tokenPath,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	base := &http.Client{Timeout: cfg.RequestTimeout}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	authed := creds.Client(tokenCtx)
	authed.Timeout = cfg.RequestTimeout

	return &Client{
		baseURL:   baseURL,
		http:      authed,
		returnURL: cfg.ReturnURL,
		cancelURL: cfg.CancelURL,
		recorder:  recorder,
	}
}

var _ commands.PaymentGateway = (*Client)(nil)

func (c *Client) CreateOrder(ctx context.Context, req commands.CreateOrderRequest) (*commands.CreatedOrder, error) {
	body := createOrderBody{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnitRequest{{
			ReferenceID: req.PlanID.String(),
			CustomID:    req.PaymentID.String(),
			Description: req.Description,
			Amount: money{
				CurrencyCode: req.Currency,
				Value:        req.Amount.StringFixed(2),
			},
		}},
		ApplicationContext: applicationContext{
			ReturnURL:  c.returnURL,
			CancelURL:  c.cancelURL,
			UserAction: "PAY_NOW",
		},
	}

	var out orderResponse
	err := c.do(ctx, "create_order", http.MethodPost, ordersPath, req.PaymentID.String(), body, &out)
	if err != nil {
		return nil, err
	}
	return &commands.CreatedOrder{OrderID: out.ID, ApproveURL: out.approveURL()}, nil
}

// CaptureOrder captures an approved order. An order captured by an earlier attempt is
// read back instead, so a retried capture reports the same result.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*payment.CaptureResult, error) {
	var out orderResponse
	path := ordersPath + "/" + orderID + "/capture"
	err := c.do(ctx, "capture_order", http.MethodPost, path, "capture-"+orderID, struct{}{}, &out)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Issue == issueAlreadyCaptured {
		slog.Info("order already captured, reading it back", "order_id", orderID)
		out = orderResponse{}
		err = c.do(ctx, "get_order", http.MethodGet, ordersPath+"/"+orderID, "", nil, &out)
	}
	if declined(err) {
		return nil, errs.Mark(err, commands.ErrPaymentDeclined)
	}
	if err != nil {
		return nil, err
	}
	return out.captureResult()
}

// declined reports processor answers that will not change on retry, such as a refused
// instrument. An order the payer has not approved yet stays open.
func declined(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Issue == issueNotApproved {
		return false
	}
	switch apiErr.Status {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

func (c *Client) VerifyWebhook(ctx context.Context, headers commands.WebhookHeaders, webhookID string, body []byte) (bool, error) {
	if webhookID == "" {
		return false, errs.New("paypal webhook id is not configured")
	}
	req := verifyWebhookBody{
		AuthAlgo:         headers.AuthAlgo,
		CertURL:          headers.CertURL,
		TransmissionID:   headers.TransmissionID,
		TransmissionSig:  headers.TransmissionSig,
		TransmissionTime: headers.TransmissionTime,
		WebhookID:        webhookID,
		WebhookEvent:     json.RawMessage(body),
	}

	var out struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := c.do(ctx, "verify_webhook", http.MethodPost, verifyWebhookURL, "", req, &out); err != nil {
		return false, err
	}
	return out.VerificationStatus == verificationSuccess, nil
}

func (c *Client) do(ctx context.Context, operation, method, path, requestID string, in, out any) error {
	err := c.send(ctx, method, path, requestID, in, out)
	if c.recorder != nil {
		c.recorder.ObservePaymentCall(operation, resultLabel(err))
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path, requestID string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errs.Wrap(err, "encode paypal request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errs.Wrap(err, "build paypal request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID != "" {
		req.Header.Set("PayPal-Request-Id", requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.Wrap(err, "paypal request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errs.Wrap(err, "read paypal response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errs.Wrap(err, "decode paypal response")
	}
	return nil
}

func parseAPIError(status int, raw []byte) error {
	var body struct {
		Name    string `json:"name"`
		Details []struct {
			Issue string `json:"issue"`
		} `json:"details"`
	}
	apiErr := &APIError{Status: status, Body: string(raw)}
	if json.Unmarshal(raw, &body) == nil {
		apiErr.Name = body.Name
		if len(body.Details) > 0 {
			apiErr.Issue = body.Details[0].Issue
		}
	}
	return apiErr
}

func resultLabel(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &apiErr) && apiErr.Status < 500:
		return "rejected"
	default:
		return "error"
	}
}

func (o orderResponse) approveURL() string {
	for _, l := range o.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			return l.Href
		}
	}
	return ""
}

func (o orderResponse) captureResult() (*payment.CaptureResult, error) {
	for _, pu := range o.PurchaseUnits {
		if len(pu.Payments.Captures) == 0 {
			continue
		}
		capture := pu.Payments.Captures[0]
		amount, err := decimal.NewFromString(capture.Amount.Value)
		if err != nil {
			return nil, errs.Wrap(err, "parse capture amount")
		}
		customID := capture.CustomID
		if customID == "" {
			customID = pu.CustomID
		}
		return &payment.CaptureResult{
			OrderID:     o.ID,
			CaptureID:   capture.ID,
			Status:      capture.Status,
			Amount:      amount,
			Currency:    capture.Amount.CurrencyCode,
			ReferenceID: pu.ReferenceID,
			CustomID:    customID,
		}, nil
	}
	return nil, errNoCapture
}
