package payment

import (
	"errors"
	"strings"
	"time"

	"hostdash/internal/domain/grant"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTransition = errors.New("invalid payment status transition")
	ErrInvalidAmount     = errors.New("payment amount must be positive")
	ErrInvalidCurrency   = errors.New("currency must be a 3-letter code")
	ErrOrderIDAssigned   = errors.New("provider order id already assigned")
)

type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
	StatusVoided    Status = "VOIDED"
)

func (s Status) String() string { return string(s) }

// IsTerminalFailure is true for states a capture can never leave.
func (s Status) IsTerminalFailure() bool {
	return s == StatusFailed || s == StatusRefunded || s == StatusVoided
}

const ProviderPayPal = "paypal"

type Payment struct {
	id                uuid.UUID
	provider          string
	providerOrderID   *string
	providerCaptureID *string
	userID            uuid.UUID
	planID            uuid.UUID
	amount            decimal.Decimal
	currency          string
	status            Status
	billingCycle      grant.BillingCycle
	couponCode        *string
	failureReason     *string
	createdAt         time.Time
	updatedAt         time.Time
}

type NewParams struct {
	Provider     string
	UserID       uuid.UUID
	PlanID       uuid.UUID
	Amount       decimal.Decimal
	Currency     string
	BillingCycle grant.BillingCycle
	CouponCode   *string
	Now          time.Time
}

func New(p NewParams) (*Payment, error) {
	if !p.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if len(currency) != 3 {
		return nil, ErrInvalidCurrency
	}
	return &Payment{
		id:           uuid.New(),
		provider:     p.Provider,
		userID:       p.UserID,
		planID:       p.PlanID,
		amount:       p.Amount.Round(2),
		currency:     currency,
		status:       StatusCreated,
		billingCycle: p.BillingCycle,
		couponCode:   p.CouponCode,
		createdAt:    p.Now,
		updatedAt:    p.Now,
	}, nil
}

type ReconstructParams struct {
	ID                uuid.UUID
	Provider          string
	ProviderOrderID   *string
	ProviderCaptureID *string
	UserID            uuid.UUID
	PlanID            uuid.UUID
	Amount            decimal.Decimal
	Currency          string
	Status            Status
	BillingCycle      grant.BillingCycle
	CouponCode        *string
	FailureReason     *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func Reconstruct(p ReconstructParams) *Payment {
	return &Payment{
		id:                p.ID,
		provider:          p.Provider,
		providerOrderID:   p.ProviderOrderID,
		providerCaptureID: p.ProviderCaptureID,
		userID:            p.UserID,
		planID:            p.PlanID,
		amount:            p.Amount,
		currency:          p.Currency,
		status:            p.Status,
		billingCycle:      p.BillingCycle,
		couponCode:        p.CouponCode,
		failureReason:     p.FailureReason,
		createdAt:         p.CreatedAt,
		updatedAt:         p.UpdatedAt,
	}
}

func (p *Payment) AttachOrder(orderID string, now time.Time) error {
	if p.providerOrderID != nil {
		return ErrOrderIDAssigned
	}
	p.providerOrderID = &orderID
	p.updatedAt = now
	return nil
}

func (p *Payment) MarkCompleted(captureID string, now time.Time) error {
	if p.status != StatusCreated {
		return ErrInvalidTransition
	}
	p.status = StatusCompleted
	if captureID != "" {
		p.providerCaptureID = &captureID
	}
	p.updatedAt = now
	return nil
}

// MarkFailed keeps the reason for operators; it is never shown to the payer.
func (p *Payment) MarkFailed(reason string, now time.Time) error {
	if p.status != StatusCreated {
		return ErrInvalidTransition
	}
	p.status = StatusFailed
	p.failureReason = &reason
	p.updatedAt = now
	return nil
}

func (p *Payment) Refund(now time.Time) error {
	return p.reverse(StatusRefunded, now)
}

func (p *Payment) Void(now time.Time) error {
	return p.reverse(StatusVoided, now)
}

func (p *Payment) reverse(to Status, now time.Time) error {
	if p.status != StatusCompleted {
		return ErrInvalidTransition
	}
	p.status = to
	p.updatedAt = now
	return nil
}

func (p *Payment) IsOwnedBy(userID uuid.UUID) bool { return p.userID == userID }

func (p *Payment) ID() uuid.UUID                    { return p.id }
func (p *Payment) Provider() string                 { return p.provider }
func (p *Payment) ProviderOrderID() *string         { return p.providerOrderID }
func (p *Payment) ProviderCaptureID() *string       { return p.providerCaptureID }
func (p *Payment) UserID() uuid.UUID                { return p.userID }
func (p *Payment) PlanID() uuid.UUID                { return p.planID }
func (p *Payment) Amount() decimal.Decimal          { return p.amount }
func (p *Payment) Currency() string                 { return p.currency }
func (p *Payment) Status() Status                   { return p.status }
func (p *Payment) BillingCycle() grant.BillingCycle { return p.billingCycle }
func (p *Payment) IsLifetime() bool                 { return p.billingCycle.IsLifetime() }
func (p *Payment) CouponCode() *string              { return p.couponCode }
func (p *Payment) FailureReason() *string           { return p.failureReason }
func (p *Payment) CreatedAt() time.Time             { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time             { return p.updatedAt }
