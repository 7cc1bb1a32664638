package response

import (
	"time"

	"hostdash/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type LedgerGrantResponse struct {
	ID           uuid.UUID  `json:"id"`
	Source       string     `json:"source"`
	SourceRef    string     `json:"sourceRef"`
	PlanID       *uuid.UUID `json:"planId,omitempty"`
	PlanName     *string    `json:"planName,omitempty"`
	Coins        int64      `json:"coins"`
	MemoryMB     int64      `json:"memoryMb"`
	DiskMB       int64      `json:"diskMb"`
	CPUPercent   int64      `json:"cpuPercent"`
	Status       string     `json:"status"`
	BillingCycle string     `json:"billingCycle"`
	Applied      bool       `json:"benefitsApplied"`
	PurchasedAt  time.Time  `json:"purchasedAt"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type LedgerPaymentResponse struct {
	ID              uuid.UUID `json:"id"`
	PlanID          uuid.UUID `json:"planId"`
	PlanName        string    `json:"planName"`
	Provider        string    `json:"provider"`
	ProviderOrderID *string   `json:"providerOrderId,omitempty"`
	Amount          string    `json:"amount"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	BillingCycle    string    `json:"billingCycle"`
	CreatedAt       time.Time `json:"createdAt"`
}

type PageResponse[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

func FromGrantViews(views []*queries.GrantView, next *queries.Cursor) (*PageResponse[LedgerGrantResponse], error) {
	items := make([]LedgerGrantResponse, 0, len(views))
	if err := copier.Copy(&items, &views); err != nil {
		return nil, err
	}
	return &PageResponse[LedgerGrantResponse]{Items: items, NextCursor: cursorString(next)}, nil
}

func FromPaymentViews(views []*queries.PaymentView, next *queries.Cursor) (*PageResponse[LedgerPaymentResponse], error) {
	items := make([]LedgerPaymentResponse, 0, len(views))
	if err := copier.Copy(&items, &views); err != nil {
		return nil, err
	}
	return &PageResponse[LedgerPaymentResponse]{Items: items, NextCursor: cursorString(next)}, nil
}

func cursorString(c *queries.Cursor) *string {
	if c == nil || c.After == "" {
		return nil
	}
	return &c.After
}
