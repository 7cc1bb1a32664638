package queries

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/queries/$GOFILE -package=queriesmock

import (
	"context"
	"time"

	"hostdash/internal/domain/user"
	"hostdash/internal/pkg/errs"

	"github.com/google/uuid"
)

type GrantView struct {
	ID           uuid.UUID
	Source       string
	SourceRef    string
	PlanID       *uuid.UUID
	PlanName     *string
	Coins        int64
	MemoryMB     int64
	DiskMB       int64
	CPUPercent   int64
	Status       string
	BillingCycle string
	Applied      bool
	PurchasedAt  time.Time
	ExpiresAt    *time.Time
	CreatedAt    time.Time
}

type PaymentView struct {
	ID              uuid.UUID
	PlanID          uuid.UUID
	PlanName        string
	Provider        string
	ProviderOrderID *string
	Amount          string
	Currency        string
	Status          string
	BillingCycle    string
	CreatedAt       time.Time
}

// KeysetPage selects rows strictly older than (AfterCreatedAt, AfterID) when set.
type KeysetPage struct {
	AfterCreatedAt *time.Time
	AfterID        *uuid.UUID
	Limit          int32
}

type LedgerReadStore interface {
	ListGrants(ctx context.Context, userID uuid.UUID, p KeysetPage) ([]*GrantView, error)
	ListPayments(ctx context.Context, userID uuid.UUID, p KeysetPage) ([]*PaymentView, error)
}

// LedgerQueries serve the caller's grant and payment history, newest first.
type LedgerQueries interface {
	ListGrants(ctx context.Context, principal user.Principal, cursor *Cursor, limit int) ([]*GrantView, *Cursor, error)
	ListPayments(ctx context.Context, principal user.Principal, cursor *Cursor, limit int) ([]*PaymentView, *Cursor, error)
}

type ledgerQueriesImpl struct {
	store LedgerReadStore
}

func NewLedgerQueries(store LedgerReadStore) LedgerQueries {
	return &ledgerQueriesImpl{store: store}
}

func (q *ledgerQueriesImpl) ListGrants(ctx context.Context, principal user.Principal, cursor *Cursor, limit int) ([]*GrantView, *Cursor, error) {
	p, limit, err := keysetFor(cursor, limit)
	if err != nil {
		return nil, nil, err
	}
	rows, err := q.store.ListGrants(ctx, principal.UserID, p)
	if err != nil {
		return nil, nil, errs.Wrap(err, "list grants")
	}
	rows, next := page(rows, limit, func(g *GrantView) (time.Time, uuid.UUID) { return g.CreatedAt, g.ID })
	return rows, next, nil
}

func (q *ledgerQueriesImpl) ListPayments(ctx context.Context, principal user.Principal, cursor *Cursor, limit int) ([]*PaymentView, *Cursor, error) {
	p, limit, err := keysetFor(cursor, limit)
	if err != nil {
		return nil, nil, err
	}
	rows, err := q.store.ListPayments(ctx, principal.UserID, p)
	if err != nil {
		return nil, nil, errs.Wrap(err, "list payments")
	}
	rows, next := page(rows, limit, func(pv *PaymentView) (time.Time, uuid.UUID) { return pv.CreatedAt, pv.ID })
	return rows, next, nil
}

func keysetFor(cursor *Cursor, limit int) (KeysetPage, int, error) {
	limit = ValidateLimit(limit)
	p := KeysetPage{Limit: int32(limit + 1)}
	if cursor == nil || cursor.After == "" {
		return p, limit, nil
	}
	createdAt, id, err := DecodeAfterCursor(cursor.After)
	if err != nil {
		return KeysetPage{}, 0, err
	}
	p.AfterCreatedAt = &createdAt
	p.AfterID = &id
	return p, limit, nil
}
