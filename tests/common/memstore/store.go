//go:build unit || e2e

// Package memstore is an in-memory shared.UnitOfWork. Each Within call works on a copy of
// the data and publishes it only when fn succeeds, so rollback behaviour matches Postgres.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"hostdash/internal/domain/gift"
	"hostdash/internal/domain/grant"
	"hostdash/internal/domain/payment"
	"hostdash/internal/domain/server"
	"hostdash/internal/domain/subscription"
	"hostdash/internal/domain/user"
	"hostdash/internal/usecase/shared"

	"github.com/google/uuid"
)

type Job struct {
	Kind    string
	Topic   string
	Payload []byte
	RunAt   time.Time
}

type redemptionKey struct {
	codeID uuid.UUID
	userID uuid.UUID
}

type state struct {
	users         map[uuid.UUID]*user.User
	grants        map[uuid.UUID]*grant.Grant
	grantSeq      map[uuid.UUID]int
	servers       map[uuid.UUID]*server.Server
	payments      map[uuid.UUID]*payment.Payment
	webhookEvents map[string]string
	subscriptions map[string]*subscription.Subscription
	gifts         map[string]*gift.Code
	redemptions   map[redemptionKey]time.Time
	coupons       map[string]*shared.CouponSnapshot
	plans         map[uuid.UUID]*shared.PlanSnapshot
	eggs          map[uuid.UUID]*shared.EggSnapshot
	locations     map[uuid.UUID]*shared.LocationSnapshot
	shopItems     map[uuid.UUID]*shared.ShopItemSnapshot
	audit         []shared.AuditEvent
	jobs          []Job
	seq           int
}

func newState() *state {
	return &state{
		users:         map[uuid.UUID]*user.User{},
		grants:        map[uuid.UUID]*grant.Grant{},
		grantSeq:      map[uuid.UUID]int{},
		servers:       map[uuid.UUID]*server.Server{},
		payments:      map[uuid.UUID]*payment.Payment{},
		webhookEvents: map[string]string{},
		subscriptions: map[string]*subscription.Subscription{},
		gifts:         map[string]*gift.Code{},
		redemptions:   map[redemptionKey]time.Time{},
		coupons:       map[string]*shared.CouponSnapshot{},
		plans:         map[uuid.UUID]*shared.PlanSnapshot{},
		eggs:          map[uuid.UUID]*shared.EggSnapshot{},
		locations:     map[uuid.UUID]*shared.LocationSnapshot{},
		shopItems:     map[uuid.UUID]*shared.ShopItemSnapshot{},
	}
}

// clone copies the maps. Stored values are never handed out, so sharing them is safe.
func (s *state) clone() *state {
	return &state{
		users:         maps.Clone(s.users),
		grants:        maps.Clone(s.grants),
		grantSeq:      maps.Clone(s.grantSeq),
		servers:       maps.Clone(s.servers),
		payments:      maps.Clone(s.payments),
		webhookEvents: maps.Clone(s.webhookEvents),
		subscriptions: maps.Clone(s.subscriptions),
		gifts:         maps.Clone(s.gifts),
		redemptions:   maps.Clone(s.redemptions),
		coupons:       maps.Clone(s.coupons),
		plans:         maps.Clone(s.plans),
		eggs:          maps.Clone(s.eggs),
		locations:     maps.Clone(s.locations),
		shopItems:     maps.Clone(s.shopItems),
		audit:         slices.Clone(s.audit),
		jobs:          slices.Clone(s.jobs),
		seq:           s.seq,
	}
}

type Store struct {
	mu       sync.Mutex
	st       *state
	failures map[string]error
	calls    map[string]int
	commits  int
}

var _ shared.UnitOfWork = (*Store)(nil)

func New() *Store {
	return &Store{st: newState(), failures: map[string]error{}, calls: map[string]int{}}
}

// FailOn makes the next call of op return err. Ops are named "<repo>.<method>",
// for example "servers.create".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) takeFailure(op string) error {
	s.calls[op]++
	err, ok := s.failures[op]
	if !ok {
		return nil
	}
	delete(s.failures, op)
	return err
}

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return s.run(ctx, true, fn)
}

func (s *Store) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return s.run(ctx, false, fn)
}

// WithDB keeps whatever fn wrote, even on error, like autocommitted statements.
func (s *Store) WithDB(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	err := fn(ctx, &memTx{store: s, st: work})
	s.st = work
	s.commits++
	return err
}

func (s *Store) run(ctx context.Context, commit bool, fn func(ctx context.Context, tx shared.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(ctx, &memTx{store: s, st: work}); err != nil {
		return err
	}
	if commit {
		s.st = work
		s.commits++
	}
	return nil
}

// Commits counts published writes.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Calls counts invocations of op, failed ones included.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

type memTx struct {
	store *Store
	st    *state
}

func (t *memTx) Users() shared.UserRepository                 { return userRepo{t} }
func (t *memTx) Grants() shared.GrantRepository               { return grantRepo{t} }
func (t *memTx) Servers() shared.ServerRepository             { return serverRepo{t} }
func (t *memTx) Payments() shared.PaymentRepository           { return paymentRepo{t} }
func (t *memTx) WebhookEvents() shared.WebhookEventRepository { return webhookRepo{t} }
func (t *memTx) Subscriptions() shared.SubscriptionRepository { return subscriptionRepo{t} }
func (t *memTx) Gifts() shared.GiftRepository                 { return giftRepo{t} }
func (t *memTx) Coupons() shared.CouponRepository             { return couponRepo{t} }
func (t *memTx) Catalog() shared.CatalogReads                 { return catalogRepo{t} }
func (t *memTx) Audit() shared.AuditRepository                { return auditRepo{t} }
func (t *memTx) Notifications() shared.NotificationRepository { return notificationRepo{t} }

func (t *memTx) fail(op string) error {
	return t.store.takeFailure(op)
}
