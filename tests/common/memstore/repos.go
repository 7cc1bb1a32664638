//go:build unit || e2e

package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"hostdash/internal/domain/gift"
	"hostdash/internal/domain/grant"
	"hostdash/internal/domain/payment"
	"hostdash/internal/domain/server"
	"hostdash/internal/domain/subscription"
	"hostdash/internal/domain/user"
	"hostdash/internal/infra"
	"hostdash/internal/usecase/shared"

	"github.com/google/uuid"
)

func cloneUser(u *user.User) *user.User {
	c := *u
	return &c
}

func cloneGrant(g *grant.Grant) *grant.Grant {
	c := *g
	return &c
}

func cloneServer(s *server.Server) *server.Server {
	c := *s
	return &c
}

func clonePayment(p *payment.Payment) *payment.Payment {
	c := *p
	return &c
}

type userRepo struct{ t *memTx }

func (r userRepo) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	if err := r.t.fail("users.find"); err != nil {
		return nil, err
	}
	u, ok := r.t.st.users[id]
	if !ok {
		return nil, infra.NotFound("user not found")
	}
	return cloneUser(u), nil
}

func (r userRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.FindByID(ctx, id)
}

func (r userRepo) FindByReferralCode(_ context.Context, code user.ReferralCode) (*user.User, error) {
	for _, u := range r.t.st.users {
		if u.ReferralCode() == code {
			return cloneUser(u), nil
		}
	}
	return nil, infra.NotFound("user not found")
}

func (r userRepo) Update(_ context.Context, u *user.User) error {
	if err := r.t.fail("users.update"); err != nil {
		return err
	}
	if _, ok := r.t.st.users[u.ID()]; !ok {
		return infra.NotFound("user not found")
	}
	r.t.st.users[u.ID()] = cloneUser(u)
	return nil
}

type grantRepo struct{ t *memTx }

func (r grantRepo) Create(_ context.Context, g *grant.Grant) error {
	if err := r.t.fail("grants.create"); err != nil {
		return err
	}
	for _, existing := range r.t.st.grants {
		if existing.Source() == g.Source() && existing.SourceRef() == g.SourceRef() {
			return infra.Duplicate("grant already exists for source")
		}
	}
	r.t.st.seq++
	r.t.st.grants[g.ID()] = cloneGrant(g)
	r.t.st.grantSeq[g.ID()] = r.t.st.seq
	return nil
}

func (r grantRepo) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*grant.Grant, error) {
	g, ok := r.t.st.grants[id]
	if !ok {
		return nil, infra.NotFound("grant not found")
	}
	return cloneGrant(g), nil
}

func (r grantRepo) FindBySource(_ context.Context, source grant.Source, sourceRef string) (*grant.Grant, error) {
	for _, g := range r.t.st.grants {
		if g.Source() == source && g.SourceRef() == sourceRef {
			return cloneGrant(g), nil
		}
	}
	return nil, infra.NotFound("grant not found")
}

func (r grantRepo) Update(_ context.Context, g *grant.Grant) error {
	if err := r.t.fail("grants.update"); err != nil {
		return err
	}
	if _, ok := r.t.st.grants[g.ID()]; !ok {
		return infra.NotFound("grant not found")
	}
	r.t.st.grants[g.ID()] = cloneGrant(g)
	return nil
}

func (r grantRepo) ListActiveByUser(_ context.Context, userID uuid.UUID) ([]*grant.Grant, error) {
	var out []*grant.Grant
	for _, g := range r.t.st.grants {
		if g.UserID() == userID && g.Status() == grant.StatusActive {
			out = append(out, cloneGrant(g))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.t.st.grantSeq[out[i].ID()] < r.t.st.grantSeq[out[j].ID()]
	})
	return out, nil
}

func (r grantRepo) ListExpiredIDs(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var expired []*grant.Grant
	for _, g := range r.t.st.grants {
		if g.Status() == grant.StatusActive && g.ExpiresAt() != nil && !g.ExpiresAt().After(now) {
			expired = append(expired, g)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ExpiresAt().Before(*expired[j].ExpiresAt()) })
	ids := make([]uuid.UUID, 0, len(expired))
	for _, g := range expired {
		if len(ids) == limit {
			break
		}
		ids = append(ids, g.ID())
	}
	return ids, nil
}

type serverRepo struct{ t *memTx }

func (r serverRepo) Create(_ context.Context, s *server.Server) error {
	if err := r.t.fail("servers.create"); err != nil {
		return err
	}
	r.t.st.servers[s.ID()] = cloneServer(s)
	return nil
}

func (r serverRepo) FindByID(_ context.Context, id uuid.UUID) (*server.Server, error) {
	s, ok := r.t.st.servers[id]
	if !ok {
		return nil, infra.NotFound("server not found")
	}
	return cloneServer(s), nil
}

func (r serverRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*server.Server, error) {
	var out []*server.Server
	for _, s := range r.t.st.servers {
		if s.OwnerID() == ownerID {
			out = append(out, cloneServer(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out, nil
}

func (r serverRepo) CountByLocation(_ context.Context, locationID uuid.UUID) (int64, error) {
	var n int64
	for _, s := range r.t.st.servers {
		if s.LocationID() == locationID {
			n++
		}
	}
	return n, nil
}

func (r serverRepo) Update(_ context.Context, s *server.Server) error {
	if err := r.t.fail("servers.update"); err != nil {
		return err
	}
	if _, ok := r.t.st.servers[s.ID()]; !ok {
		return infra.NotFound("server not found")
	}
	r.t.st.servers[s.ID()] = cloneServer(s)
	return nil
}

func (r serverRepo) Delete(_ context.Context, id uuid.UUID) error {
	if err := r.t.fail("servers.delete"); err != nil {
		return err
	}
	delete(r.t.st.servers, id)
	return nil
}

type paymentRepo struct{ t *memTx }

func (r paymentRepo) Create(_ context.Context, p *payment.Payment) error {
	if err := r.t.fail("payments.create"); err != nil {
		return err
	}
	if _, ok := r.t.st.payments[p.ID()]; ok {
		return infra.Duplicate("payment already exists")
	}
	r.t.st.payments[p.ID()] = clonePayment(p)
	return nil
}

func (r paymentRepo) Update(_ context.Context, p *payment.Payment) error {
	if err := r.t.fail("payments.update"); err != nil {
		return err
	}
	if _, ok := r.t.st.payments[p.ID()]; !ok {
		return infra.NotFound("payment not found")
	}
	r.t.st.payments[p.ID()] = clonePayment(p)
	return nil
}

func (r paymentRepo) FindByID(_ context.Context, id uuid.UUID) (*payment.Payment, error) {
	p, ok := r.t.st.payments[id]
	if !ok {
		return nil, infra.NotFound("payment not found")
	}
	return clonePayment(p), nil
}

func (r paymentRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r paymentRepo) FindByProviderOrderID(_ context.Context, provider, orderID string) (*payment.Payment, error) {
	for _, p := range r.t.st.payments {
		if p.Provider() == provider && p.ProviderOrderID() != nil && *p.ProviderOrderID() == orderID {
			return clonePayment(p), nil
		}
	}
	return nil, infra.NotFound("payment not found")
}

type webhookRepo struct{ t *memTx }

func (r webhookRepo) Exists(_ context.Context, provider, eventID string) (bool, error) {
	_, ok := r.t.st.webhookEvents[provider+"|"+eventID]
	return ok, nil
}

func (r webhookRepo) Record(_ context.Context, provider, eventID, eventType string, _ time.Time) (bool, error) {
	key := provider + "|" + eventID
	if _, ok := r.t.st.webhookEvents[key]; ok {
		return false, nil
	}
	r.t.st.webhookEvents[key] = eventType
	return true, nil
}

type subscriptionRepo struct{ t *memTx }

func (r subscriptionRepo) FindByProviderIDForUpdate(_ context.Context, id string) (*subscription.Subscription, error) {
	s, ok := r.t.st.subscriptions[id]
	if !ok {
		return nil, infra.NotFound("subscription not found")
	}
	c := *s
	return &c, nil
}

func (r subscriptionRepo) Save(_ context.Context, s *subscription.Subscription) error {
	c := *s
	r.t.st.subscriptions[s.ProviderSubscriptionID] = &c
	return nil
}

type giftRepo struct{ t *memTx }

func (r giftRepo) FindByCodeForUpdate(_ context.Context, code string) (*gift.Code, error) {
	g, ok := r.t.st.gifts[code]
	if !ok {
		return nil, infra.NotFound("gift code not found")
	}
	c := *g
	return &c, nil
}

func (r giftRepo) HasRedeemed(_ context.Context, codeID, userID uuid.UUID) (bool, error) {
	_, ok := r.t.st.redemptions[redemptionKey{codeID, userID}]
	return ok, nil
}

func (r giftRepo) RecordRedemption(_ context.Context, codeID, userID uuid.UUID, at time.Time) error {
	key := redemptionKey{codeID, userID}
	if _, ok := r.t.st.redemptions[key]; ok {
		return infra.Duplicate("gift code already redeemed by user")
	}
	r.t.st.redemptions[key] = at
	for code, g := range r.t.st.gifts {
		if g.ID == codeID {
			c := *g
			c.Redemptions++
			r.t.st.gifts[code] = &c
		}
	}
	return nil
}

type couponRepo struct{ t *memTx }

func (r couponRepo) FindByCode(_ context.Context, code string) (*shared.CouponSnapshot, error) {
	for _, c := range r.t.st.coupons {
		if strings.EqualFold(c.Code, code) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, infra.NotFound("coupon not found")
}

func (r couponRepo) IncrementUses(_ context.Context, id uuid.UUID) error {
	for code, c := range r.t.st.coupons {
		if c.ID == id {
			cp := *c
			cp.Uses++
			r.t.st.coupons[code] = &cp
		}
	}
	return nil
}

type catalogRepo struct{ t *memTx }

func (r catalogRepo) PlanByID(_ context.Context, id uuid.UUID) (*shared.PlanSnapshot, error) {
	return lookup(r.t.st.plans, id, "plan not found")
}

func (r catalogRepo) EggByID(_ context.Context, id uuid.UUID) (*shared.EggSnapshot, error) {
	return lookup(r.t.st.eggs, id, "egg not found")
}

func (r catalogRepo) LocationByID(_ context.Context, id uuid.UUID) (*shared.LocationSnapshot, error) {
	return lookup(r.t.st.locations, id, "location not found")
}

func (r catalogRepo) ShopItemByID(_ context.Context, id uuid.UUID) (*shared.ShopItemSnapshot, error) {
	return lookup(r.t.st.shopItems, id, "shop item not found")
}

func lookup[T any](m map[uuid.UUID]*T, id uuid.UUID, msg string) (*T, error) {
	v, ok := m[id]
	if !ok {
		return nil, infra.NotFound(msg)
	}
	c := *v
	return &c, nil
}

type auditRepo struct{ t *memTx }

func (r auditRepo) Append(_ context.Context, e shared.AuditEvent) error {
	if err := r.t.fail("audit.append"); err != nil {
		return err
	}
	e.Payload = slices.Clone(e.Payload)
	r.t.st.audit = append(r.t.st.audit, e)
	return nil
}

type notificationRepo struct{ t *memTx }

func (r notificationRepo) CreateJob(_ context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	r.t.st.jobs = append(r.t.st.jobs, Job{Kind: kind, Topic: topic, Payload: slices.Clone(payload), RunAt: runAt})
	return nil
}
