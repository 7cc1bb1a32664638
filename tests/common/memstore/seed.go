//go:build unit || e2e

package memstore

import (
	"slices"

	"hostdash/internal/domain/gift"
	"hostdash/internal/domain/grant"
	"hostdash/internal/domain/payment"
	"hostdash/internal/domain/server"
	"hostdash/internal/domain/subscription"
	"hostdash/internal/domain/user"
	"hostdash/internal/usecase/shared"

	"github.com/google/uuid"
)

func (s *Store) with(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.st)
}

func (s *Store) PutUser(u *user.User) {
	s.with(func(st *state) { st.users[u.ID()] = cloneUser(u) })
}

func (s *Store) PutGrant(g *grant.Grant) {
	s.with(func(st *state) {
		st.seq++
		st.grants[g.ID()] = cloneGrant(g)
		st.grantSeq[g.ID()] = st.seq
	})
}

func (s *Store) PutServer(srv *server.Server) {
	s.with(func(st *state) { st.servers[srv.ID()] = cloneServer(srv) })
}

func (s *Store) PutPayment(p *payment.Payment) {
	s.with(func(st *state) { st.payments[p.ID()] = clonePayment(p) })
}

func (s *Store) PutSubscription(sub *subscription.Subscription) {
	s.with(func(st *state) {
		c := *sub
		st.subscriptions[sub.ProviderSubscriptionID] = &c
	})
}

func (s *Store) PutGift(g gift.Code) {
	s.with(func(st *state) { st.gifts[g.Code] = &g })
}

func (s *Store) PutCoupon(c shared.CouponSnapshot) {
	s.with(func(st *state) { st.coupons[c.Code] = &c })
}

func (s *Store) PutPlan(p shared.PlanSnapshot) {
	s.with(func(st *state) { st.plans[p.ID] = &p })
}

func (s *Store) PutEgg(e shared.EggSnapshot) {
	s.with(func(st *state) { st.eggs[e.ID] = &e })
}

func (s *Store) PutLocation(l shared.LocationSnapshot) {
	s.with(func(st *state) { st.locations[l.ID] = &l })
}

func (s *Store) PutShopItem(i shared.ShopItemSnapshot) {
	s.with(func(st *state) { st.shopItems[i.ID] = &i })
}

func (s *Store) User(id uuid.UUID) *user.User {
	var out *user.User
	s.with(func(st *state) {
		if u, ok := st.users[id]; ok {
			out = cloneUser(u)
		}
	})
	return out
}

func (s *Store) Server(id uuid.UUID) *server.Server {
	var out *server.Server
	s.with(func(st *state) {
		if srv, ok := st.servers[id]; ok {
			out = cloneServer(srv)
		}
	})
	return out
}

func (s *Store) ServersOf(ownerID uuid.UUID) []*server.Server {
	var out []*server.Server
	s.with(func(st *state) {
		for _, srv := range st.servers {
			if srv.OwnerID() == ownerID {
				out = append(out, cloneServer(srv))
			}
		}
	})
	return out
}

func (s *Store) Payment(id uuid.UUID) *payment.Payment {
	var out *payment.Payment
	s.with(func(st *state) {
		if p, ok := st.payments[id]; ok {
			out = clonePayment(p)
		}
	})
	return out
}

func (s *Store) GrantsOf(userID uuid.UUID) []*grant.Grant {
	var out []*grant.Grant
	s.with(func(st *state) {
		for _, g := range st.grants {
			if g.UserID() == userID {
				out = append(out, cloneGrant(g))
			}
		}
	})
	return out
}

func (s *Store) Gift(code string) *gift.Code {
	var out *gift.Code
	s.with(func(st *state) {
		if g, ok := st.gifts[code]; ok {
			c := *g
			out = &c
		}
	})
	return out
}

func (s *Store) Coupon(code string) *shared.CouponSnapshot {
	var out *shared.CouponSnapshot
	s.with(func(st *state) {
		if c, ok := st.coupons[code]; ok {
			cp := *c
			out = &cp
		}
	})
	return out
}

func (s *Store) Subscription(providerID string) *subscription.Subscription {
	var out *subscription.Subscription
	s.with(func(st *state) {
		if sub, ok := st.subscriptions[providerID]; ok {
			c := *sub
			out = &c
		}
	})
	return out
}

func (s *Store) WebhookEvents() int {
	var n int
	s.with(func(st *state) { n = len(st.webhookEvents) })
	return n
}

func (s *Store) AuditEvents() []shared.AuditEvent {
	var out []shared.AuditEvent
	s.with(func(st *state) { out = slices.Clone(st.audit) })
	return out
}

func (s *Store) Jobs() []Job {
	var out []Job
	s.with(func(st *state) { out = slices.Clone(st.jobs) })
	return out
}
