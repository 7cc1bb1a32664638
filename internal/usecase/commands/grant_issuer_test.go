//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/domain/grant"
	"hostdash/internal/pkg/clock"
	"hostdash/internal/usecase/commands"
	"hostdash/internal/usecase/shared"
	"hostdash/tests/common/builder"
	"hostdash/tests/common/memstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planGrant(userID uuid.UUID, cycle grant.BillingCycle) grant.NewParams {
	return grant.NewParams{
		UserID:       userID,
		Source:       grant.SourcePlan,
		SourceRef:    uuid.NewString(),
		Amount:       builder.NewPlan().Amount,
		BillingCycle: cycle,
		PurchasedAt:  testNow,
	}
}

func issue(t *testing.T, store *memstore.Store, issuer *commands.GrantIssuer, p grant.NewParams) *commands.ApplyResult {
	t.Helper()
	res, err := shared.RunInTx(context.Background(), store, func(ctx context.Context, tx shared.Tx) (*commands.ApplyResult, error) {
		return issuer.Issue(ctx, tx, p)
	})
	require.NoError(t, err)
	return res
}

func TestGrantIssuer_IssueIsIdempotentPerSource(t *testing.T) {
	store := memstore.New()
	owner := builder.NewUserBuilder()
	store.PutUser(owner.BuildDomain())
	issuer := commands.NewGrantIssuer(store, clock.NewMockClock(testNow))
	params := planGrant(owner.ID, grant.CycleMonthly)

	first := issue(t, store, issuer, params)
	second := issue(t, store, issuer, params)

	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Grant.ID(), second.Grant.ID())
	assert.Len(t, store.GrantsOf(owner.ID), 1)
	assert.Equal(t, owner.Totals.MemoryMB+2048, store.User(owner.ID).Totals().MemoryMB)
}

func TestGrantIssuer_IssueRollsBackTogether(t *testing.T) {
	store := memstore.New()
	owner := builder.NewUserBuilder()
	store.PutUser(owner.BuildDomain())
	issuer := commands.NewGrantIssuer(store, clock.NewMockClock(testNow))
	store.FailOn("grants.update", errors.New("serialization failure"))

	err := store.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		_, err := issuer.Issue(ctx, tx, planGrant(owner.ID, grant.CycleMonthly))
		return err
	})

	require.Error(t, err)
	assert.Empty(t, store.GrantsOf(owner.ID))
	assert.Equal(t, owner.Totals, store.User(owner.ID).Totals())
}

func TestGrantIssuer_ExpireGrants(t *testing.T) {
	store := memstore.New()
	owner := builder.NewUserBuilder()
	store.PutUser(owner.BuildDomain())
	clk := clock.NewMockClock(testNow)
	issuer := commands.NewGrantIssuer(store, clk)

	monthly := issue(t, store, issuer, planGrant(owner.ID, grant.CycleMonthly))
	annual := issue(t, store, issuer, planGrant(owner.ID, grant.CycleAnnual))
	coins := issue(t, store, issuer, grant.NewParams{
		UserID:      owner.ID,
		Source:      grant.SourceGift,
		SourceRef:   "gift-1",
		Amount:      grant.Amount{Coins: 5},
		PurchasedAt: testNow,
	})
	require.True(t, coins.Grant.IsLifetime())

	clk.Set(testNow.AddDate(0, 1, 1))
	n, err := issuer.ExpireGrants(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)

	statuses := map[uuid.UUID]grant.Status{}
	for _, g := range store.GrantsOf(owner.ID) {
		statuses[g.ID()] = g.Status()
	}
	assert.Equal(t, grant.StatusExpired, statuses[monthly.Grant.ID()])
	assert.Equal(t, grant.StatusActive, statuses[annual.Grant.ID()])
	assert.Equal(t, grant.StatusActive, statuses[coins.Grant.ID()])

	totals := store.User(owner.ID).Totals()
	want := owner.Totals.Resources.Add(entitlement.Resources{
		MemoryMB:    2048,
		DiskMB:      10240,
		CPUPercent:  100,
		Backups:     2,
		Databases:   2,
		Allocations: 2,
	})
	assert.Equal(t, want, totals.Resources)
	assert.Equal(t, owner.Totals.ServerSlots+2, totals.ServerSlots)
	assert.Equal(t, int64(5), store.User(owner.ID).Coins())

	again, err := issuer.ExpireGrants(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestGrantIssuer_ExpireGrantsSkipsFailures(t *testing.T) {
	store := memstore.New()
	owner := builder.NewUserBuilder()
	store.PutUser(owner.BuildDomain())
	clk := clock.NewMockClock(testNow)
	issuer := commands.NewGrantIssuer(store, clk)
	issue(t, store, issuer, planGrant(owner.ID, grant.CycleMonthly))
	issue(t, store, issuer, planGrant(owner.ID, grant.CycleMonthly))

	clk.Set(testNow.Add(90 * 24 * time.Hour))
	store.FailOn("users.update", errors.New("lock timeout"))
	n, err := issuer.ExpireGrants(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = issuer.ExpireGrants(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
