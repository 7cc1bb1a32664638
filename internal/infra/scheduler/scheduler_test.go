//go:build unit

package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hostdash/internal/infra/scheduler"
	"hostdash/internal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	n   int
	err error
}

func (f *fakeExpirer) ExpireGrants(context.Context) (int, error) { return f.n, f.err }

type fakeRecorder struct{ total int }

func (r *fakeRecorder) AddExpiredGrants(n int) { r.total += n }

func TestScheduler_SweepExpiredGrants(t *testing.T) {
	tests := []struct {
		name    string
		expirer *fakeExpirer
		want    int
	}{
		{name: "records expired count", expirer: &fakeExpirer{n: 3}, want: 3},
		{name: "nothing expired", expirer: &fakeExpirer{}, want: 0},
		{name: "partial progress before failure", expirer: &fakeExpirer{n: 2, err: errors.New("db down")}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			s, err := scheduler.New(config.SchedulerConfig{GrantExpirySpec: "@every 1h"}, tt.expirer, rec)
			require.NoError(t, err)

			s.SweepExpiredGrants()
			assert.Equal(t, tt.want, rec.total)
		})
	}
}

func TestScheduler_RejectsInvalidSpec(t *testing.T) {
	_, err := scheduler.New(config.SchedulerConfig{GrantExpirySpec: "every now and then"}, &fakeExpirer{}, nil)
	require.Error(t, err)
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := scheduler.New(config.SchedulerConfig{GrantExpirySpec: "@every 1h"}, &fakeExpirer{}, nil)
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
