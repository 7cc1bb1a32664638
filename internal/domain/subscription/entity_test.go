//go:build unit

package subscription_test

import (
	"testing"
	"time"

	"hostdash/internal/domain/subscription"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitions(t *testing.T) {
	now := time.Now()
	cases := []struct {
		from, to subscription.Status
		ok       bool
	}{
		{subscription.StatusIncomplete, subscription.StatusActive, true},
		{subscription.StatusActive, subscription.StatusPaused, true},
		{subscription.StatusActive, subscription.StatusCanceled, true},
		{subscription.StatusPaused, subscription.StatusActive, true},
		{subscription.StatusPaused, subscription.StatusCanceled, true},
		{subscription.StatusCanceled, subscription.StatusActive, false},
		{subscription.StatusIncomplete, subscription.StatusPaused, false},
		{subscription.StatusActive, subscription.StatusIncomplete, false},
	}
	for _, c := range cases {
		t.Run(string(c.from)+"->"+string(c.to), func(t *testing.T) {
			s := subscription.New("I-SUB", nil, nil, now)
			s.Status = c.from
			err := s.TransitionTo(c.to, now)
			if c.ok {
				require.NoError(t, err)
				assert.Equal(t, c.to, s.Status)
			} else {
				assert.ErrorIs(t, err, subscription.ErrInvalidTransition)
				assert.Equal(t, c.from, s.Status)
			}
		})
	}
}
