//go:build unit

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPanelConfig_WorstCaseCall(t *testing.T) {
	cfg := PanelConfig{RequestTimeout: 20 * time.Second, MaxRetries: 2, RetryBase: 500 * time.Millisecond}

	// three attempts plus 500ms and 1s of backoff
	assert.Equal(t, 61500*time.Millisecond, cfg.WorstCaseCall())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "test config is valid",
			mutate: func(*Config) {},
		},
		{
			name:    "panel timeout below range",
			mutate:  func(c *Config) { c.Panel.RequestTimeout = 5 * time.Second },
			wantErr: "PANEL_REQUEST_TIMEOUT",
		},
		{
			name: "lock lease shorter than a create",
			mutate: func(c *Config) {
				c.Redis.Addr = "localhost:6379"
				c.Redis.LockTTL = 60 * time.Second
			},
			wantErr: "REDIS_LOCK_TTL",
		},
		{
			name: "lock lease ignored without redis",
			mutate: func(c *Config) {
				c.Redis.LockTTL = time.Second
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewTestConfig()
			tt.mutate(&cfg)

			err := cfg.validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
