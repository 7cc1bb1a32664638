package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"hostdash/internal/infra/lock"
	"hostdash/internal/pkg/config"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/commands"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var LockModule = fx.Module("lock",
	fx.Provide(
		NewLocker,
	),
)

// NewLocker uses Redis when REDIS_ADDR is set so every replica shares provisioning locks.
// Without it locks are process-local, which is only safe for a single replica.
func NewLocker(lc fx.Lifecycle, cfg config.Config) (commands.Locker, error) {
	if cfg.Redis.Addr == "" {
		slog.Warn("REDIS_ADDR not set, provisioning locks are process-local")
		return lock.NewLocalLocker(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errs.Wrap(err, "connect to redis")
	}
	slog.Info("Redis connection established", "addr", cfg.Redis.Addr)

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			slog.Info("Closing Redis connection")
			return client.Close()
		},
	})
	return lock.NewRedisLocker(client, cfg.Redis.LockTTL), nil
}
