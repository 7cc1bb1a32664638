package lock

import (
	"context"
	"log/slog"
	"time"

	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/commands"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix      = "hostdash:lock:"
	pollInterval   = 50 * time.Millisecond
	releaseTimeout = 2 * time.Second
)

var errHeld = errs.New("lock held by another holder")

// releaseScript deletes the key only while it still carries the holder's token, so an
// expired lock taken over by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker is a lease lock shared by every instance pointed at the same Redis.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

var _ commands.Locker = (*RedisLocker)(nil)

// Lock polls until the key is free or ctx ends.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	acquire := func() error {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return backoff.Permanent(errs.Wrap(err, "acquire lock"))
		}
		if !ok {
			return errHeld
		}
		return nil
	}
	policy := backoff.WithContext(backoff.NewConstantBackOff(pollInterval), ctx)
	if err := backoff.Retry(acquire, policy); err != nil {
		if ctx.Err() != nil {
			return nil, errs.Wrap(ctx.Err(), "wait for lock")
		}
		return nil, err
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
			slog.Warn("failed to release lock", "key", key, "error", err)
		}
	}, nil
}
