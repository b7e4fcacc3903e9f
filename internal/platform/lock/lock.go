// Package lock provides a Redis-backed mutex for work that must run on one
// instance at a time.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrBusy is returned when another holder keeps the lock past the wait time.
var ErrBusy = errors.New("lock is held by another process")

type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	logger zerolog.Logger
}

// New returns a locker whose locks expire after ttl unless refreshed. Obtain
// retries for up to wait before giving up with ErrBusy.
func New(rdb redis.UniversalClient, ttl, wait time.Duration, logger zerolog.Logger) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		wait:   wait,
		logger: logger,
	}
}

// Do runs fn while holding key. The lock is refreshed at half its TTL so long
// running work keeps ownership; fn's context is cancelled if a refresh fails.
func (l *RedisLocker) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(500*time.Millisecond), int(l.wait/(500*time.Millisecond))),
	}
	lk, err := l.client.Obtain(ctx, key, l.ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return fmt.Errorf("%s: %w", key, ErrBusy)
	}
	if err != nil {
		return fmt.Errorf("obtain lock %s: %w", key, err)
	}
	l.logger.Debug().Str("key", key).Dur("ttl", l.ttl).Msg("lock obtained")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(l.ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := lk.Refresh(runCtx, l.ttl, nil); err != nil {
					l.logger.Error().Err(err).Str("key", key).Msg("lock refresh failed")
					cancel()
					return
				}
			}
		}
	}()

	err = fn(runCtx)
	close(done)

	// Release with a fresh context so a cancelled caller still frees the key.
	relCtx, relCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer relCancel()
	if relErr := lk.Release(relCtx); relErr != nil && !errors.Is(relErr, redislock.ErrLockNotHeld) {
		l.logger.Warn().Err(relErr).Str("key", key).Msg("lock release failed")
	}
	return err
}
