package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Locker runs fn while holding the named lock.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(context.Context) error) error
}

// Options tunes distributed lock acquisition.
type Options struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		Expiry:     10 * time.Second,
		Tries:      64,
		RetryDelay: 50 * time.Millisecond,
	}
}

// RedisLocker is a Locker shared by every API replica pointing at the same Redis.
type RedisLocker struct {
	rs   *redsync.Redsync
	opts Options
}

func NewRedisLocker(rdb redis.UniversalClient, opts Options) *RedisLocker {
	if opts.Expiry <= 0 {
		opts.Expiry = DefaultOptions().Expiry
	}
	if opts.Tries < 1 {
		opts.Tries = DefaultOptions().Tries
	}
	return &RedisLocker{rs: redsync.New(goredis.NewPool(rdb)), opts: opts}
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	m := l.rs.NewMutex(key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)
	if err := m.LockContext(ctx); err != nil {
		return fmt.Errorf("lock: acquire %s: %w", key, err)
	}
	defer func() {
		if ok, err := m.UnlockContext(context.Background()); err != nil || !ok {
			log.Warn().Err(err).Str("key", key).Msg("lock: release failed or lock already expired")
		}
	}()
	return fn(ctx)
}

// LocalLocker serializes callers inside one process. Used when Redis is not configured.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[key] = s
	}
	return s
}

func (l *LocalLocker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	s := l.slot(key)
	select {
	case s <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("lock: acquire %s: %w", key, ctx.Err())
	}
	defer func() { <-s }()
	return fn(ctx)
}
