// Package lock provides named mutual exclusion, in process or across
// replicas through redis.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotAcquired = errors.New("lock: not acquired")

// Release gives a held lock back. Calling it more than once is harmless.
type Release func(ctx context.Context) error

type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// AcquireAll takes every key in sorted order so two callers asking for an
// overlapping set cannot deadlock. On failure nothing stays held.
func AcquireAll(ctx context.Context, l Locker, keys ...string) (Release, error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	held := make([]Release, 0, len(sorted))
	releaseAll := func(ctx context.Context) error {
		var errs []error
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	var prev string
	for i, key := range sorted {
		if i > 0 && key == prev {
			continue
		}
		prev = key
		release, err := l.Acquire(ctx, key)
		if err != nil {
			_ = releaseAll(context.WithoutCancel(ctx))
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		held = append(held, release)
	}
	return releaseAll, nil
}

var releaseScript = redis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
  return redis.call('del', KEYS[1])
else
  return 0
end
`)

// RedisLocker holds a key with SET NX PX and a random token; only the holder
// of the token can delete it. The TTL bounds how long a crashed holder blocks others.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

type RedisOption func(*RedisLocker)

func WithTTL(ttl time.Duration) RedisOption {
	return func(l *RedisLocker) { l.ttl = ttl }
}

// WithWait bounds how long Acquire polls for a busy key.
func WithWait(wait time.Duration) RedisOption {
	return func(l *RedisLocker) { l.wait = wait }
}

func NewRedisLocker(client *redis.Client, prefix string, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client: client,
		prefix: prefix,
		ttl:    10 * time.Second,
		wait:   3 * time.Second,
		retry:  25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock: redis: %w", err)
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return nil, ErrNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() {
			err = releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err()
		})
		return err
	}, nil
}

// LocalLocker serializes callers inside one process. A slot lives only while
// someone holds or waits for its key.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*localSlot
	wait  time.Duration
}

type localSlot struct {
	ch   chan struct{}
	refs int
}

type LocalOption func(*LocalLocker)

// WithLocalWait bounds how long Acquire waits for a busy key.
func WithLocalWait(wait time.Duration) LocalOption {
	return func(l *LocalLocker) { l.wait = wait }
}

func NewLocalLocker(opts ...LocalOption) *LocalLocker {
	l := &LocalLocker{
		slots: make(map[string]*localSlot),
		wait:  3 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *LocalLocker) join(key string) *localSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &localSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) leave(key string, s *localSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (Release, error) {
	s := l.join(key)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.leave(key, s)
		return nil, ctx.Err()
	case <-timer.C:
		l.leave(key, s)
		return nil, ErrNotAcquired
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-s.ch
			l.leave(key, s)
		})
		return nil
	}, nil
}
