package lock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T, opts ...RedisOption) (*RedisLocker, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLocker(client, "lock:", opts...), mr
}

func TestRedisLocker_ExclusiveUntilReleased(t *testing.T) {
	l, mr := newRedisLocker(t, WithWait(50*time.Millisecond))
	ctx := context.Background()

	release, err := l.Acquire(ctx, "post:1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:post:1"))

	_, err = l.Acquire(ctx, "post:1")
	assert.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("lock:post:1"))

	release, err = l.Acquire(ctx, "post:1")
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestRedisLocker_ReleaseDoesNotStealAnotherHoldersKey(t *testing.T) {
	l, mr := newRedisLocker(t, WithTTL(time.Second), WithWait(0))
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "post:2")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	fresh, err := l.Acquire(ctx, "post:2")
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists("lock:post:2"))

	require.NoError(t, fresh(ctx))
	assert.False(t, mr.Exists("lock:post:2"))
}

func TestAcquireAll_ReleasesOnFailure(t *testing.T) {
	l, mr := newRedisLocker(t, WithWait(0))
	ctx := context.Background()

	blocker, err := l.Acquire(ctx, "schedule:u1:x")
	require.NoError(t, err)

	_, err = AcquireAll(ctx, l, "schedule:u1:x", "post:3", "schedule:u1:instagram")
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.False(t, mr.Exists("lock:post:3"))
	assert.False(t, mr.Exists("lock:schedule:u1:instagram"))

	require.NoError(t, blocker(ctx))
}

func TestAcquireAll_DeduplicatesKeys(t *testing.T) {
	l := NewLocalLocker()

	release, err := AcquireAll(context.Background(), l, "a", "b", "a")
	require.NoError(t, err)
	require.NoError(t, release(context.Background()))
}

func TestLocalLocker_Serializes(t *testing.T) {
	l := NewLocalLocker()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "post:9")
			require.NoError(t, err)
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			_ = release(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestLocalLocker_HonorsContext(t *testing.T) {
	l := NewLocalLocker()
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLocalLocker_WaitIsBounded(t *testing.T) {
	l := NewLocalLocker(WithLocalWait(20 * time.Millisecond))
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)

	start := time.Now()
	_, err = l.Acquire(context.Background(), "k")
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.Less(t, time.Since(start), time.Second)

	require.NoError(t, release(context.Background()))
	release, err = l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	require.NoError(t, release(context.Background()))
}

func TestLocalLocker_WaiterGetsKeyOnRelease(t *testing.T) {
	l := NewLocalLocker()
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)

	got := make(chan error, 1)
	go func() {
		r, err := l.Acquire(context.Background(), "k")
		if err == nil {
			err = r(context.Background())
		}
		got <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, release(context.Background()))
	select {
	case err := <-got:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never acquired the key")
	}
}

func TestLocalLocker_DropsIdleSlots(t *testing.T) {
	l := NewLocalLocker(WithLocalWait(10 * time.Millisecond))

	for i := 0; i < 50; i++ {
		release, err := l.Acquire(context.Background(), fmt.Sprintf("post:%d", i))
		require.NoError(t, err)
		require.NoError(t, release(context.Background()))
		// Release is idempotent and must not unbalance the slot count
		require.NoError(t, release(context.Background()))
	}

	held, err := l.Acquire(context.Background(), "busy")
	require.NoError(t, err)
	_, err = l.Acquire(context.Background(), "busy")
	require.ErrorIs(t, err, ErrNotAcquired)
	require.NoError(t, held(context.Background()))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.slots)
}
