// internal/services/run_lock_test.go
package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRunLock(t *testing.T) {
	lock := NewLocalRunLock()
	ctx := context.Background()

	held, release, err := lock.Acquire(ctx, "catalog-import")
	require.NoError(t, err)

	_, _, err = lock.Acquire(ctx, "catalog-import")
	assert.ErrorIs(t, err, ErrImportInProgress)

	_, other, err := lock.Acquire(ctx, "other")
	require.NoError(t, err)
	other()

	release()
	release()
	assert.Error(t, held.Err())

	_, again, err := lock.Acquire(ctx, "catalog-import")
	require.NoError(t, err)
	again()
}

func TestLocalRunLockSingleWinner(t *testing.T) {
	lock := NewLocalRunLock()
	var winners int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, _, err := lock.Acquire(context.Background(), "catalog-import"); err == nil {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners)
}

func TestNewRunLockDefaultsToLocal(t *testing.T) {
	lock, err := NewRunLock(testConfig(t))
	require.NoError(t, err)
	assert.IsType(t, &LocalRunLock{}, lock)
	assert.NoError(t, lock.Close())
}

// fakeRedis runs the lock scripts against an in-memory map.
type fakeRedis struct {
	mu      sync.Mutex
	values  map[string]string
	extends int
	closed  bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string)}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	owned := f.values[keys[0]] == args[0]
	switch sha1 {
	case extendScript.Hash():
		if !owned {
			return redis.NewCmdResult(int64(0), nil)
		}
		f.extends++
		return redis.NewCmdResult(int64(1), nil)
	case releaseScript.Hash():
		if !owned {
			return redis.NewCmdResult(int64(0), nil)
		}
		delete(f.values, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(nil, errors.New("unknown script"))
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return redis.NewCmdResult(nil, errors.New("eval not supported"))
}

func (f *fakeRedis) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return f.Eval(ctx, script, keys, args...)
}

func (f *fakeRedis) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return f.EvalSha(ctx, sha1, keys, args...)
}

func (f *fakeRedis) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (f *fakeRedis) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func (f *fakeRedis) extendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.extends
}

func (f *fakeRedis) set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}

func (f *fakeRedis) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.values[key]
	return ok
}

func TestRedisRunLockExtendsWhileHeld(t *testing.T) {
	client := newFakeRedis()
	lock := NewRedisRunLock(client, 30*time.Millisecond)

	held, release, err := lock.Acquire(context.Background(), "catalog-import")
	require.NoError(t, err)

	_, _, err = lock.Acquire(context.Background(), "catalog-import")
	assert.ErrorIs(t, err, ErrImportInProgress)

	assert.Eventually(t, func() bool { return client.extendCount() >= 3 }, time.Second, 5*time.Millisecond)
	assert.NoError(t, held.Err())

	release()
	release()
	assert.False(t, client.has("lock:catalog-import"))
	assert.ErrorIs(t, context.Cause(held), context.Canceled)

	require.NoError(t, lock.Close())
	assert.True(t, client.closed)
}

func TestRedisRunLockCancelsWhenLost(t *testing.T) {
	client := newFakeRedis()
	lock := NewRedisRunLock(client, 30*time.Millisecond)

	held, release, err := lock.Acquire(context.Background(), "catalog-import")
	require.NoError(t, err)
	defer release()

	// another holder took over after expiry
	client.set("lock:catalog-import", "someone-else")

	select {
	case <-held.Done():
	case <-time.After(time.Second):
		t.Fatal("held context was not cancelled after the lock was lost")
	}
	assert.ErrorIs(t, context.Cause(held), ErrImportLockLost)

	release()
	assert.True(t, client.has("lock:catalog-import"))
}
