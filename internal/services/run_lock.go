// internal/services/run_lock.go
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/biologist/catalog-backend/internal/config"
)

var (
	// ErrImportInProgress is returned when another run holds the named lock.
	ErrImportInProgress = errors.New("an import is already running")
	// ErrImportLockLost is the cancellation cause once a held lock expires
	// or can no longer be refreshed.
	ErrImportLockLost = errors.New("import lock lost")
)

// RunLock serializes import runs. Acquire fails fast with
// ErrImportInProgress instead of waiting. The returned context is derived
// from ctx and is cancelled when the lock is released or lost; work done
// under the lock must use it.
type RunLock interface {
	Acquire(ctx context.Context, name string) (held context.Context, release func(), err error)
	Close() error
}

// NewRunLock builds the backend selected by IMPORT_LOCK_BACKEND. Callers
// own the returned lock and must Close it.
func NewRunLock(cfg *config.Config) (RunLock, error) {
	switch cfg.Import.LockBackend {
	case "postgres":
		return NewPostgresRunLock(cfg.Database.URL())
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedisRunLock(client, cfg.Import.LockTTL), nil
	default:
		return NewLocalRunLock(), nil
	}
}

// LocalRunLock only guards runs within this process.
type LocalRunLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalRunLock() *LocalRunLock {
	return &LocalRunLock{held: make(map[string]bool)}
}

func (l *LocalRunLock) Acquire(ctx context.Context, name string) (context.Context, func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[name] {
		return nil, nil, ErrImportInProgress
	}
	l.held[name] = true

	held, cancel := context.WithCancel(ctx)
	var once sync.Once
	return held, func() {
		once.Do(func() {
			cancel()
			l.mu.Lock()
			delete(l.held, name)
			l.mu.Unlock()
		})
	}, nil
}

func (l *LocalRunLock) Close() error {
	return nil
}

// PostgresRunLock uses a session-level advisory lock, held on a dedicated
// connection until release. The lock lives as long as the session, so no
// refresh is needed.
type PostgresRunLock struct {
	db *sql.DB
}

func NewPostgresRunLock(dsn string) (*PostgresRunLock, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock connection: %w", err)
	}
	db.SetMaxOpenConns(4)
	return &PostgresRunLock{db: db}, nil
}

func (p *PostgresRunLock) Acquire(ctx context.Context, name string) (context.Context, func(), error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get lock connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", name).Scan(&acquired); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}
	if !acquired {
		conn.Close()
		return nil, nil, ErrImportInProgress
	}

	held, cancel := context.WithCancel(ctx)
	var once sync.Once
	return held, func() {
		once.Do(func() {
			cancel()
			if _, err := conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock(hashtext($1))", name); err != nil {
				logrus.WithError(err).WithField("lock", name).Error("Failed to release advisory lock")
			}
			conn.Close()
		})
	}, nil
}

func (p *PostgresRunLock) Close() error {
	return p.db.Close()
}

// redisLocker is the part of the redis client the lock uses.
type redisLocker interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Close() error
}

// RedisRunLock stores a random token under the lock key with a TTL, so a
// crashed holder cannot block imports forever. While held, the TTL is
// extended every third of its length; if an extension fails the held
// context is cancelled with ErrImportLockLost.
type RedisRunLock struct {
	client redisLocker
	ttl    time.Duration
}

var (
	releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)
	extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)
)

func NewRedisRunLock(client redisLocker, ttl time.Duration) *RedisRunLock {
	return &RedisRunLock{client: client, ttl: ttl}
}

func (r *RedisRunLock) Acquire(ctx context.Context, name string) (context.Context, func(), error) {
	key := "lock:" + name
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to acquire redis lock: %w", err)
	}
	if !ok {
		return nil, nil, ErrImportInProgress
	}

	held, cancel := context.WithCancelCause(ctx)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.keepAlive(held, cancel, stop, key, token)
	}()

	var once sync.Once
	return held, func() {
		once.Do(func() {
			close(stop)
			<-done
			cancel(nil)
			if err := releaseScript.Run(context.Background(), r.client, []string{key}, token).Err(); err != nil {
				logrus.WithError(err).WithField("lock", name).Error("Failed to release redis lock")
			}
		})
	}, nil
}

func (r *RedisRunLock) keepAlive(held context.Context, cancel context.CancelCauseFunc, stop <-chan struct{}, key, token string) {
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-held.Done():
			return
		case <-ticker.C:
			ctx, cancelCall := context.WithTimeout(context.Background(), r.ttl/3)
			extended, err := extendScript.Run(ctx, r.client, []string{key}, token, r.ttl.Milliseconds()).Int64()
			cancelCall()
			if err == nil && extended == 0 {
				err = ErrImportLockLost
			}
			if err != nil {
				logrus.WithError(err).WithField("lock", key).Error("Import lock could not be extended")
				cancel(ErrImportLockLost)
				return
			}
		}
	}
}

func (r *RedisRunLock) Close() error {
	return r.client.Close()
}
