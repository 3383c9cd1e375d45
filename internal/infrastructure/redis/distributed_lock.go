package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kvakb/szakdogarepo/internal/domain/reservation"
	"github.com/kvakb/szakdogarepo/internal/pkg/logger"
	"github.com/kvakb/szakdogarepo/internal/pkg/metrics"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
	ErrLockLost        = errors.New("処理中にロックを失いました")
)

// 所有者確認と削除をアトミックに実行する
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// DistributedLock は Redis を使用した分散ロック
type DistributedLock struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration
}

// LockManager は分散ロックを管理する
type LockManager struct {
	client     *redis.Client
	maxRetries int
	retryDelay time.Duration
}

func NewLockManager(client *redis.Client) *LockManager {
	return &LockManager{client: client, maxRetries: 3, retryDelay: 100 * time.Millisecond}
}

// AcquireLock はロックを取得する
func (m *LockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*DistributedLock, error) {
	lockKey := fmt.Sprintf("lock:%s", key)
	lockValue := uuid.New().String()

	// キーが存在しない場合のみ設定
	ok, err := m.client.SetNX(ctx, lockKey, lockValue, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	return &DistributedLock{
		client: m.client,
		key:    lockKey,
		value:  lockValue,
		ttl:    ttl,
	}, nil
}

// AcquireLockWithRetry はリトライ付きでロックを取得する
func (m *LockManager) AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (*DistributedLock, error) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		lock, err := m.AcquireLock(ctx, key, ttl)
		if err == nil {
			return lock, nil
		}
		lastErr = err
		if !errors.Is(err, ErrLockNotAcquired) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, lastErr
}

// WithLock はロックを取得して fn を実行し、終了後に解放する
// 取得できない場合は fn を実行せずに失敗する
// fn の実行中は ttl/3 ごとに有効期限を延長し、延長できなければ fn の ctx をキャンセルする
func (m *LockManager) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	start := time.Now()
	lock, err := m.AcquireLockWithRetry(ctx, key, ttl, m.maxRetries, m.retryDelay)
	if err != nil {
		metrics.ObserveLock("acquire", "failed", start)
		if errors.Is(err, ErrLockNotAcquired) {
			return fmt.Errorf("%w: %s", reservation.ErrLockBusy, key)
		}
		return fmt.Errorf("%w: %w", reservation.ErrStoreUnavailable, err)
	}
	metrics.ObserveLock("acquire", "success", start)

	defer func() {
		start := time.Now()
		// 呼び出し元がキャンセルされていても解放する
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			metrics.ObserveLock("release", "failed", start)
			logger.Warn("ロック解放に失敗", zap.String("key", key), zap.Error(err))
			return
		}
		metrics.ObserveLock("release", "success", start)
	}()

	lctx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		lock.keepAlive(lctx, cancel)
	}()

	err = fn(lctx)
	lost := errors.Is(context.Cause(lctx), ErrLockLost)
	cancel(nil)
	<-done

	if lost && err != nil {
		return fmt.Errorf("%w: %w: %s", reservation.ErrStoreUnavailable, ErrLockLost, key)
	}
	return err
}

// keepAlive は ctx が終了するまでロックを延長し続ける
func (l *DistributedLock) keepAlive(ctx context.Context, cancel context.CancelCauseFunc) {
	interval := l.ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Extend(ctx, l.ttl); err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("ロック延長に失敗", zap.String("key", l.key), zap.Error(err))
				cancel(fmt.Errorf("%w: %w", ErrLockLost, err))
				return
			}
		}
	}
}

// Release はロックを解放する
func (l *DistributedLock) Release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Int()
	if err != nil {
		return fmt.Errorf("ロック解放に失敗: %w", err)
	}
	if result == 0 {
		return ErrLockNotOwned
	}
	return nil
}

// Extend はロックの有効期限を延長する
func (l *DistributedLock) Extend(ctx context.Context, ttl time.Duration) error {
	result, err := extendScript.Run(ctx, l.client, []string{l.key}, l.value, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("ロック延長に失敗: %w", err)
	}
	if result == 0 {
		return ErrLockNotOwned
	}
	l.ttl = ttl
	return nil
}
