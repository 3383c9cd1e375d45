package application

import (
	"context"
	"time"
)

// Locker は機材単位でチェックと書き込みを直列化する
// ロックが取得できない場合は reservation.ErrLockBusy を返す
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// PaymentIndex は決済参照IDから確定済みレンタルIDを引く高速経路
// 見つからない場合は空文字を返す
type PaymentIndex interface {
	Lookup(ctx context.Context, paymentReference string) (string, error)
	Remember(ctx context.Context, paymentReference, rentalID string) error
}

const (
	defaultStoreTimeout = 3 * time.Second
	defaultLockTTL      = 10 * time.Second
)

// withTimeout はストア呼び出しごとのタイムアウトを設定する
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultStoreTimeout
	}
	return context.WithTimeout(ctx, d)
}

func equipmentLockKey(equipmentID string) string {
	return "equipment:" + equipmentID
}
