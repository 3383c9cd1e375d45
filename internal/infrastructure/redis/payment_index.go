package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPaymentIndexTTL は処理済み決済の保持期間
const DefaultPaymentIndexTTL = 7 * 24 * time.Hour

// PaymentIndex は決済参照IDと確定済みレンタルIDの対応を保持する
// Webhook の再送を永続化層に問い合わせる前に判定するための補助で、正はストア側
type PaymentIndex struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPaymentIndex は新しいPaymentIndexインスタンスを作成する
func NewPaymentIndex(client *redis.Client, ttl time.Duration) *PaymentIndex {
	if ttl <= 0 {
		ttl = DefaultPaymentIndexTTL
	}
	return &PaymentIndex{client: client, ttl: ttl}
}

// Lookup は決済参照IDに対応するレンタルIDを返す（未登録なら空文字）
func (c *PaymentIndex) Lookup(ctx context.Context, paymentReference string) (string, error) {
	val, err := c.client.Get(ctx, c.key(paymentReference)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("決済インデックスの取得に失敗: %w", err)
	}
	return val, nil
}

// Remember は決済参照IDとレンタルIDの対応を保存する
func (c *PaymentIndex) Remember(ctx context.Context, paymentReference, rentalID string) error {
	if err := c.client.Set(ctx, c.key(paymentReference), rentalID, c.ttl).Err(); err != nil {
		return fmt.Errorf("決済インデックスの保存に失敗: %w", err)
	}
	return nil
}

func (c *PaymentIndex) key(paymentReference string) string {
	return fmt.Sprintf("payments:processed:%s", paymentReference)
}
