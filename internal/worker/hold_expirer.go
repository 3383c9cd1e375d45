package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kvakb/szakdogarepo/internal/pkg/clock"
)

// HoldSweeper は期限切れの保留中予約を削除するインターフェース
type HoldSweeper interface {
	ExpireStaleHolds(ctx context.Context, now time.Time, ttl time.Duration) (int, error)
}

// HoldExpirer は作成から TTL を過ぎた保留中予約を定期的に削除するワーカー
type HoldExpirer struct {
	*periodic
	sweeper HoldSweeper
	clock   clock.Clock
	ttl     time.Duration
}

func NewHoldExpirer(s HoldSweeper, c clock.Clock, interval, ttl time.Duration) *HoldExpirer {
	if c == nil {
		c = clock.NewSystem()
	}
	e := &HoldExpirer{sweeper: s, clock: c, ttl: ttl}
	e.periodic = newPeriodic("hold-expirer", interval, e.runOnce)
	return e
}

func (e *HoldExpirer) runOnce(ctx context.Context) {
	count, err := e.sweeper.ExpireStaleHolds(ctx, e.clock.Now(), e.ttl)
	if err != nil {
		e.log.Error("保留中予約の失効処理に失敗", zap.Error(err))
		return
	}
	if count > 0 {
		e.log.Info("期限切れの保留中予約を削除", zap.Int("count", count), zap.Duration("ttl", e.ttl))
	} else {
		e.log.Debug("期限切れの保留中予約なし")
	}
}
