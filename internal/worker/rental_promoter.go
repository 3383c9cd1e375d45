package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kvakb/szakdogarepo/internal/pkg/clock"
)

// RentalActivator は開始日を迎えたレンタルを active にするインターフェース
type RentalActivator interface {
	PromoteDueRentals(ctx context.Context, now time.Time) (int, error)
}

// RentalPromoter は upcoming のレンタルを定期的に active へ進めるワーカー
type RentalPromoter struct {
	*periodic
	activator RentalActivator
	clock     clock.Clock
}

func NewRentalPromoter(a RentalActivator, c clock.Clock, interval time.Duration) *RentalPromoter {
	if c == nil {
		c = clock.NewSystem()
	}
	p := &RentalPromoter{activator: a, clock: c}
	p.periodic = newPeriodic("rental-promoter", interval, p.runOnce)
	return p
}

func (p *RentalPromoter) runOnce(ctx context.Context) {
	count, err := p.activator.PromoteDueRentals(ctx, p.clock.Now())
	if err != nil {
		p.log.Error("レンタルの開始処理に失敗", zap.Error(err))
		return
	}
	p.log.Info("レンタルの開始処理", zap.Int("promoted", count))
}
