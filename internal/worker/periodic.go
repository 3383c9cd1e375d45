package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kvakb/szakdogarepo/internal/pkg/logger"
)

// periodic は起動直後に1回、その後は interval ごとに run を実行する
type periodic struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context)
	log      *zap.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func newPeriodic(name string, interval time.Duration, run func(ctx context.Context)) *periodic {
	return &periodic{
		name:     name,
		interval: interval,
		run:      run,
		log:      logger.Component(name),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はワーカーを開始し、停止されるまでブロックする
func (p *periodic) Start(ctx context.Context) {
	p.log.Info("ワーカー開始", zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer close(p.doneCh)

	p.run(ctx)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("ワーカー停止（コンテキストキャンセル）")
			return
		case <-p.stopCh:
			p.log.Info("ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			p.run(ctx)
		}
	}
}

// Stop はワーカーを停止し、実行中の処理の終了を待つ
func (p *periodic) Stop() {
	close(p.stopCh)
	<-p.doneCh
}
