package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kvakb/szakdogarepo/internal/app"
	"github.com/kvakb/szakdogarepo/internal/config"
	"github.com/kvakb/szakdogarepo/internal/pkg/logger"
	"github.com/kvakb/szakdogarepo/internal/pkg/metrics"
)

func main() {
	cfg := config.Load()

	// ロガー初期化
	logger.Set(logger.NewLogger(cfg.Env))
	defer func() { _ = logger.Sync() }()

	// シグナル待機
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, metrics.Init())
	if err != nil {
		logger.Error("起動に失敗しました", zap.Error(err))
		os.Exit(1)
	}

	runErr := a.Run(ctx)
	a.Close()
	if runErr != nil {
		logger.Error("異常終了しました", zap.Error(runErr))
		os.Exit(1)
	}
	logger.Info("サーバーが正常にシャットダウンしました")
}
