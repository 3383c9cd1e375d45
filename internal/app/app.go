package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kvakb/szakdogarepo/internal/api/handler"
	"github.com/kvakb/szakdogarepo/internal/api/router"
	"github.com/kvakb/szakdogarepo/internal/application"
	"github.com/kvakb/szakdogarepo/internal/config"
	"github.com/kvakb/szakdogarepo/internal/domain/equipment"
	"github.com/kvakb/szakdogarepo/internal/domain/hold"
	"github.com/kvakb/szakdogarepo/internal/domain/rental"
	"github.com/kvakb/szakdogarepo/internal/domain/reservation"
	"github.com/kvakb/szakdogarepo/internal/infrastructure/kafka"
	"github.com/kvakb/szakdogarepo/internal/infrastructure/mongodb"
	"github.com/kvakb/szakdogarepo/internal/infrastructure/postgres"
	redisinfra "github.com/kvakb/szakdogarepo/internal/infrastructure/redis"
	"github.com/kvakb/szakdogarepo/internal/pkg/clock"
	"github.com/kvakb/szakdogarepo/internal/pkg/logger"
	"github.com/kvakb/szakdogarepo/internal/pkg/metrics"
	"github.com/kvakb/szakdogarepo/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// stores は選択された永続化ドライバのリポジトリ一式
type stores struct {
	store      reservation.Store
	holds      hold.Repository
	rentals    rental.Repository
	equipment  equipment.Repository
	categories equipment.CategoryRepository
	ping       func(ctx context.Context) error
	close      func(ctx context.Context) error
}

// App はHTTPサーバー、定期ワーカー、決済イベント購読をまとめたアプリケーション
type App struct {
	cfg      *config.Config
	Echo     *echo.Echo
	stores   *stores
	redis    *goredis.Client
	expirer  *worker.HoldExpirer
	promoter *worker.RentalPromoter
	consumer *kafka.Consumer // Kafka 無効時は nil
}

// New は設定に従って依存を組み立てる
// m が nil の場合はHTTPメトリクスを収集しない
func New(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*App, error) {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rc := redisinfra.NewClient(&cfg.Redis)
	if err := redisinfra.Ping(ctx, rc); err != nil {
		_ = st.close(ctx)
		return nil, err
	}

	clk := clock.NewSystem()
	lockManager := redisinfra.NewLockManager(rc)
	paymentIndex := redisinfra.NewPaymentIndex(rc, redisinfra.DefaultPaymentIndexTTL)

	reservationService := application.NewReservationService(st.store, st.holds, st.equipment, lockManager,
		application.WithClock(clk),
		application.WithHoldTTL(cfg.Reservation.HoldTTL),
		application.WithLockTTL(cfg.Reservation.LockTTL),
		application.WithStoreTimeout(cfg.Store.Timeout),
	)
	checkoutService := application.NewCheckoutService(st.holds, st.rentals, paymentIndex, clk, cfg.Store.Timeout)
	lifecycleService := application.NewLifecycleService(st.holds, st.rentals, cfg.Store.Timeout)
	rentalService := application.NewRentalService(st.rentals, clk, cfg.Store.Timeout)
	equipmentService := application.NewEquipmentService(st.equipment, st.categories, clk, cfg.Store.Timeout)

	e := router.New(router.Handlers{
		Health: handler.NewHealthHandler(
			handler.DependencyCheck{Name: cfg.Store.Driver, Ping: st.ping},
			handler.DependencyCheck{Name: "redis", Ping: func(ctx context.Context) error { return redisinfra.Ping(ctx, rc) }},
		),
		Availability: handler.NewAvailabilityHandler(reservationService),
		Cart:         handler.NewCartHandler(reservationService),
		Checkout:     handler.NewCheckoutHandler(checkoutService, cfg.Payment.WebhookSecret),
		Rental:       handler.NewRentalHandler(rentalService),
		Equipment:    handler.NewEquipmentHandler(equipmentService),
	}, cfg.Metrics, m)
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	a := &App{
		cfg:      cfg,
		Echo:     e,
		stores:   st,
		redis:    rc,
		expirer:  worker.NewHoldExpirer(lifecycleService, clk, cfg.Reservation.HoldSweepInterval, cfg.Reservation.HoldTTL),
		promoter: worker.NewRentalPromoter(lifecycleService, clk, cfg.Reservation.PromotionInterval),
	}
	if cfg.Kafka.Enabled() {
		a.consumer = kafka.NewConsumer(checkoutService, &cfg.Kafka)
	}
	if cfg.Payment.WebhookSecret == "" {
		logger.Warn("PAYMENT_WEBHOOK_SECRET が未設定のため決済Webhookはすべて拒否されます")
	}
	return a, nil
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := postgres.NewConnection(&cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(db.DB, cfg.Store.MigrationsPath); err != nil {
			db.Close()
			return nil, err
		}
		return &stores{
			store:      postgres.NewReservationStore(db),
			holds:      postgres.NewHoldRepository(db),
			rentals:    postgres.NewRentalRepository(db),
			equipment:  postgres.NewEquipmentRepository(db),
			categories: postgres.NewCategoryRepository(db),
			ping:       func(ctx context.Context) error { return postgres.Ping(ctx, db) },
			close:      func(context.Context) error { return db.Close() },
		}, nil
	case config.StoreDriverMongo:
		db, err := mongodb.NewConnection(ctx, &cfg.Mongo)
		if err != nil {
			return nil, err
		}
		if err := mongodb.CreateIndexes(ctx, db); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, err
		}
		return &stores{
			store:      mongodb.NewReservationStore(db),
			holds:      mongodb.NewHoldRepository(db),
			rentals:    mongodb.NewRentalRepository(db),
			equipment:  mongodb.NewEquipmentRepository(db),
			categories: mongodb.NewCategoryRepository(db),
			ping:       func(ctx context.Context) error { return mongodb.Ping(ctx, db) },
			close:      func(ctx context.Context) error { return db.Client().Disconnect(ctx) },
		}, nil
	default:
		return nil, fmt.Errorf("未対応の STORE_DRIVER です: %q", cfg.Store.Driver)
	}
}

// Run はサーバーとワーカーを起動し、ctx がキャンセルされたら順に停止する
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + a.cfg.Server.Port
		logger.Info("サーバーを起動します", zap.String("addr", addr), zap.String("store", a.cfg.Store.Driver))
		if err := a.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("サーバー起動エラー: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		a.expirer.Start(gctx)
		return nil
	})
	g.Go(func() error {
		a.promoter.Start(gctx)
		return nil
	})
	if a.consumer != nil {
		g.Go(func() error { return a.consumer.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("サーバーをシャットダウンしています...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("サーバーシャットダウンエラー: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Close は外部接続を閉じる
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			logger.Warn("Kafka購読の終了に失敗", zap.Error(err))
		}
	}
	if err := a.redis.Close(); err != nil {
		logger.Warn("Redis切断に失敗", zap.Error(err))
	}
	if err := a.stores.close(ctx); err != nil {
		logger.Warn("ストア切断に失敗", zap.Error(err))
	}
}
