package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// カート追加の試行数（result: success, conflict, lock_busy, unavailable, error）
	HoldsTotal *prometheus.CounterVec

	// 決済完了によるレンタル確定数（result: created, duplicate, not_found, error）
	CheckoutsTotal *prometheus.CounterVec

	// 期限切れで解放された保留中予約の数
	HoldsExpiredTotal prometheus.Counter

	// upcoming から active に進めたレンタルの数
	RentalsPromotedTotal prometheus.Counter

	// 定期処理の所要時間（sweep: hold_expiry, promotion）
	SweepDuration *prometheus.HistogramVec

	// 分散ロックの操作時間（operation: acquire/release, status: success/failed）
	DistributedLockDuration *prometheus.HistogramVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HoldsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rental_holds_total",
				Help: "Total number of add-to-cart attempts",
			},
			[]string{"result"},
		),
		CheckoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rental_checkouts_total",
				Help: "Total number of checkout finalizations",
			},
			[]string{"result"},
		),
		HoldsExpiredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rental_holds_expired_total",
				Help: "Total number of pending holds released by the expiry sweep",
			},
		),
		RentalsPromotedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rental_promotions_total",
				Help: "Total number of rentals updated by the promotion sweep",
			},
		),
		SweepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rental_sweep_duration_seconds",
				Help:    "Duration of periodic sweeps",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"sweep"},
		),
		DistributedLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "distributed_lock_duration_seconds",
				Help:    "Time spent on distributed lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HoldsTotal,
		m.CheckoutsTotal,
		m.HoldsExpiredTotal,
		m.RentalsPromotedTotal,
		m.SweepDuration,
		m.DistributedLockDuration,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}

// 以下は Init 前（テストなど）に呼ばれても何もしない

// Hold はカート追加の結果を記録する
func Hold(result string) {
	if m := defaultMetrics; m != nil {
		m.HoldsTotal.WithLabelValues(result).Inc()
	}
}

// Checkout はレンタル確定の結果を記録する
func Checkout(result string) {
	if m := defaultMetrics; m != nil {
		m.CheckoutsTotal.WithLabelValues(result).Inc()
	}
}

// HoldsExpired は解放した保留中予約の数を加算する
func HoldsExpired(n int) {
	if m := defaultMetrics; m != nil {
		m.HoldsExpiredTotal.Add(float64(n))
	}
}

// RentalsPromoted は状態を進めたレンタルの数を加算する
func RentalsPromoted(n int) {
	if m := defaultMetrics; m != nil {
		m.RentalsPromotedTotal.Add(float64(n))
	}
}

// ObserveSweep は定期処理の所要時間を記録する
func ObserveSweep(sweep string, start time.Time) {
	if m := defaultMetrics; m != nil {
		m.SweepDuration.WithLabelValues(sweep).Observe(time.Since(start).Seconds())
	}
}

// ObserveLock は分散ロック操作の所要時間を記録する
func ObserveLock(operation, status string, start time.Time) {
	if m := defaultMetrics; m != nil {
		m.DistributedLockDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
	}
}
