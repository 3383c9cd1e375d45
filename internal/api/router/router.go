package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kvakb/szakdogarepo/internal/api"
	"github.com/kvakb/szakdogarepo/internal/api/handler"
	"github.com/kvakb/szakdogarepo/internal/api/middleware"
	"github.com/kvakb/szakdogarepo/internal/config"
	"github.com/kvakb/szakdogarepo/internal/pkg/metrics"
)

// Handlers はルーティング対象のハンドラー一式
type Handlers struct {
	Health       *handler.HealthHandler
	Availability *handler.AvailabilityHandler
	Cart         *handler.CartHandler
	Checkout     *handler.CheckoutHandler
	Rental       *handler.RentalHandler
	Equipment    *handler.EquipmentHandler
}

// New はミドルウェアとルートを設定したEchoインスタンスを作成する
// m が nil の場合はHTTPメトリクスを収集しない
func New(h Handlers, metricsCfg config.MetricsConfig, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e)
	if m != nil {
		e.Use(middleware.PrometheusMiddleware(m, "/metrics", "/health", "/health/ready"))
	}

	// ヘルスチェック
	e.GET("/health", h.Health.Check)
	e.GET("/health/ready", h.Health.Ready)

	// Prometheus
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(metricsCfg))

	v1 := e.Group("/api/v1")

	// カタログ
	v1.GET("/categories", h.Equipment.ListCategories)
	v1.GET("/categories/:id", h.Equipment.GetCategory)
	v1.GET("/equipment", h.Equipment.List)
	v1.GET("/equipment/:id", h.Equipment.GetByID)

	// 空き状況
	v1.GET("/equipment/:id/availability", h.Availability.Check)
	v1.GET("/equipment/:id/blocks", h.Availability.Blocks)

	// カート
	v1.POST("/cart", h.Cart.Add)
	v1.GET("/cart", h.Cart.List)
	v1.DELETE("/cart/:hold_id", h.Cart.Remove)

	// レンタル
	v1.GET("/rentals", h.Rental.Mine)

	// 決済
	v1.POST("/payments/webhook", h.Checkout.Webhook)

	// 管理者
	admin := v1.Group("/admin", middleware.RequireAdmin())
	admin.PUT("/categories/:id", h.Equipment.SaveCategory)
	admin.POST("/equipment", h.Equipment.Create)
	admin.PUT("/equipment/:id", h.Equipment.Update)
	admin.DELETE("/equipment/:id", h.Equipment.Delete)
	admin.GET("/equipment/:id/history", h.Rental.History)
	admin.GET("/rentals", h.Rental.List)
	admin.GET("/rentals/:id", h.Rental.GetByID)
	admin.DELETE("/rentals/:id", h.Rental.Delete)
	admin.PATCH("/rentals/:id/status", h.Rental.UpdateStatus)
	admin.PATCH("/rentals/:id/items/:index/status", h.Rental.UpdateItemStatus)

	return e
}
