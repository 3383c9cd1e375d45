package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/kvakb/szakdogarepo/internal/api/handler"
	"github.com/kvakb/szakdogarepo/internal/config"
	"github.com/kvakb/szakdogarepo/internal/pkg/metrics"
)

// サービスを呼ぶ前に応答が決まるリクエストだけを扱う
func newTestRouter(metricsCfg config.MetricsConfig) *echo.Echo {
	h := Handlers{
		Health:       handler.NewHealthHandler(),
		Availability: handler.NewAvailabilityHandler(nil),
		Cart:         handler.NewCartHandler(nil),
		Checkout:     handler.NewCheckoutHandler(nil, ""),
		Rental:       handler.NewRentalHandler(nil),
		Equipment:    handler.NewEquipmentHandler(nil),
	}
	return New(h, metricsCfg, metrics.NewWithRegistry(prometheus.NewRegistry()))
}

func TestRouter(t *testing.T) {
	e := newTestRouter(config.MetricsConfig{User: "prom", Password: "secret"})

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		headers map[string]string
		want    int
	}{
		{name: "ヘルスチェック", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "レディネス（依存先なし）", method: http.MethodGet, path: "/health/ready", want: http.StatusOK},
		{name: "メトリクスは認証が必要", method: http.MethodGet, path: "/metrics", want: http.StatusUnauthorized},
		{name: "カートはユーザーIDが必要", method: http.MethodGet, path: "/api/v1/cart", want: http.StatusUnauthorized},
		{
			name: "管理者以外は管理APIを使えない", method: http.MethodGet, path: "/api/v1/admin/rentals",
			headers: map[string]string{"X-User-ID": "user-1"}, want: http.StatusForbidden,
		},
		{name: "管理APIはユーザーIDが必要", method: http.MethodDelete, path: "/api/v1/admin/equipment/eq-1", want: http.StatusUnauthorized},
		{name: "署名のないWebhookは拒否", method: http.MethodPost, path: "/api/v1/payments/webhook", body: `{}`, want: http.StatusUnauthorized},
		{name: "不正な期間は400", method: http.MethodGet, path: "/api/v1/equipment/eq-1/availability?start=2024-06-12&end=2024-06-10", want: http.StatusBadRequest},
		{name: "未定義のルート", method: http.MethodGet, path: "/api/v1/unknown", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouter_MetricsWithAuth(t *testing.T) {
	e := newTestRouter(config.MetricsConfig{User: "prom", Password: "secret"})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("prom", "secret")
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
