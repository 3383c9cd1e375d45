package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kvakb/szakdogarepo/internal/api"
	"github.com/kvakb/szakdogarepo/internal/pkg/metrics"
)

// unmatchedPath はルートに一致しなかったリクエストのラベル
const unmatchedPath = "unmatched"

// PrometheusMiddleware はHTTPメトリクスを収集するミドルウェア
// skipPaths に一致するルート（/metrics など）は計測しない
func PrometheusMiddleware(m *metrics.Metrics, skipPaths ...string) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := skip[c.Path()]; ok {
				return next(c)
			}
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				// エラーレスポンスはこの後 CustomHTTPErrorHandler が書き込む
				status = api.HTTPStatus(err)
			}

			// 生のURLはラベルにしない
			path := c.Path()
			if path == "" {
				path = unmatchedPath
			}

			method := c.Request().Method
			m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
