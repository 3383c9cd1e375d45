package middleware

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kvakb/szakdogarepo/internal/api"
	"github.com/kvakb/szakdogarepo/internal/pkg/logger"
)

// RequestLogger はリクエストの構造化ログを出力するミドルウェア
// ルートのパターンとパスパラメータ（機材ID・レンタルIDなど）を別フィールドで記録する
// ヘルスチェックは Debug で出力する
func RequestLogger() echo.MiddlewareFunc {
	log := logger.Component("http")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			res := c.Response()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = res.Header().Get(echo.HeaderXRequestID)
			}

			err := next(c)

			status := res.Status
			if err != nil {
				status = api.HTTPStatus(err)
			}

			fields := []zap.Field{
				zap.String("request_id", requestID),
				zap.String("method", req.Method),
				zap.String("route", c.Path()),
				zap.String("path", req.URL.Path),
				zap.Int("status", status),
				zap.Int64("size", res.Size),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			}
			values := c.ParamValues()
			for i, name := range c.ParamNames() {
				if i < len(values) {
					fields = append(fields, zap.String("param."+name, values[i]))
				}
			}
			if userID := req.Header.Get(HeaderUserID); userID != "" {
				fields = append(fields, zap.String("user_id", userID))
			}
			if role := req.Header.Get(HeaderUserRole); role != "" {
				fields = append(fields, zap.String("role", role))
			}

			switch {
			case status >= 500:
				log.Error("server error", append(fields, zap.Error(err))...)
			case status >= 400:
				if err != nil {
					fields = append(fields, zap.String("reason", err.Error()))
				}
				log.Warn("client error", fields...)
			case strings.HasPrefix(c.Path(), "/health"):
				log.Debug("health check", fields...)
			default:
				log.Info("request completed", fields...)
			}

			return err
		}
	}
}

// RequestIDMiddleware はリクエストIDを生成・付与するミドルウェア
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = generateRequestID()
			}
			res.Header().Set(echo.HeaderXRequestID, requestID)

			return next(c)
		}
	}
}

func generateRequestID() string {
	return uuid.New().String()
}
