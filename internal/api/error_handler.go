package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kvakb/szakdogarepo/internal/domain/equipment"
	"github.com/kvakb/szakdogarepo/internal/domain/hold"
	"github.com/kvakb/szakdogarepo/internal/domain/interval"
	"github.com/kvakb/szakdogarepo/internal/domain/rental"
	"github.com/kvakb/szakdogarepo/internal/domain/reservation"
	"github.com/kvakb/szakdogarepo/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

var (
	notFoundErrors = []error{
		hold.ErrHoldNotFound,
		rental.ErrRentalNotFound,
		equipment.ErrEquipmentNotFound,
		equipment.ErrCategoryNotFound,
	}
	conflictErrors = []error{
		reservation.ErrConflict,
		reservation.ErrLockBusy,
		rental.ErrOptimisticLockConflict,
		equipment.ErrEquipmentUnavailable,
	}
	badRequestErrors = []error{
		interval.ErrInvalidRange,
		reservation.ErrEquipmentIDRequired,
		hold.ErrAccountIDRequired,
		hold.ErrEquipmentIDRequired,
		hold.ErrInvalidPrice,
		rental.ErrAccountIDRequired,
		rental.ErrPaymentReferenceRequired,
		rental.ErrNoItems,
		rental.ErrInvalidStatus,
		rental.ErrItemIndexOutOfRange,
		equipment.ErrCategoryIDRequired,
		equipment.ErrNameRequired,
		equipment.ErrInvalidPrice,
		equipment.ErrInvalidStatus,
		equipment.ErrUnknownAttribute,
		equipment.ErrAttributeKindMismatch,
		equipment.ErrAttributeOutOfRange,
	}
)

// HTTPStatus はエラーに対応するステータスコードを返す
// ストア障害は他の分類より優先する
func HTTPStatus(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	if errors.Is(err, reservation.ErrStoreUnavailable) {
		return http.StatusServiceUnavailable
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	switch {
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case isAny(err, conflictErrors):
		return http.StatusConflict
	case isAny(err, badRequestErrors):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
// 5xx の詳細はログにのみ出力する
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := HTTPStatus(err)
	message := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}

	switch {
	case code == http.StatusServiceUnavailable:
		message = reservation.ErrStoreUnavailable.Error()
	case code >= 500:
		message = "内部サーバーエラー"
	}

	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if err := c.JSON(code, ErrorResponse{
		Error: message,
		Code:  code,
	}); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}
