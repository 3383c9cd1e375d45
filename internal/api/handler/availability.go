package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kvakb/szakdogarepo/internal/api/middleware"
	"github.com/kvakb/szakdogarepo/internal/application"
	"github.com/kvakb/szakdogarepo/internal/domain/reservation"
	"github.com/kvakb/szakdogarepo/internal/pkg/logger"
)

type AvailabilityHandler struct {
	service ReservationServiceInterface
}

func NewAvailabilityHandler(s ReservationServiceInterface) *AvailabilityHandler {
	return &AvailabilityHandler{service: s}
}

// AvailabilityResponse は空き確認の結果
// Unknown が true の場合はストアに到達できず、空きを判定できなかった
type AvailabilityResponse struct {
	Free      bool             `json:"free"`
	Unknown   bool             `json:"unknown,omitempty"`
	MaxEnd    *string          `json:"max_end_date,omitempty" example:"2024-06-19"`
	Unbounded bool             `json:"unbounded,omitempty"`
	Conflicts []PeriodResponse `json:"conflicts,omitempty"`
}

// Check godoc
// @Summary 空き状況を確認
// @Description 候補期間が空いているかと、開始日から選択できる最終日を返します
// @Tags availability
// @Produce json
// @Param id path string true "機材ID"
// @Param start query string true "開始日 (YYYY-MM-DD)"
// @Param end query string true "終了日 (YYYY-MM-DD)"
// @Success 200 {object} AvailabilityResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 503 {object} AvailabilityResponse "判定不能"
// @Router /equipment/{id}/availability [get]
func (h *AvailabilityHandler) Check(c echo.Context) error {
	period, err := parsePeriod(c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return err
	}
	result, err := h.service.CheckAvailability(c.Request().Context(), application.CheckAvailabilityInput{
		EquipmentID: c.Param("id"),
		AccountID:   c.Request().Header.Get(middleware.HeaderUserID),
		Period:      period,
	})
	if err != nil {
		if errors.Is(err, reservation.ErrStoreUnavailable) {
			logger.Warn("空き状況を判定できません", zap.String("equipment_id", c.Param("id")), zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, AvailabilityResponse{Free: false, Unknown: true})
		}
		return err
	}

	resp := AvailabilityResponse{
		Free:      result.Free,
		Unbounded: result.MaxEnd.Unbounded,
		Conflicts: toPeriodResponses(result.Conflicts),
	}
	if !result.MaxEnd.Unbounded {
		end := formatDate(result.MaxEnd.End)
		resp.MaxEnd = &end
	}
	return c.JSON(http.StatusOK, resp)
}

// Blocks godoc
// @Summary 予約済み期間の一覧
// @Description 保留中予約と確定済みレンタルが占有している期間を開始日順に返します
// @Tags availability
// @Produce json
// @Param id path string true "機材ID"
// @Success 200 {array} PeriodResponse
// @Failure 503 {object} map[string]string
// @Router /equipment/{id}/blocks [get]
func (h *AvailabilityHandler) Blocks(c echo.Context) error {
	intervals, err := h.service.ListHolds(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPeriodResponses(intervals))
}
