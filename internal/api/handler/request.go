package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kvakb/szakdogarepo/internal/api"
	"github.com/kvakb/szakdogarepo/internal/api/middleware"
	"github.com/kvakb/szakdogarepo/internal/domain/interval"
)

// PeriodResponse は両端を含む期間
type PeriodResponse struct {
	StartDate string `json:"start_date" example:"2024-06-10"`
	EndDate   string `json:"end_date" example:"2024-06-12"`
}

func toPeriodResponse(i interval.Interval) PeriodResponse {
	return PeriodResponse{StartDate: formatDate(i.Start), EndDate: formatDate(i.End)}
}

func toPeriodResponses(intervals []interval.Interval) []PeriodResponse {
	resp := make([]PeriodResponse, len(intervals))
	for i, iv := range intervals {
		resp[i] = toPeriodResponse(iv)
	}
	return resp
}

func formatDate(t time.Time) string {
	return t.UTC().Format(api.DateLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(api.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: 日付の形式が不正です (%q)", interval.ErrInvalidRange, s)
	}
	return t, nil
}

// parsePeriod は "YYYY-MM-DD" の開始日と終了日から期間を作る
func parsePeriod(start, end string) (interval.Interval, error) {
	s, err := parseDate(start)
	if err != nil {
		return interval.Interval{}, err
	}
	e, err := parseDate(end)
	if err != nil {
		return interval.Interval{}, err
	}
	return interval.New(s, e)
}

// accountID は認証済みのアカウントIDを返す
func accountID(c echo.Context) (string, error) {
	id := c.Request().Header.Get(middleware.HeaderUserID)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	return id, nil
}

// bindAndValidate はリクエストボディを読み込み検証する
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	return c.Validate(req)
}
