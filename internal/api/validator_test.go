package api

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type periodRequest struct {
	StartDate string `json:"start_date" validate:"required,date"`
	EndDate   string `json:"end_date" validate:"required,date"`
}

func TestCustomValidator(t *testing.T) {
	v := NewValidator()

	t.Run("正しい日付", func(t *testing.T) {
		assert.NoError(t, v.Validate(&periodRequest{StartDate: "2024-06-10", EndDate: "2024-06-12"}))
	})

	t.Run("日付の形式違いはJSON名で報告する", func(t *testing.T) {
		err := v.Validate(&periodRequest{StartDate: "2024/06/10", EndDate: "2024-06-12"})
		require.Error(t, err)

		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
		assert.Contains(t, he.Message, "start_date: date")
		assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
	})

	t.Run("必須項目の欠落", func(t *testing.T) {
		err := v.Validate(&periodRequest{StartDate: "2024-06-10"})
		require.Error(t, err)
		assert.Contains(t, err.(*echo.HTTPError).Message, "end_date: required")
	})
}
