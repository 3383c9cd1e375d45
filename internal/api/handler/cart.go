package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kvakb/szakdogarepo/internal/application"
	"github.com/kvakb/szakdogarepo/internal/domain/hold"
)

type CartHandler struct {
	service ReservationServiceInterface
}

func NewCartHandler(s ReservationServiceInterface) *CartHandler {
	return &CartHandler{service: s}
}

type AddToCartRequest struct {
	EquipmentID string `json:"equipment_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	StartDate   string `json:"start_date" validate:"required,date" example:"2024-06-10"`
	EndDate     string `json:"end_date" validate:"required,date" example:"2024-06-12"`
}

type HoldResponse struct {
	ID            string `json:"id"`
	EquipmentID   string `json:"equipment_id"`
	EquipmentName string `json:"equipment_name"`
	PeriodResponse
	PricePerDay int       `json:"price_per_day" example:"5000"`
	Subtotal    int       `json:"subtotal" example:"15000"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type CartResponse struct {
	Items []HoldResponse `json:"items"`
	Total int            `json:"total"`
}

func toHoldResponse(h *hold.Hold, ttl time.Duration) HoldResponse {
	return HoldResponse{
		ID: h.ID, EquipmentID: h.EquipmentID, EquipmentName: h.EquipmentName,
		PeriodResponse: toPeriodResponse(h.Period),
		PricePerDay:    h.PricePerDay, Subtotal: h.Subtotal(),
		CreatedAt: h.CreatedAt, ExpiresAt: h.ExpiresAt(ttl),
	}
}

// Add godoc
// @Summary カートに追加
// @Description 機材を期間指定で仮押さえします。同じ機材の既存の仮押さえは置き換えます
// @Tags cart
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body AddToCartRequest true "追加する機材と期間"
// @Success 201 {object} HoldResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "期間が重複"
// @Failure 503 {object} map[string]string
// @Router /cart [post]
func (h *CartHandler) Add(c echo.Context) error {
	userID, err := accountID(c)
	if err != nil {
		return err
	}
	var req AddToCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	period, err := parsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		return err
	}
	created, err := h.service.CreateHold(c.Request().Context(), application.CreateHoldInput{
		AccountID: userID, EquipmentID: req.EquipmentID, Period: period,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toHoldResponse(created, h.service.HoldTTL()))
}

// List godoc
// @Summary カートの内容
// @Tags cart
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Success 200 {object} CartResponse
// @Router /cart [get]
func (h *CartHandler) List(c echo.Context) error {
	userID, err := accountID(c)
	if err != nil {
		return err
	}
	holds, err := h.service.ListCart(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	ttl := h.service.HoldTTL()
	resp := CartResponse{Items: make([]HoldResponse, len(holds))}
	for i, hd := range holds {
		resp.Items[i] = toHoldResponse(hd, ttl)
		resp.Total += resp.Items[i].Subtotal
	}
	return c.JSON(http.StatusOK, resp)
}

// Remove godoc
// @Summary カートから削除
// @Tags cart
// @Param X-User-ID header string true "ユーザーID"
// @Param hold_id path string true "保留中予約ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /cart/{hold_id} [delete]
func (h *CartHandler) Remove(c echo.Context) error {
	userID, err := accountID(c)
	if err != nil {
		return err
	}
	if err := h.service.RemoveHold(c.Request().Context(), userID, c.Param("hold_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
