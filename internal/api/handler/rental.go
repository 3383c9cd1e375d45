package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kvakb/szakdogarepo/internal/domain/rental"
)

type RentalHandler struct {
	service RentalServiceInterface
}

func NewRentalHandler(s RentalServiceInterface) *RentalHandler {
	return &RentalHandler{service: s}
}

type RentalItemResponse struct {
	EquipmentID   string `json:"equipment_id"`
	EquipmentName string `json:"equipment_name"`
	PeriodResponse
	PricePerDay int    `json:"price_per_day"`
	Subtotal    int    `json:"subtotal"`
	Status      string `json:"status" example:"upcoming"`
}

type RentalResponse struct {
	ID               string               `json:"id" example:"R-20240605-123456"`
	AccountID        string               `json:"account_id"`
	Items            []RentalItemResponse `json:"items"`
	TotalAmount      int                  `json:"total_amount" example:"15000"`
	Status           string               `json:"status" example:"upcoming"`
	PaymentReference string               `json:"payment_reference"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

type HistoryEntryResponse struct {
	RentalID   string `json:"rental_id"`
	AccountID  string `json:"account_id"`
	PeriodResponse
	Status     string `json:"status"`
	TotalPrice int    `json:"total_price"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=upcoming active completed" example:"completed"`
}

func toRentalResponse(r *rental.Rental) RentalResponse {
	items := make([]RentalItemResponse, len(r.Items))
	for i, it := range r.Items {
		items[i] = RentalItemResponse{
			EquipmentID: it.EquipmentID, EquipmentName: it.EquipmentName,
			PeriodResponse: toPeriodResponse(it.Period),
			PricePerDay:    it.PricePerDay, Subtotal: it.Subtotal(), Status: string(it.Status),
		}
	}
	return RentalResponse{
		ID: r.ID, AccountID: r.AccountID, Items: items,
		TotalAmount: r.TotalAmount, Status: string(r.Status),
		PaymentReference: r.PaymentReference,
		CreatedAt:        r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func toRentalResponses(rentals []*rental.Rental) []RentalResponse {
	resp := make([]RentalResponse, len(rentals))
	for i, r := range rentals {
		resp[i] = toRentalResponse(r)
	}
	return resp
}

// Mine godoc
// @Summary 自分のレンタル一覧
// @Tags rentals
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Success 200 {array} RentalResponse
// @Router /rentals [get]
func (h *RentalHandler) Mine(c echo.Context) error {
	userID, err := accountID(c)
	if err != nil {
		return err
	}
	rentals, err := h.service.ListByAccount(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRentalResponses(rentals))
}

// List godoc
// @Summary 全レンタル一覧（管理者）
// @Tags admin
// @Produce json
// @Param limit query int false "取得件数" default(50)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} RentalResponse
// @Router /admin/rentals [get]
func (h *RentalHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	rentals, err := h.service.List(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRentalResponses(rentals))
}

// GetByID godoc
// @Summary レンタルを取得（管理者）
// @Tags admin
// @Produce json
// @Param id path string true "レンタルID"
// @Success 200 {object} RentalResponse
// @Failure 404 {object} map[string]string
// @Router /admin/rentals/{id} [get]
func (h *RentalHandler) GetByID(c echo.Context) error {
	r, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRentalResponse(r))
}

// Delete godoc
// @Summary レンタルを削除（管理者）
// @Tags admin
// @Param id path string true "レンタルID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /admin/rentals/{id} [delete]
func (h *RentalHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateStatus godoc
// @Summary レンタル全体の状態を変更（管理者）
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "レンタルID"
// @Param request body StatusRequest true "新しい状態"
// @Success 200 {object} RentalResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /admin/rentals/{id}/status [patch]
func (h *RentalHandler) UpdateStatus(c echo.Context) error {
	var req StatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	r, err := h.service.OverrideStatus(c.Request().Context(), c.Param("id"), rental.Status(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRentalResponse(r))
}

// UpdateItemStatus godoc
// @Summary 明細の状態を変更（管理者）
// @Description 明細は active か completed のみ指定できます
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "レンタルID"
// @Param index path int true "明細の位置"
// @Param request body StatusRequest true "新しい状態"
// @Success 200 {object} RentalResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /admin/rentals/{id}/items/{index}/status [patch]
func (h *RentalHandler) UpdateItemStatus(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "明細の位置が不正です")
	}
	var req StatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	r, err := h.service.OverrideItemStatus(c.Request().Context(), c.Param("id"), index, rental.Status(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRentalResponse(r))
}

// History godoc
// @Summary 機材の貸出履歴（管理者）
// @Tags admin
// @Produce json
// @Param id path string true "機材ID"
// @Success 200 {array} HistoryEntryResponse
// @Router /admin/equipment/{id}/history [get]
func (h *RentalHandler) History(c echo.Context) error {
	entries, err := h.service.History(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	resp := make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = HistoryEntryResponse{
			RentalID: e.RentalID, AccountID: e.AccountID,
			PeriodResponse: toPeriodResponse(e.Item.Period),
			Status:         string(e.Item.Status), TotalPrice: e.TotalPrice(),
		}
	}
	return c.JSON(http.StatusOK, resp)
}
