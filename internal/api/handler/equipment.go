package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kvakb/szakdogarepo/internal/application"
	"github.com/kvakb/szakdogarepo/internal/domain/equipment"
)

// attrQueryPrefix は属性フィルタのクエリパラメータ接頭辞（attr.lens_mount=E など）
const attrQueryPrefix = "attr."

type EquipmentHandler struct {
	service EquipmentServiceInterface
}

func NewEquipmentHandler(s EquipmentServiceInterface) *EquipmentHandler {
	return &EquipmentHandler{service: s}
}

type CategoryRequest struct {
	Name   string               `json:"name" validate:"required" example:"カメラ"`
	Fields []equipment.FieldDef `json:"fields"`
}

type CategoryResponse struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	Fields []equipment.FieldDef `json:"fields"`
}

type EquipmentRequest struct {
	CategoryID  string                     `json:"category_id" validate:"required"`
	Name        string                     `json:"name" validate:"required" example:"Sony α7 IV"`
	Brand       string                     `json:"brand"`
	Description string                     `json:"description"`
	Status      string                     `json:"status" validate:"omitempty,oneof=available unavailable maintenance"`
	PricePerDay int                        `json:"price_per_day" validate:"min=0" example:"5000"`
	ImageURL    string                     `json:"image_url" validate:"omitempty,url"`
	Attributes  map[string]equipment.Value `json:"attributes"`
}

type EquipmentResponse struct {
	ID           string                     `json:"id"`
	CategoryID   string                     `json:"category_id"`
	CategoryName string                     `json:"category_name"`
	Name         string                     `json:"name"`
	Brand        string                     `json:"brand"`
	Description  string                     `json:"description"`
	Status       string                     `json:"status"`
	PricePerDay  int                        `json:"price_per_day"`
	ImageURL     string                     `json:"image_url,omitempty"`
	OwnerID      string                     `json:"owner_id,omitempty"`
	Attributes   map[string]equipment.Value `json:"attributes"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

func toCategoryResponse(c *equipment.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, Fields: c.Fields}
}

func toEquipmentResponse(e *equipment.Equipment) EquipmentResponse {
	return EquipmentResponse{
		ID: e.ID, CategoryID: e.CategoryID, CategoryName: e.CategoryName,
		Name: e.Name, Brand: e.Brand, Description: e.Description,
		Status: string(e.Status), PricePerDay: e.PricePerDay,
		ImageURL: e.ImageURL, OwnerID: e.OwnerID, Attributes: e.Attributes,
		CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
	}
}

func (r *EquipmentRequest) toInput(ownerID string) application.SaveEquipmentInput {
	return application.SaveEquipmentInput{
		CategoryID:  r.CategoryID,
		Name:        r.Name,
		Brand:       r.Brand,
		Description: r.Description,
		Status:      equipment.Status(r.Status),
		PricePerDay: r.PricePerDay,
		ImageURL:    r.ImageURL,
		OwnerID:     ownerID,
		Attributes:  r.Attributes,
	}
}

// ListCategories godoc
// @Summary カテゴリ一覧
// @Tags catalog
// @Produce json
// @Success 200 {array} CategoryResponse
// @Router /categories [get]
func (h *EquipmentHandler) ListCategories(c echo.Context) error {
	categories, err := h.service.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	resp := make([]CategoryResponse, len(categories))
	for i, cat := range categories {
		resp[i] = toCategoryResponse(cat)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetCategory godoc
// @Summary カテゴリと属性定義を取得
// @Tags catalog
// @Produce json
// @Param id path string true "カテゴリID"
// @Success 200 {object} CategoryResponse
// @Failure 404 {object} map[string]string
// @Router /categories/{id} [get]
func (h *EquipmentHandler) GetCategory(c echo.Context) error {
	cat, err := h.service.GetCategory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCategoryResponse(cat))
}

// SaveCategory godoc
// @Summary カテゴリを作成・更新（管理者）
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "カテゴリID"
// @Param request body CategoryRequest true "カテゴリ定義"
// @Success 200 {object} CategoryResponse
// @Router /admin/categories/{id} [put]
func (h *EquipmentHandler) SaveCategory(c echo.Context) error {
	var req CategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	cat := &equipment.Category{ID: c.Param("id"), Name: req.Name, Fields: req.Fields}
	if err := h.service.SaveCategory(c.Request().Context(), cat); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCategoryResponse(cat))
}

// List godoc
// @Summary 機材一覧
// @Description カテゴリと属性（attr.<名前>=<値>）で絞り込めます
// @Tags catalog
// @Produce json
// @Param category_id query string false "カテゴリID"
// @Param limit query int false "取得件数" default(100)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} EquipmentResponse
// @Router /equipment [get]
func (h *EquipmentHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	filter := equipment.ListFilter{CategoryID: c.QueryParam("category_id"), Limit: limit, Offset: offset}

	attrs := map[string]string{}
	for key, values := range c.QueryParams() {
		if name, ok := strings.CutPrefix(key, attrQueryPrefix); ok && len(values) > 0 {
			attrs[name] = values[0]
		}
	}

	items, err := h.service.List(c.Request().Context(), filter, attrs)
	if err != nil {
		return err
	}
	resp := make([]EquipmentResponse, len(items))
	for i, e := range items {
		resp[i] = toEquipmentResponse(e)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary 機材を取得
// @Tags catalog
// @Produce json
// @Param id path string true "機材ID"
// @Success 200 {object} EquipmentResponse
// @Failure 404 {object} map[string]string
// @Router /equipment/{id} [get]
func (h *EquipmentHandler) GetByID(c echo.Context) error {
	e, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEquipmentResponse(e))
}

// Create godoc
// @Summary 機材を登録（管理者）
// @Tags admin
// @Accept json
// @Produce json
// @Param request body EquipmentRequest true "機材情報"
// @Success 201 {object} EquipmentResponse
// @Failure 400 {object} map[string]string
// @Router /admin/equipment [post]
func (h *EquipmentHandler) Create(c echo.Context) error {
	ownerID, err := accountID(c)
	if err != nil {
		return err
	}
	var req EquipmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	e, err := h.service.Create(c.Request().Context(), req.toInput(ownerID))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toEquipmentResponse(e))
}

// Update godoc
// @Summary 機材を更新（管理者）
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "機材ID"
// @Param request body EquipmentRequest true "機材情報"
// @Success 200 {object} EquipmentResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /admin/equipment/{id} [put]
func (h *EquipmentHandler) Update(c echo.Context) error {
	var req EquipmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	e, err := h.service.Update(c.Request().Context(), c.Param("id"), req.toInput(""))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEquipmentResponse(e))
}

// Delete godoc
// @Summary 機材を削除（管理者）
// @Tags admin
// @Param id path string true "機材ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /admin/equipment/{id} [delete]
func (h *EquipmentHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
