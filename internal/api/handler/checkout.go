package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kvakb/szakdogarepo/internal/application"
)

// HeaderSignature は Webhook 本文の HMAC-SHA256 署名（"sha256=<hex>"）
const HeaderSignature = "X-Payment-Signature"

type CheckoutHandler struct {
	service CheckoutServiceInterface
	secret  []byte
}

// NewCheckoutHandler は決済Webhookのハンドラーを作成する
// secret が空の場合はすべての通知を拒否する
func NewCheckoutHandler(s CheckoutServiceInterface, secret string) *CheckoutHandler {
	return &CheckoutHandler{service: s, secret: []byte(secret)}
}

type PaymentWebhookRequest struct {
	AccountID        string   `json:"account_id" validate:"required"`
	HoldIDs          []string `json:"hold_ids" validate:"required,min=1"`
	PaymentReference string   `json:"payment_reference" validate:"required" example:"pi_3Nx..."`
}

// Webhook godoc
// @Summary 決済完了通知
// @Description 決済完了時にカートの仮押さえをレンタルとして確定します。同じ決済参照IDの再送は既存のレンタルを返します
// @Tags payments
// @Accept json
// @Produce json
// @Param X-Payment-Signature header string true "sha256=<hex>"
// @Param request body PaymentWebhookRequest true "決済完了通知"
// @Success 200 {object} RentalResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string "署名不一致"
// @Failure 404 {object} map[string]string "仮押さえが失効済み"
// @Router /payments/webhook [post]
func (h *CheckoutHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if !h.verify(body, c.Request().Header.Get(HeaderSignature)) {
		return echo.NewHTTPError(http.StatusUnauthorized, "署名が不正です")
	}

	var req PaymentWebhookRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	r, err := h.service.FinalizeCheckout(c.Request().Context(), application.FinalizeCheckoutInput{
		AccountID:        req.AccountID,
		HoldIDs:          req.HoldIDs,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRentalResponse(r))
}

func (h *CheckoutHandler) verify(body []byte, header string) bool {
	if len(h.secret) == 0 {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, "sha256="))
	if err != nil {
		return false
	}
	return hmac.Equal(got, Sign(h.secret, body))
}

// Sign は本文の HMAC-SHA256 を返す
func Sign(secret, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}
