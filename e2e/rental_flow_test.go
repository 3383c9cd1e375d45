package e2e

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvakb/szakdogarepo/internal/api/handler"
)

// TestServer はE2Eテスト用のサーバー
type TestServer struct {
	Echo *echo.Echo
}

// Request はHTTPリクエストを実行
func (s *TestServer) Request(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

// Webhook は署名付きの決済完了通知を送る
func (s *TestServer) Webhook(accountID, paymentRef string, holdIDs ...string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]interface{}{
		"account_id":        accountID,
		"hold_ids":          holdIDs,
		"payment_reference": paymentRef,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(handler.HeaderSignature, "sha256="+hex.EncodeToString(handler.Sign([]byte(webhookSecret), body)))

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func admin(userID string) map[string]string {
	return map[string]string{"X-User-ID": userID, "X-User-Role": "admin"}
}

func user(userID string) map[string]string {
	return map[string]string{"X-User-ID": userID}
}

// futureDate は今日から days 日後の日付
func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

// setupEquipment はカテゴリと機材を1件登録し機材IDを返す
func setupEquipment(t *testing.T, server *TestServer, price int) string {
	t.Helper()
	rec := server.Request(http.MethodPut, "/api/v1/admin/categories/camera", map[string]interface{}{
		"name":   "カメラ",
		"fields": []map[string]interface{}{{"name": "lens_mount", "kind": "choice", "options": []string{"E", "RF"}}},
	}, admin("admin-1"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = server.Request(http.MethodPost, "/api/v1/admin/equipment", map[string]interface{}{
		"category_id":   "camera",
		"name":          "Sony α7 IV",
		"brand":         "Sony",
		"price_per_day": price,
		"attributes":    map[string]interface{}{"lens_mount": map[string]string{"kind": "choice", "choice": "E"}},
	}, admin("admin-1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp["id"].(string)
}

// TestE2E_HealthCheck はヘルスチェックをテスト
func TestE2E_HealthCheck(t *testing.T) {
	server := getTestServer(t)

	rec := server.Request(http.MethodGet, "/health/ready", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"ok"`)
}

// TestE2E_CompleteRentalJourney はカート追加から決済確定までをテスト
func TestE2E_CompleteRentalJourney(t *testing.T) {
	server := getTestServer(t)

	userID := "e2e-user-yamada"
	equipmentID := setupEquipment(t, server, 5000)
	start, end := futureDate(30), futureDate(32)
	var holdID, rentalID string

	t.Run("属性で絞り込める", func(t *testing.T) {
		rec := server.Request(http.MethodGet, "/api/v1/equipment?category_id=camera&attr.lens_mount=E", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp []map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Len(t, resp, 1)

		rec = server.Request(http.MethodGet, "/api/v1/equipment?attr.lens_mount=RF", nil, nil)
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Len(t, resp, 0)
	})

	t.Run("空き状況確認", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/equipment/%s/availability?start=%s&end=%s", equipmentID, start, end)
		rec := server.Request(http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, true, resp["free"])
		assert.Equal(t, true, resp["unbounded"])
	})

	t.Run("カートに追加", func(t *testing.T) {
		rec := server.Request(http.MethodPost, "/api/v1/cart", map[string]string{
			"equipment_id": equipmentID, "start_date": start, "end_date": end,
		}, user(userID))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		holdID = resp["id"].(string)
		assert.Equal(t, float64(15000), resp["subtotal"])
	})

	t.Run("他のユーザーは同じ期間を押さえられない", func(t *testing.T) {
		rec := server.Request(http.MethodPost, "/api/v1/cart", map[string]string{
			"equipment_id": equipmentID, "start_date": end, "end_date": futureDate(34),
		}, user("e2e-user-suzuki"))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("決済完了でレンタル確定", func(t *testing.T) {
		rec := server.Webhook(userID, "pi_e2e_001", holdID)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		rentalID = resp["id"].(string)
		assert.Equal(t, "upcoming", resp["status"])
		assert.Equal(t, float64(15000), resp["total_amount"])
	})

	t.Run("再送は同じレンタルを返す", func(t *testing.T) {
		rec := server.Webhook(userID, "pi_e2e_001", holdID)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, rentalID, resp["id"])
	})

	t.Run("カートは空になる", func(t *testing.T) {
		rec := server.Request(http.MethodGet, "/api/v1/cart", nil, user(userID))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Len(t, resp["items"], 0)
	})

	t.Run("確定済み期間は予約済みとして表示される", func(t *testing.T) {
		rec := server.Request(http.MethodGet, fmt.Sprintf("/api/v1/equipment/%s/blocks", equipmentID), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp []map[string]string
		json.Unmarshal(rec.Body.Bytes(), &resp)
		require.Len(t, resp, 1)
		assert.Equal(t, start, resp[0]["start_date"])
		assert.Equal(t, end, resp[0]["end_date"])
	})

	t.Run("自分のレンタル一覧", func(t *testing.T) {
		rec := server.Request(http.MethodGet, "/api/v1/rentals", nil, user(userID))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp []map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		require.Len(t, resp, 1)
		assert.Equal(t, rentalID, resp[0]["id"])
	})

	t.Run("管理者による状態変更と履歴", func(t *testing.T) {
		rec := server.Request(http.MethodPatch, fmt.Sprintf("/api/v1/admin/rentals/%s/status", rentalID),
			map[string]string{"status": "completed"}, admin("admin-1"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = server.Request(http.MethodGet, fmt.Sprintf("/api/v1/admin/equipment/%s/history", equipmentID), nil, admin("admin-1"))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp []map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		require.Len(t, resp, 1)
		assert.Equal(t, float64(15000), resp[0]["total_price"])
	})
}

// TestE2E_ReplaceHold は同じ機材の再追加で期間が置き換わることをテスト
func TestE2E_ReplaceHold(t *testing.T) {
	server := getTestServer(t)

	userID := "e2e-user-tanaka"
	equipmentID := setupEquipment(t, server, 3000)

	rec := server.Request(http.MethodPost, "/api/v1/cart", map[string]string{
		"equipment_id": equipmentID, "start_date": futureDate(10), "end_date": futureDate(12),
	}, user(userID))
	require.Equal(t, http.StatusCreated, rec.Code)

	// 自分の予約と重なる期間でも置き換えとして受け付ける
	rec = server.Request(http.MethodPost, "/api/v1/cart", map[string]string{
		"equipment_id": equipmentID, "start_date": futureDate(11), "end_date": futureDate(14),
	}, user(userID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = server.Request(http.MethodGet, "/api/v1/cart", nil, user(userID))
	var resp struct {
		Items []map[string]interface{} `json:"items"`
		Total int                      `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, futureDate(11), resp.Items[0]["start_date"])
	assert.Equal(t, 12000, resp.Total)
}

// TestE2E_AdminOnly は管理APIの権限をテスト
func TestE2E_AdminOnly(t *testing.T) {
	server := getTestServer(t)

	rec := server.Request(http.MethodPost, "/api/v1/admin/equipment", map[string]interface{}{
		"category_id": "camera", "name": "x",
	}, user("e2e-user"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
