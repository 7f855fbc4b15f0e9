package controller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"society_admin_v1/internal/model"
	"society_admin_v1/internal/repository"
	"society_admin_v1/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupOrderCtlRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db := setupCtlTestDB(t)

	number := "1001"
	require.NoError(t, db.Create(&model.Order{
		ID:                "o-1",
		OrderNumber:       &number,
		CustomerName:      "Jane Doe",
		CustomerEmail:     "jane@example.org",
		GrandTotal:        decimal.RequireFromString("25.00"),
		Currency:          "GBP",
		FulfillmentStatus: model.FulfillmentPending,
		ShippingStatus:    model.ShippingPending,
		OrderDate:         time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
		LineItems: []model.OrderLineItem{
			{ProductName: "Society Tee", Size: "M", Quantity: 1, UnitPrice: decimal.RequireFromString("25.00")},
		},
	}).Error)

	activity := service.NewActivityService(repository.NewActivityLogRepository(db), zap.NewNop())
	ctl := NewOrderController(service.NewOrderService(repository.NewOrderRepository(db), activity))

	r := gin.New()
	r.GET("/api/orders", ctl.List)
	r.GET("/api/orders/:id", ctl.Detail)
	r.PATCH("/api/orders/:id/status", ctl.UpdateStatus)
	r.PATCH("/api/orders/:id/shipping", ctl.MarkShipped)
	r.DELETE("/api/orders/:id", ctl.Delete)
	return r
}

func sendJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body)).WithContext(context.Background())
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOrderController_ListAndDetail(t *testing.T) {
	r := setupOrderCtlRouter(t)

	w := sendJSON(r, http.MethodGet, "/api/orders?keyword=jane", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "o-1")

	w = sendJSON(r, http.MethodGet, "/api/orders/o-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Society Tee")

	assert.Equal(t, http.StatusNotFound, sendJSON(r, http.MethodGet, "/api/orders/missing", "").Code)
}

func TestOrderController_UpdateStatus(t *testing.T) {
	r := setupOrderCtlRouter(t)

	assert.Equal(t, http.StatusBadRequest,
		sendJSON(r, http.MethodPatch, "/api/orders/o-1/status", `{"status":"LOST"}`).Code)

	assert.Equal(t, http.StatusOK,
		sendJSON(r, http.MethodPatch, "/api/orders/o-1/status", `{"status":"FULFILLED"}`).Code)

	// FULFILLED 不能直接回到 PENDING
	assert.Equal(t, http.StatusConflict,
		sendJSON(r, http.MethodPatch, "/api/orders/o-1/status", `{"status":"PENDING"}`).Code)
}

func TestOrderController_ShipAndDelete(t *testing.T) {
	r := setupOrderCtlRouter(t)

	assert.Equal(t, http.StatusBadRequest,
		sendJSON(r, http.MethodPatch, "/api/orders/o-1/shipping", `{"carrier":"Royal Mail"}`).Code)
	assert.Equal(t, http.StatusOK,
		sendJSON(r, http.MethodPatch, "/api/orders/o-1/shipping", `{"tracking_number":"RM123","carrier":"Royal Mail"}`).Code)

	assert.Equal(t, http.StatusOK, sendJSON(r, http.MethodDelete, "/api/orders/o-1", "").Code)
	assert.Equal(t, http.StatusNotFound, sendJSON(r, http.MethodDelete, "/api/orders/o-1", "").Code)
}
