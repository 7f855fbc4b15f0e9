package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"society_admin_v1/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ==================== 测试辅助 ====================

type ssItem struct {
	name  string
	size  string
	qty   int
	price string
}

func ssOrder(id, number string, created time.Time, items ...ssItem) map[string]interface{} {
	lineItems := make([]map[string]interface{}, 0, len(items))
	for _, it := range items {
		li := map[string]interface{}{
			"id":            id + "-" + it.name,
			"productName":   it.name,
			"quantity":      it.qty,
			"unitPricePaid": map[string]string{"value": it.price, "currency": "GBP"},
		}
		if it.size != "" {
			li["variantOptions"] = []map[string]string{
				{"optionName": "Size", "value": it.size},
				{"optionName": "Colour", "value": "Black"},
			}
		}
		lineItems = append(lineItems, li)
	}
	return map[string]interface{}{
		"id":                id,
		"orderNumber":       number,
		"createdOn":         created.Format(time.RFC3339),
		"customerEmail":     "buyer@example.com",
		"billingAddress":    map[string]string{"firstName": "Ada", "lastName": "Lovelace", "phone": "07700 900000"},
		"fulfillmentStatus": "PENDING",
		"grandTotal":        map[string]string{"value": "25.00", "currency": "GBP"},
		"lineItems":         lineItems,
	}
}

func ssPage(orders []map[string]interface{}, nextCursor string) []byte {
	page := map[string]interface{}{
		"result": orders,
		"pagination": map[string]interface{}{
			"hasNextPage":    nextCursor != "",
			"nextPageCursor": nextCursor,
		},
	}
	b, _ := json.Marshal(page)
	return b
}

func newTestSquarespaceClient() *SquarespaceClient {
	return NewSquarespaceClient(utils.NewAPIClient(5*time.Second), rate.NewLimiter(rate.Inf, 1), zap.NewNop())
}

// ==================== 单元测试 ====================

func TestSquarespaceClient_FollowsCursor(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var requests atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/1.0/commerce/orders", r.URL.Path)
		assert.Equal(t, "Bearer sq-key", r.Header.Get("Authorization"))

		switch r.URL.Query().Get("cursor") {
		case "":
			w.Write(ssPage([]map[string]interface{}{
				ssOrder("o3", "1003", base.Add(3*time.Hour), ssItem{name: "Pub Crawl Tee", size: "M", qty: 2, price: "12.50"}),
				ssOrder("o2", "1002", base.Add(2*time.Hour), ssItem{name: "Hoodie", qty: 1, price: "30"}),
			}, "page-2"))
		case "page-2":
			w.Write(ssPage([]map[string]interface{}{
				ssOrder("o1", "1001", base.Add(time.Hour), ssItem{name: "Pub Crawl Tee", size: "L", qty: 1, price: "12.50"}),
			}, ""))
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
	defer srv.Close()

	result, err := newTestSquarespaceClient().FetchOrders(context.Background(),
		SquarespaceCredentials{APIURL: srv.URL + "/", APIKey: "sq-key"}, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(2), requests.Load())
	assert.Equal(t, 2, result.Pages)
	require.Len(t, result.Orders, 3)
	require.NotNil(t, result.LatestObservedDate)
	assert.True(t, result.LatestObservedDate.Equal(base.Add(3*time.Hour)))

	first := result.Orders[0]
	assert.Equal(t, "o3", first.ID)
	assert.Equal(t, "1003", first.OrderNumber)
	assert.Equal(t, "Ada Lovelace", first.CustomerName)
	assert.Equal(t, "GBP", first.Currency)
	assert.Equal(t, "25", first.GrandTotal.String())
	require.Len(t, first.LineItems, 1)
	assert.Equal(t, "M", first.LineItems[0].Size)
	assert.Equal(t, 2, first.LineItems[0].Quantity)
	assert.Equal(t, "12.5", first.LineItems[0].UnitPrice.String())
	assert.Equal(t, []string{"Size: M", "Colour: Black"}, first.LineItems[0].VariantOptions)
	assert.NotEmpty(t, first.Raw)
}

func TestSquarespaceClient_StopsAtFirstStaleOrder(t *testing.T) {
	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	var requests atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Query().Get("cursor") != "" {
			t.Error("second page must not be requested")
		}
		w.Write(ssPage([]map[string]interface{}{
			ssOrder("o4", "4", since.Add(4*time.Hour), ssItem{name: "Tee", qty: 1, price: "10"}),
			ssOrder("o3", "3", since.Add(3*time.Hour), ssItem{name: "Tee", qty: 1, price: "10"}),
			ssOrder("o2", "2", since.Add(2*time.Hour), ssItem{name: "Tee", qty: 1, price: "10"}),
			ssOrder("o1", "1", since.Add(time.Hour), ssItem{name: "Tee", qty: 1, price: "10"}),
			ssOrder("o0", "0", since.Add(-time.Hour), ssItem{name: "Tee", qty: 1, price: "10"}),
			ssOrder("o-1", "-1", since.Add(-2*time.Hour), ssItem{name: "Tee", qty: 1, price: "10"}),
		}, "page-2"))
	}))
	defer srv.Close()

	result, err := newTestSquarespaceClient().FetchOrders(context.Background(),
		SquarespaceCredentials{APIURL: srv.URL, APIKey: "k"}, &since)
	require.NoError(t, err)

	assert.Equal(t, int32(1), requests.Load())
	ids := make([]string, len(result.Orders))
	for i, o := range result.Orders {
		ids[i] = o.ID
	}
	assert.Equal(t, []string{"o4", "o3", "o2", "o1"}, ids)
	assert.True(t, result.LatestObservedDate.Equal(since.Add(4*time.Hour)))
}

func TestSquarespaceClient_OrderAtCutoffIsKept(t *testing.T) {
	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(ssPage([]map[string]interface{}{
			ssOrder("edge", "9", since, ssItem{name: "Tee", qty: 1, price: "10"}),
		}, ""))
	}))
	defer srv.Close()

	result, err := newTestSquarespaceClient().FetchOrders(context.Background(),
		SquarespaceCredentials{APIURL: srv.URL, APIKey: "k"}, &since)
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, "edge", result.Orders[0].ID)
}

func TestSquarespaceClient_ErrorDiscardsPartialResult(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "" {
			w.Write(ssPage([]map[string]interface{}{
				ssOrder("o1", "1", base, ssItem{name: "Tee", qty: 1, price: "10"}),
			}, "next"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"type":"ERROR","message":"Service temporarily unavailable"}`)
	}))
	defer srv.Close()

	result, err := newTestSquarespaceClient().FetchOrders(context.Background(),
		SquarespaceCredentials{APIURL: srv.URL, APIKey: "k"}, nil)
	assert.Nil(t, result)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "Squarespace", upstream.Provider)
	assert.Equal(t, http.StatusServiceUnavailable, upstream.Status)
	assert.Equal(t, "Service temporarily unavailable", upstream.Message)
	assert.Equal(t, CodeUpstream, ErrorCode(err))
}

func TestSquarespaceClient_RejectsOrderWithoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[{"orderNumber":"1","createdOn":"2024-06-01T00:00:00Z"}],"pagination":{}}`))
	}))
	defer srv.Close()

	_, err := newTestSquarespaceClient().FetchOrders(context.Background(),
		SquarespaceCredentials{APIURL: srv.URL, APIKey: "k"}, nil)
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Contains(t, upstream.Message, "without id")
}

func TestFilterByKeyword(t *testing.T) {
	orders := []SourceOrder{
		{ID: "a", LineItems: []SourceLineItem{{ProductName: "Pub Crawl T-Shirt"}, {ProductName: "Society Hoodie"}}},
		{ID: "b", LineItems: []SourceLineItem{{ProductName: "Summer Ball Ticket"}}},
		{ID: "c", LineItems: []SourceLineItem{{ProductName: "PUB CRAWL wristband"}}},
	}

	filtered := FilterByKeyword(orders, "pub crawl")
	require.Len(t, filtered, 2)
	assert.Equal(t, "a", filtered[0].ID)
	require.Len(t, filtered[0].LineItems, 1)
	assert.Equal(t, "Pub Crawl T-Shirt", filtered[0].LineItems[0].ProductName)
	assert.Equal(t, "c", filtered[1].ID)

	// 原切片不被修改
	assert.Len(t, orders[0].LineItems, 2)

	assert.Len(t, FilterByKeyword(orders, "  "), 3)
}

func TestSquarespaceClient_RepeatedCursorFails(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var requests atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		// 第二页起一直返回同一个游标
		w.Write(ssPage([]map[string]interface{}{
			ssOrder(fmt.Sprintf("o%d", n), "1", base.Add(-time.Duration(n)*time.Hour), ssItem{name: "Tee", qty: 1, price: "10"}),
		}, "page-2"))
	}))
	defer srv.Close()

	result, err := newTestSquarespaceClient().FetchOrders(context.Background(),
		SquarespaceCredentials{APIURL: srv.URL, APIKey: "sq-key"}, nil)
	require.Error(t, err)
	assert.Nil(t, result)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Contains(t, upstream.Message, "cursor repeated")
	assert.Equal(t, int32(2), requests.Load())
}

func TestTruncate_KeepsRuneBoundary(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))

	// "订" 占 3 字节，截断点落在字符中间时回退
	got := truncate("a订单", 2)
	assert.Equal(t, "a...", got)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "a订...", truncate("a订单", 4))
}
