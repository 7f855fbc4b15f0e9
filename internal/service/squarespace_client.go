package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"society_admin_v1/internal/api/dto"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	providerSquarespace = "Squarespace"
	squarespaceOrders   = "/1.0/commerce/orders"

	// Squarespace 限制 300 次/分钟，这里留出余量
	squarespacePagesPerSecond = 4
)

// ==================== 领域结构 ====================

// SourceLineItem 已校验的来源订单项
type SourceLineItem struct {
	ProductName    string
	Size           string
	Quantity       int
	UnitPrice      decimal.Decimal
	VariantOptions []string
}

// SourceOrder 已校验的来源订单，下游只接触该结构
type SourceOrder struct {
	ID            string
	OrderNumber   string
	CreatedOn     time.Time
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	GrandTotal    decimal.Decimal
	Currency      string
	Status        string
	LineItems     []SourceLineItem
	Raw           json.RawMessage
}

// OrderFetchResult 拉取结果
type OrderFetchResult struct {
	Orders             []SourceOrder
	LatestObservedDate *time.Time
	Pages              int
}

// SquarespaceCredentials 订单源凭证
type SquarespaceCredentials struct {
	APIURL string
	APIKey string
}

// OrderSource 订单来源
type OrderSource interface {
	FetchOrders(ctx context.Context, creds SquarespaceCredentials, since *time.Time) (*OrderFetchResult, error)
}

// ==================== SquarespaceClient ====================

// SquarespaceClient Squarespace 订单拉取
type SquarespaceClient struct {
	client  *resty.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ OrderSource = (*SquarespaceClient)(nil)

// NewSquarespaceClient 创建客户端，limiter 为空时使用默认速率
func NewSquarespaceClient(client *resty.Client, limiter *rate.Limiter, logger *zap.Logger) *SquarespaceClient {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(squarespacePagesPerSecond), 1)
	}
	return &SquarespaceClient{
		client:  client,
		limiter: limiter,
		logger:  logger,
	}
}

// FetchOrders 按游标翻页拉取订单
// 传入 since 时，遇到第一条早于 since 的订单立即停止（接口按时间倒序返回）
// 任一页失败则丢弃已拉取的结果
func (c *SquarespaceClient) FetchOrders(ctx context.Context, creds SquarespaceCredentials, since *time.Time) (*OrderFetchResult, error) {
	endpoint := strings.TrimRight(creds.APIURL, "/") + squarespaceOrders
	result := &OrderFetchResult{}

	cursor := ""
	seen := make(map[string]struct{})
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &UpstreamError{Provider: providerSquarespace, Err: err}
		}

		page, err := c.fetchPage(ctx, endpoint, creds.APIKey, cursor)
		if err != nil {
			return nil, err
		}
		result.Pages++

		stale := false
		for _, raw := range page.Result {
			order, err := toSourceOrder(raw)
			if err != nil {
				return nil, err
			}

			if result.LatestObservedDate == nil || order.CreatedOn.After(*result.LatestObservedDate) {
				created := order.CreatedOn
				result.LatestObservedDate = &created
			}

			if since != nil && order.CreatedOn.Before(*since) {
				stale = true
				break
			}
			result.Orders = append(result.Orders, order)
		}

		if stale || !page.Pagination.HasNextPage || page.Pagination.NextPageCursor == "" {
			break
		}
		next := page.Pagination.NextPageCursor
		if _, ok := seen[next]; ok {
			return nil, &UpstreamError{Provider: providerSquarespace, Message: "pagination cursor repeated: " + next}
		}
		seen[next] = struct{}{}
		cursor = next
	}

	c.logger.Debug("Squarespace 订单拉取完成",
		zap.Int("pages", result.Pages),
		zap.Int("orders", len(result.Orders)),
	)
	return result, nil
}

func (c *SquarespaceClient) fetchPage(ctx context.Context, endpoint, apiKey, cursor string) (*dto.SquarespaceOrdersPage, error) {
	req := c.client.R().
		SetContext(ctx).
		SetAuthToken(apiKey)
	if cursor != "" {
		req.SetQueryParam("cursor", cursor)
	}

	resp, err := req.Get(endpoint)
	if err != nil {
		return nil, &UpstreamError{Provider: providerSquarespace, Err: err}
	}
	if resp.IsError() {
		return nil, &UpstreamError{
			Provider: providerSquarespace,
			Status:   resp.StatusCode(),
			Message:  squarespaceErrorMessage(resp.Body()),
		}
	}

	var page dto.SquarespaceOrdersPage
	if err := json.Unmarshal(resp.Body(), &page); err != nil {
		return nil, &UpstreamError{
			Provider: providerSquarespace,
			Status:   resp.StatusCode(),
			Message:  "unexpected response body",
			Err:      err,
		}
	}
	return &page, nil
}

func squarespaceErrorMessage(body []byte) string {
	var e dto.SquarespaceError
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return e.Message
	}
	return truncate(strings.TrimSpace(string(body)), 200)
}

// ==================== 转换 ====================

func toSourceOrder(raw json.RawMessage) (SourceOrder, error) {
	var o dto.SquarespaceOrder
	if err := json.Unmarshal(raw, &o); err != nil {
		return SourceOrder{}, &UpstreamError{Provider: providerSquarespace, Message: "malformed order", Err: err}
	}
	if o.ID == "" || o.CreatedOn.IsZero() {
		return SourceOrder{}, &UpstreamError{Provider: providerSquarespace, Message: "order without id or createdOn"}
	}

	total, err := parseMoney(o.GrandTotal.Value)
	if err != nil {
		return SourceOrder{}, &UpstreamError{Provider: providerSquarespace, Message: fmt.Sprintf("order %s grand total", o.ID), Err: err}
	}

	items := make([]SourceLineItem, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		price, err := parseMoney(li.UnitPricePaid.Value)
		if err != nil {
			return SourceOrder{}, &UpstreamError{Provider: providerSquarespace, Message: fmt.Sprintf("order %s line item price", o.ID), Err: err}
		}

		item := SourceLineItem{
			ProductName: strings.TrimSpace(li.ProductName),
			Quantity:    li.Quantity,
			UnitPrice:   price,
		}
		for _, opt := range li.VariantOptions {
			if strings.EqualFold(opt.OptionName, "size") {
				item.Size = opt.Value
			}
			item.VariantOptions = append(item.VariantOptions, opt.OptionName+": "+opt.Value)
		}
		items = append(items, item)
	}

	return SourceOrder{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CreatedOn:     o.CreatedOn.UTC(),
		CustomerName:  strings.TrimSpace(o.BillingAddress.FirstName + " " + o.BillingAddress.LastName),
		CustomerEmail: strings.TrimSpace(o.CustomerEmail),
		CustomerPhone: strings.TrimSpace(o.BillingAddress.Phone),
		GrandTotal:    total,
		Currency:      o.GrandTotal.Currency,
		Status:        strings.ToUpper(o.FulfillmentStatus),
		LineItems:     items,
		Raw:           raw,
	}, nil
}

func parseMoney(value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, err
	}
	return d.Round(2), nil
}

// FilterByKeyword 只保留商品名包含关键字的订单项（不区分大小写），没有匹配项的订单整单丢弃
func FilterByKeyword(orders []SourceOrder, keyword string) []SourceOrder {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return orders
	}

	filtered := make([]SourceOrder, 0, len(orders))
	for _, o := range orders {
		var matched []SourceLineItem
		for _, item := range o.LineItems {
			if strings.Contains(strings.ToLower(item.ProductName), needle) {
				matched = append(matched, item)
			}
		}
		if len(matched) == 0 {
			continue
		}
		o.LineItems = matched
		filtered = append(filtered, o)
	}
	return filtered
}
