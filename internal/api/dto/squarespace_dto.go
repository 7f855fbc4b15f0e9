package dto

import (
	"encoding/json"
	"time"
)

// ==================== Squarespace Commerce API ====================

// SquarespaceOrdersPage 订单列表分页响应 (GET /1.0/commerce/orders)
type SquarespaceOrdersPage struct {
	Result     []json.RawMessage     `json:"result"`
	Pagination SquarespacePagination `json:"pagination"`
}

// SquarespacePagination 游标分页
type SquarespacePagination struct {
	HasNextPage    bool   `json:"hasNextPage"`
	NextPageCursor string `json:"nextPageCursor"`
	NextPageURL    string `json:"nextPageUrl"`
}

// SquarespaceMoney 金额
type SquarespaceMoney struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// SquarespaceAddress 账单地址
type SquarespaceAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

// SquarespaceVariantOption 规格项，例如 {"optionName":"Size","value":"M"}
type SquarespaceVariantOption struct {
	OptionName string `json:"optionName"`
	Value      string `json:"value"`
}

// SquarespaceLineItem 订单项
type SquarespaceLineItem struct {
	ID             string                     `json:"id"`
	ProductName    string                     `json:"productName"`
	Quantity       int                        `json:"quantity"`
	UnitPricePaid  SquarespaceMoney           `json:"unitPricePaid"`
	VariantOptions []SquarespaceVariantOption `json:"variantOptions"`
}

// SquarespaceOrder 订单
type SquarespaceOrder struct {
	ID                string                `json:"id"`
	OrderNumber       string                `json:"orderNumber"`
	CreatedOn         time.Time             `json:"createdOn"`
	ModifiedOn        time.Time             `json:"modifiedOn"`
	CustomerEmail     string                `json:"customerEmail"`
	BillingAddress    SquarespaceAddress    `json:"billingAddress"`
	FulfillmentStatus string                `json:"fulfillmentStatus"`
	LineItems         []SquarespaceLineItem `json:"lineItems"`
	GrandTotal        SquarespaceMoney      `json:"grandTotal"`
}

// SquarespaceError 错误响应
type SquarespaceError struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
	Message string `json:"message"`
}
