package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ==================== 订单列表查询 ====================

// ListOrdersRequest 订单列表请求
type ListOrdersRequest struct {
	FulfillmentStatus string `form:"fulfillment_status" binding:"omitempty,oneof=PENDING PACKED FULFILLED"`
	ShippingStatus    string `form:"shipping_status" binding:"omitempty,oneof=PENDING SHIPPED"`
	StartDate         string `form:"start_date"` // 2024-01-01
	EndDate           string `form:"end_date"`
	Keyword           string `form:"keyword"` // 搜索：订单号、顾客名、邮箱
	Page              int    `form:"page,default=1"`
	PageSize          int    `form:"page_size,default=20"`
}

// ListOrdersResponse 订单列表响应
type ListOrdersResponse struct {
	Total int64           `json:"total"`
	List  []OrderListItem `json:"list"`
}

// OrderListItem 订单列表项
type OrderListItem struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"order_number"`
	CustomerName      string          `json:"customer_name"`
	CustomerEmail     string          `json:"customer_email"`
	FulfillmentStatus string          `json:"fulfillment_status"`
	ShippingStatus    string          `json:"shipping_status"`
	ItemCount         int             `json:"item_count"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
	Currency          string          `json:"currency"`
	OrderDate         time.Time       `json:"order_date"`
}

// ==================== 订单详情 ====================

// OrderDetailResponse 订单详情响应
type OrderDetailResponse struct {
	Order *OrderVO      `json:"order"`
	Items []OrderItemVO `json:"items"`
}

// OrderVO 订单视图对象
type OrderVO struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"order_number"`
	CustomerName      string          `json:"customer_name"`
	CustomerEmail     string          `json:"customer_email"`
	CustomerPhone     string          `json:"customer_phone,omitempty"`
	SourceStatus      string          `json:"source_status"`
	FulfillmentStatus string          `json:"fulfillment_status"`
	ShippingStatus    string          `json:"shipping_status"`
	TrackingNumber    string          `json:"tracking_number,omitempty"`
	Carrier           string          `json:"carrier,omitempty"`
	ShippedAt         *time.Time      `json:"shipped_at,omitempty"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
	Currency          string          `json:"currency"`
	OrderDate         time.Time       `json:"order_date"`
	SyncedAt          *time.Time      `json:"synced_at,omitempty"`
}

// OrderItemVO 订单项视图对象
type OrderItemVO struct {
	ID             int64           `json:"id"`
	ProductName    string          `json:"product_name"`
	Size           string          `json:"size,omitempty"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	VariantOptions []string        `json:"variant_options,omitempty"`
}

// ==================== 订单操作 ====================

// UpdateOrderStatusRequest 更新履约状态请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING PACKED FULFILLED"`
}

// UpdateShippingRequest 标记发货请求
type UpdateShippingRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required,max=64"`
	Carrier        string `json:"carrier" binding:"required,max=64"`
}
