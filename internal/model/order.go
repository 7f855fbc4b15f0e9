package model

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ==================== 订单状态常量 ====================

// FulfillmentStatus 本地履约状态
// 来源状态只用于新订单的初始值，离开 PENDING 后由操作员维护
const (
	FulfillmentPending   = "PENDING"   // 待处理
	FulfillmentPacked    = "PACKED"    // 已打包
	FulfillmentFulfilled = "FULFILLED" // 已完成
)

// ShippingStatus 本地发货状态（Squarespace 无此概念）
const (
	ShippingPending = "PENDING"
	ShippingShipped = "SHIPPED"
)

// Squarespace 订单状态
const (
	SourceStatusPending   = "PENDING"
	SourceStatusFulfilled = "FULFILLED"
	SourceStatusCanceled  = "CANCELED"
)

// SeedFulfillmentStatus 由来源状态推导新订单的初始履约状态
func SeedFulfillmentStatus(sourceStatus string) string {
	switch sourceStatus {
	case SourceStatusFulfilled, SourceStatusCanceled:
		return FulfillmentFulfilled
	default:
		return FulfillmentPending
	}
}

// ==================== Order 订单主表 ====================

// Order 商品订单（ID 为 Squarespace 订单 ID）
type Order struct {
	ID string `gorm:"primaryKey;size:64"`

	// 面向顾客的订单号，历史数据可能为空
	OrderNumber *string `gorm:"size:32;index"`

	// 顾客快照（每次同步刷新）
	CustomerName  string `gorm:"size:255"`
	CustomerEmail string `gorm:"size:255;index"`
	CustomerPhone string `gorm:"size:64"`

	// 金额
	GrandTotal decimal.Decimal `gorm:"type:numeric(12,2)"`
	Currency   string          `gorm:"size:10;default:GBP"`

	// 状态
	SourceStatus      string `gorm:"size:32"`
	FulfillmentStatus string `gorm:"size:32;index;default:PENDING"`

	// 发货（仅本地）
	ShippingStatus string `gorm:"size:32;default:PENDING"`
	TrackingNumber string `gorm:"size:64"`
	Carrier        string `gorm:"size:64"`
	ShippedAt      *time.Time

	// Squarespace 原始数据
	RawData datatypes.JSON

	OrderDate time.Time `gorm:"index"`
	SyncedAt  *time.Time

	// 审计字段
	CreatedAt time.Time
	UpdatedAt time.Time

	// 关联
	LineItems []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (*Order) TableName() string {
	return "orders"
}

// CanTransitionTo 检查履约状态流转是否合法
// PENDING -> PACKED -> FULFILLED，允许回退一步以便纠错
func (o *Order) CanTransitionTo(status string) bool {
	switch o.FulfillmentStatus {
	case FulfillmentPending:
		return status == FulfillmentPacked || status == FulfillmentFulfilled
	case FulfillmentPacked:
		return status == FulfillmentFulfilled || status == FulfillmentPending
	case FulfillmentFulfilled:
		return status == FulfillmentPacked
	}
	return false
}

// IsShipped 是否已发货
func (o *Order) IsShipped() bool {
	return o.ShippingStatus == ShippingShipped
}

// ==================== OrderLineItem 订单项 ====================

// OrderLineItem 订单项
// 来源系统不提供稳定的明细 ID，同步时整单替换
type OrderLineItem struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	OrderID        string          `gorm:"size:64;index;not null"`
	ProductName    string          `gorm:"size:500"`
	Size           string          `gorm:"size:64"`
	Quantity       int             `gorm:"default:1"`
	UnitPrice      decimal.Decimal `gorm:"type:numeric(12,2)"`
	VariantOptions StringArray
	CreatedAt      time.Time
}

func (*OrderLineItem) TableName() string {
	return "order_line_items"
}

// GetTotalPrice 小计
func (i *OrderLineItem) GetTotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ==================== StringArray ====================

// StringArray postgres 下为 text[]，其他方言退化为 text
type StringArray pq.StringArray

func (a StringArray) Value() (driver.Value, error) {
	return pq.StringArray(a).Value()
}

func (a *StringArray) Scan(src interface{}) error {
	return (*pq.StringArray)(a).Scan(src)
}

func (StringArray) GormDataType() string {
	return "text"
}

func (StringArray) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
