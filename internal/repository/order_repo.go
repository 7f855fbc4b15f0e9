package repository

import (
	"context"
	"time"

	"society_admin_v1/internal/model"

	"gorm.io/gorm"
)

// 单条 IN 语句允许的最大 ID 数
const inChunkSize = 500

// ==================== 过滤条件 ====================

// OrderFilter 订单过滤条件
type OrderFilter struct {
	FulfillmentStatus string
	ShippingStatus    string
	StartDate         *time.Time
	EndDate           *time.Time
	Keyword           string
	Page              int
	PageSize          int
}

// ==================== OrderRepository 订单仓库 ====================

// OrderRepository 订单仓库接口
type OrderRepository interface {
	CreateBatch(ctx context.Context, orders []model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	GetByIDWithItems(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error

	// 同步相关
	ListStatuses(ctx context.Context) (map[string]string, error)
	HasMissingOrderNumber(ctx context.Context) (bool, error)
}

// ==================== 实现 ====================

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateBatch(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("LineItems").CreateInBatches(orders, 100).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByIDWithItems(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Order{})

	if filter.FulfillmentStatus != "" {
		db = db.Where("fulfillment_status = ?", filter.FulfillmentStatus)
	}
	if filter.ShippingStatus != "" {
		db = db.Where("shipping_status = ?", filter.ShippingStatus)
	}
	if filter.StartDate != nil {
		db = db.Where("order_date >= ?", filter.StartDate)
	}
	if filter.EndDate != nil {
		db = db.Where("order_date <= ?", filter.EndDate)
	}
	if filter.Keyword != "" {
		keyword := "%" + filter.Keyword + "%"
		db = db.Where("customer_name LIKE ? OR customer_email LIKE ? OR order_number LIKE ?",
			keyword, keyword, keyword)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	err := db.
		Preload("LineItems").
		Order("order_date DESC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&orders).Error

	return orders, total, err
}

func (r *orderRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 硬删除订单及其订单项
func (r *orderRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&model.OrderLineItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Order{}).Error
	})
}

// ListStatuses 一次性加载全部订单的履约状态，避免逐单查询
func (r *orderRepository) ListStatuses(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		ID                string
		FulfillmentStatus string
	}
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("id, fulfillment_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]string, len(rows))
	for _, row := range rows {
		statuses[row.ID] = row.FulfillmentStatus
	}
	return statuses, nil
}

func (r *orderRepository) HasMissingOrderNumber(ctx context.Context) (bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_number IS NULL").
		Limit(1).
		Pluck("id", &ids).Error
	return len(ids) > 0, err
}

// ==================== OrderLineItemRepository 订单项仓库 ====================

// OrderLineItemRepository 订单项仓库接口
type OrderLineItemRepository interface {
	CreateBatch(ctx context.Context, items []model.OrderLineItem) error
	GetByOrderID(ctx context.Context, orderID string) ([]model.OrderLineItem, error)
	DeleteByOrderIDs(ctx context.Context, orderIDs []string) error
}

type orderLineItemRepository struct {
	db *gorm.DB
}

// NewOrderLineItemRepository 创建订单项仓库
func NewOrderLineItemRepository(db *gorm.DB) OrderLineItemRepository {
	return &orderLineItemRepository{db: db}
}

func (r *orderLineItemRepository) CreateBatch(ctx context.Context, items []model.OrderLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(items, 100).Error
}

func (r *orderLineItemRepository) GetByOrderID(ctx context.Context, orderID string) ([]model.OrderLineItem, error) {
	var items []model.OrderLineItem
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error
	return items, err
}

// DeleteByOrderIDs 分批删除，每批一条语句，不包事务
func (r *orderLineItemRepository) DeleteByOrderIDs(ctx context.Context, orderIDs []string) error {
	for start := 0; start < len(orderIDs); start += inChunkSize {
		end := min(start+inChunkSize, len(orderIDs))
		err := r.db.WithContext(ctx).
			Where("order_id IN ?", orderIDs[start:end]).
			Delete(&model.OrderLineItem{}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
