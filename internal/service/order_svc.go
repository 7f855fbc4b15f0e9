package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"society_admin_v1/internal/api/dto"
	"society_admin_v1/internal/model"
	"society_admin_v1/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid fulfillment status transition")
)

// ==================== OrderService ====================

// OrderService 操作员订单操作
type OrderService struct {
	orderRepo repository.OrderRepository
	activity  ActivityRecorder
	now       func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, activity ActivityRecorder) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		activity:  activity,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ==================== 订单列表 ====================

// ListOrders 获取订单列表
func (s *OrderService) ListOrders(ctx context.Context, req *dto.ListOrdersRequest) (*dto.ListOrdersResponse, error) {
	filter := repository.OrderFilter{
		FulfillmentStatus: req.FulfillmentStatus,
		ShippingStatus:    req.ShippingStatus,
		Keyword:           req.Keyword,
		Page:              req.Page,
		PageSize:          req.PageSize,
	}

	// 解析日期
	if req.StartDate != "" {
		t, err := time.Parse("2006-01-02", req.StartDate)
		if err == nil {
			filter.StartDate = &t
		}
	}
	if req.EndDate != "" {
		t, err := time.Parse("2006-01-02", req.EndDate)
		if err == nil {
			endOfDay := t.Add(24*time.Hour - time.Second)
			filter.EndDate = &endOfDay
		}
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("查询订单列表失败: %w", err)
	}

	list := make([]dto.OrderListItem, len(orders))
	for i, order := range orders {
		list[i] = dto.OrderListItem{
			ID:                order.ID,
			OrderNumber:       deref(order.OrderNumber),
			CustomerName:      order.CustomerName,
			CustomerEmail:     order.CustomerEmail,
			FulfillmentStatus: order.FulfillmentStatus,
			ShippingStatus:    order.ShippingStatus,
			ItemCount:         len(order.LineItems),
			GrandTotal:        order.GrandTotal,
			Currency:          order.Currency,
			OrderDate:         order.OrderDate,
		}
	}

	return &dto.ListOrdersResponse{
		Total: total,
		List:  list,
	}, nil
}

// ==================== 订单详情 ====================

// GetOrderDetail 获取订单详情
func (s *OrderService) GetOrderDetail(ctx context.Context, orderID string) (*dto.OrderDetailResponse, error) {
	order, err := s.orderRepo.GetByIDWithItems(ctx, orderID)
	if err != nil {
		return nil, notFound(err)
	}

	items := make([]dto.OrderItemVO, len(order.LineItems))
	for i, item := range order.LineItems {
		items[i] = dto.OrderItemVO{
			ID:             item.ID,
			ProductName:    item.ProductName,
			Size:           item.Size,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			TotalPrice:     item.GetTotalPrice(),
			VariantOptions: item.VariantOptions,
		}
	}

	return &dto.OrderDetailResponse{
		Order: &dto.OrderVO{
			ID:                order.ID,
			OrderNumber:       deref(order.OrderNumber),
			CustomerName:      order.CustomerName,
			CustomerEmail:     order.CustomerEmail,
			CustomerPhone:     order.CustomerPhone,
			SourceStatus:      order.SourceStatus,
			FulfillmentStatus: order.FulfillmentStatus,
			ShippingStatus:    order.ShippingStatus,
			TrackingNumber:    order.TrackingNumber,
			Carrier:           order.Carrier,
			ShippedAt:         order.ShippedAt,
			GrandTotal:        order.GrandTotal,
			Currency:          order.Currency,
			OrderDate:         order.OrderDate,
			SyncedAt:          order.SyncedAt,
		},
		Items: items,
	}, nil
}

// ==================== 订单操作 ====================

// UpdateStatus 修改履约状态
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return notFound(err)
	}
	if order.FulfillmentStatus == status {
		return nil
	}
	if !order.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.FulfillmentStatus, status)
	}

	if err := s.orderRepo.UpdateFields(ctx, orderID, map[string]interface{}{
		"fulfillment_status": status,
	}); err != nil {
		return fmt.Errorf("更新订单状态失败: %w", err)
	}

	s.activity.Record(ctx, ActivityEntry{
		Action:     model.ActionOrderStatus,
		EntityType: model.EntityOrder,
		EntityID:   orderID,
		Details:    map[string]interface{}{"from": order.FulfillmentStatus, "to": status},
	})
	return nil
}

// MarkShipped 记录物流信息并标记为已发货
func (s *OrderService) MarkShipped(ctx context.Context, orderID string, req *dto.UpdateShippingRequest) error {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		return notFound(err)
	}

	now := s.now()
	if err := s.orderRepo.UpdateFields(ctx, orderID, map[string]interface{}{
		"shipping_status": model.ShippingShipped,
		"tracking_number": req.TrackingNumber,
		"carrier":         req.Carrier,
		"shipped_at":      now,
	}); err != nil {
		return fmt.Errorf("更新发货信息失败: %w", err)
	}

	s.activity.Record(ctx, ActivityEntry{
		Action:     model.ActionOrderShipped,
		EntityType: model.EntityOrder,
		EntityID:   orderID,
		Details:    map[string]interface{}{"tracking_number": req.TrackingNumber, "carrier": req.Carrier},
	})
	return nil
}

// DeleteOrder 删除订单（仅管理员）
func (s *OrderService) DeleteOrder(ctx context.Context, orderID string) error {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		return notFound(err)
	}
	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		return fmt.Errorf("删除订单失败: %w", err)
	}

	s.activity.Record(ctx, ActivityEntry{
		Action:     model.ActionOrderDeleted,
		EntityType: model.EntityOrder,
		EntityID:   orderID,
	})
	return nil
}

// ==================== 辅助函数 ====================

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOrderNotFound
	}
	return fmt.Errorf("查询订单失败: %w", err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
