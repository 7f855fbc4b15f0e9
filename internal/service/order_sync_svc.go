package service

import (
	"context"
	"fmt"
	"time"

	"society_admin_v1/internal/metrics"
	"society_admin_v1/internal/model"
	"society_admin_v1/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// OrderBackdate 增量拉取时水位向前回退的时间，吸收两端时钟偏差
const OrderBackdate = 24 * time.Hour

// OrderSyncResult 订单同步结果
type OrderSyncResult struct {
	Added              int
	Updated            int
	FullFetch          bool
	LatestObservedDate *time.Time
}

// ==================== OrderSyncService ====================

// OrderSyncService 订单对账
type OrderSyncService struct {
	settings     *SettingsService
	source       OrderSource
	orderRepo    repository.OrderRepository
	itemRepo     repository.OrderLineItemRepository
	settingsRepo repository.SettingsRepository
	metrics      *metrics.SyncMetrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewOrderSyncService 创建订单同步服务
func NewOrderSyncService(
	settings *SettingsService,
	source OrderSource,
	orderRepo repository.OrderRepository,
	itemRepo repository.OrderLineItemRepository,
	settingsRepo repository.SettingsRepository,
	m *metrics.SyncMetrics,
	logger *zap.Logger,
) *OrderSyncService {
	return &OrderSyncService{
		settings:     settings,
		source:       source,
		orderRepo:    orderRepo,
		itemRepo:     itemRepo,
		settingsRepo: settingsRepo,
		metrics:      m,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SyncOrders 增量同步
// 存在 order_number 为空的历史订单时自动改为全量拉取以回填
func (s *OrderSyncService) SyncOrders(ctx context.Context) (*OrderSyncResult, error) {
	return s.sync(ctx, false)
}

// BackfillOrderNumbers 忽略水位，全量拉取一次
func (s *OrderSyncService) BackfillOrderNumbers(ctx context.Context) (*OrderSyncResult, error) {
	return s.sync(ctx, true)
}

func (s *OrderSyncService) sync(ctx context.Context, forceFull bool) (*OrderSyncResult, error) {
	// 1. 读取配置
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := settings.RequireSquarespace(); err != nil {
		return nil, err
	}

	// 2. 决定拉取范围
	full := forceFull
	if !full {
		missing, err := s.orderRepo.HasMissingOrderNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("检查订单号缺失失败: %w", err)
		}
		full = missing
	}

	var since *time.Time
	if !full && settings.LastSquarespaceOrderDate != nil {
		t := settings.LastSquarespaceOrderDate.Add(-OrderBackdate)
		since = &t
	}

	fetched, err := s.source.FetchOrders(ctx, SquarespaceCredentials{
		APIURL: settings.SquarespaceAPIURL,
		APIKey: settings.SquarespaceAPIKey,
	}, since)
	if err != nil {
		return nil, err
	}
	s.metrics.AddPages(providerSquarespace, fetched.Pages)

	// 3. 关键字过滤
	orders := FilterByKeyword(fetched.Orders, settings.SquarespaceKeyword)

	result := &OrderSyncResult{
		FullFetch:          full,
		LatestObservedDate: fetched.LatestObservedDate,
	}

	// 4-6. 写入订单与订单项
	if len(orders) > 0 {
		if err := s.reconcile(ctx, orders, result); err != nil {
			return nil, err
		}
	}

	// 7. 推进水位
	if err := s.advanceWatermark(ctx, settings.LastSquarespaceOrderDate, fetched.LatestObservedDate); err != nil {
		return nil, err
	}

	s.metrics.AddOrders(result.Added, result.Updated)
	s.logger.Info("订单同步完成",
		zap.Bool("full_fetch", full),
		zap.Int("fetched", len(fetched.Orders)),
		zap.Int("matched", len(orders)),
		zap.Int("added", result.Added),
		zap.Int("updated", result.Updated),
	)
	return result, nil
}

func (s *OrderSyncService) reconcile(ctx context.Context, orders []SourceOrder, result *OrderSyncResult) error {
	statuses, err := s.orderRepo.ListStatuses(ctx)
	if err != nil {
		return fmt.Errorf("加载订单状态失败: %w", err)
	}

	now := s.now()
	var (
		inserts []model.Order
		items   []model.OrderLineItem
		touched = make([]string, 0, len(orders))
		seen    = make(map[string]struct{}, len(orders))
	)

	for _, o := range orders {
		// 翻页边界可能重复返回同一订单
		if _, dup := seen[o.ID]; dup {
			continue
		}
		seen[o.ID] = struct{}{}

		current, exists := statuses[o.ID]
		if !exists {
			inserts = append(inserts, newOrderFromSource(o, now))
			result.Added++
		} else {
			fields := orderMetadataFields(o, now)
			// 离开 PENDING 后履约状态由操作员维护
			if current == model.FulfillmentPending {
				fields["fulfillment_status"] = model.SeedFulfillmentStatus(o.Status)
			}
			if err := s.orderRepo.UpdateFields(ctx, o.ID, fields); err != nil {
				return fmt.Errorf("更新订单 %s 失败: %w", o.ID, err)
			}
			result.Updated++
		}

		touched = append(touched, o.ID)
		items = append(items, lineItemsFromSource(o)...)
	}

	if err := s.orderRepo.CreateBatch(ctx, inserts); err != nil {
		return fmt.Errorf("写入新订单失败: %w", err)
	}

	// 订单项整单替换：先删后插
	if err := s.itemRepo.DeleteByOrderIDs(ctx, touched); err != nil {
		return fmt.Errorf("清理订单项失败: %w", err)
	}
	if err := s.itemRepo.CreateBatch(ctx, items); err != nil {
		return fmt.Errorf("写入订单项失败: %w", err)
	}
	return nil
}

func (s *OrderSyncService) advanceWatermark(ctx context.Context, current, latest *time.Time) error {
	if latest == nil || (current != nil && !latest.After(*current)) {
		return nil
	}

	advanced, err := s.settingsRepo.AdvanceOrderWatermark(ctx, *latest)
	if err != nil {
		return fmt.Errorf("更新订单水位失败: %w", err)
	}
	if advanced {
		s.settings.Invalidate()
		s.metrics.SetWatermark(*latest)
	}
	return nil
}

// ==================== 转换 ====================

func newOrderFromSource(o SourceOrder, now time.Time) model.Order {
	syncedAt := now
	return model.Order{
		ID:                o.ID,
		OrderNumber:       orderNumberPtr(o.OrderNumber),
		CustomerName:      o.CustomerName,
		CustomerEmail:     o.CustomerEmail,
		CustomerPhone:     o.CustomerPhone,
		GrandTotal:        o.GrandTotal,
		Currency:          currencyOrDefault(o.Currency),
		SourceStatus:      o.Status,
		FulfillmentStatus: model.SeedFulfillmentStatus(o.Status),
		ShippingStatus:    model.ShippingPending,
		RawData:           datatypes.JSON(o.Raw),
		OrderDate:         o.CreatedOn,
		SyncedAt:          &syncedAt,
	}
}

func orderMetadataFields(o SourceOrder, now time.Time) map[string]interface{} {
	fields := map[string]interface{}{
		"customer_name":  o.CustomerName,
		"customer_email": o.CustomerEmail,
		"customer_phone": o.CustomerPhone,
		"grand_total":    o.GrandTotal,
		"currency":       currencyOrDefault(o.Currency),
		"source_status":  o.Status,
		"raw_data":       datatypes.JSON(o.Raw),
		"order_date":     o.CreatedOn,
		"synced_at":      now,
	}
	// 来源缺少订单号时保留已有值
	if o.OrderNumber != "" {
		fields["order_number"] = o.OrderNumber
	}
	return fields
}

func lineItemsFromSource(o SourceOrder) []model.OrderLineItem {
	items := make([]model.OrderLineItem, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		items = append(items, model.OrderLineItem{
			OrderID:        o.ID,
			ProductName:    li.ProductName,
			Size:           li.Size,
			Quantity:       li.Quantity,
			UnitPrice:      li.UnitPrice,
			VariantOptions: model.StringArray(li.VariantOptions),
		})
	}
	return items
}

func orderNumberPtr(n string) *string {
	if n == "" {
		return nil
	}
	return &n
}

func currencyOrDefault(c string) string {
	if c == "" {
		return "GBP"
	}
	return c
}
