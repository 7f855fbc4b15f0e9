package task

import (
	"context"
	"errors"
	"time"

	"society_admin_v1/internal/service"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// 单次同步最长执行时间
const runTimeout = 10 * time.Minute

// OrderTrigger 订单同步触发
type OrderTrigger interface {
	TriggerOrders(ctx context.Context) (*service.OrderTriggerResult, error)
}

// ==================== OrderSyncTask 订单同步任务 ====================

// OrderSyncTask 进程内订单轮询
// 与外部调度器共用 SyncGate，同时开启也不会重复执行
type OrderSyncTask struct {
	trigger OrderTrigger
	cron    *cron.Cron
	spec    string
	logger  *zap.Logger
}

// NewOrderSyncTask 创建订单同步任务
func NewOrderSyncTask(trigger OrderTrigger, spec string, logger *zap.Logger) *OrderSyncTask {
	if spec == "" {
		spec = "0 */5 * * * *"
	}
	return &OrderSyncTask{
		trigger: trigger,
		cron:    cron.New(cron.WithSeconds()),
		spec:    spec,
		logger:  logger.With(zap.String("task", "order_sync")),
	}
}

// Start 启动定时任务
func (t *OrderSyncTask) Start() error {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		t.runOnce(ctx)
	})
	if err != nil {
		return err
	}

	t.cron.Start()
	t.logger.Info("订单同步任务已启动", zap.String("spec", t.spec))
	return nil
}

// Stop 停止任务
func (t *OrderSyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.logger.Info("订单同步任务已停止")
}

func (t *OrderSyncTask) runOnce(ctx context.Context) {
	result, err := t.trigger.TriggerOrders(ctx)
	if err != nil {
		var tooSoon *service.TooSoonError
		if errors.As(err, &tooSoon) {
			t.logger.Debug("冷却中，跳过本轮", zap.Duration("retry_after", tooSoon.RetryAfter))
			return
		}
		t.logger.Error("订单同步失败", zap.Error(err))
		return
	}

	if result.Added > 0 || result.Updated > 0 {
		t.logger.Info("订单同步完成",
			zap.Int("added", result.Added),
			zap.Int("updated", result.Updated),
		)
	}
}
