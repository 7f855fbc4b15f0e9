package task

import (
	"context"
	"errors"
	"sync"
	"time"

	"society_admin_v1/internal/service"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MemberTrigger 会员同步触发
type MemberTrigger interface {
	TriggerMembers(ctx context.Context) (*service.MemberTriggerResult, error)
}

// ==================== MemberSyncTask 会员同步任务 ====================

// MemberSyncTask 进程内会员轮询
// cron 按固定频率唤醒，实际执行时间按上次返回的建议间隔自适应
type MemberSyncTask struct {
	trigger MemberTrigger
	cron    *cron.Cron
	spec    string
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	nextRunAt time.Time
}

// NewMemberSyncTask 创建会员同步任务
func NewMemberSyncTask(trigger MemberTrigger, spec string, logger *zap.Logger) *MemberSyncTask {
	if spec == "" {
		spec = "30 * * * * *"
	}
	return &MemberSyncTask{
		trigger: trigger,
		cron:    cron.New(cron.WithSeconds()),
		spec:    spec,
		logger:  logger.With(zap.String("task", "member_sync")),
		now:     time.Now,
	}
}

// Start 启动定时任务
func (t *MemberSyncTask) Start() error {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		t.runOnce(ctx)
	})
	if err != nil {
		return err
	}

	t.cron.Start()
	t.logger.Info("会员同步任务已启动", zap.String("spec", t.spec))
	return nil
}

// Stop 停止任务
func (t *MemberSyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.logger.Info("会员同步任务已停止")
}

// NextRunAt 下一次实际执行时间
func (t *MemberSyncTask) NextRunAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextRunAt
}

// runOnce 未到建议时间则跳过；返回是否真正调用了触发
func (t *MemberSyncTask) runOnce(ctx context.Context) bool {
	now := t.now()

	t.mu.Lock()
	if now.Before(t.nextRunAt) {
		t.mu.Unlock()
		return false
	}
	t.mu.Unlock()

	result, err := t.trigger.TriggerMembers(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		var tooSoon *service.TooSoonError
		if errors.As(err, &tooSoon) {
			t.nextRunAt = now.Add(tooSoon.RetryAfter)
			t.logger.Debug("冷却中，推迟执行", zap.Time("next_run_at", t.nextRunAt))
			return true
		}
		// 失败不推迟，下个周期重试
		t.logger.Error("会员同步失败", zap.Error(err))
		return true
	}

	t.nextRunAt = now.Add(result.NextCheckIn)
	t.logger.Info("会员同步完成",
		zap.Int("new_members", result.NewMembers),
		zap.Duration("next_check_in", result.NextCheckIn),
	)
	return true
}
