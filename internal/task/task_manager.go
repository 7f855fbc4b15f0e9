package task

import (
	"go.uber.org/zap"
)

// ==================== TaskManager 同步任务管理器 ====================

// TaskManager 统一管理进程内轮询任务
// 生产环境一般由外部调度器调用 /sync/*，这里用于没有外部调度器的部署
type TaskManager struct {
	orderTask  *OrderSyncTask
	memberTask *MemberSyncTask
	logger     *zap.Logger
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	Orders  OrderTrigger
	Members MemberTrigger
	Logger  *zap.Logger
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	OrderEnabled  bool
	OrderSpec     string
	MemberEnabled bool
	MemberSpec    string
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tm := &TaskManager{logger: logger}

	if cfg.OrderEnabled && deps.Orders != nil {
		tm.orderTask = NewOrderSyncTask(deps.Orders, cfg.OrderSpec, logger)
	}
	if cfg.MemberEnabled && deps.Members != nil {
		tm.memberTask = NewMemberSyncTask(deps.Members, cfg.MemberSpec, logger)
	}
	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() error {
	if tm.orderTask != nil {
		if err := tm.orderTask.Start(); err != nil {
			return err
		}
	}
	if tm.memberTask != nil {
		if err := tm.memberTask.Start(); err != nil {
			return err
		}
	}

	tm.logger.Info("同步任务已启动", zap.Any("status", tm.Status()))
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	if tm.orderTask != nil {
		tm.orderTask.Stop()
	}
	if tm.memberTask != nil {
		tm.memberTask.Stop()
	}
}

// ==================== 状态查询 ====================

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"order":  tm.orderTask != nil,
		"member": tm.memberTask != nil,
	}
}
