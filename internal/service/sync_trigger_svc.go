package service

import (
	"context"
	"strconv"
	"time"

	"society_admin_v1/internal/metrics"
	"society_admin_v1/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderPollInterval 订单同步固定的建议轮询间隔
const OrderPollInterval = 5 * time.Minute

// NextMemberCheck 按本次新会员数量给出下一次轮询间隔
func NextMemberCheck(newMembers int) time.Duration {
	switch {
	case newMembers >= 10:
		return time.Minute
	case newMembers >= 1:
		return 5 * time.Minute
	default:
		return 30 * time.Minute
	}
}

// ==================== 依赖接口 ====================

// OrderSyncer 订单同步
type OrderSyncer interface {
	SyncOrders(ctx context.Context) (*OrderSyncResult, error)
}

// MemberSyncer 会员同步
type MemberSyncer interface {
	FullSync(ctx context.Context) (*MemberSyncResult, error)
	UpdateExistingMembers(ctx context.Context) (int, error)
}

// ==================== 结果 ====================

// OrderTriggerResult 订单触发结果
type OrderTriggerResult struct {
	SyncID      string
	Added       int
	Updated     int
	NextCheckIn time.Duration
}

// MemberTriggerResult 会员触发结果
type MemberTriggerResult struct {
	SyncID      string
	NewMembers  int
	Duration    time.Duration
	NextCheckIn time.Duration
}

// ==================== SyncTriggerService ====================

// SyncTriggerService 同步触发：准入 -> 对账 -> 日志/指标
// HTTP 接口、定时任务和命令行共用
type SyncTriggerService struct {
	gate     *SyncGate
	orders   OrderSyncer
	members  MemberSyncer
	activity ActivityRecorder
	metrics  *metrics.SyncMetrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewSyncTriggerService 创建触发服务
func NewSyncTriggerService(
	gate *SyncGate,
	orders OrderSyncer,
	members MemberSyncer,
	activity ActivityRecorder,
	m *metrics.SyncMetrics,
	logger *zap.Logger,
) *SyncTriggerService {
	return &SyncTriggerService{
		gate:     gate,
		orders:   orders,
		members:  members,
		activity: activity,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// TriggerOrders 订单同步
func (s *SyncTriggerService) TriggerOrders(ctx context.Context) (*OrderTriggerResult, error) {
	syncID := uuid.NewString()
	log := s.logger.With(zap.String("sync_id", syncID), zap.String("kind", string(model.SyncKindOrders)))

	if err := s.gate.Admit(ctx, model.SyncKindOrders); err != nil {
		s.metrics.ObserveRun(string(model.SyncKindOrders), outcomeOf(err), 0)
		log.Info("订单同步未准入", zap.Error(err))
		return nil, err
	}

	start := s.now()
	result, err := s.orders.SyncOrders(ctx)
	elapsed := s.now().Sub(start)
	if err != nil {
		s.metrics.ObserveRun(string(model.SyncKindOrders), outcomeOf(err), elapsed)
		log.Error("订单同步失败", zap.String("code", ErrorCode(err)), zap.Error(err))
		return nil, err
	}

	s.metrics.ObserveRun(string(model.SyncKindOrders), metrics.OutcomeSuccess, elapsed)
	log.Info("订单同步成功",
		zap.Int("added", result.Added),
		zap.Int("updated", result.Updated),
		zap.Duration("elapsed", elapsed),
	)
	return &OrderTriggerResult{
		SyncID:      syncID,
		Added:       result.Added,
		Updated:     result.Updated,
		NextCheckIn: OrderPollInterval,
	}, nil
}

// TriggerMembers 会员同步，每个新会员写一条操作日志
func (s *SyncTriggerService) TriggerMembers(ctx context.Context) (*MemberTriggerResult, error) {
	syncID := uuid.NewString()
	log := s.logger.With(zap.String("sync_id", syncID), zap.String("kind", string(model.SyncKindMembers)))

	if err := s.gate.Admit(ctx, model.SyncKindMembers); err != nil {
		s.metrics.ObserveRun(string(model.SyncKindMembers), outcomeOf(err), 0)
		log.Info("会员同步未准入", zap.Error(err))
		return nil, err
	}

	start := s.now()
	result, err := s.members.FullSync(ctx)
	elapsed := s.now().Sub(start)
	if err != nil {
		s.metrics.ObserveRun(string(model.SyncKindMembers), outcomeOf(err), elapsed)
		log.Error("会员同步失败", zap.String("code", ErrorCode(err)), zap.Error(err))
		return nil, err
	}

	for _, m := range result.NewMembers {
		s.activity.Record(ctx, ActivityEntry{
			Action:     model.ActionMemberSynced,
			EntityType: model.EntityMember,
			EntityID:   strconv.FormatInt(m.ID, 10),
			Details: map[string]interface{}{
				"email":          m.Email,
				"name":           m.FullName(),
				"membershipType": m.MembershipType,
				"syncId":         syncID,
			},
		})
	}

	s.metrics.ObserveRun(string(model.SyncKindMembers), metrics.OutcomeSuccess, elapsed)
	log.Info("会员同步成功",
		zap.Int("new_members", len(result.NewMembers)),
		zap.Int("payments", result.Payments),
		zap.Int("responses", result.Responses),
		zap.Duration("elapsed", elapsed),
	)
	return &MemberTriggerResult{
		SyncID:      syncID,
		NewMembers:  len(result.NewMembers),
		Duration:    elapsed,
		NextCheckIn: NextMemberCheck(len(result.NewMembers)),
	}, nil
}

// UpdateAllMembers 按需覆盖已有会员，不经过 SyncGate
func (s *SyncTriggerService) UpdateAllMembers(ctx context.Context) (int, error) {
	updated, err := s.members.UpdateExistingMembers(ctx)
	if err != nil {
		s.logger.Error("会员全量更新失败", zap.Int("updated", updated), zap.Error(err))
		return updated, err
	}

	s.activity.Record(ctx, ActivityEntry{
		Action:     model.ActionMembersUpdatedAll,
		EntityType: model.EntityMember,
		Details:    map[string]interface{}{"updated": updated},
	})
	return updated, nil
}

func outcomeOf(err error) string {
	switch ErrorCode(err) {
	case CodeTooSoon:
		return metrics.OutcomeTooSoon
	case CodeConfig:
		return metrics.OutcomeConfig
	case CodeUpstream:
		return metrics.OutcomeUpstream
	}
	return metrics.OutcomeFailed
}
