package service

import (
	"context"
	"fmt"
	"time"

	"society_admin_v1/internal/model"
	"society_admin_v1/internal/repository"
)

// 默认最小触发间隔
const (
	DefaultOrderInterval  = 5 * time.Minute
	DefaultMemberInterval = time.Minute
)

// SyncGate 基于设置行的触发准入
// 准入判断与写入触发时间是同一条条件 UPDATE，并发触发只有一个能通过
type SyncGate struct {
	repo      repository.SettingsRepository
	intervals map[model.SyncKind]time.Duration
	now       func() time.Time
}

// NewSyncGate 创建准入控制，间隔为 0 时使用默认值
func NewSyncGate(repo repository.SettingsRepository, orderInterval, memberInterval time.Duration) *SyncGate {
	if orderInterval <= 0 {
		orderInterval = DefaultOrderInterval
	}
	if memberInterval <= 0 {
		memberInterval = DefaultMemberInterval
	}
	return &SyncGate{
		repo: repo,
		intervals: map[model.SyncKind]time.Duration{
			model.SyncKindOrders:  orderInterval,
			model.SyncKindMembers: memberInterval,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Interval 最小触发间隔
func (g *SyncGate) Interval(kind model.SyncKind) time.Duration {
	return g.intervals[kind]
}

// Admit 尝试准入；通过时触发时间已写入，失败的同步也不会回滚
func (g *SyncGate) Admit(ctx context.Context, kind model.SyncKind) error {
	interval, ok := g.intervals[kind]
	if !ok {
		return fmt.Errorf("未知同步类型: %s", kind)
	}

	if err := g.repo.EnsureRow(ctx); err != nil {
		return fmt.Errorf("初始化设置行失败: %w", err)
	}

	now := g.now()
	admitted, err := g.repo.TryAcquire(ctx, kind, now, interval)
	if err != nil {
		return fmt.Errorf("写入触发时间失败: %w", err)
	}
	if admitted {
		return nil
	}

	return &TooSoonError{Kind: string(kind), RetryAfter: g.retryAfter(ctx, kind, now, interval)}
}

func (g *SyncGate) retryAfter(ctx context.Context, kind model.SyncKind, now time.Time, interval time.Duration) time.Duration {
	row, err := g.repo.Get(ctx)
	if err != nil {
		return interval
	}

	last := row.LastOrderSyncAt
	if kind == model.SyncKindMembers {
		last = row.LastMemberSyncAt
	}
	if last == nil {
		return interval
	}

	remaining := interval - now.Sub(*last)
	if remaining <= 0 {
		return time.Second
	}
	return remaining
}
