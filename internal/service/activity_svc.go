package service

import (
	"context"

	"society_admin_v1/internal/middleware"
	"society_admin_v1/internal/model"
	"society_admin_v1/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ActivityEntry 一条操作记录
type ActivityEntry struct {
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]interface{}
}

// ActivityRecorder 操作日志写入，失败不影响调用方
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry)
}

// ActivityService 操作日志
type ActivityService struct {
	repo   repository.ActivityLogRepository
	logger *zap.Logger
}

var _ ActivityRecorder = (*ActivityService)(nil)

// NewActivityService 创建操作日志服务
func NewActivityService(repo repository.ActivityLogRepository, logger *zap.Logger) *ActivityService {
	return &ActivityService{repo: repo, logger: logger}
}

// Record 写入操作日志，操作人取自 context；错误只记日志
func (s *ActivityService) Record(ctx context.Context, entry ActivityEntry) {
	log := &model.ActivityLog{
		ActorName:  "system",
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
	}
	if entry.Details != nil {
		log.Details = datatypes.JSONMap(entry.Details)
	}
	if info := middleware.GetAuditInfo(ctx); info != nil {
		actorID := info.UserID
		log.ActorID = &actorID
		log.ActorName = info.Username
	}

	// 请求结束后仍需落库
	if err := s.repo.Create(context.WithoutCancel(ctx), log); err != nil {
		s.logger.Warn("写入操作日志失败",
			zap.String("action", entry.Action),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err),
		)
	}
}

// ListRecent 最近的操作日志
func (s *ActivityService) ListRecent(ctx context.Context, entityType string, limit int) ([]model.ActivityLog, error) {
	return s.repo.ListRecent(ctx, entityType, limit)
}
