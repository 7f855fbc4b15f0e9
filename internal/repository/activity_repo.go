package repository

import (
	"context"

	"society_admin_v1/internal/model"

	"gorm.io/gorm"
)

// ActivityLogRepository 操作日志仓库接口
type ActivityLogRepository interface {
	Create(ctx context.Context, log *model.ActivityLog) error
	ListRecent(ctx context.Context, entityType string, limit int) ([]model.ActivityLog, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository 创建操作日志仓库
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, log *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *activityLogRepository) ListRecent(ctx context.Context, entityType string, limit int) ([]model.ActivityLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var logs []model.ActivityLog
	db := r.db.WithContext(ctx).Model(&model.ActivityLog{})
	if entityType != "" {
		db = db.Where("entity_type = ?", entityType)
	}
	err := db.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
