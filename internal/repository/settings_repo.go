package repository

import (
	"context"
	"fmt"
	"time"

	"society_admin_v1/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository 同步设置仓库（单行表）
type SettingsRepository interface {
	Get(ctx context.Context) (*model.SyncSettings, error)
	SaveCredentials(ctx context.Context, s *model.SyncSettings) error
	EnsureRow(ctx context.Context) error

	// TryAcquire 原子地检查冷却期并写入触发时间
	// 返回 false 表示仍在冷却期内，此时不写入任何数据
	TryAcquire(ctx context.Context, kind model.SyncKind, now time.Time, interval time.Duration) (bool, error)

	// AdvanceOrderWatermark 仅当新时间更晚时写入
	AdvanceOrderWatermark(ctx context.Context, t time.Time) (bool, error)
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository 创建设置仓库
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*model.SyncSettings, error) {
	var s model.SyncSettings
	err := r.db.WithContext(ctx).Where("id = ?", model.SettingsRowID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveCredentials 写入凭证字段，不触碰同步进度字段
func (r *settingsRepository) SaveCredentials(ctx context.Context, s *model.SyncSettings) error {
	s.ID = model.SettingsRowID
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"squarespace_api_url", "squarespace_api_key", "squarespace_keyword",
			"rubric_api_url", "rubric_api_key", "rubric_secret_id",
			"updated_at",
		}),
	}).Create(s).Error
}

func (r *settingsRepository) EnsureRow(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.SyncSettings{ID: model.SettingsRowID}).Error
}

func (r *settingsRepository) TryAcquire(ctx context.Context, kind model.SyncKind, now time.Time, interval time.Duration) (bool, error) {
	column := kind.AttemptColumn()
	if column == "" {
		return false, fmt.Errorf("未知同步类型: %s", kind)
	}

	cutoff := now.Add(-interval)
	result := r.db.WithContext(ctx).Model(&model.SyncSettings{}).
		Where("id = ?", model.SettingsRowID).
		Where(fmt.Sprintf("%s IS NULL OR %s <= ?", column, column), cutoff).
		Updates(map[string]interface{}{column: now, "updated_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *settingsRepository) AdvanceOrderWatermark(ctx context.Context, t time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.SyncSettings{}).
		Where("id = ?", model.SettingsRowID).
		Where("last_squarespace_order_date IS NULL OR last_squarespace_order_date < ?", t).
		Update("last_squarespace_order_date", t)
	return result.RowsAffected == 1, result.Error
}
