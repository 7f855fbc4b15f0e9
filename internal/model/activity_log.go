package model

import (
	"time"

	"gorm.io/datatypes"
)

// 操作类型
const (
	ActionMemberSynced      = "MEMBER_SYNCED"
	ActionOrderStatus       = "ORDER_STATUS_CHANGED"
	ActionOrderShipped      = "ORDER_SHIPPED"
	ActionOrderDeleted      = "ORDER_DELETED"
	ActionSettingsUpdated   = "SETTINGS_UPDATED"
	ActionMembersUpdatedAll = "MEMBERS_UPDATED_ALL"
)

// 实体类型
const (
	EntityMember   = "member"
	EntityOrder    = "order"
	EntitySettings = "settings"
)

// ActivityLog 操作日志
type ActivityLog struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	ActorID    *int64 `gorm:"index"`
	ActorName  string `gorm:"size:128"`
	Action     string `gorm:"size:64;index;not null"`
	EntityType string `gorm:"size:32"`
	EntityID   string `gorm:"size:64;index"`
	Details    datatypes.JSONMap
	CreatedAt  time.Time `gorm:"index"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
