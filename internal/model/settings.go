package model

import "time"

// SettingsRowID 设置表只有一行
const SettingsRowID int64 = 1

// SyncSettings 外部集成配置（单行）
// 凭证字段为密文，由 SettingsService 负责加解密
type SyncSettings struct {
	ID int64 `gorm:"primaryKey"`

	// Squarespace
	SquarespaceAPIURL  string `gorm:"type:text"`
	SquarespaceAPIKey  string `gorm:"type:text"`
	SquarespaceKeyword string `gorm:"size:255"`

	// Rubric
	RubricAPIURL   string `gorm:"type:text"`
	RubricAPIKey   string `gorm:"type:text"`
	RubricSecretID string `gorm:"type:text"`

	// 订单同步进度：触发时间 / 已观察到的最新订单时间
	LastOrderSyncAt          *time.Time
	LastSquarespaceOrderDate *time.Time

	// 会员同步只用于限流，不作为增量水位
	LastMemberSyncAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (*SyncSettings) TableName() string {
	return "sync_settings"
}

// SyncKind 同步类型
type SyncKind string

const (
	SyncKindOrders  SyncKind = "orders"
	SyncKindMembers SyncKind = "members"
)

// AttemptColumn 触发时间列
func (k SyncKind) AttemptColumn() string {
	switch k {
	case SyncKindOrders:
		return "last_order_sync_at"
	case SyncKindMembers:
		return "last_member_sync_at"
	}
	return ""
}
