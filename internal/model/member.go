package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ==================== Member 会员 ====================

// Member 会员（以小写邮箱唯一）
type Member struct {
	ID             int64   `gorm:"primaryKey;autoIncrement"`
	Email          string  `gorm:"size:255;uniqueIndex;not null"`
	FirstName      string  `gorm:"size:128"`
	LastName       string  `gorm:"size:128"`
	Phone          *string `gorm:"size:64"`
	MembershipID   string  `gorm:"size:64;index"`
	MembershipType string  `gorm:"size:128"`

	// 付款快照
	Price         decimal.Decimal `gorm:"type:numeric(10,2)"`
	PaymentMethod string          `gorm:"size:64"`
	PurchasedAt   *time.Time

	IsValid bool `gorm:"default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (*Member) TableName() string {
	return "members"
}

// FullName 姓名
func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// NormalizeEmail 邮箱键统一小写，写入与查找都必须经过这里
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ==================== MembershipPayment 会费记录 ====================

// MembershipPayment 会费支付记录，只插入不更新
type MembershipPayment struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	MemberID      int64           `gorm:"not null;uniqueIndex:idx_member_transaction"`
	TransactionID string          `gorm:"size:128;not null;uniqueIndex:idx_member_transaction"`
	Amount        decimal.Decimal `gorm:"type:numeric(10,2)"`
	PaymentMethod string          `gorm:"size:64"`
	PaidAt        *time.Time
	CreatedAt     time.Time
}

func (*MembershipPayment) TableName() string {
	return "membership_payments"
}

// PaymentKey 去重键
type PaymentKey struct {
	MemberID      int64
	TransactionID string
}

// Key 返回去重键
func (p *MembershipPayment) Key() PaymentKey {
	return PaymentKey{MemberID: p.MemberID, TransactionID: p.TransactionID}
}

// ==================== MembershipResponse 入会表单 ====================

// MembershipResponse 入会表单回答，每个会员最多一条
type MembershipResponse struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	MemberID  int64 `gorm:"not null;uniqueIndex"`
	Responses datatypes.JSON
	CreatedAt time.Time
}

func (*MembershipResponse) TableName() string {
	return "membership_responses"
}
