package dto

import "encoding/json"

// ==================== Rubric CRM ====================

// RubricMembersRequest 会员导出请求
type RubricMembersRequest struct {
	SecretID string `json:"secret_id"`
}

// RubricMember 会员原始记录
// 字段类型以 Rubric 实际返回为准：价格为带货币符号的字符串，valid 为 0/1
type RubricMember struct {
	Email          string          `json:"email" validate:"required,email"`
	FirstName      string          `json:"first_name" validate:"max=128"`
	LastName       string          `json:"last_name" validate:"max=128"`
	Phone          string          `json:"phone_number" validate:"max=64"`
	MembershipID   string          `json:"membership_id" validate:"required,max=64"`
	MembershipType string          `json:"membership_type" validate:"max=128"`
	Price          string          `json:"price" validate:"max=32"`
	PaymentMethod  string          `json:"payment_method" validate:"max=64"`
	TransactionID  string          `json:"transaction_id" validate:"max=128"`
	PurchasedAt    string          `json:"purchased_at"`
	Valid          json.RawMessage `json:"valid"`
	Responses      json.RawMessage `json:"responses"`
}
