package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListMembersRequest 会员列表请求
type ListMembersRequest struct {
	Keyword        string `form:"keyword"`
	MembershipType string `form:"membership_type"`
	ValidOnly      bool   `form:"valid_only"`
	Page           int    `form:"page,default=1"`
	PageSize       int    `form:"page_size,default=50"`
}

// ListMembersResponse 会员列表响应
type ListMembersResponse struct {
	Total int64      `json:"total"`
	List  []MemberVO `json:"list"`
}

// MemberVO 会员视图对象
type MemberVO struct {
	ID             int64           `json:"id"`
	Email          string          `json:"email"`
	Name           string          `json:"name"`
	Phone          *string         `json:"phone"`
	MembershipID   string          `json:"membership_id"`
	MembershipType string          `json:"membership_type"`
	Price          decimal.Decimal `json:"price"`
	PaymentMethod  string          `json:"payment_method"`
	IsValid        bool            `json:"is_valid"`
	PurchasedAt    *time.Time      `json:"purchased_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
