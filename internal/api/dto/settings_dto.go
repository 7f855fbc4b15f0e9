package dto

import "time"

// SettingsResponse 设置（密钥已打码）
type SettingsResponse struct {
	SquarespaceAPIURL        string     `json:"squarespace_api_url"`
	SquarespaceAPIKey        string     `json:"squarespace_api_key"`
	SquarespaceKeyword       string     `json:"squarespace_keyword"`
	RubricAPIURL             string     `json:"rubric_api_url"`
	RubricAPIKey             string     `json:"rubric_api_key"`
	RubricSecretID           string     `json:"rubric_secret_id"`
	LastOrderSyncAt          *time.Time `json:"last_order_sync_at"`
	LastSquarespaceOrderDate *time.Time `json:"last_squarespace_order_date"`
	LastMemberSyncAt         *time.Time `json:"last_member_sync_at"`
}

// UpdateSettingsRequest 更新设置，未传字段保持不变
type UpdateSettingsRequest struct {
	SquarespaceAPIURL  *string `json:"squarespace_api_url" binding:"omitempty,max=512"`
	SquarespaceAPIKey  *string `json:"squarespace_api_key" binding:"omitempty,max=512"`
	SquarespaceKeyword *string `json:"squarespace_keyword" binding:"omitempty,max=255"`
	RubricAPIURL       *string `json:"rubric_api_url" binding:"omitempty,max=512"`
	RubricAPIKey       *string `json:"rubric_api_key" binding:"omitempty,max=512"`
	RubricSecretID     *string `json:"rubric_secret_id" binding:"omitempty,max=512"`
}
