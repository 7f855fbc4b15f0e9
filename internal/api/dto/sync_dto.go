package dto

// 同步触发接口由外部调度器轮询，字段使用 camelCase

// SyncOrdersResponse POST /sync/orders
type SyncOrdersResponse struct {
	Message            string `json:"message"`
	Added              int    `json:"added"`
	Updated            int    `json:"updated"`
	NextCheckInSeconds int    `json:"nextCheckInSeconds"`
}

// SyncMembersResponse POST /sync/members
type SyncMembersResponse struct {
	Message            string  `json:"message"`
	NewMembers         int     `json:"newMembers"`
	DurationSeconds    float64 `json:"durationSeconds"`
	NextCheckInSeconds int     `json:"nextCheckInSeconds"`
}

// SyncTooSoonResponse 429
type SyncTooSoonResponse struct {
	Error             string `json:"error"`
	RetryAfterSeconds int    `json:"retryAfterSeconds"`
}

// ErrorResponse 通用错误
type ErrorResponse struct {
	Error string `json:"error"`
}
