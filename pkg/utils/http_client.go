package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultHTTPTimeout 外部 API 默认超时
const DefaultHTTPTimeout = 30 * time.Second

// NewAPIClient 创建外部 API 客户端
// 全系统出站请求统一从这里构造，超时必须显式设置
func NewAPIClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "Society-Admin/1.0").
		SetHeader("Accept", "application/json")
}
