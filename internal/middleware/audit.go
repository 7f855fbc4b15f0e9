package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// ==================== 审计上下文 ====================

type auditContextKey struct{}

// AuditInfo 操作人
type AuditInfo struct {
	UserID   int64
	Username string
}

// WithAuditInfo 注入操作人到 context
func WithAuditInfo(ctx context.Context, userID int64, username string) context.Context {
	return context.WithValue(ctx, auditContextKey{}, &AuditInfo{
		UserID:   userID,
		Username: username,
	})
}

// GetAuditInfo 从 context 获取操作人，系统触发时为 nil
func GetAuditInfo(ctx context.Context) *AuditInfo {
	if info, ok := ctx.Value(auditContextKey{}).(*AuditInfo); ok {
		return info
	}
	return nil
}

// ==================== Gin 中间件 ====================

// AuditContext 将 JWT 中的用户信息注入 request context，供操作日志使用
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := GetUserID(c); userID > 0 {
			ctx := WithAuditInfo(c.Request.Context(), userID, GetUsername(c))
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
