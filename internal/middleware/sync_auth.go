package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SyncSecretAuth 同步触发鉴权：Bearer 与共享密钥逐字节比较
// 未配置密钥时一律拒绝
func SyncSecretAuth(secret string) gin.HandlerFunc {
	expected := []byte(secret)

	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok || len(expected) == 0 || subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
