package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== Cooldown 进程内冷却 ====================

// Cooldown 管理端手动操作的进程内冷却
// 外部调度器触发的同步走数据库中的 SyncGate，这里只防止操作员连续点击
type Cooldown struct {
	locks sync.Map // key -> *lockEntry
	now   func() time.Time
}

type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// NewCooldown 创建冷却器
func NewCooldown() *Cooldown {
	return &Cooldown{now: time.Now}
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查并在允许时记录本次执行时间
func (r *Cooldown) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := r.now()
	elapsed := now.Sub(entry.lastTime)
	if !entry.lastTime.IsZero() && elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key
func (r *Cooldown) Reset(key string) {
	r.locks.Delete(key)
}

// ==================== Gin 中间件 ====================

// CooldownGuard 冷却期内返回 429
func CooldownGuard(cd *Cooldown, key string, interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := cd.Check(key, interval)
		if !result.Allowed {
			seconds := int((result.RetryAfter + time.Second - 1) / time.Second)
			c.Header("Retry-After", fmt.Sprint(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":             FormatRetryMessage(result.RetryAfter),
				"retryAfterSeconds": seconds,
			})
			return
		}
		c.Next()
	}
}

// FormatRetryMessage 格式化重试提示
func FormatRetryMessage(d time.Duration) string {
	seconds := int((d + time.Second - 1) / time.Second)

	if seconds < 60 {
		return fmt.Sprintf("Sync ran recently, retry in %d seconds", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60

	if remainingSeconds == 0 {
		return fmt.Sprintf("Sync ran recently, retry in %d minutes", minutes)
	}

	return fmt.Sprintf("Sync ran recently, retry in %d min %d s", minutes, remainingSeconds)
}
