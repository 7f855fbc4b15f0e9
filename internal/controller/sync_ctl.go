package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"society_admin_v1/internal/api/dto"
	"society_admin_v1/internal/middleware"
	"society_admin_v1/internal/service"

	"github.com/gin-gonic/gin"
)

// SyncController 同步触发控制器（外部调度器调用）
type SyncController struct {
	trigger *service.SyncTriggerService
}

// NewSyncController 创建同步控制器
func NewSyncController(trigger *service.SyncTriggerService) *SyncController {
	return &SyncController{trigger: trigger}
}

// ==================== Handler 实现 ====================

// SyncOrders 订单同步
// POST /sync/orders
func (c *SyncController) SyncOrders(ctx *gin.Context) {
	result, err := c.trigger.TriggerOrders(ctx.Request.Context())
	if err != nil {
		respondSyncError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.SyncOrdersResponse{
		Message:            fmt.Sprintf("Order sync complete: %d added, %d updated", result.Added, result.Updated),
		Added:              result.Added,
		Updated:            result.Updated,
		NextCheckInSeconds: int(result.NextCheckIn.Seconds()),
	})
}

// SyncMembers 会员同步
// POST /sync/members
func (c *SyncController) SyncMembers(ctx *gin.Context) {
	result, err := c.trigger.TriggerMembers(ctx.Request.Context())
	if err != nil {
		respondSyncError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.SyncMembersResponse{
		Message:            fmt.Sprintf("Member sync complete: %d new members", result.NewMembers),
		NewMembers:         result.NewMembers,
		DurationSeconds:    result.Duration.Seconds(),
		NextCheckInSeconds: int(result.NextCheckIn.Seconds()),
	})
}

// ==================== 错误映射 ====================

// respondSyncError 同步错误统一转换为 HTTP 响应，只返回简短信息
func respondSyncError(ctx *gin.Context, err error) {
	var tooSoon *service.TooSoonError
	if errors.As(err, &tooSoon) {
		seconds := service.RetryAfterSeconds(tooSoon.RetryAfter)
		ctx.Header("Retry-After", strconv.Itoa(seconds))
		ctx.JSON(http.StatusTooManyRequests, dto.SyncTooSoonResponse{
			Error:             middleware.FormatRetryMessage(tooSoon.RetryAfter),
			RetryAfterSeconds: seconds,
		})
		return
	}

	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: syncFailureMessage(err)})
}

func syncFailureMessage(err error) string {
	var cfgErr *service.ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Error()
	}

	var upstream *service.UpstreamError
	if errors.As(err, &upstream) {
		if upstream.Status > 0 {
			return fmt.Sprintf("Sync failed: %s returned HTTP %d", upstream.Provider, upstream.Status)
		}
		return fmt.Sprintf("Sync failed: could not reach %s", upstream.Provider)
	}

	return "Sync failed"
}
