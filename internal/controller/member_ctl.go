package controller

import (
	"net/http"

	"society_admin_v1/internal/api/dto"
	"society_admin_v1/internal/service"

	"github.com/gin-gonic/gin"
)

// MemberController 会员控制器
type MemberController struct {
	svc     *service.MemberService
	trigger *service.SyncTriggerService
}

// NewMemberController 创建会员控制器
func NewMemberController(svc *service.MemberService, trigger *service.SyncTriggerService) *MemberController {
	return &MemberController{svc: svc, trigger: trigger}
}

// List 会员列表
// GET /api/members
func (c *MemberController) List(ctx *gin.Context) {
	var req dto.ListMembersRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := c.svc.ListMembers(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// UpdateAll 用 Rubric 数据覆盖已有会员
// POST /api/members/update-all
func (c *MemberController) UpdateAll(ctx *gin.Context) {
	updated, err := c.trigger.UpdateAllMembers(ctx.Request.Context())
	if err != nil {
		respondSyncError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Members updated", "updated": updated})
}
