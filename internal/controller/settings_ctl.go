package controller

import (
	"net/http"
	"sort"
	"strconv"

	"society_admin_v1/internal/api/dto"
	"society_admin_v1/internal/model"
	"society_admin_v1/internal/service"

	"github.com/gin-gonic/gin"
)

// SettingsController 集成设置控制器
type SettingsController struct {
	svc      *service.SettingsService
	activity *service.ActivityService
}

// NewSettingsController 创建设置控制器
func NewSettingsController(svc *service.SettingsService, activity *service.ActivityService) *SettingsController {
	return &SettingsController{svc: svc, activity: activity}
}

// Get 读取设置，密钥打码
// GET /api/settings
func (c *SettingsController) Get(ctx *gin.Context) {
	s, err := c.svc.Get(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, dto.SettingsResponse{
		SquarespaceAPIURL:        s.SquarespaceAPIURL,
		SquarespaceAPIKey:        service.MaskSecret(s.SquarespaceAPIKey),
		SquarespaceKeyword:       s.SquarespaceKeyword,
		RubricAPIURL:             s.RubricAPIURL,
		RubricAPIKey:             service.MaskSecret(s.RubricAPIKey),
		RubricSecretID:           service.MaskSecret(s.RubricSecretID),
		LastOrderSyncAt:          s.LastOrderSyncAt,
		LastSquarespaceOrderDate: s.LastSquarespaceOrderDate,
		LastMemberSyncAt:         s.LastMemberSyncAt,
	})
}

// Update 保存设置
// PUT /api/settings
func (c *SettingsController) Update(ctx *gin.Context) {
	var req dto.UpdateSettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := c.svc.Save(ctx.Request.Context(), service.SettingsUpdate{
		SquarespaceAPIURL:  req.SquarespaceAPIURL,
		SquarespaceAPIKey:  req.SquarespaceAPIKey,
		SquarespaceKeyword: req.SquarespaceKeyword,
		RubricAPIURL:       req.RubricAPIURL,
		RubricAPIKey:       req.RubricAPIKey,
		RubricSecretID:     req.RubricSecretID,
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.activity.Record(ctx.Request.Context(), service.ActivityEntry{
		Action:     model.ActionSettingsUpdated,
		EntityType: model.EntitySettings,
		EntityID:   strconv.FormatInt(model.SettingsRowID, 10),
		Details:    map[string]interface{}{"fields": changedFields(&req)},
	})
	ctx.JSON(http.StatusOK, gin.H{"message": "Settings saved"})
}

// ActivityLogs 最近操作日志
// GET /api/activity?entity_type=member&limit=100
func (c *SettingsController) ActivityLogs(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "100"))
	logs, err := c.activity.ListRecent(ctx.Request.Context(), ctx.Query("entity_type"), limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"list": logs})
}

// changedFields 只记录字段名，不记录值
func changedFields(req *dto.UpdateSettingsRequest) []string {
	var fields []string
	for name, v := range map[string]*string{
		"squarespace_api_url": req.SquarespaceAPIURL,
		"squarespace_api_key": req.SquarespaceAPIKey,
		"squarespace_keyword": req.SquarespaceKeyword,
		"rubric_api_url":      req.RubricAPIURL,
		"rubric_api_key":      req.RubricAPIKey,
		"rubric_secret_id":    req.RubricSecretID,
	} {
		if v != nil {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return fields
}
