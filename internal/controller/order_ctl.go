package controller

import (
	"errors"
	"net/http"

	"society_admin_v1/internal/api/dto"
	"society_admin_v1/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderController 订单控制器
type OrderController struct {
	svc *service.OrderService
}

// NewOrderController 创建订单控制器
func NewOrderController(svc *service.OrderService) *OrderController {
	return &OrderController{svc: svc}
}

// ==================== 订单列表与详情 ====================

// List 订单列表
// GET /api/orders
func (c *OrderController) List(ctx *gin.Context) {
	var req dto.ListOrdersRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := c.svc.ListOrders(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Detail 订单详情
// GET /api/orders/:id
func (c *OrderController) Detail(ctx *gin.Context) {
	resp, err := c.svc.GetOrderDetail(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondOrderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ==================== 订单操作 ====================

// UpdateStatus 修改履约状态
// PATCH /api/orders/:id/status
func (c *OrderController) UpdateStatus(ctx *gin.Context) {
	var req dto.UpdateOrderStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := c.svc.UpdateStatus(ctx.Request.Context(), ctx.Param("id"), req.Status); err != nil {
		respondOrderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Order status updated"})
}

// MarkShipped 标记发货
// PATCH /api/orders/:id/shipping
func (c *OrderController) MarkShipped(ctx *gin.Context) {
	var req dto.UpdateShippingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := c.svc.MarkShipped(ctx.Request.Context(), ctx.Param("id"), &req); err != nil {
		respondOrderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Order marked as shipped"})
}

// Delete 删除订单
// DELETE /api/orders/:id
func (c *OrderController) Delete(ctx *gin.Context) {
	if err := c.svc.DeleteOrder(ctx.Request.Context(), ctx.Param("id")); err != nil {
		respondOrderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}

func respondOrderError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
