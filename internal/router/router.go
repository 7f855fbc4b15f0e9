package router

import (
	"net/http"
	"time"

	"society_admin_v1/internal/controller"
	"society_admin_v1/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 管理端手动全量更新会员的冷却时间
const updateAllCooldown = 5 * time.Minute

// Controllers 控制器集合
type Controllers struct {
	Sync     *controller.SyncController
	Order    *controller.OrderController
	Member   *controller.MemberController
	Settings *controller.SettingsController
}

// Options 路由依赖
type Options struct {
	SyncSecret string
	JWT        *middleware.JWTManager
	Gatherer   prometheus.Gatherer
	Cooldown   *middleware.Cooldown
}

// SetupRouter 注册所有路由
func SetupRouter(c *Controllers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// 1. 健康检查与指标
	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	// 2. 同步触发（外部调度器，共享密钥）
	sync := r.Group("/sync", middleware.SyncSecretAuth(opts.SyncSecret))
	{
		// POST /sync/orders
		sync.POST("/orders", c.Sync.SyncOrders)
		// POST /sync/members
		sync.POST("/members", c.Sync.SyncMembers)
	}

	// 3. 管理端 API
	cooldown := opts.Cooldown
	if cooldown == nil {
		cooldown = middleware.NewCooldown()
	}

	api := r.Group("/api", middleware.JWTAuth(opts.JWT), middleware.AuditContext())
	{
		orders := api.Group("/orders")
		{
			orders.GET("", c.Order.List)
			orders.GET("/:id", c.Order.Detail)
			orders.PATCH("/:id/status", c.Order.UpdateStatus)
			orders.PATCH("/:id/shipping", c.Order.MarkShipped)
			orders.DELETE("/:id", middleware.RequireRole(middleware.RoleAdmin), c.Order.Delete)
		}

		members := api.Group("/members")
		{
			members.GET("", c.Member.List)
			members.POST("/update-all",
				middleware.RequireRole(middleware.RoleAdmin),
				middleware.CooldownGuard(cooldown, "members:update-all", updateAllCooldown),
				c.Member.UpdateAll,
			)
		}

		settings := api.Group("/settings", middleware.RequireRole(middleware.RoleAdmin))
		{
			settings.GET("", c.Settings.Get)
			settings.PUT("", c.Settings.Update)
		}

		api.GET("/activity", c.Settings.ActivityLogs)
	}

	return r
}
