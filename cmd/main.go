package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"society_admin_v1/internal/config"
	"society_admin_v1/internal/middleware"
	"society_admin_v1/internal/router"
	"society_admin_v1/internal/task"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "society-admin",
		Usage: "社团后台：订单与会员同步服务",
		Commands: []*cli.Command{
			serveCommand(),
			syncCommand(),
			backfillCommand(),
			issueTokenCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ==================== 命令定义 ====================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "启动 HTTP 服务",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			deps, err := initDependencies(cfg)
			if err != nil {
				return err
			}
			defer deps.Close()

			// 1. 进程内任务（可选）
			tm := initTasks(cfg, deps)
			if err := tm.Start(); err != nil {
				return fmt.Errorf("启动定时任务失败: %w", err)
			}
			defer tm.Stop()

			// 2. 路由
			if cfg.Env == "prod" {
				gin.SetMode(gin.ReleaseMode)
			}
			r := router.SetupRouter(deps.Controllers, router.Options{
				SyncSecret: cfg.Sync.Secret,
				JWT:        deps.JWT,
				Gatherer:   deps.Registry,
				Cooldown:   middleware.NewCooldown(),
			})

			// 3. 启动服务
			return startServer(r, cfg.Server.Port, deps.Logger)
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "手动执行一次同步（同样经过触发间隔限制）",
		Subcommands: []*cli.Command{
			{
				Name:  "orders",
				Usage: "同步 Squarespace 订单",
				Action: func(c *cli.Context) error {
					return withDependencies(func(deps *Dependencies) error {
						result, err := deps.Services.Trigger.TriggerOrders(c.Context)
						if err != nil {
							return err
						}
						fmt.Printf("sync_id=%s added=%d updated=%d next_check_in=%s\n",
							result.SyncID, result.Added, result.Updated, result.NextCheckIn)
						return nil
					})
				},
			},
			{
				Name:  "members",
				Usage: "同步 Rubric 会员",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "update-all", Usage: "覆盖已有会员的快照字段"},
				},
				Action: func(c *cli.Context) error {
					return withDependencies(func(deps *Dependencies) error {
						if c.Bool("update-all") {
							updated, err := deps.Services.Trigger.UpdateAllMembers(c.Context)
							if err != nil {
								return err
							}
							fmt.Printf("updated=%d\n", updated)
							return nil
						}

						result, err := deps.Services.Trigger.TriggerMembers(c.Context)
						if err != nil {
							return err
						}
						fmt.Printf("sync_id=%s new_members=%d duration=%s next_check_in=%s\n",
							result.SyncID, result.NewMembers, result.Duration, result.NextCheckIn)
						return nil
					})
				},
			},
		},
	}
}

func backfillCommand() *cli.Command {
	return &cli.Command{
		Name:  "backfill-order-numbers",
		Usage: "全量拉取订单，补齐缺失的 order_number",
		Action: func(c *cli.Context) error {
			return withDependencies(func(deps *Dependencies) error {
				result, err := deps.Services.OrderSync.BackfillOrderNumbers(c.Context)
				if err != nil {
					return err
				}
				fmt.Printf("added=%d updated=%d\n", result.Added, result.Updated)
				return nil
			})
		},
	}
}

func issueTokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "issue-token",
		Usage: "签发管理端访问令牌",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "user-id", Value: 1},
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "role", Value: middleware.RoleCommittee, Usage: "admin 或 committee"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return errors.New("缺少 jwt.secret")
			}

			role := c.String("role")
			if role != middleware.RoleAdmin && role != middleware.RoleCommittee {
				return fmt.Errorf("未知角色: %s", role)
			}

			token, err := newJWTManager(cfg).GenerateAccessToken(c.Int64("user-id"), c.String("username"), role)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
}

// withDependencies 一次性命令的依赖初始化
func withDependencies(fn func(deps *Dependencies) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Database.DSN == "" || cfg.Crypto.Key == "" {
		return errors.New("缺少必要配置: database.dsn / crypto.key")
	}

	deps, err := initDependencies(cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	return fn(deps)
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(cfg *config.Config, deps *Dependencies) *task.TaskManager {
	return task.NewTaskManager(&task.TaskManagerDeps{
		Orders:  deps.Services.Trigger,
		Members: deps.Services.Trigger,
		Logger:  deps.Logger,
	}, &task.TaskManagerConfig{
		OrderEnabled:  cfg.Tasks.OrderEnabled,
		OrderSpec:     cfg.Tasks.OrderSpec,
		MemberEnabled: cfg.Tasks.MemberEnabled,
		MemberSpec:    cfg.Tasks.MemberSpec,
	})
}

// ==================== 服务启动 ====================

// startServer 启动服务并优雅关闭
func startServer(r *gin.Engine, port string, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("服务启动失败: %w", err)
	case <-quit:
	}

	logger.Info("正在关闭服务...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("服务关闭异常: %w", err)
	}
	logger.Info("服务已关闭")
	return nil
}

