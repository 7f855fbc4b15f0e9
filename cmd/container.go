package main

import (
	"fmt"

	"society_admin_v1/internal/config"
	"society_admin_v1/internal/controller"
	"society_admin_v1/internal/metrics"
	"society_admin_v1/internal/middleware"
	"society_admin_v1/internal/model"
	"society_admin_v1/internal/repository"
	"society_admin_v1/internal/router"
	"society_admin_v1/internal/service"
	"society_admin_v1/pkg/crypto"
	"society_admin_v1/pkg/database"
	"society_admin_v1/pkg/logger"
	"society_admin_v1/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Logger      *zap.Logger
	Registry    *prometheus.Registry
	JWT         *middleware.JWTManager
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Settings  repository.SettingsRepository
	Order     repository.OrderRepository
	OrderItem repository.OrderLineItemRepository
	Member    repository.MemberRepository
	Payment   repository.PaymentRepository
	Response  repository.ResponseRepository
	Activity  repository.ActivityLogRepository
}

// Services 服务集合
type Services struct {
	Settings   *service.SettingsService
	Activity   *service.ActivityService
	OrderSync  *service.OrderSyncService
	MemberSync *service.MemberSyncService
	Trigger    *service.SyncTriggerService
	Order      *service.OrderService
	Member     *service.MemberService
}

// Close 释放资源
func (d *Dependencies) Close() {
	if sqlDB, err := d.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = d.Logger.Sync()
}

// ==================== 初始化函数 ====================

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config) (*Dependencies, error) {
	// -------- 日志 --------
	log, err := logger.NewZapLogger(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		FilePath:    cfg.Log.FilePath,
		Development: cfg.Log.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	// -------- 数据库 --------
	db, err := initDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	// -------- 基础组件 --------
	cipher, err := crypto.NewAESCipher(cfg.Crypto.Key)
	if err != nil {
		return nil, fmt.Errorf("初始化加密失败: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	syncMetrics := metrics.NewSyncMetrics(registry)

	// -------- Repo 层 --------
	repos := initRepositories(db)

	// -------- 服务层 --------
	services := initServices(cfg, repos, cipher, syncMetrics, log)

	// -------- Controller 层 --------
	controllers := initControllers(services)

	return &Dependencies{
		DB:          db,
		Logger:      log,
		Registry:    registry,
		JWT:         newJWTManager(cfg),
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}, nil
}

// initDatabase 初始化数据库
func initDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	return database.InitDB(cfg.Database.DSN, database.Options{LogLevel: cfg.Database.LogLevel}, log,
		// Settings
		&model.SyncSettings{},
		// Orders
		&model.Order{}, &model.OrderLineItem{},
		// Members
		&model.Member{}, &model.MembershipPayment{}, &model.MembershipResponse{},
		// Audit
		&model.ActivityLog{},
	)
}

// initRepositories 初始化所有仓库
func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Settings:  repository.NewSettingsRepository(db),
		Order:     repository.NewOrderRepository(db),
		OrderItem: repository.NewOrderLineItemRepository(db),
		Member:    repository.NewMemberRepository(db),
		Payment:   repository.NewPaymentRepository(db),
		Response:  repository.NewResponseRepository(db),
		Activity:  repository.NewActivityLogRepository(db),
	}
}

// initServices 初始化业务服务
func initServices(
	cfg *config.Config,
	repos *Repositories,
	cipher crypto.Cipher,
	m *metrics.SyncMetrics,
	log *zap.Logger,
) *Services {
	apiClient := utils.NewAPIClient(cfg.Sync.HTTPTimeout)

	settingsSvc := service.NewSettingsService(
		repos.Settings, cipher,
		utils.NewTTLCache[*service.Settings](cfg.Sync.SettingsTTL),
		log.Named("settings"),
	)
	activitySvc := service.NewActivityService(repos.Activity, log.Named("activity"))

	orderSync := service.NewOrderSyncService(
		settingsSvc,
		service.NewSquarespaceClient(apiClient, nil, log.Named("squarespace")),
		repos.Order, repos.OrderItem, repos.Settings,
		m, log.Named("order_sync"),
	)
	memberSync := service.NewMemberSyncService(
		settingsSvc,
		service.NewRubricClient(apiClient, log.Named("rubric")),
		repos.Member, repos.Payment, repos.Response,
		m, log.Named("member_sync"),
	)

	gate := service.NewSyncGate(repos.Settings, cfg.Sync.OrderInterval, cfg.Sync.MemberInterval)
	trigger := service.NewSyncTriggerService(gate, orderSync, memberSync, activitySvc, m, log.Named("sync"))

	return &Services{
		Settings:   settingsSvc,
		Activity:   activitySvc,
		OrderSync:  orderSync,
		MemberSync: memberSync,
		Trigger:    trigger,
		Order:      service.NewOrderService(repos.Order, activitySvc),
		Member:     service.NewMemberService(repos.Member),
	}
}

// initControllers 初始化所有控制器
func initControllers(svc *Services) *router.Controllers {
	return &router.Controllers{
		Sync:     controller.NewSyncController(svc.Trigger),
		Order:    controller.NewOrderController(svc.Order),
		Member:   controller.NewMemberController(svc.Member, svc.Trigger),
		Settings: controller.NewSettingsController(svc.Settings, svc.Activity),
	}
}

func newJWTManager(cfg *config.Config) *middleware.JWTManager {
	return middleware.NewJWTManager(middleware.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenTTL: cfg.JWT.AccessTTL,
		Issuer:         cfg.JWT.Issuer,
	})
}
