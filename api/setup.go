package api

import (
	"time"

	automationHandlers "backend/api/handlers/automation"
	"backend/internal/analysis"
	auditpkg "backend/internal/audit"
	"backend/internal/automation"
	"backend/internal/automation/engine"
	"backend/internal/config"
	"backend/internal/control"
	"backend/internal/infra"
	"backend/internal/infra/queue"
	"backend/internal/logger"
	"backend/internal/maintenance"
	"backend/internal/notification"
	"backend/internal/telemetry"
	"backend/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// AppContainer 组装后的应用依赖
type AppContainer struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Queue       queue.Client
	Inspector   *queue.Inspector
	Workflows   *automation.Store
	Service     *automation.Service
	Runner      *engine.Runner
	Triggers    *engine.TriggerEvaluator
	WorkerMux   *worker.Server
	AutoHandler *automationHandlers.Handler
}

// BuildContainer 组装全部服务与执行引擎
func BuildContainer(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *AppContainer {
	queueClient := queue.NewClient(cfg.Redis)
	queueInspector := queue.NewInspector(cfg.Redis)

	workflowStore := automation.NewStore(db)
	workflowService := automation.NewService(workflowStore)

	telemetrySource := telemetry.NewSource(db)
	alertStore := notification.NewAlertStore(db)
	notificationSink := notification.NewSink(db)
	controlSink := control.NewSink(db)
	maintenanceStore := maintenance.NewStore(db)
	auditSink := auditpkg.NewSink(db)
	analysisService := analysis.NewHTTPService(&cfg.Analysis)

	interpreter := engine.NewInterpreter(engine.Dependencies{
		Telemetry:          telemetrySource,
		Alerts:             alertStore,
		Notifier:           notificationSink,
		Control:            controlSink,
		Maintenance:        maintenanceStore,
		Analysis:           analysisService,
		DB:                 db,
		DefaultStepTimeout: time.Duration(cfg.Automation.DefaultStepTimeout) * time.Second,
	})

	runner := engine.NewRunner(workflowStore, interpreter, auditSink, alertStore)

	claims := infra.NewTriggerClaims(redisClient, time.Duration(cfg.Automation.TriggerClaimTTL)*time.Second)
	triggers := engine.NewTriggerEvaluator(
		workflowStore,
		telemetrySource,
		alertStore,
		claims,
		queue.NewSubmitter(queueClient),
	)

	workerServer := worker.NewServer(cfg.Redis, cfg.Automation.WorkerConcurrency, runner, logger.Get())

	return &AppContainer{
		DB:          db,
		Redis:       redisClient,
		Queue:       queueClient,
		Inspector:   queueInspector,
		Workflows:   workflowStore,
		Service:     workflowService,
		Runner:      runner,
		Triggers:    triggers,
		WorkerMux:   workerServer,
		AutoHandler: automationHandlers.NewHandler(workflowService, runner, triggers, queueInspector),
	}
}

// SetupRouter 设置并返回 Gin 路由和组装好的应用容器
func SetupRouter(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) (*gin.Engine, *AppContainer) {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(CORS())

	container := BuildContainer(db, redisClient, cfg)
	RegisterRoutes(router, db, container)

	return router, container
}
