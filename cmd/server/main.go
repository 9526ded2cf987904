package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"backend/api"
	auditpkg "backend/internal/audit"
	"backend/internal/automation"
	"backend/internal/config"
	"backend/internal/control"
	"backend/internal/infra"
	"backend/internal/logger"
	"backend/internal/maintenance"
	"backend/internal/notification"
	"backend/internal/telemetry"
	"backend/internal/worker"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// 0. 统一加载 .env，便于集中管理 APP_* 环境变量
	loadEnvFile()

	// 获取环境变量
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	// 1. 加载配置
	cfg, err := config.Load(env, "")
	if err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.String("env", env),
		zap.String("mode", cfg.Server.Mode),
	)

	// 3. 初始化数据库
	db, err := infra.InitDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer infra.CloseDatabase()

	// 4. 执行数据库迁移（根据配置）
	if cfg.Database.AutoMigrate {
		if err := runMigrations(db); err != nil {
			logger.Fatal("数据库迁移失败", zap.Error(err))
		}
	} else {
		logger.Info("跳过自动迁移（配置已禁用）")
	}

	// 5. 初始化 Redis（触发去重与任务队列）
	redisClient, err := infra.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Fatal("初始化 Redis 失败", zap.Error(err))
	}
	defer redisClient.Close()

	// 6. 创建路由与应用容器
	router, container := api.SetupRouter(db, redisClient, cfg)
	defer container.Queue.Close()
	defer container.Inspector.Close()

	// 7. 创建 HTTP 服务器
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// 8. 启动服务器（goroutine）
	go func() {
		logger.Info("HTTP 服务器启动",
			zap.Int("port", cfg.Server.Port),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器启动失败", zap.Error(err))
		}
	}()

	// 启动 Worker 服务器 (goroutine)
	go func() {
		if err := container.WorkerMux.Run(); err != nil {
			logger.Fatal("Worker 服务器启动失败", zap.Error(err))
		}
	}()

	// 9. 启动触发检查定时器
	scheduler := startTriggerScheduler(cfg, container)

	// 10. 优雅关闭
	gracefulShutdown(server, container.WorkerMux, scheduler)
}

// startTriggerScheduler 按配置的 cron 表达式周期性扫描执行计划与触发条件
func startTriggerScheduler(cfg *config.Config, container *api.AppContainer) *cron.Cron {
	scheduler := cron.New()

	if _, err := scheduler.AddFunc(cfg.Automation.ScheduleCheckCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := container.Triggers.CheckSchedules(ctx, time.Now()); err != nil {
			logger.Error("执行计划扫描失败", zap.Error(err))
		}
	}); err != nil {
		logger.Fatal("注册执行计划扫描失败", zap.Error(err))
	}

	if _, err := scheduler.AddFunc(cfg.Automation.ConditionCheckCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := container.Triggers.CheckConditions(ctx, time.Now()); err != nil {
			logger.Error("触发条件扫描失败", zap.Error(err))
		}
	}); err != nil {
		logger.Fatal("注册触发条件扫描失败", zap.Error(err))
	}

	scheduler.Start()
	logger.Info("触发检查定时器启动",
		zap.String("schedule_cron", cfg.Automation.ScheduleCheckCron),
		zap.String("condition_cron", cfg.Automation.ConditionCheckCron),
	)
	return scheduler
}

// gracefulShutdown 优雅关闭 HTTP、Worker 与定时器
func gracefulShutdown(server *http.Server, workerServer *worker.Server, scheduler *cron.Cron) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("收到退出信号，开始优雅关闭...")

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	workerServer.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP 服务器关闭失败", zap.Error(err))
	}

	logger.Info("应用已退出")
}

// loadEnvFile 依次尝试加载当前目录及上级目录的 .env 文件
func loadEnvFile() {
	if path := resolveEnvPath(); path != "" {
		if err := godotenv.Load(path); err != nil {
			fmt.Printf("加载环境变量文件 %s 失败: %v\n", path, err)
		} else {
			fmt.Printf("已加载环境变量文件: %s\n", path)
		}
	} else {
		fmt.Println("未找到 .env 文件，将仅使用系统环境变量和 config/* 配置")
	}
}

// resolveEnvPath 尝试从当前工作目录、可执行文件目录向上查找根目录 .env
func resolveEnvPath() string {
	candidates := collectEnvCandidates()
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func collectEnvCandidates() []string {
	seen := make(map[string]struct{})
	var candidates []string
	add := func(path string) {
		if path == "" {
			return
		}
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		candidates = append(candidates, path)
	}

	traverse := func(start string) {
		dir := filepath.Clean(start)
		for i := 0; i < 8; i++ {
			if dir == "" || dir == string(filepath.Separator) || dir == "." {
				break
			}
			add(filepath.Join(dir, ".env"))
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if wd, err := os.Getwd(); err == nil {
		traverse(wd)
	}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		traverse(exeDir)
	}

	return candidates
}

// runMigrations 执行数据库迁移
func runMigrations(db *gorm.DB) error {
	logger.Info("执行核心表自动迁移...")

	if err := infra.AutoMigrate(db,
		&automation.Workflow{},
		&telemetry.Metric{},
		&telemetry.InfrastructureStatus{},
		&telemetry.SecurityEvent{},
		&notification.Alert{},
		&notification.Notification{},
		&control.Operation{},
		&maintenance.Order{},
		&auditpkg.Entry{},
	); err != nil {
		return fmt.Errorf("迁移核心表失败: %w", err)
	}

	logger.Info("核心表迁移完成")
	return nil
}
