package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/adapter/notification"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/api/router"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/core/automation"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/cache"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/config"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/database"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/llm"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/logger"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/storage"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/repository"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/scheduler"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/service"

	_ "github.com/derril-tech/ai-powered-project-management-tool/docs" // Swagger docs
)

// @title AI-Powered Project Management API
// @version 1.0.0
// @description 项目、冲刺、任务与自动化规则管理
// @description 集成大模型的计划生成、健康度分析与站会总结

// @contact.name API Support
// @contact.email support@example.com

// @host localhost:8000
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

var (
	configFile = flag.String("config", "", "配置文件路径 (例如: -config=configs/config.yaml)")
	version    = flag.Bool("version", false, "显示版本信息")
)

const (
	appVersion = "1.0.0"
	appName    = "ai-project-management-api"
)

func main() {
	// 解析命令行参数
	flag.Parse()

	// 显示版本信息
	if *version {
		fmt.Printf("%s version %s\n", appName, appVersion)
		os.Exit(0)
	}

	// init config logger
	var cfg *config.Config
	{
		// 优先级: 命令行参数 > 环境变量 > 默认路径
		configPath := getConfigPath()

		c, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("加载配置失败: %v\n", err)
			fmt.Println("\n使用方式:")
			fmt.Println("  1. 命令行参数指定:")
			fmt.Println("     ./pm-api -config=configs/config.yaml")
			fmt.Println("  2. 环境变量指定:")
			fmt.Println("     export CONFIG_FILE=configs/config.yaml")
			fmt.Println("     ./pm-api")
			fmt.Println("  3. 使用默认配置:")
			fmt.Println("     ./pm-api  (查找 configs/config.yaml, 不存在时仅使用默认值与环境变量)")
			os.Exit(1)
		}
		cfg = c

		// 初始化日志
		if err := logger.Init(&cfg.Log); err != nil {
			fmt.Printf("初始化日志失败: %v\n", err)
			os.Exit(1)
		}
		logger.Info(fmt.Sprintf("Load config file: %s of %s", lo.Ternary(configPath != "", configPath, "<none>"), getConfigSource()))

		defer func() {
			_ = logger.Close()
		}()
	}

	logger.Info(fmt.Sprintf("服务 %s 启动中...", appName),
		zap.String("version", appVersion),
		zap.String("environment", cfg.App.Environment))

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer func() {
		_ = database.Close()
	}()
	logger.Info("数据库连接成功", zap.String("driver", cfg.Database.Driver), zap.String("database", cfg.Database.Database))

	db := database.GetDB()
	teamRepo := repository.NewTeamRepository(db)
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	sprintRepo := repository.NewSprintRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	automationRepo := repository.NewAutomationRepository(db)

	// 已注销令牌存储
	tokenStore := cache.NewTokenStore(&cfg.Redis)

	// 对象存储, 未配置时头像上传不可用
	var objectStorage storage.ObjectStorage
	if minioStorage, err := storage.NewMinioStorage(&cfg.Storage); err != nil {
		logger.Warn("对象存储初始化失败, 头像上传不可用", zap.Error(err))
	} else if minioStorage != nil {
		objectStorage = minioStorage
		logger.Info("对象存储已启用", zap.String("endpoint", cfg.Storage.Endpoint), zap.String("bucket", cfg.Storage.Bucket))
	}

	// 自动化引擎与定时规则
	notifier := notification.New(cfg, logger.Named("notify"))
	engine := automation.NewEngine(automationRepo, taskRepo, userRepo, notifier, logger.Named("automation"))
	ruleScheduler := scheduler.NewScheduler(automationRepo, engine, logger.Named("scheduler"))
	if err := ruleScheduler.Start(); err != nil {
		logger.Warn("定时规则调度器启动失败", zap.Error(err))
	}

	bridge := llm.NewBridge(&cfg.LLM, logger.Named("llm"))
	ldapService := service.NewLDAPService(&cfg.Auth.LDAP)

	svc := &router.Services{
		Auth:       service.NewAuthService(&cfg.Auth, userRepo, teamRepo, ldapService, tokenStore, logger.Log),
		User:       service.NewUserService(userRepo, teamRepo, objectStorage, logger.Log),
		Team:       service.NewTeamService(teamRepo),
		Project:    service.NewProjectService(projectRepo, userRepo, teamRepo, taskRepo, ruleScheduler, logger.Log),
		Sprint:     service.NewSprintService(sprintRepo, projectRepo, taskRepo, engine),
		Task:       service.NewTaskService(taskRepo, projectRepo, userRepo, sprintRepo, engine),
		Automation: service.NewAutomationService(automationRepo, projectRepo, ruleScheduler, logger.Log),
		AI:         service.NewAIService(bridge, projectRepo, sprintRepo, taskRepo),
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// 设置路由
	router.Version = appVersion
	r := router.Setup(cfg, svc, registry)

	// 创建HTTP服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Info(fmt.Sprintf("%s 服务启动成功", cfg.Server.Name),
			zap.String("address", addr),
			zap.String("mode", cfg.Server.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("服务正在关闭...")

	// 关闭定时规则调度器
	ruleScheduler.Stop()
	logger.Info("定时规则调度器已停止")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	logger.Info("服务已关闭")
}

// getConfigPath 获取配置文件路径
// 优先级: 命令行参数 > 环境变量 > 默认路径
func getConfigPath() string {
	// 1. 命令行参数
	if *configFile != "" {
		return *configFile
	}

	// 2. 环境变量
	if envConfig := os.Getenv("CONFIG_FILE"); envConfig != "" {
		return envConfig
	}

	// 3. 默认路径由 config.Load 查找
	return ""
}

// getConfigSource 获取配置来源说明
func getConfigSource() string {
	if *configFile != "" {
		return "命令行参数"
	}
	if os.Getenv("CONFIG_FILE") != "" {
		return "环境变量"
	}
	return "默认配置"
}
