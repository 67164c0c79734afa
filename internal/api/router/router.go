package router

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/api/handler"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/api/middleware"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/auth"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/config"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/service"
	"github.com/derril-tech/ai-powered-project-management-tool/pkg/utils"
)

// Version 服务版本, 由 main 设置
var Version = "1.0.0"

// Services 路由依赖的业务服务
type Services struct {
	Auth       service.AuthService
	User       service.UserService
	Team       service.TeamService
	Project    service.ProjectService
	Sprint     service.SprintService
	Task       service.TaskService
	Automation service.AutomationService
	AI         service.AIService
}

var registerOnce sync.Once

// RegisterValidators 注册枚举校验器, 并以 json/form 标签名报告字段
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)

		// 可选引用: 空字符串表示清除
		_ = v.RegisterValidation("uuid_or_empty", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || (len(s) == 36 && uuid.Validate(s) == nil)
		})

		for tag, values := range model.Enums() {
			allowed := lo.SliceToMap(values, func(s string) (string, struct{}) { return s, struct{}{} })
			_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				_, ok := allowed[fl.Field().String()]
				return ok
			})
			utils.RegisterEnumMessage(tag, values)
		}
	})
}

// fieldName 依次取 json、form、uri 标签
func fieldName(fld reflect.StructField) string {
	for _, key := range []string{"json", "form", "uri"} {
		name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// Setup 设置路由
func Setup(cfg *config.Config, svc *Services, registry *prometheus.Registry) *gin.Engine {
	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	RegisterValidators()

	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	metrics := middleware.NewMetrics(registry)

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.Server.AllowedHosts))
	r.Use(metrics.Handler())

	healthHandler := handler.NewHealthHandler(Version)
	r.GET("/", healthHandler.Root)
	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Swagger API 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 初始化Handler
	authHandler := handler.NewAuthHandler(svc.Auth)
	userHandler := handler.NewUserHandler(svc.User)
	teamHandler := handler.NewTeamHandler(svc.Team)
	projectHandler := handler.NewProjectHandler(svc.Project)
	sprintHandler := handler.NewSprintHandler(svc.Sprint)
	taskHandler := handler.NewTaskHandler(svc.Task)
	automationHandler := handler.NewAutomationHandler(svc.Automation)
	aiHandler := handler.NewAIHandler(svc.AI)

	perm := middleware.RequirePermission

	v1 := r.Group(cfg.Server.APIPrefix)
	{
		// 认证相关(无需token)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		// 需要认证的路由
		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware(svc.Auth))
		{
			authed.POST("/auth/logout", authHandler.Logout)

			// 个人资料, 任意登录用户可用
			authed.GET("/users/me", userHandler.GetMe)
			authed.PUT("/users/me", userHandler.UpdateMe)
			authed.PUT("/users/me/avatar", userHandler.UploadAvatar)

			users := authed.Group("/users")
			{
				users.GET("", perm(auth.PermUserView), userHandler.List)
				users.POST("", perm(auth.PermUserCreate), userHandler.Create)
				users.GET("/:id", perm(auth.PermUserView), userHandler.GetByID)
				users.PUT("/:id", perm(auth.PermUserUpdate), userHandler.Update)
				users.DELETE("/:id", perm(auth.PermUserDelete), userHandler.Delete)
			}

			teams := authed.Group("/teams")
			{
				teams.GET("", perm(auth.PermTeamView), teamHandler.List)
				teams.POST("", perm(auth.PermTeamCreate), teamHandler.Create)
				teams.GET("/:id", perm(auth.PermTeamView), teamHandler.GetByID)
				teams.PUT("/:id", perm(auth.PermTeamUpdate), teamHandler.Update)
				teams.DELETE("/:id", perm(auth.PermTeamDelete), teamHandler.Delete)
			}

			projects := authed.Group("/projects")
			{
				projects.GET("", perm(auth.PermProjectView), projectHandler.List)
				projects.POST("", perm(auth.PermProjectCreate), projectHandler.Create)
				projects.GET("/:id", perm(auth.PermProjectView), projectHandler.GetByID)
				projects.PUT("/:id", perm(auth.PermProjectUpdate), projectHandler.Update)
				projects.DELETE("/:id", perm(auth.PermProjectDelete), projectHandler.Delete) // 级联删除任务、冲刺与规则
			}

			sprints := authed.Group("/sprints")
			{
				sprints.GET("", perm(auth.PermSprintView), sprintHandler.List)
				sprints.POST("", perm(auth.PermSprintCreate), sprintHandler.Create)
				sprints.GET("/:id", perm(auth.PermSprintView), sprintHandler.GetByID)
				sprints.PUT("/:id", perm(auth.PermSprintUpdate), sprintHandler.Update)
				sprints.DELETE("/:id", perm(auth.PermSprintDelete), sprintHandler.Delete)
			}

			tasks := authed.Group("/tasks")
			{
				tasks.GET("", perm(auth.PermTaskView), taskHandler.List)
				tasks.POST("", perm(auth.PermTaskCreate), taskHandler.Create)
				tasks.GET("/:id", perm(auth.PermTaskView), taskHandler.GetByID)
				tasks.PUT("/:id", perm(auth.PermTaskUpdate), taskHandler.Update)
				tasks.DELETE("/:id", perm(auth.PermTaskDelete), taskHandler.Delete)
			}

			automations := authed.Group("/automations")
			{
				automations.GET("", perm(auth.PermAutomationView), automationHandler.List)
				automations.POST("", perm(auth.PermAutomationCreate), automationHandler.Create)
				automations.GET("/:id", perm(auth.PermAutomationView), automationHandler.GetByID)
				automations.PUT("/:id", perm(auth.PermAutomationUpdate), automationHandler.Update)
				automations.DELETE("/:id", perm(auth.PermAutomationDelete), automationHandler.Delete)
				automations.POST("/:id/test", perm(auth.PermAutomationTest), automationHandler.Test)
				automations.GET("/:id/export", perm(auth.PermAutomationView), automationHandler.Export)
			}

			ai := authed.Group("/ai", perm(auth.PermAIGenerate))
			{
				ai.POST("/plan", aiHandler.Plan)
				ai.POST("/analyze", aiHandler.Analyze)
				ai.POST("/summarize", aiHandler.Summarize)
			}
		}
	}

	return r
}
