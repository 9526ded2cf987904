package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// RegisterRoutes 注册全部路由
func RegisterRoutes(router *gin.Engine, db *gorm.DB, container *AppContainer) {
	router.GET("/health", HealthCheck())
	router.GET("/ready", ReadinessCheck(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := router.Group("/api")
	apiGroup.Use(UserContext())

	registerWorkflowRoutes(apiGroup, container)
	registerAutomationRoutes(apiGroup, container)
}

// registerWorkflowRoutes 工作流管理路由
func registerWorkflowRoutes(apiGroup *gin.RouterGroup, c *AppContainer) {
	workflows := apiGroup.Group("/workflows")
	{
		workflows.POST("", c.AutoHandler.CreateWorkflow)
		workflows.GET("", c.AutoHandler.ListWorkflows)
		workflows.GET("/:id", c.AutoHandler.GetWorkflow)
		workflows.POST("/:id/execute", c.AutoHandler.ExecuteWorkflow)
		workflows.GET("/:id/stats", c.AutoHandler.GetWorkflowStats)
	}
}

// registerAutomationRoutes 触发检查路由，供运维手动触发一轮扫描
func registerAutomationRoutes(apiGroup *gin.RouterGroup, c *AppContainer) {
	auto := apiGroup.Group("/automation")
	{
		auto.POST("/check-schedules", c.AutoHandler.CheckSchedules)
		auto.POST("/check-conditions", c.AutoHandler.CheckConditions)
		auto.GET("/queue-stats", c.AutoHandler.QueueStats)
	}
}
