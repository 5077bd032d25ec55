// internal/api/router.go
package api

import (
	"fmt"

	"github.com/Corphon/ScriptLensMCP/internal/config"
	"github.com/Corphon/ScriptLensMCP/internal/di"
	"github.com/Corphon/ScriptLensMCP/internal/services"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置HTTP路由
// 只从容器获取服务，不创建新实例
func SetupRouter() (*gin.Engine, error) {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()

	breakdownService, ok := container.Get("breakdown").(*services.BreakdownService)
	if !ok {
		return nil, fmt.Errorf("拆解分析服务未正确初始化")
	}

	progressService, ok := container.Get("progress").(*services.ProgressService)
	if !ok {
		return nil, fmt.Errorf("进度服务未正确初始化")
	}

	statsService, ok := container.Get("stats").(*services.StatsService)
	if !ok {
		return nil, fmt.Errorf("统计服务未正确初始化")
	}

	handler := NewHandler(breakdownService, progressService, statsService)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(corsMiddleware())

	r.GET("/health", handler.HealthCheck)

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/analyze", handler.AnalyzeDirect)
		apiGroup.GET("/stats", handler.GetStats)

		breakdowns := apiGroup.Group("/breakdowns")
		{
			breakdowns.POST("", handler.CreateBreakdown)
			breakdowns.GET("", handler.ListBreakdowns)
			breakdowns.GET("/:id", handler.GetBreakdown)
			breakdowns.POST("/:id/analyze", handler.AnalyzeBreakdown)
			breakdowns.GET("/:id/analysis", handler.GetAnalysis)
		}
	}

	r.GET("/ws/progress/:task_id", ProgressWebSocketHandler(progressService))

	return r, nil
}
