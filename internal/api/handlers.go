// internal/api/handlers.go
package api

import (
	"github.com/Corphon/ScriptLensMCP/internal/models"
	"github.com/Corphon/ScriptLensMCP/internal/services"
	"github.com/Corphon/ScriptLensMCP/internal/utils"
	"github.com/gin-gonic/gin"
)

// Handler 处理API请求
type Handler struct {
	BreakdownService *services.BreakdownService // 拆解分析服务
	ProgressService  *services.ProgressService  // 进度跟踪服务
	StatsService     *services.StatsService     // 统计服务
	Response         *ResponseHelper            // 响应助手
}

// NewHandler 创建API处理器
func NewHandler(
	breakdownService *services.BreakdownService,
	progressService *services.ProgressService,
	statsService *services.StatsService,
) *Handler {
	return &Handler{
		BreakdownService: breakdownService,
		ProgressService:  progressService,
		StatsService:     statsService,
		Response:         NewResponseHelper(),
	}
}

// AnalyzeRequest 一次性分析请求：直接携带场景序列
type AnalyzeRequest struct {
	Title  string         `json:"title"`
	Scenes []models.Scene `json:"scenes"`
}

// CreateBreakdown 保存一份拆解输入
// POST /api/breakdowns
func (h *Handler) CreateBreakdown(c *gin.Context) {
	var breakdown models.ScriptBreakdown
	if err := c.ShouldBindJSON(&breakdown); err != nil {
		h.Response.BadRequest(c, "请求格式错误: "+err.Error())
		return
	}

	if err := h.BreakdownService.SaveBreakdown(&breakdown); err != nil {
		h.Response.Error(c, err)
		return
	}

	h.Response.Created(c, gin.H{
		"id":          breakdown.ID,
		"scene_count": len(breakdown.Scenes),
	})
}

// ListBreakdowns 列出全部拆解
// GET /api/breakdowns
func (h *Handler) ListBreakdowns(c *gin.Context) {
	metas, err := h.BreakdownService.ListBreakdowns()
	if err != nil {
		h.Response.Error(c, err)
		return
	}
	h.Response.Success(c, metas)
}

// GetBreakdown 获取一份拆解输入
// GET /api/breakdowns/:id
func (h *Handler) GetBreakdown(c *gin.Context) {
	breakdown, err := h.BreakdownService.GetBreakdown(c.Param("id"))
	if err != nil {
		h.Response.Error(c, err)
		return
	}
	h.Response.Success(c, breakdown)
}

// AnalyzeBreakdown 启动异步分析任务
// POST /api/breakdowns/:id/analyze
func (h *Handler) AnalyzeBreakdown(c *gin.Context) {
	breakdown, err := h.BreakdownService.GetBreakdown(c.Param("id"))
	if err != nil {
		h.Response.Error(c, err)
		return
	}

	taskID, err := h.BreakdownService.AnalyzeAsync(breakdown)
	if err != nil {
		h.Response.Error(c, err)
		return
	}

	h.Response.Accepted(c, gin.H{"task_id": taskID}, "分析任务已启动")
}

// GetAnalysis 获取分析结果
// GET /api/breakdowns/:id/analysis
func (h *Handler) GetAnalysis(c *gin.Context) {
	analysis, err := h.BreakdownService.GetAnalysis(c.Param("id"))
	if err != nil {
		h.Response.Error(c, err)
		return
	}
	h.Response.Success(c, analysis)
}

// AnalyzeDirect 同步分析：请求体直接带场景，结果直接返回
// POST /api/analyze
func (h *Handler) AnalyzeDirect(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误: "+err.Error())
		return
	}

	breakdown := &models.ScriptBreakdown{
		Title:  req.Title,
		Scenes: req.Scenes,
	}

	analysis, err := h.BreakdownService.Analyze(breakdown)
	if err != nil {
		h.Response.Error(c, err)
		return
	}

	h.Response.Success(c, analysis)
}

// GetStats 返回使用统计与进程内指标
// GET /api/stats
func (h *Handler) GetStats(c *gin.Context) {
	counters, histograms := utils.GetMetricsCollector().Snapshot()

	h.Response.Success(c, gin.H{
		"usage":      h.StatsService.GetStats(),
		"counters":   counters,
		"histograms": histograms,
	})
}

// HealthCheck 健康检查
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	h.Response.Success(c, gin.H{"status": "ok"})
}
