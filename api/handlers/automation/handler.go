package automation

import (
	"errors"
	"net/http"
	"time"

	response "backend/api/handlers/common"
	automationSvc "backend/internal/automation"
	"backend/internal/automation/engine"
	"backend/internal/infra/queue"

	"github.com/gin-gonic/gin"
)

// QueueInspector 任务队列状态查询
type QueueInspector interface {
	Stats() (map[string]*queue.QueueStats, error)
}

// Handler 自动化工作流 Handler
type Handler struct {
	service   *automationSvc.Service
	runner    *engine.Runner
	triggers  *engine.TriggerEvaluator
	inspector QueueInspector
}

// NewHandler 创建 Handler 实例
func NewHandler(service *automationSvc.Service, runner *engine.Runner, triggers *engine.TriggerEvaluator, inspector QueueInspector) *Handler {
	return &Handler{
		service:   service,
		runner:    runner,
		triggers:  triggers,
		inspector: inspector,
	}
}

// CreateWorkflow 创建工作流
// POST /api/workflows
func (h *Handler) CreateWorkflow(c *gin.Context) {
	userID := c.GetString("user_id")

	var req automationSvc.CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "请求参数错误: " + err.Error()})
		return
	}
	req.OwnerID = userID

	wf, err := h.service.CreateWorkflow(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, response.APIResponse{
		Success: true,
		Data: gin.H{
			"workflow_id":   wf.ID,
			"workflow_name": wf.Name,
			"created_at":    wf.CreatedAt,
		},
	})
}

// ListWorkflows 查询工作流列表
// GET /api/workflows
func (h *Handler) ListWorkflows(c *gin.Context) {
	userID := c.GetString("user_id")

	workflows, err := h.service.ListWorkflows(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: workflows})
}

// GetWorkflow 查询工作流详情
// GET /api/workflows/:id
func (h *Handler) GetWorkflow(c *gin.Context) {
	userID := c.GetString("user_id")
	workflowID := c.Param("id")

	wf, err := h.service.GetWorkflow(c.Request.Context(), workflowID, userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, automationSvc.ErrWorkflowNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: wf})
}

// ExecuteWorkflowRequest 手动执行请求体
type ExecuteWorkflowRequest struct {
	ExecutionContext map[string]any `json:"execution_context,omitempty"`
}

// ExecuteWorkflow 手动执行工作流并同步返回执行报告
// POST /api/workflows/:id/execute
func (h *Handler) ExecuteWorkflow(c *gin.Context) {
	userID := c.GetString("user_id")
	workflowID := c.Param("id")

	var req ExecuteWorkflowRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "请求参数错误: " + err.Error()})
			return
		}
	}

	report, err := h.runner.Execute(c.Request.Context(), &engine.ExecutionRequest{
		WorkflowID:       workflowID,
		OwnerID:          userID,
		TriggerType:      automationSvc.TriggerManual,
		ExecutionContext: req.ExecutionContext,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, automationSvc.ErrWorkflowNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetWorkflowStats 查询工作流滚动统计
// GET /api/workflows/:id/stats
func (h *Handler) GetWorkflowStats(c *gin.Context) {
	userID := c.GetString("user_id")
	workflowID := c.Param("id")

	stats, err := h.service.GetWorkflowStats(c.Request.Context(), workflowID, userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, automationSvc.ErrWorkflowNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: stats})
}

// CheckSchedules 立即扫描一轮执行计划
// POST /api/automation/check-schedules
func (h *Handler) CheckSchedules(c *gin.Context) {
	stats, err := h.triggers.CheckSchedules(c.Request.Context(), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"workflows_checked":   stats.Checked,
		"workflows_scheduled": stats.Triggered,
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
	})
}

// CheckConditions 立即扫描一轮触发条件
// POST /api/automation/check-conditions
func (h *Handler) CheckConditions(c *gin.Context) {
	stats, err := h.triggers.CheckConditions(c.Request.Context(), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"workflows_checked":   stats.Checked,
		"workflows_triggered": stats.Triggered,
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
	})
}

// QueueStats 查询任务队列统计
// GET /api/automation/queue-stats
func (h *Handler) QueueStats(c *gin.Context) {
	stats, err := h.inspector.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.APIResponse{Success: true, Data: stats})
}
