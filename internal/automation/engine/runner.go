package engine

import (
	"context"
	"fmt"
	"time"

	"backend/internal/audit"
	"backend/internal/automation"
	"backend/internal/logger"
	"backend/internal/metrics"
	"backend/internal/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WorkflowStore 工作流持久层，Runner 与触发检查依赖的最小读写面
type WorkflowStore interface {
	Get(ctx context.Context, id, ownerID string) (*automation.Workflow, error)
	RecordExecution(ctx context.Context, workflowID string, success bool, duration time.Duration) error
	ListActiveWithSchedule(ctx context.Context) ([]*automation.Workflow, error)
	ListActiveWithTriggers(ctx context.Context) ([]*automation.Workflow, error)
}

// AuditSink 审计出口
type AuditSink interface {
	Append(ctx context.Context, entry *audit.Entry)
}

// ExecutionRequest 一次工作流执行请求
type ExecutionRequest struct {
	WorkflowID       string         `json:"workflow_id"`
	OwnerID          string         `json:"user_id"`
	TriggerType      string         `json:"trigger_type,omitempty"`
	ExecutionContext map[string]any `json:"execution_context,omitempty"`
}

// Runner 工作流执行器
// 串行执行步骤，步骤失败默认中止（continue_on_error 可覆盖），
// 整体结果写入滚动统计与审计，失败时产生高级别告警
type Runner struct {
	store       WorkflowStore
	interpreter *Interpreter
	audit       AuditSink
	alerts      AlertSink
}

// NewRunner 创建工作流执行器
func NewRunner(store WorkflowStore, interpreter *Interpreter, auditSink AuditSink, alerts AlertSink) *Runner {
	return &Runner{
		store:       store,
		interpreter: interpreter,
		audit:       auditSink,
		alerts:      alerts,
	}
}

// Execute 执行一个工作流
// 工作流不存在或未激活为致命错误：写一条 workflow_execution_error 审计后返回错误，
// 不产生执行报告；步骤级失败不向上抛错，折叠进报告
func (r *Runner) Execute(ctx context.Context, req *ExecutionRequest) (*automation.ExecutionReport, error) {
	ctx = logger.WithExecutionID(ctx, uuid.New().String())
	log := logger.WithContext(ctx)

	triggerType := req.TriggerType
	if triggerType == "" {
		triggerType = automation.TriggerManual
	}

	log.Info("开始执行工作流",
		zap.String("workflow_id", req.WorkflowID),
		zap.String("trigger_type", triggerType),
	)

	wf, err := r.store.Get(ctx, req.WorkflowID, req.OwnerID)
	if err != nil {
		r.audit.Append(ctx, &audit.Entry{
			UserID:     req.OwnerID,
			ActionType: audit.ActionWorkflowExecutionError,
			ResourceID: req.WorkflowID,
			Details: map[string]any{
				"error":             err.Error(),
				"execution_context": req.ExecutionContext,
			},
			Outcome: "failure",
		})
		metrics.WorkflowExecutionsTotal.WithLabelValues("error", triggerType).Inc()
		return nil, fmt.Errorf("加载工作流失败: %w", err)
	}

	start := time.Now()
	execCtx := cloneContext(req.ExecutionContext)
	if _, ok := execCtx["user_id"]; !ok {
		execCtx["user_id"] = req.OwnerID
	}

	stepResults := make([]automation.StepResult, 0, len(wf.Steps))
	overallSuccess := true

	for i := range wf.Steps {
		step := &wf.Steps[i]
		log.Info("执行步骤",
			zap.String("step_id", step.StepID),
			zap.String("action", step.Action),
		)

		result := r.interpreter.Run(ctx, step, execCtx)
		stepResults = append(stepResults, result)

		if !result.Success {
			overallSuccess = false
			log.Error("步骤执行失败",
				zap.String("step_id", step.StepID),
				zap.String("error", result.Error),
			)
			if !step.ContinueOnError {
				break
			}
			continue
		}

		mergeStepOutput(execCtx, step.StepID, result.Result)
	}

	duration := time.Since(start)

	if err := r.store.RecordExecution(ctx, wf.ID, overallSuccess, duration); err != nil {
		log.Error("更新工作流统计失败", zap.Error(err))
	}

	successful := 0
	for _, result := range stepResults {
		if result.Success {
			successful++
		}
	}

	report := &automation.ExecutionReport{
		WorkflowID:      wf.ID,
		OverallSuccess:  overallSuccess,
		ExecutionTimeMs: duration.Milliseconds(),
		StepResults:     stepResults,
		StepsExecuted:   len(stepResults),
		StepsSuccessful: successful,
		TriggerType:     triggerType,
	}

	outcome := "success"
	if !overallSuccess {
		outcome = "failure"
	}
	r.audit.Append(ctx, &audit.Entry{
		UserID:     req.OwnerID,
		ActionType: audit.ActionWorkflowExecution,
		ResourceID: wf.ID,
		Details: map[string]any{
			"trigger_type":      triggerType,
			"execution_context": req.ExecutionContext,
			"step_results":      stepResults,
			"overall_success":   overallSuccess,
			"execution_time_ms": duration.Milliseconds(),
		},
		Outcome:    outcome,
		DurationMs: duration.Milliseconds(),
	})

	if !overallSuccess {
		r.raiseFailureAlert(ctx, wf, stepResults)
	}

	metrics.WorkflowExecutionsTotal.WithLabelValues(outcome, triggerType).Inc()
	metrics.WorkflowExecutionDuration.Observe(duration.Seconds())

	log.Info("工作流执行完成",
		zap.String("workflow_id", wf.ID),
		zap.Bool("success", overallSuccess),
		zap.Int64("duration_ms", duration.Milliseconds()),
	)

	return report, nil
}

// raiseFailureAlert 为失败的执行生成高级别告警，写入失败只记日志
func (r *Runner) raiseFailureAlert(ctx context.Context, wf *automation.Workflow, stepResults []automation.StepResult) {
	failed := 0
	for _, result := range stepResults {
		if !result.Success {
			failed++
		}
	}

	alert := &notification.Alert{
		Category: "automation",
		Severity: notification.SeverityHigh,
		Title:    fmt.Sprintf("Workflow Execution Failed - %s", wf.Name),
		Description: fmt.Sprintf("Workflow %q failed during execution. %d out of %d steps failed.",
			wf.Name, failed, len(stepResults)),
		AffectedSystems: []string{wf.Name},
		DetectionMethod: "automation_engine",
	}

	if err := r.alerts.Create(ctx, alert); err != nil {
		logger.WithContext(ctx).Error("写入失败告警失败",
			zap.String("workflow_id", wf.ID),
			zap.Error(err),
		)
		return
	}
	metrics.FailureAlertsTotal.Inc()
}
