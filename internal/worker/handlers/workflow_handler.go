package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"backend/internal/automation"
	"backend/internal/automation/engine"
	"backend/internal/worker/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// WorkflowRunner 工作流执行器抽象，便于注入 mock
type WorkflowRunner interface {
	Execute(ctx context.Context, req *engine.ExecutionRequest) (*automation.ExecutionReport, error)
}

type WorkflowHandler struct {
	runner WorkflowRunner
	logger *zap.Logger
}

func NewWorkflowHandler(runner WorkflowRunner, logger *zap.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		runner: runner,
		logger: logger,
	}
}

func (h *WorkflowHandler) HandleExecuteWorkflow(ctx context.Context, t *asynq.Task) error {
	var p tasks.ExecuteWorkflowPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json unmarshal failed: %w", err)
	}

	h.logger.Info("开始执行工作流任务",
		zap.String("workflow_id", p.WorkflowID),
		zap.String("trigger_type", p.TriggerType),
	)

	report, err := h.runner.Execute(ctx, &engine.ExecutionRequest{
		WorkflowID:       p.WorkflowID,
		OwnerID:          p.UserID,
		TriggerType:      p.TriggerType,
		ExecutionContext: p.ExecutionContext,
	})
	if err != nil {
		h.logger.Error("工作流执行失败",
			zap.String("workflow_id", p.WorkflowID),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("工作流执行完成",
		zap.String("workflow_id", p.WorkflowID),
		zap.Bool("success", report.OverallSuccess),
		zap.Int("steps_executed", report.StepsExecuted),
	)
	return nil
}
