package engine

import (
	"context"
	"time"

	"backend/internal/automation"
	"backend/internal/control"
)

// ControlExecutor 系统控制步骤
// 将控制指令记录到控制出口，指令本身按 fire-and-forget 成功处理
type ControlExecutor struct {
	sink ControlSink
}

func (e *ControlExecutor) Execute(ctx context.Context, step *automation.WorkflowStep, execCtx map[string]any) (map[string]any, error) {
	controlAction := stringParam(step.Parameters, "control_action")
	targetSystem := stringParam(step.Parameters, "target_system")

	op := &control.Operation{
		OperationType: controlAction,
		TargetDevice:  targetSystem,
		CommandData:   mapParam(step.Parameters, "parameters"),
		ExecutedBy:    stringParam(execCtx, "user_id"),
	}

	if err := e.sink.Record(ctx, op); err != nil {
		return nil, err
	}

	return map[string]any{
		"control_executed":    true,
		"target_system":       targetSystem,
		"action":              controlAction,
		"result":              "success",
		"execution_timestamp": time.Now().UTC().Format(time.RFC3339),
	}, nil
}
