package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"backend/internal/automation"
)

// ConditionalExecutor 条件分支步骤
// 评估条件后分发 true_action 或 false_action 子步骤；
// 分支缺省时记录 action_executed 为 none，步骤本身仍算成功
type ConditionalExecutor struct {
	interpreter *Interpreter
}

func (e *ConditionalExecutor) Execute(ctx context.Context, step *automation.WorkflowStep, execCtx map[string]any) (map[string]any, error) {
	condition := mapParam(step.Parameters, "condition")
	conditionMet := EvaluateCondition(condition, execCtx)

	branchKey := "false_action"
	if conditionMet {
		branchKey = "true_action"
	}

	branch := mapParam(step.Parameters, branchKey)
	if branch == nil {
		return map[string]any{
			"condition_evaluated": true,
			"condition_met":       conditionMet,
			"action_executed":     "none",
		}, nil
	}

	subStep, err := decodeStep(branch)
	if err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", branchKey, err)
	}

	result := e.interpreter.Run(ctx, subStep, execCtx)

	return map[string]any{
		"condition_evaluated": true,
		"condition_met":       conditionMet,
		"action_executed":     subStep.Action,
		"result":              result,
	}, nil
}

// decodeStep 将参数中的内嵌步骤定义转换为 WorkflowStep
func decodeStep(raw map[string]any) (*automation.WorkflowStep, error) {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var step automation.WorkflowStep
	if err := json.Unmarshal(encoded, &step); err != nil {
		return nil, err
	}
	return &step, nil
}
