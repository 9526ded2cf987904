package engine

import (
	"context"
	"fmt"

	"backend/internal/analysis"
	"backend/internal/automation"
)

// AnalysisExecutor 分析步骤，调用外部分析引擎
// input_data 缺省时以当前执行上下文作为分析输入
type AnalysisExecutor struct {
	service analysis.Service
}

func (e *AnalysisExecutor) Execute(ctx context.Context, step *automation.WorkflowStep, execCtx map[string]any) (map[string]any, error) {
	if e.service == nil {
		return nil, fmt.Errorf("分析服务未配置")
	}

	inputData := mapParam(step.Parameters, "input_data")
	if inputData == nil {
		inputData = execCtx
	}

	req := &analysis.Request{
		AnalysisType: stringParam(step.Parameters, "analysis_type"),
		InputData:    inputData,
		ConnectionID: stringParam(execCtx, "connection_id"),
	}

	result, err := e.service.Analyze(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	return map[string]any{
		"model_results":     result.ModelResults,
		"confidence_scores": result.ConfidenceScores,
		"anomaly_detection": result.AnomalyDetection,
	}, nil
}

// PredictionExecutor 预测步骤，复用分析引擎做模型预测
type PredictionExecutor struct {
	service analysis.Service
}

func (e *PredictionExecutor) Execute(ctx context.Context, step *automation.WorkflowStep, execCtx map[string]any) (map[string]any, error) {
	if e.service == nil {
		return nil, fmt.Errorf("分析服务未配置")
	}

	modelType := stringParam(step.Parameters, "model_type")
	inputData := mapParam(step.Parameters, "prediction_parameters")
	if inputData == nil {
		inputData = execCtx
	}

	req := &analysis.Request{
		AnalysisType: modelType,
		InputData:    inputData,
		ConnectionID: stringParam(execCtx, "connection_id"),
	}

	result, err := e.service.Analyze(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ML prediction failed: %w", err)
	}

	return map[string]any{
		"prediction_completed": true,
		"model_type":           modelType,
		"predictions":          result.ModelResults,
		"confidence_scores":    result.ConfidenceScores,
		"anomalies_detected":   result.AnomalyCount(),
	}, nil
}
