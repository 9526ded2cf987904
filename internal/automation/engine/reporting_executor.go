package engine

import (
	"context"
	"fmt"
	"time"

	"backend/internal/automation"
	"backend/internal/telemetry"
)

// ReportingExecutor 报表步骤
// 支持 performance_summary 与 security_summary，其余类型生成占位报表
type ReportingExecutor struct {
	telemetry TelemetrySource
}

func (e *ReportingExecutor) Execute(ctx context.Context, step *automation.WorkflowStep, execCtx map[string]any) (map[string]any, error) {
	reportType := stringParam(step.Parameters, "report_type")
	dataRange := mapParam(step.Parameters, "data_range")
	days := intParam(dataRange, "days", 7)
	since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)

	outputFormat := stringParam(step.Parameters, "output_format")
	if outputFormat == "" {
		outputFormat = "json"
	}

	var reportData map[string]any

	switch reportType {
	case "performance_summary":
		metrics, err := e.telemetry.Window(ctx, since, 0)
		if err != nil {
			return nil, err
		}
		reportData = map[string]any{
			"total_metrics":   len(metrics),
			"avg_performance": telemetry.AveragePerformance(metrics),
			"trends":          telemetry.AnalyzeTrend(metrics),
		}

	case "security_summary":
		events, err := e.telemetry.SecurityEventsSince(ctx, since)
		if err != nil {
			return nil, err
		}
		critical := 0
		resolved := 0
		for _, event := range events {
			if event.Severity == "critical" {
				critical++
			}
			if event.Status == "resolved" {
				resolved++
			}
		}
		reportData = map[string]any{
			"total_events":    len(events),
			"critical_events": critical,
			"resolved_events": resolved,
		}

	default:
		reportData = map[string]any{
			"message": fmt.Sprintf("Report type %s generated successfully", reportType),
		}
	}

	return map[string]any{
		"report_generated":     true,
		"report_type":          reportType,
		"output_format":        outputFormat,
		"data":                 reportData,
		"generation_timestamp": time.Now().UTC().Format(time.RFC3339),
	}, nil
}
