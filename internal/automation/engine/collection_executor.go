package engine

import (
	"context"
	"fmt"
	"time"

	"backend/internal/automation"
)

// CollectionExecutor 数据采集步骤
// 按 collection_type 从对应数据源拉取记录，输出采集条数与数据
type CollectionExecutor struct {
	telemetry TelemetrySource
	alerts    AlertSink
}

func (e *CollectionExecutor) Execute(ctx context.Context, step *automation.WorkflowStep, execCtx map[string]any) (map[string]any, error) {
	collectionType := stringParam(step.Parameters, "collection_type")
	queryParams := mapParam(step.Parameters, "query_parameters")

	switch collectionType {
	case "metrics":
		limit := intParam(queryParams, "limit", 1000)
		since := time.Now().Add(-24 * time.Hour)
		metrics, err := e.telemetry.Window(ctx, since, limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"collected_records": len(metrics),
			"data":              metrics,
		}, nil

	case "alerts":
		limit := intParam(queryParams, "limit", 100)
		alerts, err := e.alerts.ListUnresolved(ctx, limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"collected_records": len(alerts),
			"data":              alerts,
		}, nil

	case "infrastructure_status":
		status, err := e.telemetry.LatestInfrastructure(ctx)
		if err != nil {
			return nil, err
		}
		if status == nil {
			return map[string]any{
				"collected_records": 0,
				"data":              nil,
			}, nil
		}
		return map[string]any{
			"collected_records": 1,
			"data":              status,
		}, nil

	default:
		return nil, fmt.Errorf("unknown collection type: %s", collectionType)
	}
}
