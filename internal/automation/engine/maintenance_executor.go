package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"backend/internal/automation"
	"backend/internal/maintenance"
)

// MaintenanceExecutor 维护排程步骤
// 为设备列表逐台生成工单，开工时间在未来 7 天内随机打散，避免同时段集中维护
type MaintenanceExecutor struct {
	store MaintenanceStore
}

func (e *MaintenanceExecutor) Execute(ctx context.Context, step *automation.WorkflowStep, execCtx map[string]any) (map[string]any, error) {
	schedulingType := stringParam(step.Parameters, "scheduling_type")
	equipmentList := stringSliceParam(step.Parameters, "equipment_list")
	if len(equipmentList) == 0 {
		return nil, fmt.Errorf("maintenance step missing equipment_list")
	}

	priority := stringParam(step.Parameters, "priority_level")
	if priority == "" {
		priority = "medium"
	}

	now := time.Now().UTC()
	orders := make([]*maintenance.Order, 0, len(equipmentList))
	for _, equipment := range equipmentList {
		offset := time.Duration(rand.Int63n(int64(7 * 24 * time.Hour)))
		orders = append(orders, &maintenance.Order{
			OperationType:  schedulingType,
			Description:    fmt.Sprintf("Automated %s maintenance for %s", schedulingType, equipment),
			Priority:       priority,
			EquipmentID:    equipment,
			ScheduledStart: now.Add(offset),
		})
	}

	created, err := e.store.CreateBatch(ctx, orders)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"maintenance_scheduled": true,
		"operations_created":    created,
		"scheduling_type":       schedulingType,
		"equipment_count":       len(equipmentList),
	}, nil
}
