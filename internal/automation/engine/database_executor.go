package engine

import (
	"context"
	"fmt"

	"backend/internal/automation"

	"gorm.io/gorm"
)

// DatabaseExecutor 数据库操作步骤
// 支持对指定表的 insert/update/select，数据先做占位符替换
type DatabaseExecutor struct {
	db *gorm.DB
}

func (e *DatabaseExecutor) Execute(ctx context.Context, step *automation.WorkflowStep, execCtx map[string]any) (map[string]any, error) {
	operationType := stringParam(step.Parameters, "operation_type")
	tableName := stringParam(step.Parameters, "table_name")
	if tableName == "" {
		return nil, fmt.Errorf("database step missing table_name")
	}

	data := EvaluateTemplateMap(mapParam(step.Parameters, "data"), execCtx)
	conditions := mapParam(step.Parameters, "conditions")

	switch operationType {
	case "insert":
		if data == nil {
			return nil, fmt.Errorf("insert operation missing data")
		}
		result := e.db.WithContext(ctx).Table(tableName).Create(data)
		if result.Error != nil {
			return nil, fmt.Errorf("插入记录失败: %w", result.Error)
		}
		return map[string]any{
			"operation":        "insert",
			"records_affected": result.RowsAffected,
		}, nil

	case "update":
		if data == nil {
			return nil, fmt.Errorf("update operation missing data")
		}
		query := e.db.WithContext(ctx).Table(tableName)
		for key, value := range conditions {
			query = query.Where(fmt.Sprintf("%s = ?", key), value)
		}
		result := query.Updates(data)
		if result.Error != nil {
			return nil, fmt.Errorf("更新记录失败: %w", result.Error)
		}
		return map[string]any{
			"operation":        "update",
			"records_affected": result.RowsAffected,
		}, nil

	case "select":
		query := e.db.WithContext(ctx).Table(tableName)
		for key, value := range conditions {
			query = query.Where(fmt.Sprintf("%s = ?", key), value)
		}
		var rows []map[string]any
		if err := query.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("查询记录失败: %w", err)
		}
		return map[string]any{
			"operation":     "select",
			"records_found": len(rows),
			"data":          rows,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database operation: %s", operationType)
	}
}
