package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateCondition(t *testing.T) {
	execCtx := map[string]any{
		"temperature": 88.5,
		"status":      "running",
		"count":       float64(10),
		"empty":       nil,
	}

	cases := []struct {
		name      string
		condition map[string]any
		want      bool
	}{
		{"equals 命中", map[string]any{"field": "status", "operator": "equals", "value": "running"}, true},
		{"equals 未命中", map[string]any{"field": "status", "operator": "equals", "value": "stopped"}, false},
		{"equals 数值跨类型", map[string]any{"field": "count", "operator": "equals", "value": 10}, true},
		{"not_equals", map[string]any{"field": "status", "operator": "not_equals", "value": "stopped"}, true},
		{"greater_than 命中", map[string]any{"field": "temperature", "operator": "greater_than", "value": 80}, true},
		{"greater_than 未命中", map[string]any{"field": "temperature", "operator": "greater_than", "value": 90}, false},
		{"less_than", map[string]any{"field": "temperature", "operator": "less_than", "value": 90}, true},
		{"greater_equal 边界", map[string]any{"field": "count", "operator": "greater_equal", "value": 10}, true},
		{"less_equal 边界", map[string]any{"field": "count", "operator": "less_equal", "value": 10}, true},
		{"contains", map[string]any{"field": "status", "operator": "contains", "value": "run"}, true},
		{"exists 存在", map[string]any{"field": "status", "operator": "exists"}, true},
		{"exists 值为 nil", map[string]any{"field": "empty", "operator": "exists"}, false},
		{"exists 字段缺失", map[string]any{"field": "missing", "operator": "exists"}, false},
		{"未知操作符", map[string]any{"field": "status", "operator": "matches", "value": "running"}, false},
		{"数值比较字段非数字", map[string]any{"field": "status", "operator": "greater_than", "value": 1}, false},
		{"nil 条件", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EvaluateCondition(tc.condition, execCtx))
		})
	}
}

func TestEvaluateConditionExpression(t *testing.T) {
	execCtx := map[string]any{
		"temperature": 88.5,
		"count":       float64(10),
	}

	t.Run("表达式命中", func(t *testing.T) {
		cond := map[string]any{"expression": "temperature > 80 && count >= 10"}
		assert.True(t, EvaluateCondition(cond, execCtx))
	})

	t.Run("表达式未命中", func(t *testing.T) {
		cond := map[string]any{"expression": "temperature > 100"}
		assert.False(t, EvaluateCondition(cond, execCtx))
	})

	t.Run("表达式语法错误视为 false", func(t *testing.T) {
		cond := map[string]any{"expression": "temperature >"}
		assert.False(t, EvaluateCondition(cond, execCtx))
	})

	t.Run("引用缺失变量视为 false", func(t *testing.T) {
		cond := map[string]any{"expression": "pressure > 1"}
		assert.False(t, EvaluateCondition(cond, execCtx))
	})

	t.Run("非布尔结果视为 false", func(t *testing.T) {
		cond := map[string]any{"expression": "temperature + 1"}
		assert.False(t, EvaluateCondition(cond, execCtx))
	})
}
