package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
)

// EvaluateCondition 对上下文评估条件
// 结构化形式 {field, operator, value} 支持的操作符：
// equals, not_equals, greater_than, less_than, greater_equal, less_equal,
// contains, exists。未知操作符返回 false，从不报错，保证 Runner 的全函数性。
// 扩展形式 {expression} 使用表达式引擎求值，求值失败同样返回 false。
func EvaluateCondition(condition map[string]any, execCtx map[string]any) bool {
	if condition == nil {
		return false
	}

	if expr, ok := condition["expression"].(string); ok && expr != "" {
		return evaluateExpression(expr, execCtx)
	}

	field, _ := condition["field"].(string)
	operator, _ := condition["operator"].(string)
	expected := condition["value"]

	fieldValue, present := execCtx[field]

	switch operator {
	case "equals":
		return valuesEqual(fieldValue, expected)
	case "not_equals":
		return !valuesEqual(fieldValue, expected)
	case "greater_than":
		return compareNumeric(fieldValue, expected, func(a, b float64) bool { return a > b })
	case "less_than":
		return compareNumeric(fieldValue, expected, func(a, b float64) bool { return a < b })
	case "greater_equal":
		return compareNumeric(fieldValue, expected, func(a, b float64) bool { return a >= b })
	case "less_equal":
		return compareNumeric(fieldValue, expected, func(a, b float64) bool { return a <= b })
	case "contains":
		return strings.Contains(fmt.Sprintf("%v", fieldValue), fmt.Sprintf("%v", expected))
	case "exists":
		return present && fieldValue != nil
	default:
		return false
	}
}

// evaluateExpression 使用表达式引擎对上下文求值
// 表达式引用上下文顶层键作为变量，结果非布尔或求值出错均视为 false
func evaluateExpression(expr string, execCtx map[string]any) bool {
	expression, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return false
	}

	parameters := make(map[string]interface{}, len(execCtx))
	for k, v := range execCtx {
		parameters[k] = v
	}

	result, err := expression.Evaluate(parameters)
	if err != nil {
		return false
	}

	boolResult, ok := result.(bool)
	return ok && boolResult
}

// valuesEqual 判断两个值是否相等，数字按数值比较，其余按字符串形式比较
func valuesEqual(left, right any) bool {
	leftNum, leftIsNum := toFloat64(left)
	rightNum, rightIsNum := toFloat64(right)
	if leftIsNum && rightIsNum {
		return leftNum == rightNum
	}
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	return fmt.Sprintf("%v", left) == fmt.Sprintf("%v", right)
}

// compareNumeric 数值比较，任一侧无法转换为数字时返回 false
func compareNumeric(left, right any, cmp func(a, b float64) bool) bool {
	leftNum, leftOk := toFloat64(left)
	rightNum, rightOk := toFloat64(right)
	if !leftOk || !rightOk {
		return false
	}
	return cmp(leftNum, rightNum)
}

// toFloat64 尝试将值转换为 float64
func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case string:
		if num, err := strconv.ParseFloat(v, 64); err == nil {
			return num, true
		}
	}
	return 0, false
}
