package engine

import (
	"fmt"
	"regexp"
)

var placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// EvaluateTemplate 对参数值做占位符替换
// 字符串中的 {{key}} 替换为上下文中对应值的字符串形式，未命中的占位符原样保留；
// map 逐值递归处理，键不变；其余类型原样返回。
// 纯函数，不修改入参，相同上下文下结果确定。
func EvaluateTemplate(value any, execCtx map[string]any) any {
	switch v := value.(type) {
	case string:
		return placeholderRe.ReplaceAllStringFunc(v, func(match string) string {
			key := match[2 : len(match)-2]
			val, ok := execCtx[key]
			if !ok || val == nil {
				return match
			}
			return fmt.Sprintf("%v", val)
		})

	case map[string]any:
		result := make(map[string]any, len(v))
		for key, item := range v {
			result[key] = EvaluateTemplate(item, execCtx)
		}
		return result

	default:
		return value
	}
}

// EvaluateTemplateMap 对参数 map 逐值做占位符替换
func EvaluateTemplateMap(params map[string]any, execCtx map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	result := make(map[string]any, len(params))
	for key, value := range params {
		result[key] = EvaluateTemplate(value, execCtx)
	}
	return result
}
