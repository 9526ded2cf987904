package engine

import "fmt"

// 参数提取辅助函数，步骤参数为任意 JSON 解码后的 map

func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func intParam(params map[string]any, key string, fallback int) int {
	if v, ok := toFloat64(params[key]); ok {
		return int(v)
	}
	return fallback
}

func mapParam(params map[string]any, key string) map[string]any {
	if v, ok := params[key].(map[string]any); ok {
		return v
	}
	return nil
}

func sliceParam(params map[string]any, key string) []any {
	if v, ok := params[key].([]any); ok {
		return v
	}
	return nil
}

// stringSliceParam 将数组参数转换为字符串切片
func stringSliceParam(params map[string]any, key string) []string {
	raw := sliceParam(params, key)
	if raw == nil {
		if v, ok := params[key].([]string); ok {
			return v
		}
		return nil
	}
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		result = append(result, fmt.Sprintf("%v", item))
	}
	return result
}
