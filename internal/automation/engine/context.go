package engine

// cloneContext 复制执行上下文的浅快照
// 每次执行持有自己的上下文副本，步骤之间串行追加，外部种子不被修改
func cloneContext(seed map[string]any) map[string]any {
	execCtx := make(map[string]any, len(seed)+4)
	for k, v := range seed {
		execCtx[k] = v
	}
	return execCtx
}

// mergeStepOutput 将已完成步骤的输出并入上下文
// 以 step_id 为键，后续步骤的模板与条件即可引用先前结果
func mergeStepOutput(execCtx map[string]any, stepID string, result map[string]any) {
	if stepID == "" || result == nil {
		return
	}
	execCtx[stepID] = result
}
