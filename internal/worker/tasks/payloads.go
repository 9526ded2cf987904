package tasks

// Task Types
const (
	TypeExecuteWorkflow = "automation:execute_workflow"
)

// ExecuteWorkflowPayload 工作流执行任务载荷
type ExecuteWorkflowPayload struct {
	WorkflowID       string         `json:"workflow_id"`
	UserID           string         `json:"user_id"`
	TriggerType      string         `json:"trigger_type,omitempty"`
	ExecutionContext map[string]any `json:"execution_context,omitempty"`
}
