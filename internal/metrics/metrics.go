package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 工作流执行指标
var (
	// WorkflowExecutionsTotal 工作流执行总数
	WorkflowExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_workflow_executions_total",
			Help: "工作流执行总数",
		},
		[]string{"status", "trigger_type"},
	)

	// WorkflowExecutionDuration 工作流执行耗时（秒）
	WorkflowExecutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "automation_workflow_execution_duration_seconds",
			Help:    "工作流执行耗时分布",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)

	// StepExecutionDuration 步骤执行耗时（秒），按步骤类型
	StepExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "automation_step_execution_duration_seconds",
			Help:    "步骤执行耗时分布",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step_type"},
	)

	// StepFailuresTotal 步骤失败总数，按步骤类型
	StepFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_step_failures_total",
			Help: "步骤失败总数",
		},
		[]string{"step_type"},
	)
)

// 触发检查指标
var (
	// TriggerChecksTotal 触发检查总数
	TriggerChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_trigger_checks_total",
			Help: "触发检查总数",
		},
		[]string{"check_type"}, // schedule, condition
	)

	// TriggeredWorkflowsTotal 被触发的工作流总数
	TriggeredWorkflowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_triggered_workflows_total",
			Help: "被触发提交执行的工作流总数",
		},
		[]string{"trigger_type"},
	)

	// FailureAlertsTotal 工作流失败告警总数
	FailureAlertsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "automation_failure_alerts_total",
			Help: "因工作流执行失败而产生的告警总数",
		},
	)
)
