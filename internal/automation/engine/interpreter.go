package engine

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"backend/internal/analysis"
	"backend/internal/automation"
	"backend/internal/control"
	"backend/internal/logger"
	"backend/internal/maintenance"
	"backend/internal/metrics"
	"backend/internal/notification"
	"backend/internal/telemetry"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StepHandler 单一步骤类型的处理器
type StepHandler interface {
	Execute(ctx context.Context, step *automation.WorkflowStep, execCtx map[string]any) (map[string]any, error)
}

// TelemetrySource 指标/状态数据源
type TelemetrySource interface {
	Latest(ctx context.Context, metricName string) (float64, error)
	Window(ctx context.Context, since time.Time, limit int) ([]telemetry.Metric, error)
	LatestInfrastructure(ctx context.Context) (*telemetry.InfrastructureStatus, error)
	SecurityEventsSince(ctx context.Context, since time.Time) ([]telemetry.SecurityEvent, error)
}

// AlertSink 告警读写出口
type AlertSink interface {
	Create(ctx context.Context, alert *notification.Alert) error
	CountUnresolved(ctx context.Context, severity string) (int, error)
	ListUnresolved(ctx context.Context, limit int) ([]notification.Alert, error)
}

// NotificationSink 通知出口
type NotificationSink interface {
	Send(ctx context.Context, n *notification.Notification) (*notification.Delivery, error)
}

// ControlSink 系统控制出口
type ControlSink interface {
	Record(ctx context.Context, op *control.Operation) error
}

// MaintenanceStore 维护工单存储
type MaintenanceStore interface {
	CreateBatch(ctx context.Context, orders []*maintenance.Order) (int, error)
}

// Dependencies 步骤处理器依赖的外部协作方
type Dependencies struct {
	Telemetry   TelemetrySource
	Alerts      AlertSink
	Notifier    NotificationSink
	Control     ControlSink
	Maintenance MaintenanceStore
	Analysis    analysis.Service
	DB          *gorm.DB
	HTTPClient  *http.Client

	// api_call 步骤未声明 timeout_seconds 时的默认超时
	DefaultStepTimeout time.Duration
}

// Interpreter 步骤解释器
// 按 step_type 分发到对应处理器；从不向调用方抛错，
// 所有失败（包括未知步骤类型）都折叠为 StepResult.Error
type Interpreter struct {
	handlers map[string]StepHandler
}

// NewInterpreter 创建步骤解释器并注册全部处理器
func NewInterpreter(deps Dependencies) *Interpreter {
	if deps.HTTPClient == nil {
		deps.HTTPClient = http.DefaultClient
	}
	if deps.DefaultStepTimeout <= 0 {
		deps.DefaultStepTimeout = 30 * time.Second
	}

	interp := &Interpreter{handlers: make(map[string]StepHandler)}

	analysisExec := &AnalysisExecutor{service: deps.Analysis}

	interp.handlers[automation.StepDataCollection] = &CollectionExecutor{
		telemetry: deps.Telemetry,
		alerts:    deps.Alerts,
	}
	interp.handlers[automation.StepAnalysis] = analysisExec
	interp.handlers[automation.StepMLPrediction] = &PredictionExecutor{service: deps.Analysis}
	interp.handlers[automation.StepNotification] = &NotificationExecutor{sink: deps.Notifier}
	interp.handlers[automation.StepSystemControl] = &ControlExecutor{sink: deps.Control}
	interp.handlers[automation.StepReporting] = &ReportingExecutor{telemetry: deps.Telemetry}
	interp.handlers[automation.StepMaintenance] = &MaintenanceExecutor{store: deps.Maintenance}
	interp.handlers[automation.StepAPICall] = &APICallExecutor{
		client:         deps.HTTPClient,
		defaultTimeout: deps.DefaultStepTimeout,
	}
	interp.handlers[automation.StepDatabaseOp] = &DatabaseExecutor{db: deps.DB}
	interp.handlers[automation.StepConditional] = &ConditionalExecutor{interpreter: interp}

	return interp
}

// Run 执行单个步骤，总是返回结果，从不 panic 或返回 error
func (i *Interpreter) Run(ctx context.Context, step *automation.WorkflowStep, execCtx map[string]any) (result automation.StepResult) {
	start := time.Now()

	result = automation.StepResult{
		StepID: step.StepID,
		Action: step.Action,
	}

	defer func() {
		result.ExecutionTimeMs = time.Since(start).Milliseconds()
		metrics.StepExecutionDuration.WithLabelValues(step.StepType).Observe(time.Since(start).Seconds())
		if !result.Success {
			metrics.StepFailuresTotal.WithLabelValues(step.StepType).Inc()
		}

		// 处理器约定自行兜错，这里兜底防止个别实现漏网
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("step panicked: %v", r)
			logger.WithContext(ctx).Error("步骤执行 panic",
				zap.String("step_id", step.StepID),
				zap.Any("panic", r),
			)
		}
	}()

	handler, ok := i.handlers[step.StepType]
	if !ok {
		result.Success = false
		result.Error = fmt.Sprintf("unknown step type: %s", step.StepType)
		return result
	}

	output, err := handler.Execute(ctx, step, execCtx)
	if err != nil {
		result.Success = false
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Result = output
	return result
}
