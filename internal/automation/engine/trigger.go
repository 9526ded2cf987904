package engine

import (
	"context"
	"time"

	"backend/internal/automation"
	"backend/internal/logger"
	"backend/internal/metrics"

	"go.uber.org/zap"
)

// ExecutionSubmitter 执行提交通道，触发的工作流走异步队列
type ExecutionSubmitter interface {
	SubmitExecution(ctx context.Context, req *ExecutionRequest) error
}

// TriggerClaimer 触发去重
// 检查周期短于执行耗时时，同一工作流可能被连续两轮检查命中，
// 抢占失败的那一轮直接跳过
type TriggerClaimer interface {
	Claim(ctx context.Context, workflowID string) (bool, error)
	Release(ctx context.Context, workflowID string) error
}

// TriggerStats 一轮触发检查的结果
type TriggerStats struct {
	Checked   int `json:"workflows_checked"`
	Triggered int `json:"workflows_triggered"`
}

// TriggerEvaluator 触发评估器
// 周期性扫描带执行计划或触发条件的激活工作流，命中即提交执行
type TriggerEvaluator struct {
	store     WorkflowStore
	telemetry TelemetrySource
	alerts    AlertSink
	claims    TriggerClaimer
	submitter ExecutionSubmitter
}

// NewTriggerEvaluator 创建触发评估器
func NewTriggerEvaluator(
	store WorkflowStore,
	telemetry TelemetrySource,
	alerts AlertSink,
	claims TriggerClaimer,
	submitter ExecutionSubmitter,
) *TriggerEvaluator {
	return &TriggerEvaluator{
		store:     store,
		telemetry: telemetry,
		alerts:    alerts,
		claims:    claims,
		submitter: submitter,
	}
}

// CheckSchedules 扫描执行计划到期的工作流并提交执行
func (t *TriggerEvaluator) CheckSchedules(ctx context.Context, now time.Time) (*TriggerStats, error) {
	metrics.TriggerChecksTotal.WithLabelValues("schedule").Inc()

	workflows, err := t.store.ListActiveWithSchedule(ctx)
	if err != nil {
		return nil, err
	}

	stats := &TriggerStats{Checked: len(workflows)}
	for _, wf := range workflows {
		if wf.ExecutionSchedule == nil {
			continue
		}
		if !ScheduleDue(wf.ExecutionSchedule, wf.LastExecution, now) {
			continue
		}
		if t.submit(ctx, wf, automation.TriggerScheduled) {
			stats.Triggered++
		}
	}
	return stats, nil
}

// CheckConditions 扫描触发条件命中的工作流并提交执行
func (t *TriggerEvaluator) CheckConditions(ctx context.Context, now time.Time) (*TriggerStats, error) {
	metrics.TriggerChecksTotal.WithLabelValues("condition").Inc()

	workflows, err := t.store.ListActiveWithTriggers(ctx)
	if err != nil {
		return nil, err
	}

	stats := &TriggerStats{Checked: len(workflows)}
	for _, wf := range workflows {
		if len(wf.TriggerConditions) == 0 {
			continue
		}
		if !t.conditionsMet(ctx, wf.TriggerConditions) {
			continue
		}
		if t.submit(ctx, wf, automation.TriggerConditionBased) {
			stats.Triggered++
		}
	}
	return stats, nil
}

// submit 抢占触发去重后提交执行，提交失败释放抢占
func (t *TriggerEvaluator) submit(ctx context.Context, wf *automation.Workflow, triggerType string) bool {
	log := logger.WithContext(ctx)

	claimed, err := t.claims.Claim(ctx, wf.ID)
	if err != nil {
		log.Error("触发抢占失败",
			zap.String("workflow_id", wf.ID),
			zap.Error(err),
		)
		return false
	}
	if !claimed {
		return false
	}

	req := &ExecutionRequest{
		WorkflowID:  wf.ID,
		OwnerID:     wf.OwnerID,
		TriggerType: triggerType,
	}
	if err := t.submitter.SubmitExecution(ctx, req); err != nil {
		log.Error("提交工作流执行失败",
			zap.String("workflow_id", wf.ID),
			zap.Error(err),
		)
		if relErr := t.claims.Release(ctx, wf.ID); relErr != nil {
			log.Warn("释放触发抢占失败", zap.String("workflow_id", wf.ID), zap.Error(relErr))
		}
		return false
	}

	metrics.TriggeredWorkflowsTotal.WithLabelValues(triggerType).Inc()
	log.Info("触发工作流执行",
		zap.String("workflow_id", wf.ID),
		zap.String("trigger_type", triggerType),
	)
	return true
}

// conditionsMet 触发条件为 OR 语义，任意一条命中即触发
// 数据源读取失败按未命中处理，不中断整轮扫描
func (t *TriggerEvaluator) conditionsMet(ctx context.Context, conditions automation.TriggerConditionList) bool {
	for _, cond := range conditions {
		switch cond.ConditionType {
		case "metric_threshold":
			value, err := t.telemetry.Latest(ctx, cond.MetricName)
			if err != nil {
				continue
			}
			if cond.Comparison == "greater_than" && value > cond.Threshold {
				return true
			}
			if cond.Comparison == "less_than" && value < cond.Threshold {
				return true
			}

		case "alert_count":
			count, err := t.alerts.CountUnresolved(ctx, cond.Severity)
			if err != nil {
				continue
			}
			if count >= cond.CountThreshold {
				return true
			}
		}
	}
	return false
}

// ScheduleDue 判断执行计划是否到期
// interval：距上次执行超过 interval_minutes；
// daily：今天尚未执行且已过指定小时；
// weekly：距上次执行满 7 天且当天为指定星期；
// 从未执行过的计划立即到期，未知类型永不到期
func ScheduleDue(schedule *automation.ScheduleSpec, lastExecution *time.Time, now time.Time) bool {
	switch schedule.Type {
	case "interval":
		if lastExecution == nil {
			return true
		}
		interval := time.Duration(schedule.IntervalMinutes) * time.Minute
		return now.Sub(*lastExecution) >= interval

	case "daily":
		if lastExecution == nil {
			return true
		}
		sameDay := lastExecution.Year() == now.Year() && lastExecution.YearDay() == now.YearDay()
		return !sameDay && now.Hour() >= schedule.Hour

	case "weekly":
		if lastExecution == nil {
			return true
		}
		days := int(now.Sub(*lastExecution).Hours() / 24)
		return days >= 7 && int(now.Weekday()) == schedule.DayOfWeek

	default:
		return false
	}
}
