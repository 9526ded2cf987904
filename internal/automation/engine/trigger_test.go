package engine

import (
	"context"
	"testing"
	"time"

	"backend/internal/automation"
	"backend/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTelemetry struct {
	latest map[string]float64
}

func (f *fakeTelemetry) Latest(ctx context.Context, metricName string) (float64, error) {
	if v, ok := f.latest[metricName]; ok {
		return v, nil
	}
	return 0, telemetry.ErrMetricNotFound
}

func (f *fakeTelemetry) Window(ctx context.Context, since time.Time, limit int) ([]telemetry.Metric, error) {
	return nil, nil
}

func (f *fakeTelemetry) LatestInfrastructure(ctx context.Context) (*telemetry.InfrastructureStatus, error) {
	return nil, nil
}

func (f *fakeTelemetry) SecurityEventsSince(ctx context.Context, since time.Time) ([]telemetry.SecurityEvent, error) {
	return nil, nil
}

type fakeClaimer struct {
	claimed  map[string]bool
	released []string
}

func (f *fakeClaimer) Claim(ctx context.Context, workflowID string) (bool, error) {
	if f.claimed == nil {
		f.claimed = make(map[string]bool)
	}
	if f.claimed[workflowID] {
		return false, nil
	}
	f.claimed[workflowID] = true
	return true, nil
}

func (f *fakeClaimer) Release(ctx context.Context, workflowID string) error {
	f.released = append(f.released, workflowID)
	delete(f.claimed, workflowID)
	return nil
}

type fakeSubmitter struct {
	requests []*ExecutionRequest
	err      error
}

func (f *fakeSubmitter) SubmitExecution(ctx context.Context, req *ExecutionRequest) error {
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, req)
	return nil
}

func TestScheduleDue(t *testing.T) {
	now := time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC) // 周一
	past := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	t.Run("从未执行过立即到期", func(t *testing.T) {
		for _, typ := range []string{"interval", "daily", "weekly"} {
			assert.True(t, ScheduleDue(&automation.ScheduleSpec{Type: typ, IntervalMinutes: 60}, nil, now), typ)
		}
	})

	t.Run("interval 未到期", func(t *testing.T) {
		spec := &automation.ScheduleSpec{Type: "interval", IntervalMinutes: 60}
		assert.False(t, ScheduleDue(spec, past(30*time.Minute), now))
	})

	t.Run("interval 到期", func(t *testing.T) {
		spec := &automation.ScheduleSpec{Type: "interval", IntervalMinutes: 60}
		assert.True(t, ScheduleDue(spec, past(61*time.Minute), now))
	})

	t.Run("interval 边界等于间隔", func(t *testing.T) {
		spec := &automation.ScheduleSpec{Type: "interval", IntervalMinutes: 60}
		assert.True(t, ScheduleDue(spec, past(60*time.Minute), now))
	})

	t.Run("daily 当天已执行", func(t *testing.T) {
		spec := &automation.ScheduleSpec{Type: "daily", Hour: 8}
		assert.False(t, ScheduleDue(spec, past(2*time.Hour), now))
	})

	t.Run("daily 昨天执行且已过指定小时", func(t *testing.T) {
		spec := &automation.ScheduleSpec{Type: "daily", Hour: 8}
		assert.True(t, ScheduleDue(spec, past(24*time.Hour), now))
	})

	t.Run("daily 昨天执行但未到指定小时", func(t *testing.T) {
		spec := &automation.ScheduleSpec{Type: "daily", Hour: 20}
		assert.False(t, ScheduleDue(spec, past(24*time.Hour), now))
	})

	t.Run("weekly 满一周且星期命中", func(t *testing.T) {
		spec := &automation.ScheduleSpec{Type: "weekly", DayOfWeek: 1}
		assert.True(t, ScheduleDue(spec, past(8*24*time.Hour), now))
	})

	t.Run("weekly 满一周但星期不符", func(t *testing.T) {
		spec := &automation.ScheduleSpec{Type: "weekly", DayOfWeek: 3}
		assert.False(t, ScheduleDue(spec, past(8*24*time.Hour), now))
	})

	t.Run("weekly 不满一周", func(t *testing.T) {
		spec := &automation.ScheduleSpec{Type: "weekly", DayOfWeek: 1}
		assert.False(t, ScheduleDue(spec, past(3*24*time.Hour), now))
	})

	t.Run("未知计划类型永不到期", func(t *testing.T) {
		spec := &automation.ScheduleSpec{Type: "hourly"}
		assert.False(t, ScheduleDue(spec, nil, now))
	})
}

func TestCheckSchedulesSubmitsDueWorkflows(t *testing.T) {
	now := time.Now()
	stale := now.Add(-2 * time.Hour)
	fresh := now.Add(-10 * time.Minute)

	due := &automation.Workflow{
		ID: "wf-due", OwnerID: "user-1", IsActive: true,
		ExecutionSchedule: &automation.ScheduleSpec{Type: "interval", IntervalMinutes: 60},
		LastExecution:     &stale,
	}
	notDue := &automation.Workflow{
		ID: "wf-fresh", OwnerID: "user-1", IsActive: true,
		ExecutionSchedule: &automation.ScheduleSpec{Type: "interval", IntervalMinutes: 60},
		LastExecution:     &fresh,
	}

	store := &fakeWorkflowStore{}
	storeWithList := &scheduleListStore{fakeWorkflowStore: store, scheduled: []*automation.Workflow{due, notDue}}
	submitter := &fakeSubmitter{}

	evaluator := NewTriggerEvaluator(storeWithList, &fakeTelemetry{}, &fakeAlertSink{}, &fakeClaimer{}, submitter)
	stats, err := evaluator.CheckSchedules(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Checked)
	assert.Equal(t, 1, stats.Triggered)
	require.Len(t, submitter.requests, 1)
	assert.Equal(t, "wf-due", submitter.requests[0].WorkflowID)
	assert.Equal(t, automation.TriggerScheduled, submitter.requests[0].TriggerType)
}

// scheduleListStore 覆盖列表查询，返回预置工作流
type scheduleListStore struct {
	*fakeWorkflowStore
	scheduled []*automation.Workflow
	triggered []*automation.Workflow
}

func (s *scheduleListStore) ListActiveWithSchedule(ctx context.Context) ([]*automation.Workflow, error) {
	return s.scheduled, nil
}

func (s *scheduleListStore) ListActiveWithTriggers(ctx context.Context) ([]*automation.Workflow, error) {
	return s.triggered, nil
}

func TestCheckConditionsMetricThreshold(t *testing.T) {
	wf := &automation.Workflow{
		ID: "wf-cond", OwnerID: "user-1", IsActive: true,
		TriggerConditions: automation.TriggerConditionList{
			{ConditionType: "metric_threshold", MetricName: "cpu_usage", Comparison: "greater_than", Threshold: 80},
		},
	}
	store := &scheduleListStore{fakeWorkflowStore: &fakeWorkflowStore{}, triggered: []*automation.Workflow{wf}}
	submitter := &fakeSubmitter{}

	t.Run("阈值命中触发", func(t *testing.T) {
		tel := &fakeTelemetry{latest: map[string]float64{"cpu_usage": 92}}
		evaluator := NewTriggerEvaluator(store, tel, &fakeAlertSink{}, &fakeClaimer{}, submitter)
		stats, err := evaluator.CheckConditions(context.Background(), time.Now())
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Triggered)
		require.Len(t, submitter.requests, 1)
		assert.Equal(t, automation.TriggerConditionBased, submitter.requests[0].TriggerType)
	})

	t.Run("阈值未命中不触发", func(t *testing.T) {
		submitter := &fakeSubmitter{}
		tel := &fakeTelemetry{latest: map[string]float64{"cpu_usage": 50}}
		evaluator := NewTriggerEvaluator(store, tel, &fakeAlertSink{}, &fakeClaimer{}, submitter)
		stats, err := evaluator.CheckConditions(context.Background(), time.Now())
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Triggered)
	})

	t.Run("指标缺失不触发", func(t *testing.T) {
		submitter := &fakeSubmitter{}
		evaluator := NewTriggerEvaluator(store, &fakeTelemetry{}, &fakeAlertSink{}, &fakeClaimer{}, submitter)
		stats, err := evaluator.CheckConditions(context.Background(), time.Now())
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Triggered)
	})
}

func TestCheckConditionsAlertCount(t *testing.T) {
	wf := &automation.Workflow{
		ID: "wf-alerts", OwnerID: "user-1", IsActive: true,
		TriggerConditions: automation.TriggerConditionList{
			{ConditionType: "alert_count", Severity: "critical", CountThreshold: 3},
		},
	}
	store := &scheduleListStore{fakeWorkflowStore: &fakeWorkflowStore{}, triggered: []*automation.Workflow{wf}}

	t.Run("未解决告警达标触发", func(t *testing.T) {
		submitter := &fakeSubmitter{}
		evaluator := NewTriggerEvaluator(store, &fakeTelemetry{}, &fakeAlertSink{unresolved: 3}, &fakeClaimer{}, submitter)
		stats, err := evaluator.CheckConditions(context.Background(), time.Now())
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Triggered)
	})

	t.Run("未达标不触发", func(t *testing.T) {
		submitter := &fakeSubmitter{}
		evaluator := NewTriggerEvaluator(store, &fakeTelemetry{}, &fakeAlertSink{unresolved: 2}, &fakeClaimer{}, submitter)
		stats, err := evaluator.CheckConditions(context.Background(), time.Now())
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Triggered)
	})
}

func TestTriggerClaimDebounce(t *testing.T) {
	now := time.Now()
	wf := &automation.Workflow{
		ID: "wf-claim", OwnerID: "user-1", IsActive: true,
		ExecutionSchedule: &automation.ScheduleSpec{Type: "interval", IntervalMinutes: 60},
	}
	store := &scheduleListStore{fakeWorkflowStore: &fakeWorkflowStore{}, scheduled: []*automation.Workflow{wf}}
	claimer := &fakeClaimer{}
	submitter := &fakeSubmitter{}

	evaluator := NewTriggerEvaluator(store, &fakeTelemetry{}, &fakeAlertSink{}, claimer, submitter)

	// 第一轮抢占成功并提交
	stats, err := evaluator.CheckSchedules(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Triggered)

	// last_execution 尚未更新，第二轮因占位存在被去重
	stats, err = evaluator.CheckSchedules(context.Background(), now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Triggered)
	assert.Len(t, submitter.requests, 1)
}

func TestTriggerSubmitFailureReleasesClaim(t *testing.T) {
	now := time.Now()
	wf := &automation.Workflow{
		ID: "wf-fail", OwnerID: "user-1", IsActive: true,
		ExecutionSchedule: &automation.ScheduleSpec{Type: "interval", IntervalMinutes: 60},
	}
	store := &scheduleListStore{fakeWorkflowStore: &fakeWorkflowStore{}, scheduled: []*automation.Workflow{wf}}
	claimer := &fakeClaimer{}
	submitter := &fakeSubmitter{err: assert.AnError}

	evaluator := NewTriggerEvaluator(store, &fakeTelemetry{}, &fakeAlertSink{}, claimer, submitter)
	stats, err := evaluator.CheckSchedules(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, 0, stats.Triggered)
	assert.Contains(t, claimer.released, "wf-fail", "入队失败应回滚占位")
}
