package automation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupWorkflowTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:workflow_store_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Workflow{}))
	return db
}

func sampleSteps() StepList {
	return StepList{
		{StepID: "s1", StepType: StepReporting, Action: "report", Parameters: map[string]any{"report_type": "performance_summary"}},
	}
}

func TestStoreGet(t *testing.T) {
	db := setupWorkflowTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	wf := &Workflow{ID: "wf-1", OwnerID: "user-1", Name: "test", Steps: sampleSteps(), IsActive: true}
	require.NoError(t, store.Create(ctx, wf))

	t.Run("命中", func(t *testing.T) {
		got, err := store.Get(ctx, "wf-1", "user-1")
		require.NoError(t, err)
		assert.Equal(t, "test", got.Name)
		require.Len(t, got.Steps, 1)
		assert.Equal(t, "s1", got.Steps[0].StepID)
	})

	t.Run("不存在", func(t *testing.T) {
		_, err := store.Get(ctx, "missing", "user-1")
		assert.ErrorIs(t, err, ErrWorkflowNotFound)
	})

	t.Run("所有者不符", func(t *testing.T) {
		_, err := store.Get(ctx, "wf-1", "other-user")
		assert.ErrorIs(t, err, ErrWorkflowNotFound)
	})

	t.Run("未激活", func(t *testing.T) {
		inactive := &Workflow{ID: "wf-2", OwnerID: "user-1", Name: "off", Steps: sampleSteps(), IsActive: false}
		require.NoError(t, store.Create(ctx, inactive))
		_, err := store.Get(ctx, "wf-2", "user-1")
		assert.ErrorIs(t, err, ErrWorkflowNotFound)
	})
}

func TestStoreRecordExecutionRollingRate(t *testing.T) {
	db := setupWorkflowTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	wf := &Workflow{ID: "wf-1", OwnerID: "user-1", Name: "test", Steps: sampleSteps(), IsActive: true}
	require.NoError(t, store.Create(ctx, wf))

	require.NoError(t, store.RecordExecution(ctx, "wf-1", true, 120*time.Millisecond))
	got, err := store.Get(ctx, "wf-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, uint(1), got.ExecutionCount)
	assert.Equal(t, 100.0, got.SuccessRate)
	require.NotNil(t, got.LastExecution)

	require.NoError(t, store.RecordExecution(ctx, "wf-1", false, 80*time.Millisecond))
	got, err = store.Get(ctx, "wf-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, uint(2), got.ExecutionCount)
	assert.Equal(t, 50.0, got.SuccessRate)

	require.NoError(t, store.RecordExecution(ctx, "wf-1", true, 80*time.Millisecond))
	got, err = store.Get(ctx, "wf-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, uint(3), got.ExecutionCount)
	assert.Equal(t, 66.67, got.SuccessRate, "保留两位小数")
}

func TestStoreRecordExecutionConcurrent(t *testing.T) {
	db := setupWorkflowTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	wf := &Workflow{ID: "wf-1", OwnerID: "user-1", Name: "test", Steps: sampleSteps(), IsActive: true}
	require.NoError(t, store.Create(ctx, wf))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.RecordExecution(ctx, "wf-1", true, time.Millisecond)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "wf-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, uint(10), got.ExecutionCount, "并发记录不应丢失计数")
	assert.Equal(t, 100.0, got.SuccessRate)
}

func TestStoreListActiveWithTriggers(t *testing.T) {
	db := setupWorkflowTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	withTriggers := &Workflow{
		ID: "wf-trig", OwnerID: "user-1", Name: "triggered", Steps: sampleSteps(), IsActive: true,
		TriggerConditions: TriggerConditionList{{ConditionType: "alert_count", Severity: "critical", CountThreshold: 1}},
	}
	withoutTriggers := &Workflow{ID: "wf-plain", OwnerID: "user-1", Name: "plain", Steps: sampleSteps(), IsActive: true}
	inactive := &Workflow{
		ID: "wf-off", OwnerID: "user-1", Name: "off", Steps: sampleSteps(), IsActive: false,
		TriggerConditions: TriggerConditionList{{ConditionType: "alert_count", Severity: "high", CountThreshold: 1}},
	}
	for _, wf := range []*Workflow{withTriggers, withoutTriggers, inactive} {
		require.NoError(t, store.Create(ctx, wf))
	}

	list, err := store.ListActiveWithTriggers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "wf-trig", list[0].ID)
}

func TestStoreListActiveWithSchedule(t *testing.T) {
	db := setupWorkflowTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	scheduled := &Workflow{
		ID: "wf-sched", OwnerID: "user-1", Name: "scheduled", Steps: sampleSteps(), IsActive: true,
		ExecutionSchedule: &ScheduleSpec{Type: "interval", IntervalMinutes: 30},
	}
	plain := &Workflow{ID: "wf-plain", OwnerID: "user-1", Name: "plain", Steps: sampleSteps(), IsActive: true}
	for _, wf := range []*Workflow{scheduled, plain} {
		require.NoError(t, store.Create(ctx, wf))
	}

	list, err := store.ListActiveWithSchedule(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "wf-sched", list[0].ID)
	require.NotNil(t, list[0].ExecutionSchedule)
	assert.Equal(t, 30, list[0].ExecutionSchedule.IntervalMinutes)
}
