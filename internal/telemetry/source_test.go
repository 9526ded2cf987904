package telemetry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTelemetryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:telemetry_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Metric{}, &InfrastructureStatus{}, &SecurityEvent{}))
	return db
}

func TestSourceLatest(t *testing.T) {
	db := setupTelemetryTestDB(t)
	source := NewSource(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, db.Create(&Metric{MetricName: "cpu_usage", CurrentValue: 70, Timestamp: now.Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&Metric{MetricName: "cpu_usage", CurrentValue: 85, Timestamp: now}).Error)
	require.NoError(t, db.Create(&Metric{MetricName: "memory_usage", CurrentValue: 40, Timestamp: now}).Error)

	t.Run("返回最新采样", func(t *testing.T) {
		value, err := source.Latest(ctx, "cpu_usage")
		require.NoError(t, err)
		assert.Equal(t, 85.0, value)
	})

	t.Run("指标不存在", func(t *testing.T) {
		_, err := source.Latest(ctx, "disk_usage")
		assert.ErrorIs(t, err, ErrMetricNotFound)
	})
}

func TestAveragePerformance(t *testing.T) {
	assert.Equal(t, 0.0, AveragePerformance(nil))

	metrics := []Metric{
		{CurrentValue: 10},
		{CurrentValue: 20},
		{CurrentValue: 25},
	}
	assert.Equal(t, 18.33, AveragePerformance(metrics), "保留两位小数")
}

func TestAnalyzeTrend(t *testing.T) {
	flat := func(value float64, n int) []Metric {
		out := make([]Metric, n)
		for i := range out {
			out[i] = Metric{CurrentValue: value}
		}
		return out
	}

	t.Run("采样不足", func(t *testing.T) {
		assert.Equal(t, "insufficient_data", AnalyzeTrend(nil))
		assert.Equal(t, "insufficient_data", AnalyzeTrend(flat(10, 1)))
		// 不足 6 个采样时没有对照组
		assert.Equal(t, "insufficient_data", AnalyzeTrend(flat(10, 5)))
	})

	t.Run("上升超过 5% 为 improving", func(t *testing.T) {
		metrics := append(flat(100, 5), flat(110, 5)...)
		assert.Equal(t, "improving", AnalyzeTrend(metrics))
	})

	t.Run("下降超过 5% 为 declining", func(t *testing.T) {
		metrics := append(flat(100, 5), flat(90, 5)...)
		assert.Equal(t, "declining", AnalyzeTrend(metrics))
	})

	t.Run("±5% 以内为 stable", func(t *testing.T) {
		metrics := append(flat(100, 5), flat(103, 5)...)
		assert.Equal(t, "stable", AnalyzeTrend(metrics))

		metrics = append(flat(100, 5), flat(97, 5)...)
		assert.Equal(t, "stable", AnalyzeTrend(metrics))
	})
}
