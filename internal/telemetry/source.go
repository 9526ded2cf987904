package telemetry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
)

// ErrMetricNotFound 指定指标没有任何采样
var ErrMetricNotFound = errors.New("metric not found")

// Source 指标数据源，供数据采集步骤与触发条件检查读取
type Source struct {
	db *gorm.DB
}

// NewSource 创建 Source 实例
func NewSource(db *gorm.DB) *Source {
	return &Source{db: db}
}

// Latest 取指定指标的最新值
func (s *Source) Latest(ctx context.Context, metricName string) (float64, error) {
	var m Metric
	err := s.db.WithContext(ctx).
		Where("metric_name = ?", metricName).
		Order("timestamp DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrMetricNotFound
		}
		return 0, fmt.Errorf("查询指标失败: %w", err)
	}
	return m.CurrentValue, nil
}

// Window 取某时间点之后的指标采样
func (s *Source) Window(ctx context.Context, since time.Time, limit int) ([]Metric, error) {
	if limit <= 0 {
		limit = 1000
	}
	var metrics []Metric
	err := s.db.WithContext(ctx).
		Where("timestamp >= ?", since).
		Order("timestamp ASC").
		Limit(limit).
		Find(&metrics).Error
	if err != nil {
		return nil, fmt.Errorf("查询指标窗口失败: %w", err)
	}
	return metrics, nil
}

// LatestInfrastructure 取最新一次基础设施状态快照
func (s *Source) LatestInfrastructure(ctx context.Context) (*InfrastructureStatus, error) {
	var status InfrastructureStatus
	err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		First(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询基础设施状态失败: %w", err)
	}
	return &status, nil
}

// SecurityEventsSince 取某时间点之后的安全事件
func (s *Source) SecurityEventsSince(ctx context.Context, since time.Time) ([]SecurityEvent, error) {
	var events []SecurityEvent
	err := s.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("查询安全事件失败: %w", err)
	}
	return events, nil
}

// AveragePerformance 计算采样均值，保留两位小数
func AveragePerformance(metrics []Metric) float64 {
	if len(metrics) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range metrics {
		sum += m.CurrentValue
	}
	return math.Round(sum/float64(len(metrics))*100) / 100
}

// AnalyzeTrend 对比最近 5 个与再往前 5 个采样的均值，±5% 为波动带
func AnalyzeTrend(metrics []Metric) string {
	if len(metrics) < 2 {
		return "insufficient_data"
	}

	recent := metrics
	if len(metrics) > 5 {
		recent = metrics[len(metrics)-5:]
	}
	var older []Metric
	if len(metrics) > 5 {
		start := len(metrics) - 10
		if start < 0 {
			start = 0
		}
		older = metrics[start : len(metrics)-5]
	}
	if len(older) == 0 {
		return "insufficient_data"
	}

	recentAvg := AveragePerformance(recent)
	olderAvg := AveragePerformance(older)

	switch {
	case recentAvg > olderAvg*1.05:
		return "improving"
	case recentAvg < olderAvg*0.95:
		return "declining"
	default:
		return "stable"
	}
}
