package telemetry

import (
	"time"
)

// Metric 性能指标采样
type Metric struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	MetricName   string    `json:"metricName" gorm:"size:100;not null;index"`
	CurrentValue float64   `json:"currentValue" gorm:"not null"`
	Unit         string    `json:"unit" gorm:"size:50"`
	Timestamp    time.Time `json:"timestamp" gorm:"not null;index"`
}

// TableName 指定表名
func (Metric) TableName() string {
	return "performance_metrics"
}

// InfrastructureStatus 基础设施状态快照
type InfrastructureStatus struct {
	ID         uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	SystemName string         `json:"systemName" gorm:"size:100"`
	Status     string         `json:"status" gorm:"size:50"` // operational, degraded, down
	Details    map[string]any `json:"details" gorm:"type:jsonb;serializer:json"`
	Timestamp  time.Time      `json:"timestamp" gorm:"not null;index"`
}

func (InfrastructureStatus) TableName() string {
	return "infrastructure_status"
}

// SecurityEvent 安全事件记录
type SecurityEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	EventType string    `json:"eventType" gorm:"size:100"`
	Severity  string    `json:"severity" gorm:"size:50;index"` // critical, high, medium, low
	Status    string    `json:"status" gorm:"size:50"`         // open, investigating, resolved
	Source    string    `json:"source" gorm:"size:255"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;index"`
}

func (SecurityEvent) TableName() string {
	return "security_events"
}
