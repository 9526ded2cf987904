package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 告警严重级别
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Alert 实时告警
type Alert struct {
	ID              string    `json:"id" gorm:"primaryKey;type:uuid"`
	Category        string    `json:"category" gorm:"size:100;index"`
	Severity        string    `json:"severity" gorm:"size:50;not null;index"`
	Title           string    `json:"title" gorm:"size:255;not null"`
	Description     string    `json:"description" gorm:"type:text"`
	AffectedSystems []string  `json:"affectedSystems" gorm:"type:jsonb;serializer:json"`
	DetectionMethod string    `json:"detectionMethod" gorm:"size:100"`
	Resolved        bool      `json:"resolved" gorm:"default:false;index"`
	CreatedAt       time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
}

// TableName 指定表名
func (Alert) TableName() string {
	return "real_time_alerts"
}

// AlertStore 告警存储，供触发条件检查与失败告警写入
type AlertStore struct {
	db *gorm.DB
}

// NewAlertStore 创建 AlertStore 实例
func NewAlertStore(db *gorm.DB) *AlertStore {
	return &AlertStore{db: db}
}

// Create 写入一条告警
func (s *AlertStore) Create(ctx context.Context, alert *Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("创建告警失败: %w", err)
	}
	return nil
}

// CountUnresolved 统计指定严重级别的未解决告警数
func (s *AlertStore) CountUnresolved(ctx context.Context, severity string) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Alert{}).
		Where("severity = ? AND resolved = ?", severity, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("统计未解决告警失败: %w", err)
	}
	return int(count), nil
}

// ListUnresolved 查询未解决告警
func (s *AlertStore) ListUnresolved(ctx context.Context, limit int) ([]Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	var alerts []Alert
	err := s.db.WithContext(ctx).
		Where("resolved = ?", false).
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("查询未解决告警失败: %w", err)
	}
	return alerts, nil
}
