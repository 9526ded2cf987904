package audit

import (
	"context"
	"time"

	"backend/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 审计动作类型
const (
	ActionWorkflowExecution      = "workflow_execution"
	ActionWorkflowExecutionError = "workflow_execution_error"
	ActionWorkflowCreated        = "workflow_created"
)

// Entry 审计记录
type Entry struct {
	ID           string         `json:"id" gorm:"primaryKey;type:uuid"`
	UserID       string         `json:"userId" gorm:"size:100;index"`
	ActionType   string         `json:"actionType" gorm:"size:100;not null;index"`
	ResourceType string         `json:"resourceType" gorm:"size:100"`
	ResourceID   string         `json:"resourceId" gorm:"size:100;index"`
	Details      map[string]any `json:"details" gorm:"type:jsonb;serializer:json"`
	Outcome      string         `json:"outcome" gorm:"size:50"` // success, failure
	DurationMs   int64          `json:"durationMs"`
	CreatedAt    time.Time      `json:"createdAt" gorm:"not null;autoCreateTime;index"`
}

// TableName 指定表名
func (Entry) TableName() string {
	return "audit_trail"
}

// Sink 审计出口
// 写入失败不向上抛错，避免业务流程因审计失败而中断
type Sink struct {
	db *gorm.DB
}

// NewSink 创建 Sink 实例
func NewSink(db *gorm.DB) *Sink {
	return &Sink{db: db}
}

// Append 追加一条审计记录
func (s *Sink) Append(ctx context.Context, entry *Entry) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.ResourceType == "" {
		entry.ResourceType = "automation_workflow"
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.WithContext(ctx).Warn("审计写入失败",
			zap.String("action", entry.ActionType),
			zap.String("resource", entry.ResourceID),
			zap.Error(err),
		)
	}
}
