package control

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Operation 系统控制指令记录
type Operation struct {
	ID            string         `json:"id" gorm:"primaryKey;type:uuid"`
	OperationType string         `json:"operationType" gorm:"size:100;not null"`
	TargetDevice  string         `json:"targetDevice" gorm:"size:255;not null;index"`
	CommandData   map[string]any `json:"commandData" gorm:"type:jsonb;serializer:json"`
	Status        string         `json:"status" gorm:"size:50"`
	ExecutedBy    string         `json:"executedBy" gorm:"size:100"`
	ExecutedAt    time.Time      `json:"executedAt" gorm:"not null"`
}

// TableName 指定表名
func (Operation) TableName() string {
	return "control_operations"
}

// Sink 控制指令出口，记录下发给目标系统的命令
// 除非写入本身失败，控制步骤按 fire-and-forget 成功处理
type Sink struct {
	db *gorm.DB
}

// NewSink 创建 Sink 实例
func NewSink(db *gorm.DB) *Sink {
	return &Sink{db: db}
}

// Record 记录一次控制指令
func (s *Sink) Record(ctx context.Context, op *Operation) error {
	if op.ID == "" {
		op.ID = uuid.New().String()
	}
	if op.Status == "" {
		op.Status = "completed"
	}
	if op.ExecutedAt.IsZero() {
		op.ExecutedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(op).Error; err != nil {
		return fmt.Errorf("记录控制指令失败: %w", err)
	}
	return nil
}
