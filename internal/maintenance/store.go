package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order 设备维护工单
type Order struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid"`
	OperationType  string    `json:"operationType" gorm:"size:100;not null"`
	Description    string    `json:"description" gorm:"type:text"`
	Priority       string    `json:"priority" gorm:"size:50"` // high, medium, low
	Status         string    `json:"status" gorm:"size:50"`   // assigned, in_progress, completed
	EquipmentID    string    `json:"equipmentId" gorm:"size:255;index"`
	ScheduledStart time.Time `json:"scheduledStart" gorm:"not null"`
	CreatedAt      time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "maintenance_orders"
}

// Store 维护工单存储
type Store struct {
	db *gorm.DB
}

// NewStore 创建 Store 实例
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateBatch 批量创建维护工单，返回创建数量
func (s *Store) CreateBatch(ctx context.Context, orders []*Order) (int, error) {
	if len(orders) == 0 {
		return 0, nil
	}
	for _, o := range orders {
		if o.ID == "" {
			o.ID = uuid.New().String()
		}
		if o.Status == "" {
			o.Status = "assigned"
		}
	}
	if err := s.db.WithContext(ctx).Create(orders).Error; err != nil {
		return 0, fmt.Errorf("创建维护工单失败: %w", err)
	}
	return len(orders), nil
}
