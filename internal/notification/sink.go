package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification 一次通知投递请求
type Notification struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid"`
	Type           string    `json:"type" gorm:"size:100"`
	Title          string    `json:"title" gorm:"size:255"`
	Message        string    `json:"message" gorm:"type:text"`
	Recipients     []string  `json:"recipients" gorm:"type:jsonb;serializer:json"`
	Channels       []string  `json:"channels" gorm:"type:jsonb;serializer:json"`
	DeliveryStatus string    `json:"deliveryStatus" gorm:"size:50"` // sent = 已交付下游通道
	CreatedAt      time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}

// Delivery 通知投递回执
type Delivery struct {
	NotificationID string
	Recipients     int
	Channels       int
}

// Sink 通知出口
// "sent" 仅表示已交付给下游通道，不保证最终送达
type Sink struct {
	db *gorm.DB
}

// NewSink 创建 Sink 实例
func NewSink(db *gorm.DB) *Sink {
	return &Sink{db: db}
}

// Send 记录并投递一条通知
func (s *Sink) Send(ctx context.Context, n *Notification) (*Delivery, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if len(n.Channels) == 0 {
		n.Channels = []string{"dashboard"}
	}
	n.DeliveryStatus = "sent"

	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, fmt.Errorf("记录通知失败: %w", err)
	}

	return &Delivery{
		NotificationID: n.ID,
		Recipients:     len(n.Recipients),
		Channels:       len(n.Channels),
	}, nil
}
