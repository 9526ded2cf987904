package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"gorm.io/gorm"
)

// ErrWorkflowNotFound 工作流不存在、未激活或无权访问
var ErrWorkflowNotFound = errors.New("workflow not found or inactive")

// Store 工作流持久层
type Store struct {
	db *gorm.DB

	// 统计更新为同一工作流上的读-改-写，必须按工作流串行化，
	// 否则两次执行同时结束会丢失计数
	statsMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewStore 创建 Store 实例
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:    db,
		locks: make(map[string]*sync.Mutex),
	}
}

// Get 按 ID 与所有者查询激活的工作流
func (s *Store) Get(ctx context.Context, id, ownerID string) (*Workflow, error) {
	var wf Workflow
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ? AND is_active = ?", id, ownerID, true).
		First(&wf).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("查询工作流失败: %w", err)
	}
	return &wf, nil
}

// Create 创建工作流
func (s *Store) Create(ctx context.Context, wf *Workflow) error {
	if err := s.db.WithContext(ctx).Create(wf).Error; err != nil {
		return fmt.Errorf("创建工作流失败: %w", err)
	}
	return nil
}

// List 查询某个所有者的全部工作流
func (s *Store) List(ctx context.Context, ownerID string) ([]*Workflow, error) {
	var workflows []*Workflow
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&workflows).Error
	if err != nil {
		return nil, fmt.Errorf("查询工作流列表失败: %w", err)
	}
	return workflows, nil
}

// ListActiveWithSchedule 查询所有带执行计划的激活工作流
func (s *Store) ListActiveWithSchedule(ctx context.Context) ([]*Workflow, error) {
	var workflows []*Workflow
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND execution_schedule IS NOT NULL", true).
		Find(&workflows).Error
	if err != nil {
		return nil, fmt.Errorf("查询计划工作流失败: %w", err)
	}
	return workflows, nil
}

// ListActiveWithTriggers 查询所有带触发条件的激活工作流
func (s *Store) ListActiveWithTriggers(ctx context.Context) ([]*Workflow, error) {
	var workflows []*Workflow
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND trigger_conditions IS NOT NULL", true).
		Find(&workflows).Error
	if err != nil {
		return nil, fmt.Errorf("查询条件工作流失败: %w", err)
	}
	return workflows, nil
}

// RecordExecution 记录一次执行并更新滚动统计
// newRate = ((oldRate*oldCount) + (success?100:0)) / newCount，保留两位小数
func (s *Store) RecordExecution(ctx context.Context, workflowID string, success bool, duration time.Duration) error {
	lock := s.workflowLock(workflowID)
	lock.Lock()
	defer lock.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wf Workflow
		if err := tx.Select("id", "execution_count", "success_rate").
			Where("id = ?", workflowID).
			First(&wf).Error; err != nil {
			return fmt.Errorf("读取工作流统计失败: %w", err)
		}

		newCount := wf.ExecutionCount + 1
		score := 0.0
		if success {
			score = 100.0
		}
		newRate := ((wf.SuccessRate * float64(wf.ExecutionCount)) + score) / float64(newCount)
		newRate = math.Round(newRate*100) / 100

		now := time.Now().UTC()
		return tx.Model(&Workflow{}).
			Where("id = ?", workflowID).
			Updates(map[string]any{
				"execution_count": newCount,
				"success_rate":    newRate,
				"last_execution":  now,
				"updated_at":      now,
			}).Error
	})
}

// workflowLock 获取指定工作流的统计锁
func (s *Store) workflowLock(workflowID string) *sync.Mutex {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	lock, ok := s.locks[workflowID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[workflowID] = lock
	}
	return lock
}
