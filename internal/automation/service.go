package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service 工作流管理服务
type Service struct {
	store *Store
}

// NewService 创建 Service 实例
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// CreateWorkflowRequest 创建工作流请求
type CreateWorkflowRequest struct {
	OwnerID           string               `json:"owner_id"`
	Name              string               `json:"name"`
	Description       string               `json:"description"`
	Steps             StepList             `json:"steps"`
	TriggerConditions TriggerConditionList `json:"trigger_conditions,omitempty"`
	ExecutionSchedule *ScheduleSpec        `json:"execution_schedule,omitempty"`
	IsActive          *bool                `json:"is_active,omitempty"`
}

// CreateWorkflow 创建工作流
func (s *Service) CreateWorkflow(ctx context.Context, req *CreateWorkflowRequest) (*Workflow, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("工作流名称不能为空")
	}
	if req.OwnerID == "" {
		return nil, fmt.Errorf("工作流所有者不能为空")
	}
	if err := ValidateSteps(req.Steps); err != nil {
		return nil, fmt.Errorf("工作流定义无效: %w", err)
	}
	if req.ExecutionSchedule != nil {
		if err := validateSchedule(req.ExecutionSchedule); err != nil {
			return nil, fmt.Errorf("执行计划无效: %w", err)
		}
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	wf := &Workflow{
		ID:                uuid.New().String(),
		OwnerID:           req.OwnerID,
		Name:              req.Name,
		Description:       req.Description,
		Steps:             req.Steps,
		TriggerConditions: req.TriggerConditions,
		ExecutionSchedule: req.ExecutionSchedule,
		IsActive:          active,
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}

	if err := s.store.Create(ctx, wf); err != nil {
		return nil, err
	}
	return wf, nil
}

// GetWorkflow 查询单个工作流
func (s *Service) GetWorkflow(ctx context.Context, id, ownerID string) (*Workflow, error) {
	return s.store.Get(ctx, id, ownerID)
}

// ListWorkflows 查询所有者的工作流列表
func (s *Service) ListWorkflows(ctx context.Context, ownerID string) ([]*Workflow, error) {
	return s.store.List(ctx, ownerID)
}

// GetWorkflowStats 获取工作流统计信息
func (s *Service) GetWorkflowStats(ctx context.Context, id, ownerID string) (map[string]any, error) {
	wf, err := s.store.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"execution_count": wf.ExecutionCount,
		"success_rate":    wf.SuccessRate,
		"last_execution":  wf.LastExecution,
	}, nil
}

// ValidateSteps 验证步骤序列：非空、step_id 唯一、步骤类型已知
func ValidateSteps(steps StepList) error {
	if len(steps) == 0 {
		return fmt.Errorf("工作流至少需要一个步骤")
	}

	stepIDs := make(map[string]bool, len(steps))
	for _, step := range steps {
		if step.StepID == "" {
			return fmt.Errorf("步骤缺少 step_id")
		}
		if stepIDs[step.StepID] {
			return fmt.Errorf("步骤 ID 重复: %s", step.StepID)
		}
		stepIDs[step.StepID] = true

		if !KnownStepTypes[step.StepType] {
			return fmt.Errorf("未知步骤类型: %s (步骤 %s)", step.StepType, step.StepID)
		}
	}
	return nil
}

// validateSchedule 验证执行计划
func validateSchedule(schedule *ScheduleSpec) error {
	switch schedule.Type {
	case "interval":
		if schedule.IntervalMinutes <= 0 {
			return fmt.Errorf("interval 计划的 interval_minutes 必须大于 0")
		}
	case "daily":
		if schedule.Hour < 0 || schedule.Hour > 23 {
			return fmt.Errorf("daily 计划的 hour 必须在 0-23 之间")
		}
	case "weekly":
		if schedule.DayOfWeek < 0 || schedule.DayOfWeek > 6 {
			return fmt.Errorf("weekly 计划的 day_of_week 必须在 0-6 之间")
		}
	default:
		return fmt.Errorf("不支持的计划类型: %s", schedule.Type)
	}
	return nil
}
