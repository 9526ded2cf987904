package automation

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// 步骤类型标签
const (
	StepDataCollection = "data_collection"
	StepAnalysis       = "analysis"
	StepNotification   = "notification"
	StepSystemControl  = "system_control"
	StepReporting      = "reporting"
	StepMLPrediction   = "ml_prediction"
	StepMaintenance    = "maintenance_scheduling"
	StepAPICall        = "api_call"
	StepDatabaseOp     = "database_operation"
	StepConditional    = "conditional"
)

// KnownStepTypes 引擎支持的全部步骤类型
var KnownStepTypes = map[string]bool{
	StepDataCollection: true,
	StepAnalysis:       true,
	StepNotification:   true,
	StepSystemControl:  true,
	StepReporting:      true,
	StepMLPrediction:   true,
	StepMaintenance:    true,
	StepAPICall:        true,
	StepDatabaseOp:     true,
	StepConditional:    true,
}

// 触发类型
const (
	TriggerManual         = "manual"
	TriggerScheduled      = "scheduled"
	TriggerConditionBased = "condition_based"
)

// WorkflowStep 工作流步骤定义
type WorkflowStep struct {
	StepID          string         `json:"step_id"`
	StepType        string         `json:"step_type"`
	Action          string         `json:"action"`
	Parameters      map[string]any `json:"parameters"`
	Conditions      map[string]any `json:"conditions,omitempty"`
	TimeoutSeconds  int            `json:"timeout_seconds,omitempty"`
	ContinueOnError bool           `json:"continue_on_error,omitempty"`
}

// StepList 步骤序列，以 JSONB 形式存储
type StepList []WorkflowStep

// Value 实现 driver.Valuer 接口，用于 GORM 存储 JSONB
func (s StepList) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan 实现 sql.Scanner 接口，用于 GORM 读取 JSONB
func (s *StepList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return errors.New("type assertion to []byte failed")
		}
	}
	return json.Unmarshal(bytes, s)
}

// TriggerCondition 指标/告警触发条件
type TriggerCondition struct {
	ConditionType  string         `json:"condition_type"` // metric_threshold, alert_count
	Parameters     map[string]any `json:"parameters,omitempty"`
	MetricName     string         `json:"metric_name,omitempty"`
	Severity       string         `json:"severity,omitempty"`
	Threshold      float64        `json:"threshold,omitempty"`
	CountThreshold int            `json:"count_threshold,omitempty"`
	Comparison     string         `json:"comparison,omitempty"` // greater_than, less_than
}

// TriggerConditionList 触发条件集合，OR 语义
type TriggerConditionList []TriggerCondition

// Value 空列表存为 NULL，便于触发扫描用 IS NOT NULL 过滤
func (l TriggerConditionList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *TriggerConditionList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return errors.New("type assertion to []byte failed")
		}
	}
	return json.Unmarshal(bytes, l)
}

// ScheduleSpec 执行计划
type ScheduleSpec struct {
	Type            string `json:"type"` // interval, daily, weekly
	IntervalMinutes int    `json:"interval_minutes,omitempty"`
	Hour            int    `json:"hour,omitempty"`
	DayOfWeek       int    `json:"day_of_week,omitempty"` // 0 = 周日
}

func (s ScheduleSpec) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *ScheduleSpec) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return errors.New("type assertion to []byte failed")
		}
	}
	return json.Unmarshal(bytes, s)
}

// Workflow 自动化工作流
type Workflow struct {
	ID      string `json:"id" gorm:"primaryKey;type:uuid"`
	OwnerID string `json:"ownerId" gorm:"type:uuid;not null;index"`

	Name        string `json:"name" gorm:"size:255;not null"`
	Description string `json:"description" gorm:"type:text"`

	Steps             StepList             `json:"steps" gorm:"type:jsonb;not null"`
	TriggerConditions TriggerConditionList `json:"triggerConditions,omitempty" gorm:"type:jsonb"`
	ExecutionSchedule *ScheduleSpec        `json:"executionSchedule,omitempty" gorm:"type:jsonb"`

	IsActive bool `json:"isActive" gorm:"default:true;index"`

	// 滚动统计，仅由统计适配器更新
	ExecutionCount uint       `json:"executionCount" gorm:"default:0"`
	SuccessRate    float64    `json:"successRate" gorm:"default:0"` // 0-100，两位小数
	LastExecution  *time.Time `json:"lastExecution,omitempty"`

	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null;autoUpdateTime"`
}

// TableName 指定表名
func (Workflow) TableName() string {
	return "automation_workflows"
}

// StepResult 单个步骤的执行结果
type StepResult struct {
	StepID          string         `json:"step_id"`
	Action          string         `json:"action"`
	Success         bool           `json:"success"`
	Result          map[string]any `json:"result,omitempty"`
	ExecutionTimeMs int64          `json:"execution_time_ms"`
	Error           string         `json:"error,omitempty"`
}

// ExecutionReport 一次工作流执行的结构化结果
type ExecutionReport struct {
	WorkflowID      string       `json:"workflow_id"`
	OverallSuccess  bool         `json:"overall_success"`
	ExecutionTimeMs int64        `json:"execution_time_ms"`
	StepResults     []StepResult `json:"step_results"`
	StepsExecuted   int          `json:"steps_executed"`
	StepsSuccessful int          `json:"steps_successful"`
	TriggerType     string       `json:"trigger_type"`
}
