package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/automation/engine"
	"backend/internal/config"
	"backend/internal/worker/tasks"

	"github.com/hibiken/asynq"
)

// Client 任务队列客户端接口
type Client interface {
	EnqueueExecuteWorkflow(payload tasks.ExecuteWorkflowPayload) error
	Close() error
}

type asynqClient struct {
	client *asynq.Client
}

// NewClient 创建任务队列客户端
func NewClient(cfg config.RedisConfig) Client {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &asynqClient{client: client}
}

func (c *asynqClient) EnqueueExecuteWorkflow(payload tasks.ExecuteWorkflowPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(tasks.TypeExecuteWorkflow, data)

	// 工作流执行可能较长，设置较长超时；
	// 失败结果由执行报告与告警承载，任务层不重试
	info, err := c.client.Enqueue(task,
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
		asynq.Queue("automation"), // 自动化专用队列
	)
	if err != nil {
		return fmt.Errorf("enqueue task failed: %w", err)
	}

	_ = info
	return nil
}

func (c *asynqClient) Close() error {
	return c.client.Close()
}

// Submitter 把队列客户端适配成触发评估器的执行提交通道
type Submitter struct {
	client Client
}

// NewSubmitter 创建 Submitter 实例
func NewSubmitter(client Client) *Submitter {
	return &Submitter{client: client}
}

// SubmitExecution 将执行请求投入任务队列
func (s *Submitter) SubmitExecution(_ context.Context, req *engine.ExecutionRequest) error {
	return s.client.EnqueueExecuteWorkflow(tasks.ExecuteWorkflowPayload{
		WorkflowID:       req.WorkflowID,
		UserID:           req.OwnerID,
		TriggerType:      req.TriggerType,
		ExecutionContext: req.ExecutionContext,
	})
}
