package queue

import (
	"fmt"

	"backend/internal/config"

	"github.com/hibiken/asynq"
)

// QueueStats 单个队列的统计信息
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
	Completed int    `json:"completed"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
}

// Inspector 队列运行状态检查器
type Inspector struct {
	inspector *asynq.Inspector
	queues    []string
}

// NewInspector 创建队列检查器，覆盖工作流执行队列
func NewInspector(cfg config.RedisConfig) *Inspector {
	return &Inspector{
		inspector: asynq.NewInspector(asynq.RedisClientOpt{
			Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		queues: []string{"automation", "default"},
	}
}

// Stats 获取各队列统计，不存在的队列跳过
func (i *Inspector) Stats() (map[string]*QueueStats, error) {
	stats := make(map[string]*QueueStats)

	for _, q := range i.queues {
		info, err := i.inspector.GetQueueInfo(q)
		if err != nil {
			continue
		}
		stats[q] = &QueueStats{
			Queue:     q,
			Pending:   info.Pending,
			Active:    info.Active,
			Scheduled: info.Scheduled,
			Retry:     info.Retry,
			Archived:  info.Archived,
			Completed: info.Completed,
			Processed: info.Processed,
			Failed:    info.Failed,
		}
	}

	if len(stats) == 0 {
		return stats, fmt.Errorf("队列信息不可用")
	}

	return stats, nil
}

// Close 关闭检查器
func (i *Inspector) Close() error {
	return i.inspector.Close()
}
