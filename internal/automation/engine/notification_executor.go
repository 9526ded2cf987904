package engine

import (
	"context"
	"fmt"

	"backend/internal/automation"
	"backend/internal/notification"
)

// NotificationExecutor 通知步骤
// message_template 的 title/body 先做占位符替换再投递
type NotificationExecutor struct {
	sink NotificationSink
}

func (e *NotificationExecutor) Execute(ctx context.Context, step *automation.WorkflowStep, execCtx map[string]any) (map[string]any, error) {
	template := mapParam(step.Parameters, "message_template")
	if template == nil {
		return nil, fmt.Errorf("notification step missing message_template")
	}

	title, _ := EvaluateTemplate(template["title"], execCtx).(string)
	body, _ := EvaluateTemplate(template["body"], execCtx).(string)

	n := &notification.Notification{
		Type:       stringParam(step.Parameters, "notification_type"),
		Title:      title,
		Message:    body,
		Recipients: stringSliceParam(step.Parameters, "recipients"),
		Channels:   stringSliceParam(step.Parameters, "channels"),
	}

	delivery, err := e.sink.Send(ctx, n)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"notification_sent": true,
		"recipients_count":  delivery.Recipients,
		"channels_used":     delivery.Channels,
		"notification_id":   delivery.NotificationID,
	}, nil
}
