package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"backend/internal/automation"
	"backend/internal/automation/engine"
	"backend/internal/worker/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap/zaptest"
)

type fakeRunner struct {
	called bool
	req    *engine.ExecutionRequest
	retErr error
}

func (f *fakeRunner) Execute(ctx context.Context, req *engine.ExecutionRequest) (*automation.ExecutionReport, error) {
	f.called = true
	f.req = req
	if f.retErr != nil {
		return nil, f.retErr
	}
	return &automation.ExecutionReport{
		WorkflowID:     req.WorkflowID,
		OverallSuccess: true,
	}, nil
}

func TestWorkflowHandlerHandleExecuteWorkflow_Success(t *testing.T) {
	runner := &fakeRunner{}
	h := NewWorkflowHandler(runner, zaptest.NewLogger(t))
	ctx := context.Background()
	payload, _ := json.Marshal(tasks.ExecuteWorkflowPayload{
		WorkflowID:  "wf-1",
		UserID:      "user-1",
		TriggerType: automation.TriggerScheduled,
	})
	task := asynq.NewTask(tasks.TypeExecuteWorkflow, payload)
	if err := h.HandleExecuteWorkflow(ctx, task); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !runner.called || runner.req.WorkflowID != "wf-1" {
		t.Fatalf("runner not invoked correctly: called=%v req=%+v", runner.called, runner.req)
	}
	if runner.req.TriggerType != automation.TriggerScheduled {
		t.Fatalf("trigger type not propagated: %s", runner.req.TriggerType)
	}
}

func TestWorkflowHandlerHandleExecuteWorkflow_RunError(t *testing.T) {
	expectedErr := errors.New("boom")
	runner := &fakeRunner{retErr: expectedErr}
	h := NewWorkflowHandler(runner, zaptest.NewLogger(t))
	ctx := context.Background()
	payload, _ := json.Marshal(tasks.ExecuteWorkflowPayload{WorkflowID: "wf-2", UserID: "user-1"})
	task := asynq.NewTask(tasks.TypeExecuteWorkflow, payload)
	if err := h.HandleExecuteWorkflow(ctx, task); !errors.Is(err, expectedErr) {
		t.Fatalf("expected error %v, got %v", expectedErr, err)
	}
}

func TestWorkflowHandlerHandleExecuteWorkflow_InvalidPayload(t *testing.T) {
	runner := &fakeRunner{}
	h := NewWorkflowHandler(runner, zaptest.NewLogger(t))
	ctx := context.Background()
	task := asynq.NewTask(tasks.TypeExecuteWorkflow, []byte("not-json"))
	if err := h.HandleExecuteWorkflow(ctx, task); err == nil {
		t.Fatalf("expected error for invalid payload")
	}
	if runner.called {
		t.Fatalf("runner should not run on invalid payload")
	}
}
