package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"backend/internal/automation"
)

// APICallExecutor 外部 API 调用步骤
// 请求超时取步骤 timeout_seconds，缺省使用引擎默认超时；
// 非 2xx 响应视为步骤成功，状态码记录在输出中由后续步骤判断
type APICallExecutor struct {
	client         *http.Client
	defaultTimeout time.Duration
}

func (e *APICallExecutor) Execute(ctx context.Context, step *automation.WorkflowStep, execCtx map[string]any) (map[string]any, error) {
	url := stringParam(step.Parameters, "url")
	if url == "" {
		return nil, fmt.Errorf("api_call step missing url")
	}

	method := stringParam(step.Parameters, "method")
	if method == "" {
		method = http.MethodGet
	}

	timeout := e.defaultTimeout
	if step.TimeoutSeconds > 0 {
		timeout = time.Duration(step.TimeoutSeconds) * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody io.Reader
	if body := mapParam(step.Parameters, "body"); body != nil &&
		(method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch) {
		encoded, err := json.Marshal(EvaluateTemplateMap(body, execCtx))
		if err != nil {
			return nil, fmt.Errorf("编码请求体失败: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(callCtx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range mapParam(step.Parameters, "headers") {
		req.Header.Set(key, fmt.Sprintf("%v", value))
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}
	defer resp.Body.Close()

	responseData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	return map[string]any{
		"api_call_completed": true,
		"status_code":        resp.StatusCode,
		"response_data":      string(responseData),
		"success":            resp.StatusCode >= 200 && resp.StatusCode < 300,
	}, nil
}
