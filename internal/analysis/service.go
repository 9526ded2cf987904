package analysis

import (
	"context"
	"fmt"
	"time"

	"backend/internal/config"
	"backend/pkg/httputil"
)

// Request 分析/预测请求
type Request struct {
	AnalysisType string         `json:"analysis_type"`
	InputData    map[string]any `json:"input_data"`
	ConnectionID string         `json:"connection_id,omitempty"`
}

// Result 分析服务返回结果
type Result struct {
	ModelResults     map[string]any `json:"model_results"`
	ConfidenceScores map[string]any `json:"confidence_scores"`
	AnomalyDetection *AnomalyReport `json:"anomaly_detection,omitempty"`
}

// AnomalyReport 异常检测明细
type AnomalyReport struct {
	AnomalyCount int              `json:"anomaly_count"`
	Anomalies    []map[string]any `json:"anomalies,omitempty"`
}

// AnomalyCount 异常计数，无异常检测结果时返回 0
func (r *Result) AnomalyCount() int {
	if r == nil || r.AnomalyDetection == nil {
		return 0
	}
	return r.AnomalyDetection.AnomalyCount
}

// Service 外部分析服务（ML 分析引擎）
type Service interface {
	Analyze(ctx context.Context, req *Request) (*Result, error)
}

// HTTPService 基于 HTTP 的分析服务客户端
type HTTPService struct {
	client   *httputil.Client
	endpoint string
}

// NewHTTPService 创建分析服务客户端
func NewHTTPService(cfg *config.AnalysisConfig) *HTTPService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}

	return &HTTPService{
		client: httputil.NewClient(
			httputil.WithTimeout(timeout),
			httputil.WithHeaders(headers),
			httputil.WithRetries(2),
		),
		endpoint: cfg.Endpoint,
	}
}

// Analyze 调用分析引擎
func (s *HTTPService) Analyze(ctx context.Context, req *Request) (*Result, error) {
	if s.endpoint == "" {
		return nil, fmt.Errorf("分析服务未配置 endpoint")
	}

	var result Result
	if err := s.client.PostJSON(ctx, s.endpoint, req, &result); err != nil {
		return nil, fmt.Errorf("分析请求失败: %w", err)
	}
	return &result, nil
}
