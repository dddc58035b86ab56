package server

import (
	"github.com/hupe1980/agentrouter/model"
	"github.com/hupe1980/agentrouter/router"
)

// RunRequest is the body of POST /agent/run.
type RunRequest struct {
	Query      string `json:"query" binding:"required"`
	Agent      string `json:"agent,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
	Language   string `json:"language,omitempty"`
}

// RunResponse is the success body of POST /agent/run.
type RunResponse struct {
	Agent   string        `json:"agent"`
	Answer  string        `json:"answer"`
	TraceID string        `json:"trace_id"`
	Metrics RunMetrics    `json:"metrics"`
	Match   *router.Match `json:"match,omitempty"`
}

// RunMetrics reports the cost of one answered request.
type RunMetrics struct {
	LatencyMS  int64             `json:"latency_ms"`
	Model      string            `json:"model"`
	ModelCalls int               `json:"model_calls"`
	Usage      *model.TokenUsage `json:"usage,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
	TraceID   string `json:"trace_id,omitempty"`
}

// AgentInfo describes one knowledge base entry in GET /agents.
type AgentInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Default  bool   `json:"default"`
	Examples int    `json:"examples"`
}

// AgentsResponse is the body of GET /agents.
type AgentsResponse struct {
	Agents  []AgentInfo `json:"agents"`
	Default string      `json:"default"`
}
