package router

import (
	"time"

	"github.com/hupe1980/agentrouter/model"
)

// Request is the inbound routing request.
type Request struct {
	// Query is the user text. Required; whitespace-only is rejected.
	Query string
	// Agent optionally names the agent to use, bypassing matching.
	Agent string
	// CustomerID is appended to the prompt block when set.
	CustomerID string
	// Language adds a response language hint to the instructions when set.
	Language string
	// TraceID identifies the call in logs and responses. Generated when empty.
	TraceID string
}

// MatchReason explains how an agent was selected.
type MatchReason string

const (
	// MatchHint means the caller named the agent explicitly.
	MatchHint MatchReason = "hint"
	// MatchScored means the agent won the example pattern scoring.
	MatchScored MatchReason = "matched"
	// MatchDefault means no entry scored high enough and the fallback was used.
	MatchDefault MatchReason = "default"
)

// Match is the observability metadata of a selection.
type Match struct {
	Reason   MatchReason `json:"reason"`
	Score    int         `json:"score"`
	Patterns []string    `json:"patterns,omitempty"`
}

// Response is the result of a successful Route call.
type Response struct {
	Agent   string
	Answer  string
	TraceID string
	Match   Match
	Model   string
	Latency time.Duration
	Usage   *model.TokenUsage
}
