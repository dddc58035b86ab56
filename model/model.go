package model

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Request captures the normalized model input assembled by the router.
type Request struct {
	Instructions string `json:"instructions"` // System / context block
	Prompt       string `json:"prompt"`       // User block
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the final completion returned by a model.
type Response struct {
	ID           string      `json:"id"`
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", "end_turn", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock"
}

// Model is the minimal interface the router needs to obtain a completion.
// Implementations must be safe for concurrent use and honor ctx cancellation.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// APIError is returned by provider adapters when the upstream service
// answered with an HTTP error status.
type APIError struct {
	Provider   string
	StatusCode int
	Err        error
}

// Error implements error.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %v", e.Provider, e.StatusCode, e.Err)
}

// Unwrap returns the underlying SDK error.
func (e *APIError) Unwrap() error { return e.Err }

// ErrEmptyResponse is returned when the provider answered without any choice
// or content block to read text from.
var ErrEmptyResponse = fmt.Errorf("model returned no completion")

// MockModel is a lightweight in‑memory Model useful for tests & examples.
// Unregistered prompts are answered with "Mock response to: <prompt>".
type MockModel struct {
	info Info

	mu        sync.Mutex
	responses map[string]string
	requests  []Request
	err       error
	delay     time.Duration
	hang      bool
	usage     *TokenUsage

	calls atomic.Int64
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// SetError makes every subsequent call fail with err.
func (m *MockModel) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetDelay delays every answer by d (still honoring ctx).
func (m *MockModel) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetUsage attaches a copy of u to every subsequent answer.
func (m *MockModel) SetUsage(u TokenUsage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = &u
}

// Hang makes every call block until its context is done.
func (m *MockModel) Hang() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hang = true
}

// Calls returns the number of Generate invocations so far.
func (m *MockModel) Calls() int { return int(m.calls.Load()) }

// Requests returns a copy of every request received, in call order.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	m.calls.Add(1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	full, ok := m.responses[req.Prompt]
	err, delay, hang := m.err, m.delay, m.hang
	var usage *TokenUsage
	if m.usage != nil {
		u := *m.usage
		usage = &u
	}
	m.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		full = fmt.Sprintf("Mock response to: %s", req.Prompt)
	}
	return &Response{
		ID:           fmt.Sprintf("mock-%d", m.calls.Load()),
		Text:         full,
		FinishReason: "stop",
		Usage:        usage,
	}, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
