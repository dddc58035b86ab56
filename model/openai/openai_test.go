package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/agentrouter/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ model.Model = (*Model)(nil)

func newTestModel(t *testing.T, handler http.HandlerFunc) *Model {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := openai.NewClient(
		option.WithBaseURL(srv.URL+"/"),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	return NewModelFromClient(&client, func(o *Options) { o.Model = "test-model" })
}

func TestModel_Generate(t *testing.T) {
	var body map[string]any
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"test-model",
			"choices":[{"index":0,"message":{"role":"assistant","content":"Refunds take 5 days."},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":11,"completion_tokens":5,"total_tokens":16}}`)
	})

	resp, err := m.Generate(context.Background(), model.Request{Instructions: "You are Billing.", Prompt: "I need a refund"})
	require.NoError(t, err)
	assert.Equal(t, "Refunds take 5 days.", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 16, resp.Usage.TotalTokens)

	assert.Equal(t, "test-model", body["model"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestModel_Generate_StatusError(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	})

	_, err := m.Generate(context.Background(), model.Request{Prompt: "hi"})
	require.Error(t, err)

	var apiErr *model.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "openai", apiErr.Provider)
}

func TestModel_Generate_NoChoices(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"chatcmpl-2","object":"chat.completion","created":1,"model":"test-model","choices":[]}`)
	})

	_, err := m.Generate(context.Background(), model.Request{Prompt: "hi"})
	assert.ErrorIs(t, err, model.ErrEmptyResponse)
}

func TestModel_Info(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.Model = "gpt-test"
		o.APIKey = "k"
	})
	assert.Equal(t, model.Info{Name: "gpt-test", Provider: "openai"}, m.Info())
}
