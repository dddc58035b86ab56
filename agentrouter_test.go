package agentrouter

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentrouter/config"
	"github.com/hupe1980/agentrouter/kb"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/model"
	"github.com/hupe1980/agentrouter/model/anthropic"
	"github.com/hupe1980/agentrouter/model/openai"
	"github.com/hupe1980/agentrouter/router"
)

const testKB = `{
  "default": "support",
  "agents": [
    {"id": "billing", "name": "Billing", "context": "You handle refunds.", "examples": ["refund", "invoice"]},
    {"id": "support", "name": "Support", "context": "You fix bugs.", "examples": ["bug", "error"]}
  ]
}`

func testConfig(t *testing.T, doc string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kb.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg := config.Default()
	cfg.KB.Path = path
	cfg.Model.Provider = config.ProviderMock
	cfg.Server.HTTPAddr = "127.0.0.1:0"
	return cfg
}

func testLogger(buf *bytes.Buffer) *logging.ServiceLogger {
	return logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "json", Output: buf})
}

func TestNew_RoutesWithMockProvider(t *testing.T) {
	var buf bytes.Buffer
	app, err := New(testConfig(t, testKB), func(o *Options) { o.Logger = testLogger(&buf) })
	require.NoError(t, err)

	assert.Equal(t, 2, app.KB.Len())
	assert.Equal(t, "support", app.KB.Default().ID)
	assert.Equal(t, "mock", app.Model.Info().Provider)

	resp, err := app.Route(context.Background(), router.Request{Query: "I need a refund"})
	require.NoError(t, err)
	assert.Equal(t, "billing", resp.Agent)
	assert.Equal(t, "Mock response to: I need a refund", resp.Answer)

	logs := buf.String()
	assert.Contains(t, logs, `"msg":"kb.loaded"`)
	assert.Contains(t, logs, `"operation":"kb.load"`)
	assert.Contains(t, logs, `"msg":"Route completed"`)
	assert.Contains(t, logs, `"component":"router"`)
}

func TestNew_ModelOverride(t *testing.T) {
	llm := model.NewMockModel("custom", "mock")
	llm.AddResponse("the app has a bug", "Have you tried turning it off and on again?")

	app, err := New(testConfig(t, testKB), func(o *Options) {
		o.Model = llm
		o.Logger = testLogger(&bytes.Buffer{})
	})
	require.NoError(t, err)

	resp, err := app.Route(context.Background(), router.Request{Query: "the app has a bug"})
	require.NoError(t, err)
	assert.Equal(t, "support", resp.Agent)
	assert.Equal(t, "Have you tried turning it off and on again?", resp.Answer)
	assert.Equal(t, 1, llm.Calls())
}

func TestNew_KnowledgeBaseErrors(t *testing.T) {
	t.Run("load error", func(t *testing.T) {
		cfg := testConfig(t, testKB)
		cfg.KB.Path = filepath.Join(t.TempDir(), "missing.json")

		_, err := New(cfg, func(o *Options) { o.Logger = testLogger(&bytes.Buffer{}) })
		var le *kb.LoadError
		assert.True(t, errors.As(err, &le), "got %v", err)
	})

	t.Run("config error", func(t *testing.T) {
		cfg := testConfig(t, `[{"id": "a", "context": "x"}]`)

		_, err := New(cfg, func(o *Options) { o.Logger = testLogger(&bytes.Buffer{}) })
		var ce *kb.ConfigError
		assert.True(t, errors.As(err, &ce), "got %v", err)
	})

	t.Run("configured default", func(t *testing.T) {
		cfg := testConfig(t, `[{"id": "a", "context": "x"}, {"id": "b", "context": "y"}]`)
		cfg.KB.DefaultAgent = "b"

		app, err := New(cfg, func(o *Options) { o.Logger = testLogger(&bytes.Buffer{}) })
		require.NoError(t, err)
		assert.Equal(t, "b", app.KB.Default().ID)
	})
}

func TestNewModel(t *testing.T) {
	cfg := config.Default().Model

	cfg.Provider = config.ProviderOpenAI
	cfg.OpenAI.APIKey = "sk-test"
	m, err := NewModel(cfg)
	require.NoError(t, err)
	assert.IsType(t, &openai.Model{}, m)
	assert.Equal(t, model.Info{Name: "gpt-4.1-mini", Provider: "openai"}, m.Info())

	cfg.Provider = config.ProviderAnthropic
	cfg.Anthropic.APIKey = "ak-test"
	cfg.Anthropic.Model = "claude-test"
	m, err = NewModel(cfg)
	require.NoError(t, err)
	assert.IsType(t, &anthropic.Model{}, m)
	assert.Equal(t, model.Info{Name: "claude-test", Provider: "anthropic"}, m.Info())

	cfg.Provider = config.ProviderMock
	m, err = NewModel(cfg)
	require.NoError(t, err)
	assert.IsType(t, &model.MockModel{}, m)

	cfg.Provider = "llama"
	_, err = NewModel(cfg)
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	app, err := New(testConfig(t, testKB), func(o *Options) { o.Logger = testLogger(&bytes.Buffer{}) })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
