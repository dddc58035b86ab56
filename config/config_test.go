package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentrouter/logging"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func withEnv(env EnvMap) func(o *LoadOptions) {
	return func(o *LoadOptions) {
		o.EnvFile = ""
		o.Env = env
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", withEnv(EnvMap{"OPENAI_API_KEY": "sk-test"}))
	require.NoError(t, err)

	assert.Equal(t, "agentrouter", cfg.App.Name)
	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, ":8000", cfg.Server.HTTPAddr)
	assert.Equal(t, "kb.json", cfg.KB.Path)
	assert.Equal(t, 1, cfg.Router.MinScore)
	assert.Equal(t, 60*time.Second, cfg.Router.Timeout)
	assert.False(t, cfg.Router.TraceLogs)
	assert.False(t, cfg.Server.ExposeMatch)
	assert.Equal(t, ProviderOpenAI, cfg.Model.Provider)
	assert.Equal(t, "gpt-4.1-mini", cfg.Model.OpenAI.Model)
	assert.Equal(t, 0.2, cfg.Model.Temperature)
	assert.Equal(t, 1024, cfg.Model.MaxTokens)
	assert.Equal(t, logging.LogLevelInfo, cfg.LogLevel())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	cfg, err := Load("", withEnv(EnvMap{
		"APP_NAME":          "router-x",
		"LOG_LEVEL":         "debug",
		"LOG_FORMAT":        "text",
		"HTTP_ADDR":         "127.0.0.1:9000",
		"KB_PATH":           "/etc/agents.json",
		"KB_DEFAULT_AGENT":  "support",
		"ROUTER_MIN_SCORE":  "3",
		"AGENT_MAX_SECONDS": "2.5",
		"AGENT_TRACE_LOGS":  "true",
		"EXPOSE_MATCH":      "1",
		"MODEL_PROVIDER":    "anthropic",
		"ANTHROPIC_API_KEY": "ak-test",
		"ANTHROPIC_MODEL":   "claude-x",
		"MODEL_TEMPERATURE": "0",
		"MODEL_MAX_TOKENS":  "256",
	}))
	require.NoError(t, err)

	assert.Equal(t, "router-x", cfg.App.Name)
	assert.Equal(t, logging.LogLevelDebug, cfg.LogLevel())
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.HTTPAddr)
	assert.Equal(t, "/etc/agents.json", cfg.KB.Path)
	assert.Equal(t, "support", cfg.KB.DefaultAgent)
	assert.Equal(t, 3, cfg.Router.MinScore)
	assert.Equal(t, 2500*time.Millisecond, cfg.Router.Timeout)
	assert.True(t, cfg.Router.TraceLogs)
	assert.True(t, cfg.Server.ExposeMatch)
	assert.Equal(t, ProviderAnthropic, cfg.Model.Provider)
	assert.Equal(t, "claude-x", cfg.Model.Anthropic.Model)
	assert.Equal(t, 0.0, cfg.Model.Temperature)
	assert.Equal(t, 256, cfg.Model.MaxTokens)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
app:
  name: "from-yaml"
server:
  http_addr: ":9090"
  shutdown_timeout: "3s"
kb:
  path: "./agents.json"
  default_agent: "support"
router:
  timeout: "45s"
  min_score: 2
model:
  provider: "openai"
  temperature: 0
  openai:
    api_key: "${TEST_OPENAI_KEY}"
`)

	cfg, err := Load(path, withEnv(EnvMap{"TEST_OPENAI_KEY": "sk-expanded"}))
	require.NoError(t, err)

	assert.Equal(t, "from-yaml", cfg.App.Name)
	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "./agents.json", cfg.KB.Path)
	assert.Equal(t, "support", cfg.KB.DefaultAgent)
	assert.Equal(t, 45*time.Second, cfg.Router.Timeout)
	assert.Equal(t, 2, cfg.Router.MinScore)
	assert.Equal(t, 0.0, cfg.Model.Temperature)
	assert.Equal(t, "sk-expanded", cfg.Model.OpenAI.APIKey)
	assert.Equal(t, "gpt-4.1-mini", cfg.Model.OpenAI.Model, "unset keys keep defaults")
}

func TestLoad_EnvironmentBeatsYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "router:\n  timeout: \"45s\"\nmodel:\n  provider: mock\n")

	cfg, err := Load(path, withEnv(EnvMap{"AGENT_MAX_SECONDS": "5"}))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Router.Timeout)
}

func TestLoad_DotEnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "MODEL_PROVIDER=mock\nKB_PATH=from-dotenv.json\nAPP_ENV=staging\n")

	cfg, err := Load("", func(o *LoadOptions) {
		o.EnvFile = envFile
		o.Env = EnvMap{"APP_ENV": "prod"}
	})
	require.NoError(t, err)

	assert.Equal(t, ProviderMock, cfg.Model.Provider)
	assert.Equal(t, "from-dotenv.json", cfg.KB.Path)
	assert.Equal(t, "prod", cfg.App.Env, "process environment wins over .env")
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load("", func(o *LoadOptions) {
		o.EnvFile = filepath.Join(t.TempDir(), ".env")
		o.Env = EnvMap{"MODEL_PROVIDER": "mock"}
	})
	assert.NoError(t, err)
}

func TestLoad_ProcessEnvironment(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "mock")
	t.Setenv("HTTP_ADDR", ":7777")

	cfg, err := Load("", func(o *LoadOptions) { o.EnvFile = "" })
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.HTTPAddr)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  EnvMap
	}{
		{"missing openai key", EnvMap{}},
		{"missing anthropic key", EnvMap{"MODEL_PROVIDER": "anthropic"}},
		{"unknown provider", EnvMap{"MODEL_PROVIDER": "llama"}},
		{"bad level", EnvMap{"MODEL_PROVIDER": "mock", "LOG_LEVEL": "loud"}},
		{"bad format", EnvMap{"MODEL_PROVIDER": "mock", "LOG_FORMAT": "xml"}},
		{"zero timeout", EnvMap{"MODEL_PROVIDER": "mock", "AGENT_MAX_SECONDS": "0"}},
		{"negative timeout", EnvMap{"MODEL_PROVIDER": "mock", "AGENT_MAX_SECONDS": "-1"}},
		{"timeout not a number", EnvMap{"MODEL_PROVIDER": "mock", "AGENT_MAX_SECONDS": "soon"}},
		{"min score zero", EnvMap{"MODEL_PROVIDER": "mock", "ROUTER_MIN_SCORE": "0"}},
		{"min score not int", EnvMap{"MODEL_PROVIDER": "mock", "ROUTER_MIN_SCORE": "1.5"}},
		{"trace logs not bool", EnvMap{"MODEL_PROVIDER": "mock", "AGENT_TRACE_LOGS": "maybe"}},
		{"temperature out of range", EnvMap{"MODEL_PROVIDER": "mock", "MODEL_TEMPERATURE": "3"}},
		{"max tokens zero", EnvMap{"MODEL_PROVIDER": "mock", "MODEL_MAX_TOKENS": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("", withEnv(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_FileErrors(t *testing.T) {
	env := withEnv(EnvMap{"MODEL_PROVIDER": "mock"})

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), env)
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "router: [unclosed"), env)
	assert.Error(t, err)

	_, err = Load(writeFile(t, "dur.yaml", "router:\n  timeout: \"soon\"\n"), env)
	assert.Error(t, err)
}

func TestEnvMap_Merge(t *testing.T) {
	base := EnvMap{"A": "1", "B": "2"}
	merged, err := base.Merge(EnvMap{"B": "3", "C": "4"})
	require.NoError(t, err)

	assert.Equal(t, EnvMap{"A": "1", "B": "3", "C": "4"}, merged)
	assert.Equal(t, "2", base["B"], "receiver is not modified")
}

func TestEnvMap_LookupIgnoresBlank(t *testing.T) {
	env := EnvMap{"SET": " value ", "BLANK": "   "}

	v, ok := env.Lookup("SET")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	_, ok = env.Lookup("BLANK")
	assert.False(t, ok)

	_, ok = env.Lookup("MISSING")
	assert.False(t, ok)
}
