package config

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentrouter/logging"
)

// Model providers accepted by Validate.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Config represents the complete service configuration.
type Config struct {
	App     AppConfig     `yaml:"app"`
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
	KB      KBConfig      `yaml:"kb"`
	Router  RouterConfig  `yaml:"router"`
	Model   ModelConfig   `yaml:"model"`
}

// AppConfig identifies the running service.
type AppConfig struct {
	Name string `yaml:"name"`
	Env  string `yaml:"env"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig holds the HTTP surface configuration.
type ServerConfig struct {
	HTTPAddr    string `yaml:"http_addr"`
	ExposeMatch bool   `yaml:"expose_match"`

	ShutdownTimeout    time.Duration `yaml:"-"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout"`
}

// KBConfig locates the knowledge base document.
type KBConfig struct {
	Path         string `yaml:"path"`
	DefaultAgent string `yaml:"default_agent"`
}

// RouterConfig holds routing behavior.
type RouterConfig struct {
	MinScore  int  `yaml:"min_score"`
	TraceLogs bool `yaml:"trace_logs"`

	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// ModelConfig selects and parameterizes the model provider.
type ModelConfig struct {
	Provider    string         `yaml:"provider"`
	Temperature float64        `yaml:"temperature"`
	MaxTokens   int            `yaml:"max_tokens"`
	MaxRetries  int            `yaml:"max_retries"`
	OpenAI      ProviderConfig `yaml:"openai"`
	Anthropic   ProviderConfig `yaml:"anthropic"`
}

// ProviderConfig holds provider credentials and the model name.
type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		App:     AppConfig{Name: "agentrouter", Env: "dev"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Server: ServerConfig{
			HTTPAddr:        ":8000",
			ShutdownTimeout: 10 * time.Second,
		},
		KB: KBConfig{Path: "kb.json"},
		Router: RouterConfig{
			MinScore: 1,
			Timeout:  60 * time.Second,
		},
		Model: ModelConfig{
			Provider:    ProviderOpenAI,
			Temperature: 0.2,
			MaxTokens:   1024,
			MaxRetries:  2,
			OpenAI:      ProviderConfig{Model: "gpt-4.1-mini"},
			Anthropic:   ProviderConfig{Model: "claude-3-5-sonnet-20241022"},
		},
	}
}

// LoadOptions configures Load.
type LoadOptions struct {
	// EnvFile is the dotenv file merged under the process environment.
	// Empty disables it.
	EnvFile string
	// Env replaces the process environment. Used by tests.
	Env EnvMap
}

// Load resolves the configuration from defaults, the optional YAML file at
// path and the environment, then validates it.
func Load(path string, optFns ...func(o *LoadOptions)) (*Config, error) {
	opts := LoadOptions{EnvFile: ".env"}
	for _, fn := range optFns {
		fn(&opts)
	}

	fileEnv, err := NewEnvFromFile(opts.EnvFile)
	if err != nil {
		return nil, err
	}
	procEnv := opts.Env
	if procEnv == nil {
		procEnv = NewEnvFromOS()
	}
	env, err := fileEnv.Merge(procEnv)
	if err != nil {
		return nil, fmt.Errorf("merging environment: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(data), env)), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		if err := parseDurations(cfg); err != nil {
			return nil, fmt.Errorf("parsing durations: %w", err)
		}
	}

	if err := applyEnv(cfg, env); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

var envVarRE = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with values from env. Unset
// variables expand to the empty string.
func expandEnvVars(s string, env EnvMap) string {
	return envVarRE.ReplaceAllStringFunc(s, func(match string) string {
		return env[envVarRE.FindStringSubmatch(match)[1]]
	})
}

func parseDurations(cfg *Config) error {
	var err error

	if cfg.Router.TimeoutRaw != "" {
		cfg.Router.Timeout, err = time.ParseDuration(cfg.Router.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing router.timeout %q: %w", cfg.Router.TimeoutRaw, err)
		}
	}

	if cfg.Server.ShutdownTimeoutRaw != "" {
		cfg.Server.ShutdownTimeout, err = time.ParseDuration(cfg.Server.ShutdownTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing server.shutdown_timeout %q: %w", cfg.Server.ShutdownTimeoutRaw, err)
		}
	}

	return nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config, env EnvMap) error {
	str := func(key string, dst *string) {
		if v, ok := env.Lookup(key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		if v, ok := env.Lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %q is not a boolean", key, v)
			}
			*dst = b
		}
		return nil
	}
	integer := func(key string, dst *int) error {
		if v, ok := env.Lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %q is not an integer", key, v)
			}
			*dst = n
		}
		return nil
	}

	str("APP_NAME", &cfg.App.Name)
	str("APP_ENV", &cfg.App.Env)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)
	str("HTTP_ADDR", &cfg.Server.HTTPAddr)
	str("KB_PATH", &cfg.KB.Path)
	str("KB_DEFAULT_AGENT", &cfg.KB.DefaultAgent)
	str("MODEL_PROVIDER", &cfg.Model.Provider)
	str("OPENAI_API_KEY", &cfg.Model.OpenAI.APIKey)
	str("OPENAI_MODEL", &cfg.Model.OpenAI.Model)
	str("ANTHROPIC_API_KEY", &cfg.Model.Anthropic.APIKey)
	str("ANTHROPIC_MODEL", &cfg.Model.Anthropic.Model)

	for _, err := range []error{
		boolean("AGENT_TRACE_LOGS", &cfg.Router.TraceLogs),
		boolean("EXPOSE_MATCH", &cfg.Server.ExposeMatch),
		integer("ROUTER_MIN_SCORE", &cfg.Router.MinScore),
		integer("MODEL_MAX_TOKENS", &cfg.Model.MaxTokens),
		integer("MODEL_MAX_RETRIES", &cfg.Model.MaxRetries),
	} {
		if err != nil {
			return err
		}
	}

	if v, ok := env.Lookup("AGENT_MAX_SECONDS"); ok {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return fmt.Errorf("AGENT_MAX_SECONDS: %q is not a number", v)
		}
		cfg.Router.Timeout = time.Duration(secs * float64(time.Second))
	}

	if v, ok := env.Lookup("MODEL_TEMPERATURE"); ok {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MODEL_TEMPERATURE: %q is not a number", v)
		}
		cfg.Model.Temperature = t
	}

	return nil
}

// Validate checks that all configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}

	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}

	if c.KB.Path == "" {
		return fmt.Errorf("kb.path is required")
	}

	if c.Router.Timeout <= 0 {
		return fmt.Errorf("router.timeout must be positive, got %s", c.Router.Timeout)
	}
	if c.Router.MinScore < 1 {
		return fmt.Errorf("router.min_score must be at least 1, got %d", c.Router.MinScore)
	}

	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("model.temperature must be within [0, 2], got %g", c.Model.Temperature)
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("model.max_tokens must be positive, got %d", c.Model.MaxTokens)
	}
	if c.Model.MaxRetries < 0 {
		return fmt.Errorf("model.max_retries must not be negative, got %d", c.Model.MaxRetries)
	}

	switch c.Model.Provider {
	case ProviderOpenAI:
		if c.Model.OpenAI.APIKey == "" {
			return fmt.Errorf("model.openai.api_key (OPENAI_API_KEY) is required for provider %q", c.Model.Provider)
		}
	case ProviderAnthropic:
		if c.Model.Anthropic.APIKey == "" {
			return fmt.Errorf("model.anthropic.api_key (ANTHROPIC_API_KEY) is required for provider %q", c.Model.Provider)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("model.provider must be one of openai, anthropic, mock; got %q", c.Model.Provider)
	}

	return nil
}

// LogLevel returns the parsed logging level.
func (c *Config) LogLevel() logging.LogLevel {
	lvl, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return logging.LogLevelInfo
	}
	return lvl
}
