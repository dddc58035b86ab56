// Package agentrouter provides a high-level façade that assembles the
// knowledge base, model provider, router, metrics and HTTP server from a
// config.Config. Most applications interact with this package by:
//  1. Loading a configuration via config.Load
//  2. Creating an App via New (optionally overriding the model or logger)
//  3. Serving HTTP with Run, or routing in-process with Route
//
// Each component remains usable on its own; the façade only wires them.
package agentrouter

import (
	"context"
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/agentrouter/config"
	"github.com/hupe1980/agentrouter/kb"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/metrics"
	"github.com/hupe1980/agentrouter/model"
	"github.com/hupe1980/agentrouter/model/anthropic"
	"github.com/hupe1980/agentrouter/model/openai"
	"github.com/hupe1980/agentrouter/router"
	"github.com/hupe1980/agentrouter/server"
)

// Options overrides parts of the assembled application.
type Options struct {
	// Model replaces the provider selected by config.
	Model model.Model
	// Logger defaults to a JSON or text logger on stderr built from config.
	Logger *logging.ServiceLogger
	// Metrics defaults to a new collector with Go runtime collectors.
	Metrics *metrics.Collector
}

// App is the assembled router service.
type App struct {
	Config  *config.Config
	KB      *kb.KnowledgeBase
	Model   model.Model
	Router  *router.Router
	Server  *server.Server
	Metrics *metrics.Collector
	Logger  *logging.ServiceLogger
}

// New loads the knowledge base named by cfg and wires every component.
// Knowledge base failures are returned unwrapped as *kb.LoadError or
// *kb.ConfigError.
func New(cfg *config.Config, optFns ...func(o *Options)) (*App, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = NewLogger(cfg)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(func(o *metrics.Options) { o.GoCollectors = true })
	}
	if opts.Model == nil {
		m, err := NewModel(cfg.Model)
		if err != nil {
			return nil, err
		}
		opts.Model = m
	}

	kbLogger := opts.Logger.WithComponent("kb")
	loaded := kbLogger.StartTimer("kb.load")
	base, err := kb.Load(cfg.KB.Path, func(o *kb.Options) {
		o.DefaultAgent = cfg.KB.DefaultAgent
		o.Logger = kbLogger
	})
	if err != nil {
		return nil, err
	}
	loaded()

	r, err := router.New(base, opts.Model, func(o *router.Options) {
		o.Timeout = cfg.Router.Timeout
		o.MinScore = cfg.Router.MinScore
		o.TraceLogs = cfg.Router.TraceLogs
		o.Logger = opts.Logger.WithComponent("router")
		o.Observer = router.MultiObserver{
			router.NewLogObserver(opts.Logger),
			opts.Metrics,
		}
	})
	if err != nil {
		return nil, err
	}

	srv := server.New(r, func(o *server.Options) {
		o.Addr = cfg.Server.HTTPAddr
		o.ExposeMatch = cfg.Server.ExposeMatch
		o.ShutdownTimeout = cfg.Server.ShutdownTimeout
		o.WriteTimeout = cfg.Router.Timeout + cfg.Server.ShutdownTimeout
		o.Logger = opts.Logger.WithComponent("http")
		o.Metrics = opts.Metrics
	})

	return &App{
		Config:  cfg,
		KB:      base,
		Model:   opts.Model,
		Router:  r,
		Server:  srv,
		Metrics: opts.Metrics,
		Logger:  opts.Logger,
	}, nil
}

// NewLogger builds the service logger described by cfg.
func NewLogger(cfg *config.Config) *logging.ServiceLogger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  cfg.LogLevel(),
		Format: cfg.Logging.Format,
		Output: os.Stderr,
		CustomAttrs: map[string]any{
			"app": cfg.App.Name,
			"env": cfg.App.Env,
		},
	})
}

// NewModel constructs the provider selected by cfg.
func NewModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.APIKey = cfg.OpenAI.APIKey
			o.Model = cfg.OpenAI.Model
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = int64(cfg.MaxTokens)
			o.MaxRetries = cfg.MaxRetries
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = cfg.Anthropic.APIKey
			o.Model = anthropicsdk.Model(cfg.Anthropic.Model)
			o.Temperature = cfg.Temperature
			o.MaxTokens = int64(cfg.MaxTokens)
			o.MaxRetries = cfg.MaxRetries
		}), nil
	case config.ProviderMock:
		return model.NewMockModel("mock", config.ProviderMock), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// Route routes one request in-process.
func (a *App) Route(ctx context.Context, req router.Request) (*router.Response, error) {
	return a.Router.Route(ctx, req)
}

// Run serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.Logger.Info("agentrouter.starting",
		"addr", a.Server.Addr(),
		"kb", a.KB.Source(),
		"agents", a.KB.Len(),
		"default_agent", a.KB.Default().ID,
		"model", a.Model.Info().Name,
		"provider", a.Model.Info().Provider,
	)
	return a.Server.Run(ctx)
}
