// Command agentrouter serves the agent router over HTTP.
//
//	agentrouter [-config config.yaml] [-env .env]
//
// Configuration is read from the optional YAML file, the .env file and the
// process environment. The process exits non-zero when the configuration or
// the knowledge base cannot be loaded.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/hupe1980/agentrouter"
	"github.com/hupe1980/agentrouter/config"
	"github.com/hupe1980/agentrouter/kb"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to an optional YAML configuration file")
	envFile := flag.String("env", ".env", "path to a dotenv file; missing files are ignored")
	flag.Parse()

	cfg, err := config.Load(*configPath, func(o *config.LoadOptions) { o.EnvFile = *envFile })
	if err != nil {
		fmt.Fprintf(os.Stderr, "agentrouter: %v\n", err)
		return 1
	}

	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := agentrouter.NewLogger(cfg)

	app, err := agentrouter.New(cfg, func(o *agentrouter.Options) { o.Logger = logger })
	if err != nil {
		var (
			loadErr   *kb.LoadError
			configErr *kb.ConfigError
		)
		switch {
		case errors.As(err, &loadErr):
			logger.Error("agentrouter.kb.invalid", "path", cfg.KB.Path, "error", err)
		case errors.As(err, &configErr):
			logger.Error("agentrouter.kb.no_default", "path", cfg.KB.Path, "error", err)
		default:
			logger.Error("agentrouter.init.failed", "error", err)
		}
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		logger.Error("agentrouter.server.failed", "error", err)
		return 1
	}
	return 0
}
