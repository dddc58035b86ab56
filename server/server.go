package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hupe1980/agentrouter/internal/util"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/metrics"
	"github.com/hupe1980/agentrouter/router"
)

// Options configures a Server.
type Options struct {
	Addr            string
	ExposeMatch     bool
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	// WriteTimeout must exceed the router timeout or slow answers are cut off.
	WriteTimeout time.Duration
	Logger       logging.Logger
	// Metrics enables the HTTP metrics middleware and GET /metrics.
	Metrics    *metrics.Collector
	NewTraceID func() string
}

// Server is the HTTP surface of a Router.
type Server struct {
	Engine *gin.Engine

	router      *router.Router
	logger      logging.Logger
	exposeMatch bool
	httpServer  *http.Server
	shutdown    time.Duration
}

// New wires the routes of r onto a new gin engine.
func New(r *router.Router, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:            ":8000",
		ShutdownTimeout: 10 * time.Second,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    120 * time.Second,
		Logger:          logging.NoOpLogger{},
		NewTraceID:      util.NewTraceID,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.NewTraceID == nil {
		opts.NewTraceID = util.NewTraceID
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(traceMiddleware(opts.NewTraceID))
	engine.Use(requestLogger(opts.Logger))
	if opts.Metrics != nil {
		engine.Use(opts.Metrics.GinMiddleware())
	}
	engine.Use(gin.CustomRecovery(func(c *gin.Context, rec any) {
		opts.Logger.Error("http.panic", "trace_id", traceID(c), "panic", fmt.Sprint(rec))
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			ErrorKind: router.KindInternal,
			Message:   "internal error",
			TraceID:   traceID(c),
		})
	}))

	s := &Server{
		Engine:      engine,
		router:      r,
		logger:      opts.Logger,
		exposeMatch: opts.ExposeMatch,
		shutdown:    opts.ShutdownTimeout,
		httpServer: &http.Server{
			Addr:              opts.Addr,
			Handler:           engine,
			ReadTimeout:       opts.ReadTimeout,
			ReadHeaderTimeout: opts.ReadTimeout,
			WriteTimeout:      opts.WriteTimeout,
			IdleTimeout:       120 * time.Second,
		},
	}
	s.setupRoutes(opts.Metrics)
	return s
}

func (s *Server) setupRoutes(m *metrics.Collector) {
	s.Engine.POST("/agent/run", s.runHandler)
	s.Engine.GET("/health", s.healthHandler)
	s.Engine.GET("/agents", s.agentsHandler)
	if m != nil {
		s.Engine.GET("/metrics", gin.WrapH(m.Handler()))
	}
	s.Engine.NoRoute(s.notFoundHandler)
	s.Engine.NoMethod(s.methodNotAllowedHandler)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully, letting in-flight requests finish within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
			return
		}
		errChan <- nil
	}()

	s.logger.Info("server.started", "addr", ln.Addr().String())

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server.stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errChan; err != nil {
		return err
	}

	s.logger.Info("server.stopped")
	return nil
}
