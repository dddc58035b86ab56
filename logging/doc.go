// Package logging provides a minimal logging interface and adapters for the router.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the router, knowledge base loader and HTTP server use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - ServiceLogger with component / trace scoping and route + LLM call helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	r, err := router.New(kb, llm, func(o *router.Options) { o.Logger = logger })
package logging
