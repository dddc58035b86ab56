// Package server exposes a Router over HTTP using gin.
//
// Routes:
//
//	POST /agent/run  route a query; body {query, agent?, customer_id?, language?}
//	GET  /health     liveness probe
//	GET  /agents     loaded knowledge base entries
//	GET  /metrics    Prometheus exposition (when a metrics collector is set)
//
// Failures are answered with {error_kind, message, trace_id} and a status
// derived from router.ErrorKind.
package server
