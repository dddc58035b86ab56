package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/hupe1980/agentrouter/router"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind string) int {
	switch kind {
	case router.KindOK:
		return http.StatusOK
	case router.KindInvalidRequest:
		return http.StatusBadRequest
	case router.KindUnknownAgent:
		return http.StatusNotFound
	case router.KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case router.KindUpstreamFailure, router.KindUpstreamAuth, router.KindUpstreamRejected:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage returns the client-facing text for err. Upstream and
// internal details stay in the logs.
func publicMessage(kind string, err error) string {
	switch kind {
	case router.KindInvalidRequest, router.KindUnknownAgent:
		return err.Error()
	case router.KindUpstreamTimeout:
		return "the model service did not answer in time"
	case router.KindUpstreamAuth:
		return "the model service rejected the configured credentials"
	case router.KindUpstreamRejected:
		return "the model service rejected the request"
	case router.KindUpstreamFailure:
		return "the model service failed"
	default:
		return "internal error"
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	kind := router.ErrorKind(err)
	status := StatusFor(kind)
	if status >= http.StatusInternalServerError || kind == router.KindUpstreamAuth {
		s.logger.Error("agent.run.failed", "trace_id", traceID(c), "kind", kind, "error", err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		ErrorKind: kind,
		Message:   publicMessage(kind, err),
		TraceID:   traceID(c),
	})
}

// bindingError turns a gin binding failure into an InvalidRequestError.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s is %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return &router.InvalidRequestError{Reason: strings.Join(fields, "; ")}
	}
	return &router.InvalidRequestError{Reason: "malformed JSON body: " + err.Error()}
}

func (s *Server) runHandler(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, bindingError(err))
		return
	}

	resp, err := s.router.Route(c.Request.Context(), router.Request{
		Query:      req.Query,
		Agent:      req.Agent,
		CustomerID: req.CustomerID,
		Language:   req.Language,
		TraceID:    traceID(c),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := RunResponse{
		Agent:   resp.Agent,
		Answer:  resp.Answer,
		TraceID: resp.TraceID,
		Metrics: RunMetrics{
			LatencyMS:  resp.Latency.Milliseconds(),
			Model:      resp.Model,
			ModelCalls: 1,
			Usage:      resp.Usage,
		},
	}
	if s.exposeMatch {
		match := resp.Match
		out.Match = &match
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) agentsHandler(c *gin.Context) {
	base := s.router.KnowledgeBase()
	def := base.Default().ID

	entries := base.Entries()
	out := AgentsResponse{Agents: make([]AgentInfo, 0, len(entries)), Default: def}
	for _, e := range entries {
		out.Agents = append(out.Agents, AgentInfo{
			ID:       e.ID,
			Name:     e.Name,
			Default:  e.ID == def,
			Examples: len(e.Examples),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) notFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{
		ErrorKind: "not_found",
		Message:   fmt.Sprintf("no route for %s %s", c.Request.Method, c.Request.URL.Path),
		TraceID:   traceID(c),
	})
}

func (s *Server) methodNotAllowedHandler(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, ErrorResponse{
		ErrorKind: "method_not_allowed",
		Message:   fmt.Sprintf("method %s not allowed on %s", c.Request.Method, c.Request.URL.Path),
		TraceID:   traceID(c),
	})
}
