package router

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/hupe1980/agentrouter/kb"
	"github.com/hupe1980/agentrouter/model"
)

// Error kinds reported by ErrorKind. They double as the error_kind values of
// the HTTP contract and as metric labels.
const (
	KindOK               = "ok"
	KindInvalidRequest   = "invalid_request"
	KindUnknownAgent     = "unknown_agent"
	KindUpstreamTimeout  = "upstream_timeout"
	KindUpstreamFailure  = "upstream_failure"
	KindUpstreamAuth     = "upstream_auth"
	KindUpstreamRejected = "upstream_rejected"
	KindInternal         = "internal"
)

// InvalidRequestError is returned when the request cannot be routed as sent.
type InvalidRequestError struct {
	Reason string
}

// Error implements error.
func (e *InvalidRequestError) Error() string { return "invalid request: " + e.Reason }

// UnknownAgentError is returned when an explicit agent hint names no entry.
type UnknownAgentError struct {
	Agent string
	Err   error
}

// Error implements error.
func (e *UnknownAgentError) Error() string { return fmt.Sprintf("unknown agent %q", e.Agent) }

// Unwrap returns kb.ErrNotFound (wrapped).
func (e *UnknownAgentError) Unwrap() error { return e.Err }

// UpstreamKind classifies model service failures.
type UpstreamKind int

const (
	// UpstreamTimeout means the call did not finish within the router timeout
	// (or the provider reported a gateway/request timeout). Retriable.
	UpstreamTimeout UpstreamKind = iota
	// UpstreamServiceFailure covers 5xx, 429, transport errors and empty
	// completions. Retriable.
	UpstreamServiceFailure
	// UpstreamAuthFailure means the provider rejected the credentials
	// (401/403). Not retriable.
	UpstreamAuthFailure
	// UpstreamRejected means the provider rejected the request itself
	// (other 4xx). Not retriable.
	UpstreamRejected
)

// String returns the string representation of the kind.
func (k UpstreamKind) String() string {
	switch k {
	case UpstreamTimeout:
		return "timeout"
	case UpstreamServiceFailure:
		return "service_failure"
	case UpstreamAuthFailure:
		return "auth_failure"
	case UpstreamRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// UpstreamError wraps a failed model call.
type UpstreamError struct {
	Kind       UpstreamKind
	Provider   string
	StatusCode int
	Err        error
}

// Error implements error.
func (e *UpstreamError) Error() string {
	msg := "upstream " + e.Kind.String()
	if e.Provider != "" {
		msg += " (" + e.Provider + ")"
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the model error.
func (e *UpstreamError) Unwrap() error { return e.Err }

// Retriable reports whether a caller may retry the same request.
func (e *UpstreamError) Retriable() bool {
	return e.Kind == UpstreamTimeout || e.Kind == UpstreamServiceFailure
}

// classifyUpstream maps a model error to an *UpstreamError. callCtx is the
// context the model was called with; its deadline firing is a timeout even
// when the provider wrapped the cause in its own error type.
func classifyUpstream(callCtx context.Context, provider string, err error) *UpstreamError {
	ue := &UpstreamError{Kind: UpstreamServiceFailure, Provider: provider, Err: err}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		ue.StatusCode = apiErr.StatusCode
		if apiErr.Provider != "" {
			ue.Provider = apiErr.Provider
		}
		switch code := apiErr.StatusCode; {
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			ue.Kind = UpstreamAuthFailure
		case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
			ue.Kind = UpstreamTimeout
		case code == http.StatusTooManyRequests || code >= 500:
			ue.Kind = UpstreamServiceFailure
		case code >= 400:
			ue.Kind = UpstreamRejected
		}
		return ue
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(callCtx.Err(), context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		ue.Kind = UpstreamTimeout
	}
	return ue
}

// ErrorKind maps any error returned by Route to its contract kind.
func ErrorKind(err error) string {
	if err == nil {
		return KindOK
	}

	var (
		invalid  *InvalidRequestError
		unknown  *UnknownAgentError
		upstream *UpstreamError
	)
	switch {
	case errors.As(err, &invalid):
		return KindInvalidRequest
	case errors.As(err, &unknown), errors.Is(err, kb.ErrNotFound):
		return KindUnknownAgent
	case errors.As(err, &upstream):
		switch upstream.Kind {
		case UpstreamTimeout:
			return KindUpstreamTimeout
		case UpstreamAuthFailure:
			return KindUpstreamAuth
		case UpstreamRejected:
			return KindUpstreamRejected
		default:
			return KindUpstreamFailure
		}
	default:
		return KindInternal
	}
}
