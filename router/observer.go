package router

import (
	"time"

	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/model"
)

// ModelEvent describes one model invocation.
type ModelEvent struct {
	TraceID  string
	Agent    string
	Model    model.Info
	Duration time.Duration
	Usage    *model.TokenUsage
	Err      error
}

// RouteEvent describes one finished Route call. Agent is empty when the
// request failed before selection.
type RouteEvent struct {
	TraceID  string
	Agent    string
	Match    Match
	Kind     string
	Duration time.Duration
	Err      error
}

// Observer receives lifecycle notifications. Implementations run
// synchronously on the request path and must be safe for concurrent use.
type Observer interface {
	ModelCalled(ev ModelEvent)
	RouteCompleted(ev RouteEvent)
}

// NoOpObserver ignores all events.
type NoOpObserver struct{}

// ModelCalled implements Observer.
func (NoOpObserver) ModelCalled(ModelEvent) {}

// RouteCompleted implements Observer.
func (NoOpObserver) RouteCompleted(RouteEvent) {}

// MultiObserver fans events out in order.
type MultiObserver []Observer

// ModelCalled implements Observer.
func (m MultiObserver) ModelCalled(ev ModelEvent) {
	for _, o := range m {
		o.ModelCalled(ev)
	}
}

// RouteCompleted implements Observer.
func (m MultiObserver) RouteCompleted(ev RouteEvent) {
	for _, o := range m {
		o.RouteCompleted(ev)
	}
}

// LogObserver writes route and model events through a ServiceLogger.
type LogObserver struct {
	logger *logging.ServiceLogger
}

// NewLogObserver scopes logger to the router component.
func NewLogObserver(logger *logging.ServiceLogger) *LogObserver {
	return &LogObserver{logger: logger.WithComponent("router")}
}

// ModelCalled implements Observer.
func (o *LogObserver) ModelCalled(ev ModelEvent) {
	tokens := 0
	if ev.Usage != nil {
		tokens = ev.Usage.TotalTokens
	}
	o.logger.WithTrace(ev.TraceID).WithContext("agent", ev.Agent).
		LogLLMCall(ev.Model.Name, tokens, ev.Duration, ev.Err == nil, ev.Err)
}

// RouteCompleted implements Observer.
func (o *LogObserver) RouteCompleted(ev RouteEvent) {
	o.logger.WithTrace(ev.TraceID).WithContext("kind", ev.Kind).
		LogRoute(ev.Agent, string(ev.Match.Reason), ev.Match.Score, ev.Duration, ev.Err)
}
