package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentrouter/internal/util"
	"github.com/hupe1980/agentrouter/kb"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/model"
)

// Options configures a Router.
type Options struct {
	// Timeout bounds each model call. Expiry yields UpstreamTimeout.
	Timeout time.Duration
	// MinScore is the lowest ScoreEntry value that selects an entry
	// without a hint. Must be at least 1.
	MinScore int
	// InstructionsTemplate and PromptTemplate are text/template sources
	// executed against PromptData.
	InstructionsTemplate string
	PromptTemplate       string
	// TraceLogs logs the assembled prompt at debug level.
	TraceLogs bool
	Logger    logging.Logger
	Observer  Observer
	// NewTraceID generates trace ids for requests that carry none.
	NewTraceID func() string
}

// Router dispatches requests to knowledge base agents. It holds no mutable
// state; Route is safe for concurrent use.
type Router struct {
	kb         *kb.KnowledgeBase
	llm        model.Model
	index      []indexedEntry
	prompts    promptBuilder
	timeout    time.Duration
	minScore   int
	traceLogs  bool
	logger     logging.Logger
	observer   Observer
	newTraceID func() string
}

// New creates a Router over an immutable knowledge base snapshot.
func New(knowledge *kb.KnowledgeBase, llm model.Model, optFns ...func(o *Options)) (*Router, error) {
	opts := Options{
		Timeout:              60 * time.Second,
		MinScore:             1,
		InstructionsTemplate: DefaultInstructionsTemplate,
		PromptTemplate:       DefaultPromptTemplate,
		Logger:               logging.NoOpLogger{},
		Observer:             NoOpObserver{},
		NewTraceID:           util.NewTraceID,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if knowledge == nil {
		return nil, errors.New("router: knowledge base is required")
	}
	if llm == nil {
		return nil, errors.New("router: model is required")
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("router: timeout must be positive, got %s", opts.Timeout)
	}
	if opts.MinScore < 1 {
		return nil, fmt.Errorf("router: min score must be at least 1, got %d", opts.MinScore)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Observer == nil {
		opts.Observer = NoOpObserver{}
	}
	if opts.NewTraceID == nil {
		opts.NewTraceID = util.NewTraceID
	}

	prompts, err := newPromptBuilder(opts.InstructionsTemplate, opts.PromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}

	entries := knowledge.Entries()
	index := make([]indexedEntry, len(entries))
	for i, e := range entries {
		index[i] = newIndexedEntry(e)
	}

	return &Router{
		kb:         knowledge,
		llm:        llm,
		index:      index,
		prompts:    prompts,
		timeout:    opts.Timeout,
		minScore:   opts.MinScore,
		traceLogs:  opts.TraceLogs,
		logger:     opts.Logger,
		observer:   opts.Observer,
		newTraceID: opts.NewTraceID,
	}, nil
}

// KnowledgeBase returns the snapshot the router was built with.
func (r *Router) KnowledgeBase() *kb.KnowledgeBase { return r.kb }

// normalize trims every field; a whitespace-only hint counts as absent.
func normalize(req Request) Request {
	req.Query = strings.TrimSpace(req.Query)
	req.Agent = strings.TrimSpace(req.Agent)
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	req.Language = strings.TrimSpace(req.Language)
	return req
}

// Select validates req and picks its agent without calling the model.
func (r *Router) Select(req Request) (kb.Entry, Match, error) {
	return r.selectAgent(normalize(req))
}

func (r *Router) selectAgent(req Request) (kb.Entry, Match, error) {
	if req.Query == "" {
		return kb.Entry{}, Match{}, &InvalidRequestError{Reason: "query must be a non-empty string"}
	}

	if req.Agent != "" {
		e, err := r.kb.Get(req.Agent)
		if err != nil {
			return kb.Entry{}, Match{}, &UnknownAgentError{Agent: req.Agent, Err: err}
		}
		return e, Match{Reason: MatchHint}, nil
	}

	if i, s := bestMatch(r.index, newQuery(req.Query), r.minScore); i >= 0 {
		e, _ := r.kb.Get(r.index[i].entry.ID)
		return e, Match{Reason: MatchScored, Score: s.Value, Patterns: s.Patterns}, nil
	}

	return r.kb.Default(), Match{Reason: MatchDefault}, nil
}

// Route resolves req to an agent, queries the model with the agent's context
// and returns the model text verbatim.
func (r *Router) Route(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	req = normalize(req)
	if req.TraceID == "" {
		req.TraceID = r.newTraceID()
	}

	entry, match, err := r.selectAgent(req)
	if err != nil {
		r.finish(req.TraceID, "", match, start, err)
		return nil, err
	}

	r.logger.Debug("router.agent.selected",
		"trace_id", req.TraceID,
		"agent", entry.ID,
		"reason", match.Reason,
		"score", match.Score,
	)

	mreq, err := r.prompts.build(entry, req)
	if err != nil {
		r.finish(req.TraceID, entry.ID, match, start, err)
		return nil, err
	}

	if r.traceLogs {
		r.logger.Debug("router.prompt",
			"trace_id", req.TraceID,
			"agent", entry.ID,
			"instructions", mreq.Instructions,
			"prompt", mreq.Prompt,
		)
	}

	resp, err := r.invoke(ctx, req.TraceID, entry.ID, mreq)
	if err != nil {
		r.finish(req.TraceID, entry.ID, match, start, err)
		return nil, err
	}

	out := &Response{
		Agent:   entry.ID,
		Answer:  resp.Text,
		TraceID: req.TraceID,
		Match:   match,
		Model:   r.llm.Info().Name,
		Latency: time.Since(start),
		Usage:   resp.Usage,
	}

	r.finish(req.TraceID, entry.ID, match, start, nil)

	return out, nil
}

// invoke calls the model under the router timeout and classifies failures.
func (r *Router) invoke(ctx context.Context, traceID, agent string, mreq model.Request) (*model.Response, error) {
	info := r.llm.Info()

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	callStart := time.Now()
	resp, err := r.generate(callCtx, mreq)
	if err == nil && resp == nil {
		err = model.ErrEmptyResponse
	}

	ev := ModelEvent{TraceID: traceID, Agent: agent, Model: info, Duration: time.Since(callStart)}
	if err != nil {
		uerr := classifyUpstream(callCtx, info.Provider, err)
		ev.Err = uerr
		r.observer.ModelCalled(ev)
		return nil, uerr
	}

	ev.Usage = resp.Usage
	r.observer.ModelCalled(ev)
	return resp, nil
}

type generateResult struct {
	resp *model.Response
	err  error
}

// generate returns when the model answers or callCtx is done, whichever
// comes first. An answer that arrives after the deadline is discarded.
func (r *Router) generate(callCtx context.Context, mreq model.Request) (*model.Response, error) {
	done := make(chan generateResult, 1)
	go func() {
		resp, err := r.llm.Generate(callCtx, mreq)
		done <- generateResult{resp: resp, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil && callCtx.Err() != nil {
			return nil, callCtx.Err()
		}
		return res.resp, res.err
	case <-callCtx.Done():
		return nil, callCtx.Err()
	}
}

func (r *Router) finish(traceID, agent string, match Match, start time.Time, err error) {
	r.observer.RouteCompleted(RouteEvent{
		TraceID:  traceID,
		Agent:    agent,
		Match:    match,
		Kind:     ErrorKind(err),
		Duration: time.Since(start),
		Err:      err,
	})
}
