// Package pipeline implements the query answering engine: a router picks a
// strategy, retrieval and a sufficiency judge gather document evidence, a web
// fallback fills gaps, and a single answer generation call produces the
// response. Every decision is recorded in an ordered trace.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/answerforge/answerforge/errors"
	"github.com/answerforge/answerforge/graph"
	"github.com/answerforge/answerforge/llm"
	"github.com/answerforge/answerforge/pkg/logging"
	"github.com/answerforge/answerforge/pkg/telemetry"
	"github.com/answerforge/answerforge/rag/retriever"
	"github.com/answerforge/answerforge/session"
	"github.com/answerforge/answerforge/websearch"
)

const engineStateKey = "__answer_pipeline_state"

// Clients groups the LLM clients used by the pipeline stages. Stage-specific
// clients fall back to Default when nil.
type Clients struct {
	Default  llm.Client
	Router   llm.Client
	Judge    llm.Client
	Answerer llm.Client
}

// DocumentSearcher is the retrieval port the engine queries for evidence.
type DocumentSearcher interface {
	SearchChunks(ctx context.Context, query string, topK int) ([]retriever.ScoredChunk, error)
}

// Engine wires the routing, retrieval, judging, web fallback and answer
// generation stages together.
type Engine struct {
	cfg      *Config
	router   *router
	judge    *judge
	answerer *answerer
	docs     DocumentSearcher
	web      websearch.Searcher
	graph    *graph.Graph
	logger   *slog.Logger
	tracer   oteltrace.Tracer
}

type runState struct {
	req        Request
	history    string
	decision   *RouteDecision
	evidence   []EvidenceChunk
	verdict    *JudgeVerdict
	webResults []websearch.Result
	answer     string
	trace      *Trace
}

// NewEngine creates a fully wired answering engine. The document searcher and
// web searcher may be nil; the corresponding stages then degrade to empty
// evidence instead of failing the run.
func NewEngine(clients Clients, docs DocumentSearcher, web websearch.Searcher, opts ...Option) (*Engine, error) {
	cfg := applyOptions(nil, opts)

	routerLLM := pickClient(clients.Router, clients.Default)
	judgeLLM := pickClient(clients.Judge, clients.Default)
	answerLLM := pickClient(clients.Answerer, clients.Default)
	if routerLLM == nil {
		return nil, fmt.Errorf("router client is required")
	}
	if judgeLLM == nil {
		return nil, fmt.Errorf("judge client is required")
	}
	if answerLLM == nil {
		return nil, fmt.Errorf("answerer client is required")
	}

	e := &Engine{
		cfg:      cfg,
		router:   newRouter(routerLLM, cfg),
		judge:    newJudge(judgeLLM, cfg),
		answerer: newAnswerer(answerLLM, cfg),
		docs:     docs,
		web:      web,
		logger:   logging.WithComponent("pipeline").With("pipeline", cfg.Name),
		tracer:   otel.Tracer("answerforge/pipeline"),
	}

	builder := graph.NewBuilder().
		AddNode("start", graph.NodeTypeStart, e.startNode).
		AddNode("route", graph.NodeTypeStep, e.routeNode).
		AddConditionNode("route_gate", e.routeGate, map[string]string{
			string(RouteRAG):    "retrieve",
			string(RouteWeb):    "web_search",
			string(RouteAnswer): "answer",
		}).
		AddNode("retrieve", graph.NodeTypeStep, e.retrieveNode).
		AddNode("judge", graph.NodeTypeStep, e.judgeNode).
		AddConditionNode("judge_gate", e.judgeGate, map[string]string{
			"web":    "web_search",
			"answer": "answer",
		}).
		AddNode("web_search", graph.NodeTypeStep, e.webSearchNode).
		AddNode("answer", graph.NodeTypeStep, e.answerNode).
		AddNode("end", graph.NodeTypeEnd, nil).
		AddEdge("start", "route").
		AddEdge("route", "route_gate").
		AddEdge("retrieve", "judge").
		AddEdge("judge", "judge_gate").
		AddEdge("web_search", "answer").
		AddEdge("answer", "end").
		SetStart("start").
		SetEnd("end").
		SetMaxVisits(cfg.GraphMaxVisits)

	e.graph = builder.Build()
	e.logger.Info("pipeline initialised",
		"top_k", cfg.TopK,
		"web_max_results", cfg.WebMaxResults,
	)
	return e, nil
}

func pickClient(primary, fallback llm.Client) llm.Client {
	if primary != nil {
		return primary
	}
	return fallback
}

// Run answers one query. On failure the returned Result still carries the
// trace accumulated up to the failing step.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", errors.ErrEmptyQuery)
	}

	ctx, span := e.tracer.Start(ctx, "pipeline.Run",
		oteltrace.WithAttributes(
			attribute.String("session.id", req.SessionID),
			attribute.Bool("web.enabled", req.WebEnabled),
		))
	var runErr error
	defer func() { telemetry.End(span, runErr) }()

	e.logger.Info("run started",
		"session_id", req.SessionID,
		"query", trimForLog(req.Query, 120),
		"web_enabled", req.WebEnabled,
	)

	st := &runState{
		req:     req,
		history: formatHistory(req.History, e.cfg.HistoryLimit),
		trace:   NewTrace(),
	}

	_, err := e.graph.Execute(ctx, graph.State{engineStateKey: st})
	result := &Result{
		Answer:     st.answer,
		Evidence:   st.evidence,
		WebResults: st.webResults,
		Trace:      st.trace.Events(),
	}
	if st.decision != nil {
		result.Route = st.decision.Route
	}
	if err != nil {
		runErr = err
		e.logger.Error("run failed", "session_id", req.SessionID, "error", err)
		return result, err
	}

	span.SetAttributes(
		attribute.String("route", string(result.Route)),
		attribute.Int("trace.events", len(result.Trace)),
	)
	e.logger.Info("run completed",
		"session_id", req.SessionID,
		"route", result.Route,
		"trace_events", len(result.Trace),
	)
	return result, nil
}

func (e *Engine) startNode(ctx context.Context, state graph.State) (graph.State, error) {
	_, err := getState(state)
	return state, err
}

// routeNode classifies the query. When web search is disabled a "web" route
// is overridden to "rag" so the pipeline can still consult local documents.
func (e *Engine) routeNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}

	decision := e.router.Route(ctx, st.req.Query, st.history)
	description := fmt.Sprintf("route=%s", decision.Route)
	if decision.Route == RouteWeb && !st.req.WebEnabled {
		decision.Route = RouteRAG
		description = "route=rag (web route overridden, web search disabled)"
	}
	if decision.Rationale != "" {
		description += ": " + decision.Rationale
	}
	st.decision = decision
	st.trace.Record("router", EventRouterDecision, description)
	e.logger.Debug("route decided", "route", decision.Route)
	return state, nil
}

func (e *Engine) routeGate(ctx context.Context, state graph.State) (string, error) {
	st, err := getState(state)
	if err != nil {
		return "", err
	}
	return string(st.decision.Route), nil
}

// retrieveNode queries the document index. A port failure degrades to empty
// evidence and stays visible in the trace.
func (e *Engine) retrieveNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}

	st.evidence = []EvidenceChunk{}
	if e.docs == nil {
		st.trace.Record("retriever", EventRetrieval, "no document index configured, continuing with no evidence")
		return state, nil
	}

	chunks, err := e.docs.SearchChunks(ctx, st.req.Query, e.cfg.TopK)
	if err != nil {
		e.logger.Warn("retrieval failed, continuing with no evidence", "error", err)
		st.trace.Record("retriever", EventRetrieval,
			fmt.Sprintf("retrieval failed, continuing with no evidence: %v", err))
		return state, nil
	}

	for _, sc := range chunks {
		st.evidence = append(st.evidence, EvidenceChunk{
			Content: sc.Chunk.Content,
			Source:  sc.Chunk.Source,
			Score:   sc.Score,
		})
	}
	description := fmt.Sprintf("retrieved %d chunks (top_k=%d)", len(st.evidence), e.cfg.TopK)
	if len(st.evidence) > 0 {
		description = fmt.Sprintf("retrieved %d chunks (top_k=%d, top score %.2f)",
			len(st.evidence), e.cfg.TopK, st.evidence[0].Score)
	}
	st.trace.Record("retriever", EventRetrieval, description)
	return state, nil
}

func (e *Engine) judgeNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}

	verdict := e.judge.Judge(ctx, st.req.Query, st.evidence)
	st.verdict = verdict
	description := "verdict=insufficient"
	if verdict.Sufficient {
		description = "verdict=sufficient"
	}
	if verdict.Rationale != "" {
		description += ": " + verdict.Rationale
	}
	st.trace.Record("judge", EventJudgeDecision, description)
	e.logger.Debug("sufficiency judged", "sufficient", verdict.Sufficient)
	return state, nil
}

// judgeGate escalates to web search only when the evidence is insufficient
// and the caller allowed web lookups.
func (e *Engine) judgeGate(ctx context.Context, state graph.State) (string, error) {
	st, err := getState(state)
	if err != nil {
		return "", err
	}
	if !st.verdict.Sufficient && st.req.WebEnabled {
		return "web", nil
	}
	return "answer", nil
}

// webSearchNode runs the web fallback. A port failure degrades to empty
// results and stays visible in the trace.
func (e *Engine) webSearchNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}

	st.webResults = []websearch.Result{}
	if e.web == nil {
		st.trace.Record("web", EventWebSearch, "no web searcher configured, continuing with no results")
		return state, nil
	}

	results, err := e.web.Search(ctx, st.req.Query, e.cfg.WebMaxResults)
	if err != nil {
		e.logger.Warn("web search failed, continuing with no results", "error", err)
		st.trace.Record("web", EventWebSearch,
			fmt.Sprintf("web search failed, continuing with no results: %v", err))
		return state, nil
	}

	st.webResults = results
	st.trace.Record("web", EventWebSearch,
		fmt.Sprintf("web search returned %d results", len(results)))
	return state, nil
}

func (e *Engine) answerNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}

	answer, err := e.answerer.Compose(ctx, st.req.Query, st.history, st.evidence, st.webResults)
	if err != nil {
		return state, err
	}
	st.answer = answer
	st.trace.Record("answerer", EventAnswerGeneration,
		fmt.Sprintf("generated answer from %d document chunks and %d web results",
			len(st.evidence), len(st.webResults)))
	return state, nil
}

func getState(state graph.State) (*runState, error) {
	raw, ok := state[engineStateKey]
	if !ok {
		return nil, fmt.Errorf("pipeline state missing in graph")
	}
	st, ok := raw.(*runState)
	if !ok {
		return nil, fmt.Errorf("invalid pipeline state type")
	}
	return st, nil
}

func formatHistory(turns []session.Turn, limit int) string {
	if limit <= 0 || len(turns) == 0 {
		return ""
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	var b strings.Builder
	for _, turn := range turns {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", turn.Query, turn.Answer)
	}
	return strings.TrimSpace(b.String())
}

func trimForLog(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
