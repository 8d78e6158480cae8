package pipeline

import (
	"github.com/answerforge/answerforge/session"
	"github.com/answerforge/answerforge/websearch"
)

// Route labels the strategy chosen for a query.
type Route string

const (
	// RouteRAG answers from the indexed document corpus.
	RouteRAG Route = "rag"
	// RouteWeb answers from a live web search.
	RouteWeb Route = "web"
	// RouteAnswer answers directly from model knowledge.
	RouteAnswer Route = "answer"
)

// RouteDecision is the router's classification of a query.
type RouteDecision struct {
	Route     Route  `json:"route"`
	Rationale string `json:"rationale,omitempty"`
}

// JudgeVerdict is the sufficiency judgement over retrieved evidence.
type JudgeVerdict struct {
	Sufficient bool   `json:"sufficient"`
	Rationale  string `json:"rationale,omitempty"`
}

// EvidenceChunk is one retrieved passage handed to the answerer.
type EvidenceChunk struct {
	Content string  `json:"content"`
	Source  string  `json:"source,omitempty"`
	Score   float32 `json:"score"`
}

// EventType enumerates the kinds of trace events a run can record.
type EventType string

const (
	EventRouterDecision   EventType = "router_decision"
	EventRetrieval        EventType = "retrieval"
	EventJudgeDecision    EventType = "judge_decision"
	EventWebSearch        EventType = "web_search"
	EventAnswerGeneration EventType = "answer_generation"
)

// TraceEvent records one step of a pipeline run. Step numbering starts at 1
// and follows execution order.
type TraceEvent struct {
	Step        int       `json:"step"`
	Node        string    `json:"node"`
	Type        EventType `json:"type"`
	Description string    `json:"description"`
}

// Request describes one query to answer.
type Request struct {
	SessionID  string
	Query      string
	WebEnabled bool
	History    []session.Turn
}

// Result is the outcome of a pipeline run. When Run returns an error the
// Result still carries the trace accumulated up to the failure.
type Result struct {
	Answer     string             `json:"answer"`
	Route      Route              `json:"route"`
	Evidence   []EvidenceChunk    `json:"evidence,omitempty"`
	WebResults []websearch.Result `json:"web_results,omitempty"`
	Trace      []TraceEvent       `json:"trace"`
}
