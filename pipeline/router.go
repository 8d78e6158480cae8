package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/answerforge/answerforge/llm"
	"github.com/answerforge/answerforge/message"
)

type router struct {
	llm    llm.Client
	prompt string
}

func newRouter(client llm.Client, cfg *Config) *router {
	return &router{
		llm:    client,
		prompt: cfg.RouterPrompt,
	}
}

// Route classifies the query. Classification is best effort: any LLM failure,
// unparseable output, or unknown label falls back to the direct-answer route
// so a flaky classifier can never block a response.
func (r *router) Route(ctx context.Context, query string, history string) *RouteDecision {
	userPrompt := query
	if history != "" {
		userPrompt = fmt.Sprintf("Conversation so far:\n%s\n\nQuery:\n%s", history, query)
	}
	msgs := []*message.Message{
		message.NewMessage(message.RoleSystem, r.prompt),
		message.NewMessage(message.RoleUser, userPrompt),
	}

	resp, err := r.llm.Generate(ctx, msgs)
	if err != nil {
		return &RouteDecision{
			Route:     RouteAnswer,
			Rationale: fmt.Sprintf("router unavailable, answering directly: %v", err),
		}
	}

	decision, err := decodeJSON[RouteDecision](resp.Text())
	if err != nil {
		return &RouteDecision{
			Route:     RouteAnswer,
			Rationale: fmt.Sprintf("router output unparseable, answering directly: %v", err),
		}
	}

	decision.Route = canonicalRoute(string(decision.Route))
	if decision.Route == "" {
		return &RouteDecision{
			Route:     RouteAnswer,
			Rationale: "router emitted unknown route, answering directly",
		}
	}
	return decision
}

// canonicalRoute maps model output variants onto the three route labels.
func canonicalRoute(raw string) Route {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "rag", "document", "documents", "document-lookup", "retrieval":
		return RouteRAG
	case "web", "web-search", "search":
		return RouteWeb
	case "answer", "direct", "direct-answer", "llm":
		return RouteAnswer
	default:
		return ""
	}
}
