package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/answerforge/answerforge/llm"
	"github.com/answerforge/answerforge/message"
	"github.com/answerforge/answerforge/websearch"
)

type answerer struct {
	llm    llm.Client
	prompt string
}

func newAnswerer(client llm.Client, cfg *Config) *answerer {
	return &answerer{
		llm:    client,
		prompt: cfg.AnswerPrompt,
	}
}

// Compose generates the final answer in a single LLM call. Document evidence
// is listed before web results. Unlike routing and judging, a failure here is
// fatal: there is nothing left to degrade to.
func (a *answerer) Compose(ctx context.Context, query, history string, evidence []EvidenceChunk, webResults []websearch.Result) (string, error) {
	var b strings.Builder
	if history != "" {
		fmt.Fprintf(&b, "Conversation so far:\n%s\n\n", history)
	}
	fmt.Fprintf(&b, "Question:\n%s\n", query)

	if len(evidence) > 0 {
		b.WriteString("\nDocument passages:\n")
		b.WriteString(formatEvidence(evidence))
		b.WriteString("\n")
	}
	if len(webResults) > 0 {
		b.WriteString("\nWeb results:\n")
		b.WriteString(formatWebResults(webResults))
		b.WriteString("\n")
	}
	if len(evidence) == 0 && len(webResults) == 0 {
		b.WriteString("\nNo evidence was collected; answer from your own knowledge.\n")
	}

	msgs := []*message.Message{
		message.NewMessage(message.RoleSystem, a.prompt),
		message.NewMessage(message.RoleUser, b.String()),
	}

	resp, err := a.llm.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		return "", fmt.Errorf("answer generation returned empty response")
	}
	return answer, nil
}

func formatWebResults(results []websearch.Result) string {
	var b strings.Builder
	for _, res := range results {
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", res.Rank, res.URL, res.Snippet)
	}
	return strings.TrimSpace(b.String())
}
