package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/answerforge/answerforge/llm"
	"github.com/answerforge/answerforge/message"
)

type judge struct {
	llm    llm.Client
	prompt string
}

func newJudge(client llm.Client, cfg *Config) *judge {
	return &judge{
		llm:    client,
		prompt: cfg.JudgePrompt,
	}
}

// Judge decides whether the retrieved evidence can answer the query. Any LLM
// failure or unparseable output falls back to insufficient so a broken judge
// degrades to the web fallback instead of fabricating confidence.
func (j *judge) Judge(ctx context.Context, query string, evidence []EvidenceChunk) *JudgeVerdict {
	if len(evidence) == 0 {
		return &JudgeVerdict{
			Sufficient: false,
			Rationale:  "no evidence retrieved",
		}
	}

	userPrompt := fmt.Sprintf("Query:\n%s\n\nRetrieved passages:\n%s\n\nReturn JSON only.",
		query, formatEvidence(evidence))
	msgs := []*message.Message{
		message.NewMessage(message.RoleSystem, j.prompt),
		message.NewMessage(message.RoleUser, userPrompt),
	}

	resp, err := j.llm.Generate(ctx, msgs)
	if err != nil {
		return &JudgeVerdict{
			Sufficient: false,
			Rationale:  fmt.Sprintf("judge unavailable, treating evidence as insufficient: %v", err),
		}
	}

	verdict, err := decodeJSON[JudgeVerdict](resp.Text())
	if err != nil {
		return &JudgeVerdict{
			Sufficient: false,
			Rationale:  fmt.Sprintf("judge output unparseable, treating evidence as insufficient: %v", err),
		}
	}
	return verdict
}

func formatEvidence(evidence []EvidenceChunk) string {
	if len(evidence) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for i, chunk := range evidence {
		fmt.Fprintf(&b, "[%d] source=%s score=%.2f\n%s\n\n", i+1, chunk.Source, chunk.Score, chunk.Content)
	}
	return strings.TrimSpace(b.String())
}
