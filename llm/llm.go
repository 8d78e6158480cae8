// Package llm defines the narrow seam between the answering pipeline and the
// language-model providers that back it.
package llm

import (
	"context"

	"github.com/answerforge/answerforge/message"
)

// Client is the interface implemented by LLM providers. The pipeline uses it
// for routing, sufficiency judging, and answer synthesis with different
// prompts; providers stay oblivious to which step is calling.
type Client interface {
	// Generate produces a completion for the supplied conversation.
	Generate(ctx context.Context, messages []*message.Message) (*message.Message, error)

	// SetTemperature updates the temperature setting for generation
	SetTemperature(temp float64)

	// SetMaxTokens updates the maximum tokens limit for generation
	SetMaxTokens(max int64)

	// SetModel updates the model to use for generation
	SetModel(model string)
}
