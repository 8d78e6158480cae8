// Package token provides a chunker that windows documents by real token
// counts using the tiktoken BPE codecs, so chunk sizes line up with embedding
// model limits rather than character estimates.
package token

import (
	"context"
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/answerforge/answerforge/rag/document"
)

// Chunker splits documents into token windows with configurable overlap.
type Chunker struct {
	enc           *tiktoken.Tiktoken
	maxTokens     int
	overlapTokens int
}

// Option customises the token chunker.
type Option func(*Chunker)

// WithMaxTokens sets the maximum allowed tokens per chunk (default 256).
func WithMaxTokens(tokens int) Option {
	return func(c *Chunker) {
		if tokens > 0 {
			c.maxTokens = tokens
		}
	}
}

// WithOverlapTokens sets how many tokens are shared between consecutive chunks.
func WithOverlapTokens(tokens int) Option {
	return func(c *Chunker) {
		if tokens >= 0 {
			c.overlapTokens = tokens
		}
	}
}

// New creates a token-aware chunker for the given model or encoding name.
func New(encoding string, opts ...Option) (*Chunker, error) {
	enc, err := tiktoken.EncodingForModel(encoding)
	if err != nil {
		enc, err = tiktoken.GetEncoding(encoding)
		if err != nil {
			return nil, fmt.Errorf("resolve encoding %q: %w", encoding, err)
		}
	}
	ch := &Chunker{
		enc:           enc,
		maxTokens:     256,
		overlapTokens: 32,
	}
	for _, opt := range opts {
		opt(ch)
	}
	if ch.overlapTokens >= ch.maxTokens {
		ch.overlapTokens = ch.maxTokens / 4
	}
	return ch, nil
}

// Chunk implements chunking.Chunker.
func (c *Chunker) Chunk(ctx context.Context, doc document.Document) ([]document.Chunk, error) {
	document.EnsureDocumentID(&doc)

	ids := c.enc.Encode(doc.Content, nil, nil)
	if len(ids) == 0 {
		return []document.Chunk{
			{
				ID:         document.NextChunkID(doc.ID),
				DocumentID: doc.ID,
				Source:     doc.SourceLabel(),
				Content:    doc.Content,
				Ordinal:    1,
			},
		}, nil
	}

	var chunks []document.Chunk
	ordinal := 0
	start := 0
	for start < len(ids) {
		end := start + c.maxTokens
		if end > len(ids) {
			end = len(ids)
		}
		ordinal++
		chunks = append(chunks, document.Chunk{
			ID:         document.NextChunkID(doc.ID),
			DocumentID: doc.ID,
			Source:     doc.SourceLabel(),
			Content:    c.enc.Decode(ids[start:end]),
			Ordinal:    ordinal,
		})
		if end == len(ids) {
			break
		}
		start = end - c.overlapTokens
	}

	return chunks, nil
}

// CountTokens returns the token count for the given text.
func (c *Chunker) CountTokens(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}
