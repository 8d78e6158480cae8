package chunking

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/answerforge/answerforge/rag/document"
)

func TestSimpleChunkerSplitsLongParagraphs(t *testing.T) {
	ch := NewSimpleChunker(
		WithChunkSize(50),
		WithOverlap(10),
		WithSeparator("\n\n"),
	)

	long := strings.Repeat("retrieval pipelines need bounded context windows. ", 4)
	doc := document.Document{
		ID:      "guide",
		Title:   "Pipeline Guide",
		Content: "Short intro.\n\n" + long,
	}

	chunks, err := ch.Chunk(context.Background(), doc)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) < 3 {
		t.Fatalf("expected long paragraph to be windowed, got %d chunks", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.DocumentID != "guide" {
			t.Errorf("chunk %d has document ID %q", i, chunk.DocumentID)
		}
		if chunk.Source != "Pipeline Guide" {
			t.Errorf("chunk %d has source %q", i, chunk.Source)
		}
		if chunk.Ordinal != i+1 {
			t.Errorf("chunk %d has ordinal %d", i, chunk.Ordinal)
		}
	}
	if chunks[0].Content != "Short intro." {
		t.Fatalf("expected first chunk to hold the short paragraph, got %q", chunks[0].Content)
	}
}

func TestSimpleChunkerClampsOverlapToChunkSize(t *testing.T) {
	ch := NewSimpleChunker(
		WithChunkSize(10),
		WithOverlap(10),
		WithSeparator("\n\n"),
	)

	doc := document.Document{
		ID:      "looped",
		Content: strings.Repeat("x", 35),
	}
	chunks, err := ch.Chunk(context.Background(), doc)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected windowed output despite oversized overlap, got %d chunks", len(chunks))
	}
	for i, chunk := range chunks {
		if len([]rune(chunk.Content)) > 10 {
			t.Errorf("chunk %d exceeds size limit: %q", i, chunk.Content)
		}
	}
}

func TestSimpleChunkerKeepsRunesIntact(t *testing.T) {
	ch := NewSimpleChunker(
		WithChunkSize(5),
		WithOverlap(1),
		WithSeparator("\n\n"),
	)

	doc := document.Document{
		ID:      "cjk",
		Content: strings.Repeat("数据检索管道", 3),
	}
	chunks, err := ch.Chunk(context.Background(), doc)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multi-byte content to be windowed, got %d chunks", len(chunks))
	}
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk.Content) {
			t.Errorf("chunk %d holds invalid UTF-8: %q", i, chunk.Content)
		}
	}
}

func TestSimpleChunkerEmptyContentYieldsSingleChunk(t *testing.T) {
	ch := NewSimpleChunker()

	chunks, err := ch.Chunk(context.Background(), document.Document{ID: "empty"})
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for empty document, got %d", len(chunks))
	}
}

func TestSimpleChunkerCopiesMetadata(t *testing.T) {
	ch := NewSimpleChunker(WithMetadataCopy(true))

	doc := document.Document{
		ID:       "meta",
		Content:  "single paragraph",
		Metadata: map[string]any{"lang": "en"},
	}
	chunks, err := ch.Chunk(context.Background(), doc)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if got := chunks[0].Metadata["lang"]; got != "en" {
		t.Fatalf("expected metadata to be copied, got %#v", got)
	}
}
