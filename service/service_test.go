package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/answerforge/answerforge/errors"
	"github.com/answerforge/answerforge/message"
	"github.com/answerforge/answerforge/pipeline"
	"github.com/answerforge/answerforge/rag/chunking"
	"github.com/answerforge/answerforge/rag/retriever"
	sessioninmem "github.com/answerforge/answerforge/session/inmemory"
	"github.com/answerforge/answerforge/vector"
	vectorinmem "github.com/answerforge/answerforge/vector/inmemory"
)

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Generate(ctx context.Context, messages []*message.Message) (*message.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	return message.NewMessage(message.RoleAssistant, s.response), nil
}

func (s *stubLLM) SetTemperature(float64) {}
func (s *stubLLM) SetMaxTokens(int64)     {}
func (s *stubLLM) SetModel(string)        {}

type keywordEmbedder struct {
	keywords []string
}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(e.keywords))
	lower := strings.ToLower(text)
	for i, kw := range e.keywords {
		if strings.Contains(lower, kw) {
			vec[i] = 1
		}
	}
	return vector.Normalize(vec), nil
}

func (e *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *keywordEmbedder) Dimension() int { return len(e.keywords) }

func newTestService(t *testing.T, answerLLM *stubLLM) (*Service, *retriever.Retriever) {
	t.Helper()
	index := retriever.New(
		vectorinmem.New(),
		&keywordEmbedder{keywords: []string{"shipping", "returns", "pricing"}},
		chunking.NewSimpleChunker(),
	)
	engine, err := pipeline.NewEngine(pipeline.Clients{
		Router:   &stubLLM{response: `{"route":"rag","rationale":"indexed"}`},
		Judge:    &stubLLM{response: `{"sufficient":true}`},
		Answerer: answerLLM,
	}, index, nil)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	svc, err := New(engine, sessioninmem.New(), index)
	if err != nil {
		t.Fatalf("New service error: %v", err)
	}
	return svc, index
}

func TestAnswerQueryAppendsTurn(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &stubLLM{response: "Shipping takes 3 days."})

	if _, err := svc.AddDocument(ctx, AddDocumentRequest{
		Title:   "Shipping Policy",
		Content: "shipping takes 3 days",
	}); err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}

	resp, err := svc.AnswerQuery(ctx, AnswerRequest{
		SessionID: "s1",
		Query:     "How long does shipping take?",
	})
	if err != nil {
		t.Fatalf("AnswerQuery failed: %v", err)
	}
	if resp.Answer != "Shipping takes 3 days." {
		t.Errorf("unexpected answer %q", resp.Answer)
	}
	if len(resp.Trace) == 0 {
		t.Error("expected non-empty trace")
	}

	history, err := svc.History(ctx, "s1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(history))
	}
	if history[0].Query != "How long does shipping take?" || history[0].Answer != resp.Answer {
		t.Errorf("unexpected turn %+v", history[0])
	}
	if history[0].Route != "rag" {
		t.Errorf("expected rag route on turn, got %q", history[0].Route)
	}
}

func TestAnswerQueryValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &stubLLM{response: "x"})

	if _, err := svc.AnswerQuery(ctx, AnswerRequest{SessionID: "s1", Query: "  "}); !errors.Is(err, errors.ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
	if _, err := svc.AnswerQuery(ctx, AnswerRequest{SessionID: "", Query: "hi"}); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing session, got %v", err)
	}
}

func TestAnswerQueryFailedRunNotAppended(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &stubLLM{err: fmt.Errorf("model unavailable")})

	resp, err := svc.AnswerQuery(ctx, AnswerRequest{SessionID: "s1", Query: "anything about shipping"})
	if err == nil {
		t.Fatal("expected error from failed run")
	}
	if resp == nil || len(resp.Trace) == 0 {
		t.Fatal("expected partial trace alongside error")
	}

	history, err := svc.History(ctx, "s1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("failed run must not be appended, got %d turns", len(history))
	}
}

func TestAddDocumentHTMLAndStats(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &stubLLM{response: "ok"})

	id, err := svc.AddDocument(ctx, AddDocumentRequest{
		Title:   "Pricing",
		Content: "<h1>Pricing</h1><p>pricing starts at $10</p>",
		IsHTML:  true,
	})
	if err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated document ID")
	}

	docs, err := svc.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Content != "" {
		t.Error("expected listing to omit content")
	}

	stats, err := svc.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.Documents != 1 {
		t.Errorf("expected 1 document in stats, got %d", stats.Documents)
	}
	if stats.Chunks == 0 {
		t.Error("expected indexed chunks in stats")
	}
}

func TestAddDocumentEmptyContentRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &stubLLM{response: "ok"})

	if _, err := svc.AddDocument(ctx, AddDocumentRequest{Content: "   "}); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDeleteAndClearDocuments(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &stubLLM{response: "ok"})

	id, err := svc.AddDocument(ctx, AddDocumentRequest{Title: "Returns", Content: "returns within 30 days"})
	if err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}

	if err := svc.DeleteDocument(ctx, "missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := svc.DeleteDocument(ctx, id); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}

	if _, err := svc.AddDocument(ctx, AddDocumentRequest{Title: "Pricing", Content: "pricing info"}); err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	if err := svc.ClearDocuments(ctx); err != nil {
		t.Fatalf("ClearDocuments failed: %v", err)
	}

	stats, err := svc.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.Documents != 0 || stats.Chunks != 0 {
		t.Errorf("expected empty corpus after clear, got %+v", stats)
	}
}
