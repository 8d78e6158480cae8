package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/answerforge/answerforge/message"
	"github.com/answerforge/answerforge/pipeline"
	"github.com/answerforge/answerforge/rag/chunking"
	"github.com/answerforge/answerforge/rag/retriever"
	"github.com/answerforge/answerforge/service"
	sessioninmem "github.com/answerforge/answerforge/session/inmemory"
	"github.com/answerforge/answerforge/vector"
	vectorinmem "github.com/answerforge/answerforge/vector/inmemory"
)

type stubLLM struct {
	response string
}

func (s *stubLLM) Generate(ctx context.Context, messages []*message.Message) (*message.Message, error) {
	return message.NewMessage(message.RoleAssistant, s.response), nil
}

func (s *stubLLM) SetTemperature(float64) {}
func (s *stubLLM) SetMaxTokens(int64)     {}
func (s *stubLLM) SetModel(string)        {}

type keywordEmbedder struct{}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, 2)
	lower := strings.ToLower(text)
	if strings.Contains(lower, "shipping") {
		vec[0] = 1
	}
	if strings.Contains(lower, "returns") {
		vec[1] = 1
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

func (e *keywordEmbedder) Dimension() int { return 2 }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	index := retriever.New(vectorinmem.New(), &keywordEmbedder{}, chunking.NewSimpleChunker())
	engine, err := pipeline.NewEngine(pipeline.Clients{
		Router:   &stubLLM{response: `{"route":"rag"}`},
		Judge:    &stubLLM{response: `{"sufficient":true}`},
		Answerer: &stubLLM{response: "Shipping takes 3 days."},
	}, index, nil)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	svc, err := service.New(engine, sessioninmem.New(), index)
	if err != nil {
		t.Fatalf("New service error: %v", err)
	}
	return New(svc)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestChatEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/documents", map[string]any{
		"title":   "Shipping Policy",
		"content": "shipping takes 3 days",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for document add, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/chat", map[string]any{
		"session_id": "s1",
		"query":      "How long does shipping take?",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Answer string `json:"answer"`
		Trace  []struct {
			Step int    `json:"step"`
			Type string `json:"type"`
		} `json:"trace"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "Shipping takes 3 days." {
		t.Errorf("unexpected answer %q", resp.Answer)
	}
	if len(resp.Trace) != 4 {
		t.Errorf("expected 4 trace events, got %d", len(resp.Trace))
	}

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/sessions/s1/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for history, got %d", rec.Code)
	}
	var hist struct {
		Turns []struct {
			Query string `json:"query"`
		} `json:"turns"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.Turns) != 1 {
		t.Errorf("expected 1 turn in history, got %d", len(hist.Turns))
	}
}

func TestChatEndpointEmptyQuery(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/chat", map[string]any{
		"session_id": "s1",
		"query":      "  ",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty query, got %d", rec.Code)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/documents", map[string]any{
		"id":      "returns",
		"title":   "Returns",
		"content": "returns within 30 days",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/documents", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for list, got %d", rec.Code)
	}

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for stats, got %d", rec.Code)
	}
	var stats struct {
		Documents int `json:"documents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Documents != 1 {
		t.Errorf("expected 1 document, got %d", stats.Documents)
	}

	rec = doJSON(t, srv.Handler(), http.MethodDelete, "/api/documents/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown document, got %d", rec.Code)
	}

	rec = doJSON(t, srv.Handler(), http.MethodDelete, "/api/documents/returns", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for delete, got %d", rec.Code)
	}

	rec = doJSON(t, srv.Handler(), http.MethodDelete, "/api/documents", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for clear, got %d", rec.Code)
	}
}
