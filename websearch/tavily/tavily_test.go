package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchRanksResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.APIKey != "test-key" {
			t.Errorf("expected api key to be forwarded, got %q", req.APIKey)
		}
		if req.Query != "latest go release" {
			t.Errorf("unexpected query %q", req.Query)
		}
		if req.MaxResults != 2 {
			t.Errorf("expected max_results 2, got %d", req.MaxResults)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Go Blog", "url": "https://go.dev/blog", "content": "Go 1.24 released", "score": 0.95},
				{"title": "Release Notes", "url": "https://go.dev/doc", "content": "release history", "score": 0.80},
				{"title": "Extra", "url": "https://example.com", "content": "should be trimmed", "score": 0.10},
			},
		})
	}))
	defer server.Close()

	client := New(&Config{APIKey: "test-key", BaseURL: server.URL})
	results, err := client.Search(context.Background(), "latest go release", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Rank != 1 || results[1].Rank != 2 {
		t.Errorf("ranks not sequential from 1: %d, %d", results[0].Rank, results[1].Rank)
	}
	if results[0].URL != "https://go.dev/blog" {
		t.Errorf("unexpected first URL %s", results[0].URL)
	}
	if results[0].Snippet != "Go 1.24 released" {
		t.Errorf("unexpected snippet %q", results[0].Snippet)
	}
}

func TestSearchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(&Config{APIKey: "bad", BaseURL: server.URL})
	if _, err := client.Search(context.Background(), "query", 3); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
