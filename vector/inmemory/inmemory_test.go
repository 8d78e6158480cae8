package inmemory

import (
	"context"
	"testing"

	"github.com/answerforge/answerforge/errors"
	"github.com/answerforge/answerforge/vector"
)

func TestAddAndSearch(t *testing.T) {
	ctx := context.Background()
	store := New()

	embeddings := []*vector.Embedding{
		{ID: "a", Vector: []float32{1, 0, 0}, Text: "alpha"},
		{ID: "b", Vector: []float32{0, 1, 0}, Text: "beta"},
		{ID: "c", Vector: []float32{0.9, 0.1, 0}, Text: "gamma"},
	}
	for _, emb := range embeddings {
		if err := store.AddEmbedding(ctx, emb); err != nil {
			t.Fatalf("AddEmbedding(%s) failed: %v", emb.ID, err)
		}
	}

	matches, err := store.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Embedding.ID != "a" {
		t.Errorf("expected closest match to be a, got %s", matches[0].Embedding.ID)
	}
	if matches[1].Embedding.ID != "c" {
		t.Errorf("expected second match to be c, got %s", matches[1].Embedding.ID)
	}
	if matches[0].Score < matches[1].Score {
		t.Errorf("matches not ordered by score: %f < %f", matches[0].Score, matches[1].Score)
	}
	for _, m := range matches {
		if m.Score < 0 || m.Score > 1 {
			t.Errorf("score %f outside [0, 1]", m.Score)
		}
	}
}

func TestSearchSkipsDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := New()

	if err := store.AddEmbedding(ctx, &vector.Embedding{ID: "short", Vector: []float32{1, 0}}); err != nil {
		t.Fatalf("AddEmbedding failed: %v", err)
	}
	if err := store.AddEmbedding(ctx, &vector.Embedding{ID: "full", Vector: []float32{1, 0, 0}}); err != nil {
		t.Fatalf("AddEmbedding failed: %v", err)
	}

	matches, err := store.Search(ctx, []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Embedding.ID != "full" {
		t.Errorf("expected only the matching-dimension embedding, got %d matches", len(matches))
	}
}

func TestAddEmbeddingValidation(t *testing.T) {
	ctx := context.Background()
	store := New()

	if err := store.AddEmbedding(ctx, nil); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil embedding, got %v", err)
	}
	if err := store.AddEmbedding(ctx, &vector.Embedding{Vector: []float32{1}}); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty ID, got %v", err)
	}
	if err := store.AddEmbedding(ctx, &vector.Embedding{ID: "x"}); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty vector, got %v", err)
	}
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	store := New()

	if err := store.AddEmbedding(ctx, &vector.Embedding{ID: "a", Vector: []float32{1}}); err != nil {
		t.Fatalf("AddEmbedding failed: %v", err)
	}

	if err := store.DeleteEmbedding(ctx, "missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.DeleteEmbedding(ctx, "a"); err != nil {
		t.Fatalf("DeleteEmbedding failed: %v", err)
	}

	if err := store.AddEmbedding(ctx, &vector.Embedding{ID: "b", Vector: []float32{1}}); err != nil {
		t.Fatalf("AddEmbedding failed: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty store after Clear, got %d", count)
	}
}
