// Package retriever coordinates chunking, embedding and similarity search
// over an indexed document corpus.
package retriever

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/answerforge/answerforge/errors"
	"github.com/answerforge/answerforge/rag/chunking"
	"github.com/answerforge/answerforge/rag/document"
	"github.com/answerforge/answerforge/vector"
)

// ScoredChunk pairs an indexed chunk with its similarity score for a query.
type ScoredChunk struct {
	Chunk document.Chunk
	Score float32
}

// Config controls retrieval behaviour.
type Config struct {
	DefaultTopK int
}

// Option customizes retriever config.
type Option func(*Config)

// WithDefaultTopK sets the fallback number of neighbors when callers pass
// a non-positive topK.
func WithDefaultTopK(k int) Option {
	return func(cfg *Config) {
		if k > 0 {
			cfg.DefaultTopK = k
		}
	}
}

// Retriever coordinates chunking, embedding and similarity search.
type Retriever struct {
	store    vector.Store
	embedder vector.Embedder
	chunker  chunking.Chunker
	cfg      Config

	mu        sync.RWMutex
	documents map[string]document.Document
	chunks    map[string]document.Chunk
}

// New creates a retriever.
func New(store vector.Store, emb vector.Embedder, chunker chunking.Chunker, opts ...Option) *Retriever {
	cfg := Config{DefaultTopK: 3}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Retriever{
		store:     store,
		embedder:  emb,
		chunker:   chunker,
		cfg:       cfg,
		documents: make(map[string]document.Document),
		chunks:    make(map[string]document.Chunk),
	}
}

// IndexDocuments ingests documents: chunk, embed, then store.
func (r *Retriever) IndexDocuments(ctx context.Context, docs ...document.Document) error {
	if r.store == nil || r.embedder == nil || r.chunker == nil {
		return fmt.Errorf("%w: retriever not fully configured", errors.ErrInternal)
	}

	for _, doc := range docs {
		document.EnsureDocumentID(&doc)
		chunks, err := r.chunker.Chunk(ctx, doc)
		if err != nil {
			return fmt.Errorf("chunk document %s: %w", doc.ID, err)
		}

		for _, chunk := range chunks {
			vec, err := r.embedder.Embed(ctx, chunk.Content)
			if err != nil {
				return fmt.Errorf("embed chunk %s: %w", chunk.ID, err)
			}
			embedding := &vector.Embedding{
				ID:     chunk.ID,
				Vector: vec,
				Text:   chunk.Content,
				Metadata: map[string]string{
					"document_id": chunk.DocumentID,
					"source":      chunk.Source,
				},
			}
			if err := r.store.AddEmbedding(ctx, embedding); err != nil {
				return fmt.Errorf("store chunk %s: %w", chunk.ID, err)
			}

			r.mu.Lock()
			r.chunks[chunk.ID] = chunk.Clone()
			r.documents[doc.ID] = doc.Clone()
			r.mu.Unlock()
		}
	}
	return nil
}

// SearchChunks embeds the query and returns the topK most similar chunks
// ordered by descending score. A topK <= 0 falls back to the configured
// default.
func (r *Retriever) SearchChunks(ctx context.Context, query string, topK int) ([]ScoredChunk, error) {
	if topK <= 0 {
		topK = r.cfg.DefaultTopK
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches, err := r.store.Search(ctx, queryVec, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]ScoredChunk, 0, len(matches))
	for _, m := range matches {
		chunk, ok := r.lookupChunk(m.Embedding.ID)
		if !ok {
			// Store hit without local metadata, rebuild what we can.
			chunk = document.Chunk{
				ID:         m.Embedding.ID,
				DocumentID: m.Embedding.Metadata["document_id"],
				Source:     m.Embedding.Metadata["source"],
				Content:    m.Embedding.Text,
			}
		}
		results = append(results, ScoredChunk{Chunk: chunk, Score: m.Score})
	}
	return results, nil
}

// Document fetches a document by ID.
func (r *Retriever) Document(id string) (document.Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.documents[id]
	if !ok {
		return document.Document{}, false
	}
	return doc.Clone(), true
}

// ListDocuments returns all indexed documents ordered by ID.
func (r *Retriever) ListDocuments() []document.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]document.Document, 0, len(r.documents))
	for _, doc := range r.documents {
		out = append(out, doc.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DeleteDocument removes a document and its chunks from the index.
func (r *Retriever) DeleteDocument(ctx context.Context, id string) error {
	r.mu.Lock()
	if _, ok := r.documents[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("document %s: %w", id, errors.ErrNotFound)
	}
	delete(r.documents, id)
	var chunkIDs []string
	for chunkID, chunk := range r.chunks {
		if chunk.DocumentID == id {
			chunkIDs = append(chunkIDs, chunkID)
			delete(r.chunks, chunkID)
		}
	}
	r.mu.Unlock()

	for _, chunkID := range chunkIDs {
		if err := r.store.DeleteEmbedding(ctx, chunkID); err != nil && !errors.Is(err, errors.ErrNotFound) {
			return fmt.Errorf("delete chunk %s: %w", chunkID, err)
		}
	}
	return nil
}

func (r *Retriever) lookupChunk(id string) (document.Chunk, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chunk, ok := r.chunks[id]
	if !ok {
		return document.Chunk{}, false
	}
	return chunk.Clone(), true
}

// Clear drops all indexed state.
func (r *Retriever) Clear(ctx context.Context) error {
	if r.store != nil {
		if err := r.store.Clear(ctx); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = make(map[string]document.Chunk)
	r.documents = make(map[string]document.Document)
	return nil
}

// Count returns number of chunks indexed.
func (r *Retriever) Count(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, nil
	}
	return r.store.Count(ctx)
}

// DocumentCount returns the number of indexed documents.
func (r *Retriever) DocumentCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.documents)
}
