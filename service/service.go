// Package service exposes the application-level operations: answering
// queries within a session and managing the document corpus.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/answerforge/answerforge/errors"
	"github.com/answerforge/answerforge/pipeline"
	"github.com/answerforge/answerforge/pkg/logging"
	"github.com/answerforge/answerforge/rag/document"
	"github.com/answerforge/answerforge/rag/preprocess"
	"github.com/answerforge/answerforge/rag/retriever"
	"github.com/answerforge/answerforge/session"
)

// Service orchestrates the answering engine, session log and document index.
type Service struct {
	engine   *pipeline.Engine
	sessions session.Store
	index    *retriever.Retriever
	logger   *slog.Logger
}

// New creates a Service. The retriever may be nil when the deployment runs
// without a document index; document operations then return ErrInternal.
func New(engine *pipeline.Engine, sessions session.Store, index *retriever.Retriever) (*Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	return &Service{
		engine:   engine,
		sessions: sessions,
		index:    index,
		logger:   logging.WithComponent("service"),
	}, nil
}

// AnswerRequest is one inbound query.
type AnswerRequest struct {
	SessionID        string `json:"session_id"`
	Query            string `json:"query"`
	WebSearchEnabled bool   `json:"web_search_enabled"`
}

// AnswerResponse carries the answer plus the run trace.
type AnswerResponse struct {
	SessionID string                   `json:"session_id"`
	Answer    string                   `json:"answer"`
	Route     pipeline.Route           `json:"route"`
	Trace     []pipeline.TraceEvent    `json:"trace"`
	Evidence  []pipeline.EvidenceChunk `json:"evidence,omitempty"`
}

// AnswerQuery answers a query within a session: prior turns flow into the
// pipeline as context and the completed exchange is appended to the session
// log. A failed run is not appended, but its partial trace is returned with
// the error through the response.
func (s *Service) AnswerQuery(ctx context.Context, req AnswerRequest) (*AnswerResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", errors.ErrEmptyQuery)
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session ID cannot be empty", errors.ErrInvalidInput)
	}

	history, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session history: %w", err)
	}

	result, runErr := s.engine.Run(ctx, pipeline.Request{
		SessionID:  sessionID,
		Query:      query,
		WebEnabled: req.WebSearchEnabled,
		History:    history,
	})

	resp := &AnswerResponse{SessionID: sessionID}
	if result != nil {
		resp.Answer = result.Answer
		resp.Route = result.Route
		resp.Trace = result.Trace
		resp.Evidence = result.Evidence
	}
	if runErr != nil {
		return resp, runErr
	}

	turn := session.Turn{
		Query:     query,
		Answer:    result.Answer,
		Route:     string(result.Route),
		CreatedAt: time.Now(),
	}
	if err := s.sessions.AppendTurn(ctx, sessionID, turn); err != nil {
		s.logger.Error("failed to append turn", "session_id", sessionID, "error", err)
		return resp, fmt.Errorf("append session turn: %w", err)
	}
	return resp, nil
}

// History returns the session's turn log in append order.
func (s *Service) History(ctx context.Context, sessionID string) ([]session.Turn, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session ID cannot be empty", errors.ErrInvalidInput)
	}
	return s.sessions.History(ctx, sessionID)
}

// AddDocumentRequest describes a document to ingest. HTML content is
// converted to text before cleaning when IsHTML is set.
type AddDocumentRequest struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Source  string `json:"source,omitempty"`
	Content string `json:"content"`
	IsHTML  bool   `json:"is_html,omitempty"`
}

// AddDocument cleans, chunks, embeds and indexes one document, returning its ID.
func (s *Service) AddDocument(ctx context.Context, req AddDocumentRequest) (string, error) {
	if s.index == nil {
		return "", fmt.Errorf("%w: no document index configured", errors.ErrInternal)
	}
	content := req.Content
	if req.IsHTML {
		text, err := preprocess.HTMLToText(content)
		if err != nil {
			return "", fmt.Errorf("%w: parse HTML content: %v", errors.ErrInvalidInput, err)
		}
		content = text
	}
	content = preprocess.Preprocess(content)
	if content == "" {
		return "", fmt.Errorf("%w: document content cannot be empty", errors.ErrInvalidInput)
	}

	doc := document.Document{
		ID:        req.ID,
		Title:     req.Title,
		Source:    req.Source,
		Content:   content,
		CreatedAt: time.Now(),
	}
	document.EnsureDocumentID(&doc)
	if err := s.index.IndexDocuments(ctx, doc); err != nil {
		return "", err
	}
	s.logger.Info("document indexed", "doc_id", doc.ID, "content_length", len(content))
	return doc.ID, nil
}

// ListDocuments returns metadata for all indexed documents.
func (s *Service) ListDocuments(ctx context.Context) ([]document.Document, error) {
	if s.index == nil {
		return nil, fmt.Errorf("%w: no document index configured", errors.ErrInternal)
	}
	docs := s.index.ListDocuments()
	// Content can be large; listings only need metadata.
	for i := range docs {
		docs[i].Content = ""
	}
	return docs, nil
}

// DeleteDocument removes a document and its chunks from the index.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	if s.index == nil {
		return fmt.Errorf("%w: no document index configured", errors.ErrInternal)
	}
	return s.index.DeleteDocument(ctx, id)
}

// ClearDocuments drops the whole document index.
func (s *Service) ClearDocuments(ctx context.Context) error {
	if s.index == nil {
		return fmt.Errorf("%w: no document index configured", errors.ErrInternal)
	}
	s.logger.Warn("clearing all indexed documents")
	return s.index.Clear(ctx)
}

// Stats summarizes the corpus and session state.
type Stats struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
	Sessions  int `json:"sessions"`
}

// GetStats returns corpus and session counters.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	if s.index != nil {
		stats.Documents = s.index.DocumentCount()
		chunks, err := s.index.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count chunks: %w", err)
		}
		stats.Chunks = chunks
	}
	ids, err := s.sessions.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	stats.Sessions = len(ids)
	return stats, nil
}
