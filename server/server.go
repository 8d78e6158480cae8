// Package server exposes the answering service over HTTP.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/answerforge/answerforge/errors"
	"github.com/answerforge/answerforge/pkg/logging"
	"github.com/answerforge/answerforge/service"
)

// Server wraps the gin router around the service.
type Server struct {
	svc    *service.Service
	engine *gin.Engine
	logger *slog.Logger
}

// New builds the HTTP server and registers all routes.
func New(svc *service.Service) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		svc:    svc,
		engine: router,
		logger: logging.WithComponent("server"),
	}
	s.registerRoutes()
	return s
}

// Run starts the HTTP listener on the given address.
func (s *Server) Run(addr string) error {
	s.logger.Info("http server starting", "addr", addr)
	return s.engine.Run(addr)
}

// Handler returns the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	{
		api.POST("/chat", s.handleChat)
		api.GET("/sessions/:id/history", s.handleHistory)
		api.POST("/documents", s.handleAddDocument)
		api.GET("/documents", s.handleListDocuments)
		api.DELETE("/documents/:id", s.handleDeleteDocument)
		api.DELETE("/documents", s.handleClearDocuments)
		api.GET("/stats", s.handleStats)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleChat(c *gin.Context) {
	var req service.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	resp, err := s.svc.AnswerQuery(c.Request.Context(), req)
	if err != nil {
		status := statusFor(err)
		body := gin.H{"error": err.Error()}
		// A failed run still exposes the partial trace for debugging.
		if resp != nil && len(resp.Trace) > 0 {
			body["trace"] = resp.Trace
		}
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHistory(c *gin.Context) {
	turns, err := s.svc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": c.Param("id"), "turns": turns})
}

func (s *Server) handleAddDocument(c *gin.Context) {
	var req service.AddDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	id, err := s.svc.AddDocument(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) handleListDocuments(c *gin.Context) {
	docs, err := s.svc.ListDocuments(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	if err := s.svc.DeleteDocument(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleClearDocuments(c *gin.Context) {
	if err := s.svc.ClearDocuments(c.Request.Context()); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.svc.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrEmptyQuery), errors.Is(err, errors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
