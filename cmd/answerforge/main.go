package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	openaisdk "github.com/openai/openai-go/v3"

	"github.com/answerforge/answerforge/config"
	openaiembedder "github.com/answerforge/answerforge/embedder/openai"
	"github.com/answerforge/answerforge/llm"
	"github.com/answerforge/answerforge/llm/claude"
	"github.com/answerforge/answerforge/llm/gemini"
	"github.com/answerforge/answerforge/llm/groq"
	openaillm "github.com/answerforge/answerforge/llm/openai"
	"github.com/answerforge/answerforge/pipeline"
	"github.com/answerforge/answerforge/pkg/logging"
	"github.com/answerforge/answerforge/pkg/telemetry"
	"github.com/answerforge/answerforge/rag/chunking"
	tokenchunking "github.com/answerforge/answerforge/rag/chunking/token"
	"github.com/answerforge/answerforge/rag/retriever"
	"github.com/answerforge/answerforge/server"
	"github.com/answerforge/answerforge/service"
	"github.com/answerforge/answerforge/session"
	sessioninmem "github.com/answerforge/answerforge/session/inmemory"
	sessionmongo "github.com/answerforge/answerforge/session/mongo"
	sessionredis "github.com/answerforge/answerforge/session/redis"
	"github.com/answerforge/answerforge/vector"
	vectorinmem "github.com/answerforge/answerforge/vector/inmemory"
	vectorpg "github.com/answerforge/answerforge/vector/pg"
	"github.com/answerforge/answerforge/websearch"
	"github.com/answerforge/answerforge/websearch/tavily"
)

func main() {
	logger := logging.WithComponent("main")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "answerforge",
		Environment: cfg.Environment,
		Disable:     cfg.DisableTelemetry,
	})
	if err != nil {
		logger.Error("telemetry init failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	client, err := buildLLMClient(cfg)
	if err != nil {
		logger.Error("llm client init failed", "error", err)
		os.Exit(1)
	}

	store, err := buildVectorStore(cfg)
	if err != nil {
		logger.Error("vector store init failed", "error", err)
		os.Exit(1)
	}

	embedder := openaiembedder.New(
		cfg.EmbeddingAPIKey, "",
		openaisdk.EmbeddingModel(cfg.EmbeddingModel),
		cfg.EmbeddingDimension,
	)
	chunker, err := buildChunker(cfg)
	if err != nil {
		logger.Error("chunker init failed", "error", err)
		os.Exit(1)
	}
	index := retriever.New(store, embedder, chunker,
		retriever.WithDefaultTopK(cfg.TopK))

	var web websearch.Searcher
	if cfg.TavilyAPIKey != "" {
		web = tavily.New(tavily.DefaultConfig(cfg.TavilyAPIKey))
	} else {
		logger.Warn("TAVILY_API_KEY not set, web fallback disabled")
	}

	sessions, err := buildSessionStore(cfg)
	if err != nil {
		logger.Error("session store init failed", "error", err)
		os.Exit(1)
	}

	engine, err := pipeline.NewEngine(
		pipeline.Clients{Default: client},
		index,
		web,
		pipeline.WithTopK(cfg.TopK),
		pipeline.WithWebMaxResults(cfg.WebMaxResults),
	)
	if err != nil {
		logger.Error("pipeline init failed", "error", err)
		os.Exit(1)
	}

	svc, err := service.New(engine, sessions, index)
	if err != nil {
		logger.Error("service init failed", "error", err)
		os.Exit(1)
	}

	srv := server.New(svc)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(cfg.ListenAddr)
	}()

	select {
	case err := <-errCh:
		logger.Error("http server stopped", "error", err)
		os.Exit(1)
	case <-ctx.Done():
		logger.Info("shutting down")
	}
}

func buildLLMClient(cfg *config.Config) (llm.Client, error) {
	switch cfg.Provider {
	case "claude":
		c := claude.DefaultConfig(cfg.APIKey)
		applyModelOverrides(cfg, &c.Model, &c.Temperature, &c.MaxTokens)
		return claude.New(c), nil
	case "groq":
		c := groq.DefaultConfig(cfg.APIKey)
		applyModelOverrides(cfg, &c.Model, &c.Temperature, &c.MaxTokens)
		return groq.New(c), nil
	case "gemini":
		c := gemini.DefaultConfig(cfg.APIKey)
		applyModelOverrides(cfg, &c.Model, &c.Temperature, &c.MaxTokens)
		return gemini.New(c), nil
	default:
		c := openaillm.DefaultConfig()
		c.APIKey = cfg.APIKey
		applyModelOverrides(cfg, &c.Model, &c.Temperature, &c.MaxTokens)
		return openaillm.New(c), nil
	}
}

func applyModelOverrides(cfg *config.Config, model *string, temperature *float64, maxTokens *int64) {
	if cfg.Model != "" {
		*model = cfg.Model
	}
	if cfg.Temperature > 0 {
		*temperature = cfg.Temperature
	}
	if cfg.MaxTokens > 0 {
		*maxTokens = cfg.MaxTokens
	}
}

func buildChunker(cfg *config.Config) (chunking.Chunker, error) {
	if cfg.Chunker == "token" {
		return tokenchunking.New(cfg.EmbeddingModel)
	}
	return chunking.NewSimpleChunker(), nil
}

func buildVectorStore(cfg *config.Config) (vector.Store, error) {
	if cfg.VectorBackend == "pg" {
		return vectorpg.New(&vectorpg.Config{
			Host:      cfg.PGHost,
			Port:      cfg.PGPort,
			User:      cfg.PGUser,
			Password:  cfg.PGPassword,
			DBName:    cfg.PGDatabase,
			SSLMode:   "disable",
			Dimension: cfg.EmbeddingDimension,
			TableName: "evidence_chunks",
		})
	}
	return vectorinmem.New(), nil
}

func buildSessionStore(cfg *config.Config) (session.Store, error) {
	switch cfg.SessionBackend {
	case "redis":
		rc := sessionredis.DefaultConfig()
		rc.Addr = cfg.RedisAddr
		rc.Password = cfg.RedisPassword
		rc.DB = cfg.RedisDB
		return sessionredis.New(rc), nil
	case "mongo":
		mc := sessionmongo.DefaultConfig()
		mc.URI = cfg.MongoURI
		return sessionmongo.New(mc)
	default:
		return sessioninmem.New(), nil
	}
}
