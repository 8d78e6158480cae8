// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds every runtime knob for the answering service.
type Config struct {
	// Server
	ListenAddr string

	// LLM
	Provider    string // openai | claude | groq | gemini
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int64

	// Embeddings
	EmbeddingAPIKey    string
	EmbeddingModel     string
	EmbeddingDimension int

	// Retrieval
	Chunker       string // simple | token
	TopK          int
	WebMaxResults int

	// Web search
	TavilyAPIKey string

	// Session backend: memory | redis | mongo
	SessionBackend string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	MongoURI       string

	// Vector backend: memory | pg
	VectorBackend string
	PGHost        string
	PGPort        int
	PGUser        string
	PGPassword    string
	PGDatabase    string

	// Telemetry
	DisableTelemetry bool
	Environment      string
}

// Load reads configuration from the environment, applying defaults for
// everything optional.
func Load() *Config {
	return &Config{
		ListenAddr: envString("ANSWERFORGE_LISTEN_ADDR", ":8080"),

		Provider:    strings.ToLower(envString("ANSWERFORGE_LLM_PROVIDER", "openai")),
		APIKey:      os.Getenv("ANSWERFORGE_LLM_API_KEY"),
		Model:       os.Getenv("ANSWERFORGE_LLM_MODEL"),
		Temperature: envFloat("ANSWERFORGE_LLM_TEMPERATURE", 0.7),
		MaxTokens:   int64(envInt("ANSWERFORGE_LLM_MAX_TOKENS", 2000)),

		EmbeddingAPIKey:    envString("ANSWERFORGE_EMBEDDING_API_KEY", os.Getenv("ANSWERFORGE_LLM_API_KEY")),
		EmbeddingModel:     envString("ANSWERFORGE_EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimension: envInt("ANSWERFORGE_EMBEDDING_DIMENSION", 1536),

		Chunker:       strings.ToLower(envString("ANSWERFORGE_CHUNKER", "simple")),
		TopK:          envInt("ANSWERFORGE_TOP_K", 3),
		WebMaxResults: envInt("ANSWERFORGE_WEB_MAX_RESULTS", 3),

		TavilyAPIKey: os.Getenv("TAVILY_API_KEY"),

		SessionBackend: strings.ToLower(envString("ANSWERFORGE_SESSION_BACKEND", "memory")),
		RedisAddr:      envString("ANSWERFORGE_REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("ANSWERFORGE_REDIS_PASSWORD"),
		RedisDB:        envInt("ANSWERFORGE_REDIS_DB", 0),
		MongoURI:       envString("ANSWERFORGE_MONGO_URI", "mongodb://localhost:27017"),

		VectorBackend: strings.ToLower(envString("ANSWERFORGE_VECTOR_BACKEND", "memory")),
		PGHost:        envString("ANSWERFORGE_PG_HOST", "127.0.0.1"),
		PGPort:        envInt("ANSWERFORGE_PG_PORT", 5432),
		PGUser:        envString("ANSWERFORGE_PG_USER", "postgres"),
		PGPassword:    os.Getenv("ANSWERFORGE_PG_PASSWORD"),
		PGDatabase:    envString("ANSWERFORGE_PG_DATABASE", "answerforge"),

		DisableTelemetry: envBool("ANSWERFORGE_DISABLE_TELEMETRY", false),
		Environment:      envString("ANSWERFORGE_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for contradictions before startup.
func (c *Config) Validate() error {
	v := NewValidator()
	v.ValidateOneOf("provider", c.Provider, "openai", "claude", "groq", "gemini")
	v.ValidateOneOf("session_backend", c.SessionBackend, "memory", "redis", "mongo")
	v.ValidateOneOf("vector_backend", c.VectorBackend, "memory", "pg")
	v.ValidateOneOf("chunker", c.Chunker, "simple", "token")
	v.RequireNonEmpty("api_key", c.APIKey)
	v.RequirePositive("top_k", c.TopK)
	v.RequirePositive("web_max_results", c.WebMaxResults)
	if c.SessionBackend == "redis" {
		v.RequireNonEmpty("redis_addr", c.RedisAddr)
		v.ValidateRange("redis_db", c.RedisDB, 0, 15)
	}
	if c.SessionBackend == "mongo" {
		v.RequireNonEmpty("mongo_uri", c.MongoURI)
	}
	if c.VectorBackend == "pg" {
		v.RequireNonEmpty("pg_host", c.PGHost)
		v.ValidateRange("pg_port", c.PGPort, 1, 65535)
		v.RequireNonEmpty("pg_user", c.PGUser)
		v.RequireNonEmpty("pg_database", c.PGDatabase)
	}
	return v.Error()
}

func envString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}
