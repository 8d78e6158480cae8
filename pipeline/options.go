package pipeline

import "strings"

// Config controls behaviour of the answering pipeline. It groups prompt knobs
// and retrieval parameters so callers can construct reproducible engines from
// a single struct.
type Config struct {
	Name           string // Logical name for tracing/logging
	TopK           int    // How many chunks to pull from the document index
	WebMaxResults  int    // How many web results the fallback may return
	GraphMaxVisits int    // Safety guard for graph execution

	RouterPrompt string // System prompt for the routing classifier
	JudgePrompt  string // System prompt for the sufficiency judge
	AnswerPrompt string // System prompt for answer generation

	HistoryLimit int // How many prior turns flow into prompts (0 disables history)
}

// Option customises the pipeline configuration.
type Option func(*Config)

// WithName sets the logical pipeline name used in logs and spans.
func WithName(name string) Option {
	return func(cfg *Config) {
		if strings.TrimSpace(name) != "" {
			cfg.Name = name
		}
	}
}

// WithTopK overrides how many chunks retrieval returns per query.
func WithTopK(k int) Option {
	return func(cfg *Config) {
		if k > 0 {
			cfg.TopK = k
		}
	}
}

// WithWebMaxResults caps how many web hits the fallback may return.
func WithWebMaxResults(max int) Option {
	return func(cfg *Config) {
		if max > 0 {
			cfg.WebMaxResults = max
		}
	}
}

// WithRouterPrompt sets the system prompt used by the routing classifier.
func WithRouterPrompt(prompt string) Option {
	return func(cfg *Config) {
		if prompt != "" {
			cfg.RouterPrompt = prompt
		}
	}
}

// WithJudgePrompt sets the sufficiency judge system prompt.
func WithJudgePrompt(prompt string) Option {
	return func(cfg *Config) {
		if prompt != "" {
			cfg.JudgePrompt = prompt
		}
	}
}

// WithAnswerPrompt sets the answer generation system prompt.
func WithAnswerPrompt(prompt string) Option {
	return func(cfg *Config) {
		if prompt != "" {
			cfg.AnswerPrompt = prompt
		}
	}
}

// WithHistoryLimit bounds how many prior turns are included in prompts.
func WithHistoryLimit(limit int) Option {
	return func(cfg *Config) {
		if limit >= 0 {
			cfg.HistoryLimit = limit
		}
	}
}

// WithGraphMaxVisits tweaks the safety guard for graph traversal.
func WithGraphMaxVisits(max int) Option {
	return func(cfg *Config) {
		if max > 0 {
			cfg.GraphMaxVisits = max
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		Name:           "answerforge",
		TopK:           3,
		WebMaxResults:  3,
		GraphMaxVisits: 20,
		HistoryLimit:   10,
		RouterPrompt: `You are the routing classifier for a question answering system with access to a private document index and live web search.
Classify the user's query into exactly one route and return strict JSON only: {"route":"rag|web|answer","rationale":"..."}.
Routing rules:
- "rag": the query asks about material likely present in the indexed documents (project docs, uploaded files, internal knowledge).
- "web": the query needs fresh or external information (current events, prices, recent releases, anything after the model's knowledge cutoff).
- "answer": the query is general knowledge, chit-chat, or reasoning the model can handle without any lookup.
- "rationale" is one short sentence. Output nothing but the JSON object.`,
		JudgePrompt: `You are the evidence sufficiency judge for a question answering system.
Given a user query and the passages retrieved from the document index, decide whether the passages contain enough information to answer the query accurately.
Return strict JSON only: {"sufficient":true|false,"rationale":"..."}.
Rules:
- "sufficient" is true only when the passages directly support a complete answer; partial or tangential matches are insufficient.
- An empty set of passages is always insufficient.
- "rationale" is one short sentence. Output nothing but the JSON object.`,
		AnswerPrompt: `You are a helpful assistant answering user questions.
When evidence passages are supplied, ground your answer in them and mention their sources where relevant. Document passages are listed before web results; prefer them when both cover the same fact.
When no evidence is supplied, answer from your own knowledge.
If neither the evidence nor your knowledge can answer the question, say so plainly instead of guessing.
Keep the answer concise and in the user's language.`,
	}
}

func applyOptions(cfg *Config, opts []Option) *Config {
	if cfg == nil {
		cfg = defaultConfig()
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}
