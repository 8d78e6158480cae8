// Package websearch defines the outbound port for live web lookups used as a
// fallback when the document index cannot answer a query.
package websearch

import "context"

// Result is a single web search hit. Rank starts at 1 for the best hit.
type Result struct {
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
	Rank    int    `json:"rank"`
}

// Searcher performs a web search and returns ranked results.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}
