// Package tavily implements websearch.Searcher on the Tavily search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/answerforge/answerforge/websearch"
)

const defaultBaseURL = "https://api.tavily.com"

// Config holds Tavily client configuration
type Config struct {
	APIKey      string
	BaseURL     string
	SearchDepth string // "basic" or "advanced"
	HTTPClient  *http.Client
}

// DefaultConfig returns default Tavily configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		BaseURL:     defaultBaseURL,
		SearchDepth: "basic",
	}
}

// Client calls the Tavily /search endpoint.
type Client struct {
	config *Config
	client *http.Client
}

// New creates a Tavily client
func New(config *Config) *Client {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.SearchDepth == "" {
		config.SearchDepth = "basic"
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{config: config, client: httpClient}
}

type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search implements websearch.Searcher
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
	if maxResults <= 0 {
		maxResults = 3
	}

	payload, err := json.Marshal(searchRequest{
		APIKey:      c.config.APIKey,
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: c.config.SearchDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Tavily API error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Tavily API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	results := make([]websearch.Result, 0, len(parsed.Results))
	for i, hit := range parsed.Results {
		if i >= maxResults {
			break
		}
		results = append(results, websearch.Result{
			Snippet: hit.Content,
			URL:     hit.URL,
			Rank:    i + 1,
		})
	}
	return results, nil
}
