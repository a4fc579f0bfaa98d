// Package searchclient wraps the Google Custom Search JSON API, the
// external collaborator backing the optional web-search tool.
package searchclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sandboxkernel/kernel/internal/httpx"
)

type Client struct {
	apiKey         string
	searchEngineID string
	http           *httpx.Client
}

func New(apiKey, searchEngineID string) *Client {
	return &Client{
		apiKey:         apiKey,
		searchEngineID: searchEngineID,
		http: httpx.New(
			httpx.WithHTTPClient(&http.Client{Timeout: 20 * time.Second}),
			httpx.WithMaxRetries(2),
			httpx.WithBaseDelay(500*time.Millisecond),
		),
	}
}

// SearchResult is one organic result entry.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// dateRestrictFor maps the tool's date_range enum onto Custom Search's
// dateRestrict parameter. past_hour has no native equivalent in the
// Custom Search API, which only restricts by whole days/weeks/months/
// years; it is approximated as "the past day" rather than dropped.
func dateRestrictFor(dateRange string) string {
	switch dateRange {
	case "past_hour", "past_day":
		return "d1"
	case "past_week":
		return "w1"
	case "past_month":
		return "m1"
	case "past_year":
		return "y1"
	default:
		return ""
	}
}

// Search issues a query and returns the organic results.
func (c *Client) Search(ctx context.Context, query, dateRange string) ([]SearchResult, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("cx", c.searchEngineID)
	q.Set("q", query)
	if dr := dateRestrictFor(dateRange); dr != "" {
		q.Set("dateRestrict", dr)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://www.googleapis.com/customsearch/v1?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("searchclient: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searchclient: request: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Items []SearchResult `json:"items"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("searchclient: decode response: %w", err)
	}
	if body.Error != nil {
		return nil, fmt.Errorf("searchclient: api error: %s", body.Error.Message)
	}
	return body.Items, nil
}

// FormatResults renders results the way the search tool returns them to
// the LLM: a numbered list of title/link/snippet blocks.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, r.Title, r.Link, r.Snippet)
	}
	return strings.TrimRight(b.String(), "\n")
}
