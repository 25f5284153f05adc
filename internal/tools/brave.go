package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const braveSearchEndpoint = "https://api.search.brave.com/res/v1/web/search"
const defaultUserAgent = "toolloop"

// BraveSearcher queries the Brave web search API.
type BraveSearcher struct {
	Client   *http.Client
	APIKey   string
	Endpoint string
}

// Search performs one Brave web search.
func (s BraveSearcher) Search(ctx context.Context, query string) (*SearchResult, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, errors.New("tools.search.api_key is required for brave")
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = braveSearchEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	q := req.URL.Query()
	q.Set("q", query)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", s.APIKey)
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search request failed: %s", resp.Status)
	}

	var payload struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := &SearchResult{Query: query, Results: make([]SearchHit, 0, len(payload.Web.Results))}
	for _, r := range payload.Web.Results {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = "(untitled)"
		}
		out.Results = append(out.Results, SearchHit{
			Title:   title,
			Snippet: strings.TrimSpace(r.Description),
			URL:     strings.TrimSpace(r.URL),
		})
	}
	return out, nil
}
