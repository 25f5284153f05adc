package tools

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// SearchHit is one web search result.
type SearchHit struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// SearchResult is what google_search reports back to the model.
type SearchResult struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
}

// Searcher is the web search capability behind google_search.
type Searcher interface {
	Search(ctx context.Context, query string) (*SearchResult, error)
}

// SearchTool exposes a Searcher as the google_search tool.
type SearchTool struct {
	Searcher Searcher
}

// Name returns the tool name.
func (t SearchTool) Name() string {
	return "google_search"
}

// Description returns the tool description for the model.
func (t SearchTool) Description() string {
	return "Search Google and return snippet results"
}

// Schema returns the JSON schema for google_search args.
func (t SearchTool) Schema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"query": {
				Type:        jsonschema.String,
				Description: "The search query",
			},
		},
		Required: []string{"query"},
	}
}

// Execute runs the search and returns the results as JSON.
func (t SearchTool) Execute(ctx context.Context, args map[string]any) (*ToolResult, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return nil, err
	}
	if t.Searcher == nil {
		return nil, errors.New("search backend is not configured")
	}
	result, err := t.Searcher.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	out, err := Stringify(result)
	if err != nil {
		return nil, err
	}
	return &ToolResult{Output: out}, nil
}

// StaticSearcher returns canned results for any query. It needs no credentials.
type StaticSearcher struct{}

// Search returns two placeholder hits mentioning query.
func (StaticSearcher) Search(_ context.Context, query string) (*SearchResult, error) {
	return &SearchResult{
		Query: query,
		Results: []SearchHit{
			{
				Title:   "Sample Result 1",
				Snippet: "This is a mock search result for: " + query,
				URL:     "https://example.com/1",
			},
			{
				Title:   "Sample Result 2",
				Snippet: "Another mock result showing information about: " + query,
				URL:     "https://example.com/2",
			},
		},
	}, nil
}
