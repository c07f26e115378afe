package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
	"llmchat/internal/logger"
)

const (
	SearchToolName       = "search_web"
	DefaultSearchURL     = "https://www.googleapis.com/customsearch/v1"
	defaultSearchResults = 3
	maxSearchResults     = 5
)

var ErrSearchNotConfigured = errors.New("web search is not configured")

// SearchArgs represents the arguments for the search_web tool
type SearchArgs struct {
	Query       string `json:"query"`
	ResultCount int    `json:"result_count,omitempty"`
}

type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

type SearchResult struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
}

// customSearchResponse is the subset of the Google Custom Search response we read
type customSearchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// SearchTool queries the Google Custom Search JSON API.
type SearchTool struct {
	BaseTool
	endpoint string
	apiKey   string
	engineID string
	client   *http.Client
}

func NewSearchTool(endpoint, apiKey, engineID string, client *http.Client) *SearchTool {
	if client == nil {
		client = CreateHTTPClient(0)
	}
	if endpoint == "" {
		endpoint = DefaultSearchURL
	}

	return &SearchTool{
		BaseTool: BaseTool{
			ToolName:        SearchToolName,
			ToolDescription: "Search the web and return the top results with their titles, links and snippets",
			ToolParameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"query": {
						Type:        jsonschema.String,
						Description: "The search query to look up on the web",
					},
					"result_count": {
						Type:        jsonschema.Integer,
						Description: fmt.Sprintf("Number of results to return (default: %d, max: %d)", defaultSearchResults, maxSearchResults),
					},
				},
				Required: []string{"query"},
			},
		},
		endpoint: endpoint,
		apiKey:   apiKey,
		engineID: engineID,
		client:   client,
	}
}

func (t *SearchTool) Execute(ctx context.Context, args Arguments) (any, error) {
	var searchArgs SearchArgs
	if err := BindArguments(args, &searchArgs); err != nil {
		return nil, err
	}

	query := strings.TrimSpace(searchArgs.Query)
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if t.apiKey == "" || t.engineID == "" {
		return nil, ErrSearchNotConfigured
	}

	count := searchArgs.ResultCount
	if count <= 0 {
		count = defaultSearchResults
	}
	count = min(count, maxSearchResults)

	params := url.Values{}
	params.Set("key", t.apiKey)
	params.Set("cx", t.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(count))

	logger.AIDebugf("[SearchWeb] query=%q results=%d", query, count)

	var resp customSearchResponse
	if err := FetchJSON(ctx, t.client, t.endpoint+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}

	result := SearchResult{Query: query, Results: []SearchHit{}}
	for _, item := range resp.Items {
		if len(result.Results) == count {
			break
		}
		result.Results = append(result.Results, SearchHit{
			Title:   CleanString(item.Title),
			URL:     item.Link,
			Snippet: CleanString(item.Snippet),
		})
	}

	logger.AIDebugf("[SearchWeb] found %d results for %q", len(result.Results), query)
	return result, nil
}
