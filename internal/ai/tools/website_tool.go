package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/sashabaranov/go-openai/jsonschema"
	"llmchat/internal/logger"
)

const (
	WebsiteToolName = "fetch_webpage"

	defaultMaxCharCount = 20000
	maxMaxCharCount     = 100000
)

// WebsiteArgs represents the arguments for the fetch_webpage tool
type WebsiteArgs struct {
	URL          string `json:"url"`
	MaxCharCount int    `json:"maxCharCount,omitempty"`
}

type WebsiteResult struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
}

// WebsiteTool provides content from websites
type WebsiteTool struct {
	BaseTool
	client *http.Client
}

// NewWebsiteTool creates a new website content fetching tool
func NewWebsiteTool(client *http.Client) *WebsiteTool {
	if client == nil {
		client = CreateHTTPClient(0)
	}

	params := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"url": {
				Type:        jsonschema.String,
				Description: "URL of the website to fetch content from",
			},
			"maxCharCount": {
				Type:        jsonschema.Integer,
				Description: "Maximum number of characters to return from the website (default: 20000)",
			},
		},
		Required: []string{"url"},
	}

	return &WebsiteTool{
		BaseTool: BaseTool{
			ToolName:        WebsiteToolName,
			ToolDescription: "Fetch a web page and return its title and readable text content",
			ToolParameters:  params,
		},
		client: client,
	}
}

// Execute processes the tool call with the provided arguments
func (t *WebsiteTool) Execute(ctx context.Context, args Arguments) (any, error) {
	var params WebsiteArgs
	if err := BindArguments(args, &params); err != nil {
		return nil, err
	}

	target := strings.TrimSpace(params.URL)
	if target == "" {
		return nil, fmt.Errorf("url is required")
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "https://" + target
	}

	maxCharCount := params.MaxCharCount
	if maxCharCount <= 0 {
		maxCharCount = defaultMaxCharCount
	} else if maxCharCount > maxMaxCharCount {
		maxCharCount = maxMaxCharCount
	}

	logger.Infof("Fetching content from URL: %s", target)

	body, header, err := FetchURL(ctx, t.client, target,
		"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, err
	}

	contentType := header.Get("Content-Type")
	logger.Debugf("Content-Type: %s", contentType)

	result := WebsiteResult{URL: target}

	switch {
	case strings.Contains(contentType, "text/html"), strings.Contains(contentType, "application/xhtml"):
		title, text, err := extractHTML(body)
		if err != nil {
			return nil, err
		}
		result.Title = title
		result.Content = text
	case strings.Contains(contentType, "application/json"):
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, body, "", "  "); err == nil {
			result.Content = pretty.String()
		} else {
			result.Content = string(body)
		}
	case strings.Contains(contentType, "text/"):
		result.Content = CleanString(string(body))
	default:
		result.Content = fmt.Sprintf("[Content type: %s]", contentType)
	}

	if utf8.RuneCountInString(result.Content) > maxCharCount {
		result.Content = TruncateString(result.Content, maxCharCount)
		result.Truncated = true
	}

	return result, nil
}

// extractHTML returns the page title and its visible text.
func extractHTML(body []byte) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, noscript, iframe, svg, nav, header, footer").Remove()

	root := doc.Find("main, article").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var blocks []string
	root.Find("h1, h2, h3, h4, h5, h6, p, li, pre, td").Each(func(i int, s *goquery.Selection) {
		// Nested blocks are collected through their own match
		if s.Find("p, li, pre").Length() > 0 {
			return
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})

	text := strings.Join(blocks, "\n\n")
	if text == "" {
		text = root.Text()
	}

	return title, CleanString(text), nil
}
