package tools

import (
	"fmt"
	"net/http"
	"time"

	"llmchat/internal/logger"
)

// DefaultOptions configures the built-in tools.
type DefaultOptions struct {
	GeocodingURL string
	ForecastURL  string

	SearchURL      string
	SearchAPIKey   string
	SearchEngineID string

	HTTPTimeout time.Duration
}

// BuiltinToolNames lists the tools NewDefaultRegistry knows how to build.
var BuiltinToolNames = []string{WeatherToolName, WebsiteToolName, SearchToolName}

// NewDefaultRegistry builds a registry holding the enabled built-in tools.
// Unknown names are an error so that typos in configuration are not silently ignored.
func NewDefaultRegistry(enabled []string, opts DefaultOptions) (*ToolRegistry, error) {
	registry := NewToolRegistry()
	client := CreateHTTPClient(opts.HTTPTimeout)

	for _, name := range enabled {
		tool, err := newBuiltinTool(name, client, opts)
		if err != nil {
			return nil, err
		}
		if err := registry.RegisterTool(tool); err != nil {
			return nil, err
		}
	}

	logger.Debugf("Initialized tool registry with %d tools", registry.Len())
	return registry, nil
}

func newBuiltinTool(name string, client *http.Client, opts DefaultOptions) (Tool, error) {
	switch name {
	case WeatherToolName:
		return NewWeatherTool(opts.GeocodingURL, opts.ForecastURL, client), nil
	case WebsiteToolName:
		return NewWebsiteTool(client), nil
	case SearchToolName:
		if opts.SearchAPIKey == "" || opts.SearchEngineID == "" {
			logger.Warnf("%s is enabled but no search API key or engine ID is set", SearchToolName)
		}
		return NewSearchTool(opts.SearchURL, opts.SearchAPIKey, opts.SearchEngineID, client), nil
	default:
		return nil, fmt.Errorf("unknown tool %q (available: %v)", name, BuiltinToolNames)
	}
}
