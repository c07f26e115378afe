package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sashabaranov/go-openai/jsonschema"
	"llmchat/internal/logger"
)

const (
	WeatherToolName = "get_weather"

	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
)

type WeatherArgs struct {
	Location string `json:"location"`
	Units    string `json:"units"`
}

// WeatherResult is what the model receives as the tool message content.
type WeatherResult struct {
	Temperature float64 `json:"temperature"`
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Timezone  string  `json:"timezone"`
	} `json:"results"`
}

type forecastResponse struct {
	Current *struct {
		Temperature *float64 `json:"temperature_2m"`
	} `json:"current"`
}

// WeatherTool reports the current temperature for a place name using open-meteo.
type WeatherTool struct {
	BaseTool
	geocodingURL string
	forecastURL  string
	client       *http.Client
}

func NewWeatherTool(geocodingURL, forecastURL string, client *http.Client) *WeatherTool {
	if geocodingURL == "" {
		geocodingURL = DefaultGeocodingURL
	}
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}
	if client == nil {
		client = CreateHTTPClient(0)
	}

	params := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"location": {
				Type:        jsonschema.String,
				Description: "City or place name, e.g. London",
			},
			"units": {
				Type:        jsonschema.String,
				Description: "Temperature units",
				Enum:        []string{"celsius", "fahrenheit"},
			},
		},
		Required:             []string{"location", "units"},
		AdditionalProperties: false,
	}

	return &WeatherTool{
		BaseTool: BaseTool{
			ToolName:        WeatherToolName,
			ToolDescription: "Get the current temperature for a location",
			ToolParameters:  params,
			ToolStrict:      true,
		},
		geocodingURL: geocodingURL,
		forecastURL:  forecastURL,
		client:       client,
	}
}

func (t *WeatherTool) Execute(ctx context.Context, args Arguments) (any, error) {
	var params WeatherArgs
	if err := BindArguments(args, &params); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("name", params.Location)
	query.Set("count", "1")

	var geo geocodingResponse
	if err := FetchJSON(ctx, t.client, t.geocodingURL+"?"+query.Encode(), &geo); err != nil {
		return nil, fmt.Errorf("geocoding failed: %w", err)
	}
	if len(geo.Results) == 0 {
		return nil, fmt.Errorf("no location found for %q", params.Location)
	}
	place := geo.Results[0]
	logger.AIDebugf("Resolved %q to %s (%.4f, %.4f)", params.Location, place.Name, place.Latitude, place.Longitude)

	timezone := place.Timezone
	if timezone == "" {
		timezone = "auto"
	}

	query = url.Values{}
	query.Set("latitude", strconv.FormatFloat(place.Latitude, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(place.Longitude, 'f', -1, 64))
	query.Set("timezone", timezone)
	query.Set("hourly", "temperature_2m")
	query.Set("current", "temperature_2m")
	query.Set("forecast_days", "1")
	if params.Units == "fahrenheit" {
		query.Set("temperature_unit", "fahrenheit")
	}

	var forecast forecastResponse
	if err := FetchJSON(ctx, t.client, t.forecastURL+"?"+query.Encode(), &forecast); err != nil {
		return nil, fmt.Errorf("forecast failed: %w", err)
	}
	if forecast.Current == nil || forecast.Current.Temperature == nil {
		return nil, fmt.Errorf("forecast for %s has no current temperature", place.Name)
	}

	return WeatherResult{Temperature: *forecast.Current.Temperature}, nil
}
