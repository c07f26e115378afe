package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type openMeteoStub struct {
	mu        sync.Mutex
	forecasts []url.Values
	geocode   string
	forecast  string
	status    int
}

func (s *openMeteoStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(s.geocode))
	})
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.forecasts = append(s.forecasts, r.URL.Query())
		s.mu.Unlock()
		if s.status != 0 {
			w.WriteHeader(s.status)
			_, _ = w.Write([]byte(`{"error":true,"reason":"bad"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(s.forecast))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

const londonGeocode = `{"results":[{"name":"London","latitude":51.50853,"longitude":-0.12574,"timezone":"Europe/London"}]}`

func newTestWeatherTool(srv *httptest.Server) *WeatherTool {
	return NewWeatherTool(srv.URL+"/v1/search", srv.URL+"/v1/forecast", srv.Client())
}

func TestWeatherToolCelsius(t *testing.T) {
	stub := &openMeteoStub{
		geocode:  londonGeocode,
		forecast: `{"current":{"time":"2026-10-19T12:00","temperature_2m":15.2}}`,
	}
	tool := newTestWeatherTool(stub.server(t))

	result, err := tool.Execute(context.Background(), Arguments{"location": "London", "units": "celsius"})
	require.NoError(t, err)
	assert.Equal(t, WeatherResult{Temperature: 15.2}, result)

	require.Len(t, stub.forecasts, 1)
	query := stub.forecasts[0]
	assert.Equal(t, "51.50853", query.Get("latitude"))
	assert.Equal(t, "-0.12574", query.Get("longitude"))
	assert.Equal(t, "Europe/London", query.Get("timezone"))
	assert.Equal(t, "temperature_2m", query.Get("current"))
	assert.Equal(t, "temperature_2m", query.Get("hourly"))
	assert.Equal(t, "1", query.Get("forecast_days"))
	assert.Empty(t, query.Get("temperature_unit"))
}

func TestWeatherToolFahrenheit(t *testing.T) {
	stub := &openMeteoStub{
		geocode:  londonGeocode,
		forecast: `{"current":{"temperature_2m":59.4}}`,
	}
	tool := newTestWeatherTool(stub.server(t))

	result, err := tool.Execute(context.Background(), Arguments{"location": "London", "units": "fahrenheit"})
	require.NoError(t, err)
	assert.Equal(t, WeatherResult{Temperature: 59.4}, result)
	require.Len(t, stub.forecasts, 1)
	assert.Equal(t, "fahrenheit", stub.forecasts[0].Get("temperature_unit"))
}

func TestWeatherToolFailures(t *testing.T) {
	tests := []struct {
		name string
		stub *openMeteoStub
	}{
		{"unknown place", &openMeteoStub{geocode: `{"generationtime_ms":0.5}`}},
		{"upstream error status", &openMeteoStub{geocode: londonGeocode, status: http.StatusBadRequest}},
		{"missing current block", &openMeteoStub{geocode: londonGeocode, forecast: `{"hourly":{}}`}},
		{"invalid json", &openMeteoStub{geocode: londonGeocode, forecast: `{"current":`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := newTestWeatherTool(tt.stub.server(t))
			_, err := tool.Execute(context.Background(), Arguments{"location": "Atlantis", "units": "celsius"})
			assert.Error(t, err)
		})
	}
}

func TestWeatherToolSchemaRejectsKelvin(t *testing.T) {
	stub := &openMeteoStub{geocode: londonGeocode, forecast: `{"current":{"temperature_2m":1}}`}
	registry := NewToolRegistry()
	require.NoError(t, registry.RegisterTool(newTestWeatherTool(stub.server(t))))

	_, err := registry.ExecuteTool(context.Background(), WeatherToolName, `{"location":"London","units":"kelvin"}`)
	assert.ErrorIs(t, err, ErrSchemaValidation)
	assert.Empty(t, stub.forecasts)
}

func TestWeatherToolDescriptorIsStrict(t *testing.T) {
	descriptor := NewWeatherTool("", "", nil).ToOpenAITool()
	require.NotNil(t, descriptor.Function)
	assert.Equal(t, WeatherToolName, descriptor.Function.Name)
	assert.True(t, descriptor.Function.Strict)
}
