package initialization

import (
	"net/http"

	"llmchat/internal"
	"llmchat/internal/ai"
	"llmchat/internal/ai/tools"
	"llmchat/internal/config"
	"llmchat/internal/logger"
)

type Options struct {
	ConfigPath string
	// ConfigExplicit makes a missing config file an error.
	ConfigExplicit bool
	// Override is applied after the file is loaded and before validation.
	Override func(cfg *config.Config)
	// SkipAPIKey allows commands that never call the model to run without a key.
	SkipAPIKey bool
}

// App holds everything a command needs to talk to the model.
type App struct {
	Config    *config.Config
	Registry  *tools.ToolRegistry
	Transport ai.Transport
	Headers   map[string]string
}

func Initialize(opts Options) (*App, error) {
	if err := config.LoadEnv(internal.DEFAULT_ENV_PATH); err != nil {
		return nil, err
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.GetConfigPath()
	}

	cfg, err := config.LoadConfigOrDefault(configPath, opts.ConfigExplicit)
	if err != nil {
		return nil, err
	}
	if opts.Override != nil {
		opts.Override(cfg)
	}
	cfg.ApplyProviderDefaults()

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	if err := logger.Init(cfg.LogDir, cfg.Debug); err != nil {
		return nil, err
	}
	logger.SetTranscriptDir(cfg.TranscriptDir)

	app := &App{
		Config:    cfg,
		Transport: ai.NewHTTPTransport(&http.Client{}),
		Headers:   map[string]string{},
	}

	if !opts.SkipAPIKey {
		key, source, err := config.ResolveAPIKey(cfg)
		if err != nil {
			return nil, err
		}
		logger.Debugf("Using API key from %s", source)
		app.Headers = ai.BearerHeaders(key)
	}

	searchKey, _ := config.GetEnvToken(cfg.Search.APIKeyEnv)
	searchEngine, _ := config.GetEnvToken(cfg.Search.EngineIDEnv)

	app.Registry, err = tools.NewDefaultRegistry(cfg.Tools, tools.DefaultOptions{
		GeocodingURL:   cfg.Weather.GeocodingURL,
		ForecastURL:    cfg.Weather.ForecastURL,
		SearchURL:      cfg.Search.URL,
		SearchAPIKey:   searchKey,
		SearchEngineID: searchEngine,
		HTTPTimeout:    cfg.ToolTimeout(),
	})
	if err != nil {
		return nil, err
	}

	logger.Debugf("Using %s model %s at %s", cfg.Provider, cfg.Model, cfg.BaseURL)
	return app, nil
}

// NewSession starts a conversation configured from the loaded config.
func (a *App) NewSession(hooks ai.Hooks) *ai.Session {
	cfg := a.Config
	return ai.NewSession(a.Transport, a.Registry, ai.Options{
		Endpoint:            cfg.BaseURL,
		Headers:             a.Headers,
		Model:               cfg.Model,
		ToolChoice:          cfg.ToolChoice,
		MaxRounds:           cfg.MaxRounds,
		RequestTimeout:      cfg.RequestTimeout(),
		ToolTimeout:         cfg.ToolTimeout(),
		ToolErrorsAsResults: cfg.ToolErrorsAsResults,
		HistoryWarn:         cfg.HistoryWarn,
		Hooks:               hooks,
	})
}

// Close flushes and closes every log file.
func (a *App) Close() {
	logger.CloseAllTranscripts()
	logger.CloseLogFile()
}
