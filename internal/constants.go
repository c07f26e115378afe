package internal

const (
	APP_NAME    = "llmchat"
	APP_VERSION = "1.0.0"

	DEFAULT_CONFIG_PATH = "./data/config.toml"
	DEFAULT_ENV_PATH    = ".env"

	ENV_CONFIG_PATH = "LLMCHAT_CONFIG"
	ENV_PREFIX      = "LLMCHAT_"

	// Key variables checked after the provider's own variable
	ENV_FALLBACK_API_KEY = "LLM_API_KEY"

	USER_PROMPT  = "User: "
	EXIT_COMMAND = "exit"
)
