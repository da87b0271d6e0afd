package config

const (
	// DefaultDatabasePath is the default path for the SQLite database
	DefaultDatabasePath = "./bookshare.db"

	// DefaultOpenRouterURL is the chat completions endpoint used by the chat relay
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1/chat/completions"

	// DefaultChatModel is the model requested from OpenRouter
	DefaultChatModel = "openai/gpt-3.5-turbo"
)
