package claude

// Role string constants used when building Claude Messages
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	DefaultAPIVersion = "2023-06-01"
	DefaultBaseURL    = "https://api.anthropic.com/v1"
	// MaxTokens is sent with every request, independent of generation settings.
	MaxTokens = 8192
)
