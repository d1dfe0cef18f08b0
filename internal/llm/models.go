package llm

// Roles of prompt messages
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one role-tagged prompt message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-neutral completion request
type Request struct {
	Model       string
	Messages    []Message
	Temperature float32
	// MaxTokens of zero leaves the budget to the provider
	MaxTokens int32
}

// chatCompletionRequest is the OpenAI-compatible request body
type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature"`
	MaxTokens   int32     `json:"max_tokens,omitempty"`
}

// chatCompletionResponse is the subset of the OpenAI-compatible response we read
type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
