package providers

import (
	"context"
	"errors"
	"time"
)

// Provider is an answer-generation backend. Implementations must be safe
// for concurrent use.
type Provider interface {
	// Name returns the provider name (e.g., "openai")
	Name() string

	// ChatCompletion sends role-tagged messages and returns the generated output
	ChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// IsAvailable checks if the provider is currently reachable
	IsAvailable(ctx context.Context) bool

	// ValidateModel checks if a model is supported by this provider
	ValidateModel(model string) error

	// ListModels returns all models this provider accepts
	ListModels() []string
}

// Message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatRequest represents a unified generation request
type ChatRequest struct {
	// Model identifier (e.g., "gpt-4o-mini")
	Model string `json:"model"`

	// Messages in the conversation, in order
	Messages []Message `json:"messages"`

	// ConversationID continues an earlier exchange. Providers treat it as an
	// opaque handle they issued themselves; empty starts a new exchange.
	ConversationID string `json:"conversation_id,omitempty"`

	// MaxTokens limits the response length
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature float64 `json:"temperature,omitempty"`

	// User identifier for abuse monitoring
	User string `json:"user,omitempty"`
}

// Message represents a single message in a conversation
type Message struct {
	// Role can be "system", "user", or "assistant"
	Role string `json:"role"`

	// Content is the message text
	Content string `json:"content"`
}

// ChatResponse carries the provider output in both the shapes a generation
// service may use: a flattened OutputText, and nested Output items.
// Either may be empty.
type ChatResponse struct {
	// ID is the provider's identifier for this response
	ID string `json:"id"`

	// ConversationID is the handle to pass back to continue this exchange.
	// Empty when the provider does not support continuation.
	ConversationID string `json:"conversation_id,omitempty"`

	// Model used for the completion
	Model string `json:"model"`

	// OutputText is the flattened reply text, when the provider supplies one
	OutputText string `json:"output_text,omitempty"`

	// Output holds the structured reply items
	Output []OutputItem `json:"output,omitempty"`

	// Usage statistics
	Usage Usage `json:"usage"`

	// Provider that handled the request
	Provider string `json:"provider"`

	// Latency of the request
	Latency time.Duration `json:"latency"`
}

// OutputItem is one structured item of a response, typically a message.
type OutputItem struct {
	Type    string        `json:"type,omitempty"`
	Role    string        `json:"role,omitempty"`
	Content []ContentPart `json:"content,omitempty"`
}

// ContentPart is one piece of an output item's content.
type ContentPart struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ProviderConfig holds common configuration for providers
type ProviderConfig struct {
	// APIKey for authentication
	APIKey string

	// BaseURL for the API (optional override)
	BaseURL string

	// Timeout for requests
	Timeout time.Duration

	// MaxRetries for failed requests. Zero disables retries.
	MaxRetries int

	// RetryDelay between retries
	RetryDelay time.Duration

	// Additional headers
	Headers map[string]string

	// OrgID for organization-specific endpoints
	OrgID string
}

// DefaultProviderConfig returns a sensible default configuration
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout:    30 * time.Second,
		MaxRetries: 0,
		RetryDelay: 1 * time.Second,
		Headers:    make(map[string]string),
	}
}

// ProviderError represents an error from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Retryable indicates if the request can be retried
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return false
}
