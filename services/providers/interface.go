package providers

import (
	"context"
	"errors"
	"time"
)

// Provider is a streaming chat-completion backend used for answer generation
type Provider interface {
	// Name returns the provider name (e.g., "openai", "bedrock")
	Name() string

	// ChatCompletionStream sends the request and invokes callback for every text fragment
	// until the completion finishes, the callback fails or ctx is cancelled.
	ChatCompletionStream(ctx context.Context, req *ChatRequest, callback StreamCallback) error

	// IsAvailable checks if the provider is currently reachable
	IsAvailable(ctx context.Context) bool

	// ValidateModel checks if a model is supported by this provider
	ValidateModel(model string) error

	// ListModels returns all models served by this provider
	ListModels() []string
}

// ChatRequest represents a unified chat completion request
type ChatRequest struct {
	// Model identifier (e.g., "gpt-4o")
	Model string `json:"model"`

	// System prompt, sent the way each provider expects it
	System string `json:"system,omitempty"`

	// Messages in the conversation, oldest first
	Messages []Message `json:"messages"`

	// MaxTokens limits the response length
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature is always sent, zero included
	Temperature float64 `json:"temperature"`

	// User identifier for abuse monitoring
	User string `json:"user,omitempty"`
}

// Message represents a single message in a conversation
type Message struct {
	// Role can be "user" or "assistant"
	Role string `json:"role"`

	// Content is the message text
	Content string `json:"content"`
}

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// StreamChunk is one fragment of a streamed completion
type StreamChunk struct {
	Content      string
	FinishReason string
}

// StreamCallback is called for each chunk in a streaming response.
// Returning an error stops the stream and is returned to the caller unchanged.
type StreamCallback func(chunk *StreamChunk) error

// ProviderConfig holds common configuration for providers
type ProviderConfig struct {
	// APIKey for authentication
	APIKey string

	// BaseURL for the API (optional override)
	BaseURL string

	// Timeout covers the whole request including the streamed body
	Timeout time.Duration

	// Additional headers
	Headers map[string]string

	// OrgID for organization-specific endpoints
	OrgID string

	// Region for cloud-hosted models
	Region string

	// Models overrides the provider's built-in model list
	Models []string
}

// DefaultProviderConfig returns a sensible default configuration
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout: 2 * time.Minute,
		Headers: make(map[string]string),
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

	// Retryable indicates if the request could succeed when repeated
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

// IsProviderError reports whether err carries a ProviderError
func IsProviderError(err error) bool {
	var provErr *ProviderError
	return errors.As(err, &provErr)
}
