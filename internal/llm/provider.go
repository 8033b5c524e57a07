package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Chat sends one single-turn conversation and returns the reply
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ChatRequest contains one user prompt
type ChatRequest struct {
	// Prompt is the user message
	Prompt string

	// System is an optional system message
	System string

	// Model overrides the provider's configured model
	Model string

	// Temperature is sent as given; zero asks for greedy decoding
	Temperature float64

	// MaxTokens limits the response length (0 = provider config)
	MaxTokens int
}

// ChatResponse contains the model's reply
type ChatResponse struct {
	// Content is the reply text
	Content string `json:"content"`

	// Model is the model that generated the response
	Model string `json:"model"`

	// TokensUsed tracks token consumption
	TokensUsed int `json:"tokens_used"`
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "deepseek", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/DeepSeek/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:   60,
		MaxTokens: 2000,
	}
}

func (c Config) model(override string) string {
	if override != "" {
		return override
	}
	return c.Model
}

func (c Config) maxTokens(override int) int {
	if override > 0 {
		return override
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 2000
}

// StatusError is a non-200 reply from a provider's HTTP API
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// IsTransient reports whether err is worth retrying: rate limiting, server
// errors and network failures. Context cancellation never is.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return transientStatus(statusErr.StatusCode)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return transientStatus(reqErr.HTTPStatusCode)
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
