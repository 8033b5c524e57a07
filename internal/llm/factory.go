package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/ltlbench/internal/model"
)

// NewProvider creates a new LLM provider based on configuration. An empty
// provider name is inferred from the model name.
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)
	if provider == "" {
		inferred, err := ProviderForModel(config.Model)
		if err != nil {
			return nil, err
		}
		provider = inferred
	}

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "deepseek":
		return NewDeepSeekProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, deepseek, anthropic, ollama)", config.Provider)
	}
}

// ollamaModels are local models known to run the benchmark
var ollamaModels = map[string]bool{
	"llama3:70b-instruct":    true,
	"qwen:72b-chat":          true,
	"qwen:32b-chat":          true,
	"qwen:7b-chat":           true,
	"gemma:7b-instruct":      true,
	"gemma:7b-instruct-q8_0": true,
	"mistral:7b-instruct":    true,
}

// ProviderForModel maps a model name to the provider that serves it
func ProviderForModel(name string) (string, error) {
	lower := strings.ToLower(name)
	switch {
	case lower == "":
		return "", fmt.Errorf("no LLM provider or model configured")
	case strings.HasPrefix(lower, "gpt-"),
		strings.HasPrefix(lower, "o1"),
		strings.HasPrefix(lower, "o3"),
		strings.HasPrefix(lower, "o4"):
		return "openai", nil
	case strings.HasPrefix(lower, "deepseek-"):
		return "deepseek", nil
	case strings.HasPrefix(lower, "claude-"):
		return "anthropic", nil
	case ollamaModels[lower], strings.Contains(lower, ":"):
		// Ollama tags models as name:variant
		return "ollama", nil
	default:
		return "", fmt.Errorf("unknown model: %s (set llm.provider explicitly)", name)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:   modelConfig.Provider,
		Model:      modelConfig.Model,
		APIKey:     modelConfig.APIKey,
		BaseURL:    modelConfig.BaseURL,
		Timeout:    modelConfig.Timeout,
		MaxTokens:  modelConfig.MaxTokens,
		HTTPProxy:  modelConfig.HTTPProxy,
		HTTPSProxy: modelConfig.HTTPSProxy,
		NoProxy:    modelConfig.NoProxy,
	}
}

// ApplyEnv fills the API key and base URL from the provider's usual
// environment variables when the config leaves them empty
func ApplyEnv(config Config) Config {
	provider := strings.ToLower(config.Provider)
	if provider == "" {
		provider, _ = ProviderForModel(config.Model)
	}

	switch provider {
	case "openai":
		if config.APIKey == "" {
			config.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "deepseek":
		if config.APIKey == "" {
			config.APIKey = os.Getenv("DEEPSEEK_API_KEY")
		}
	case "anthropic", "claude":
		if config.APIKey == "" {
			config.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if config.BaseURL == "" {
			config.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
	return config
}
