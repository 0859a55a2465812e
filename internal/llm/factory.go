package llm

import (
	"fmt"
	"os"
)

// NewProvider creates a provider from its name, reading credentials from the
// environment. Supported names are anthropic, openai, google and ollama.
func NewProvider(providerType string, model string) (Provider, error) {
	switch providerType {
	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
		return NewAnthropicProvider(apiKey, model), nil
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		return NewOpenAIProvider(apiKey, model), nil
	case "google":
		apiKey := os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable not set")
		}
		return NewGoogleProvider(apiKey, model), nil
	case "ollama":
		baseURL := os.Getenv("OLLAMA_HOST")
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return NewOllamaProvider(baseURL, model), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q", providerType)
	}
}
