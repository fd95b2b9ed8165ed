package llm

import (
	"fmt"
	"strings"

	"github.com/wikilens/wikilens/internal/model"
)

// NewProvider creates a provider from configuration.
func NewProvider(cfg model.LLMConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider("openai", cfg)

	case "ollama", "lmstudio":
		// Local OpenAI-compatible servers. They ignore the key, but the
		// client insists on one.
		local := cfg
		if local.BaseURL == "" {
			if strings.ToLower(cfg.Provider) == "lmstudio" {
				local.BaseURL = "http://localhost:1234/v1"
			} else {
				local.BaseURL = "http://localhost:11434/v1"
			}
		}
		if local.APIKey == "" {
			local.APIKey = "not-needed"
		}
		return NewOpenAIProvider(strings.ToLower(cfg.Provider), local)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: openai, ollama, lmstudio)", cfg.Provider)
	}
}
