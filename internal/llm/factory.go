package llm

import (
	"fmt"
	"strings"
	"time"

	"fleetmind/internal/config"
	"fleetmind/internal/logging"
)

// NewFromConfig builds a Client from configuration. When no explicit
// provider is set, providers are tried in priority order:
// Gemini, Groq, OpenAI, Ollama. Returns ErrNoAPIKey when nothing is
// configured.
func NewFromConfig(cfg config.LLMConfig, timeout time.Duration) (Client, error) {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	if provider := strings.ToLower(strings.TrimSpace(cfg.Provider)); provider != "" {
		return newExplicit(provider, cfg, timeout)
	}

	if cfg.GeminiAPIKey != "" {
		logging.API("using gemini provider")
		gc := DefaultGeminiConfig(cfg.GeminiAPIKey)
		gc.Timeout = timeout
		if cfg.Model != "" {
			gc.Model = cfg.Model
		}
		return NewGeminiClientWithConfig(gc), nil
	}
	if cfg.GroqAPIKey != "" {
		logging.API("using groq provider")
		oc := DefaultGroqConfig(cfg.GroqAPIKey)
		oc.Timeout = timeout
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		return NewOpenAIClientWithConfig("groq", oc), nil
	}
	if cfg.OpenAIAPIKey != "" {
		logging.API("using openai provider")
		oc := DefaultOpenAIConfig(cfg.OpenAIAPIKey)
		oc.Timeout = timeout
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		return NewOpenAIClientWithConfig("openai", oc), nil
	}
	if cfg.OllamaEnabled {
		logging.API("using ollama provider at %s", cfg.OllamaHost)
		oc := DefaultOllamaConfig()
		if cfg.OllamaHost != "" {
			oc.BaseURL = cfg.OllamaHost
		}
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		return NewOllamaClientWithConfig(oc), nil
	}

	return nil, ErrNoAPIKey
}

func newExplicit(provider string, cfg config.LLMConfig, timeout time.Duration) (Client, error) {
	switch provider {
	case "gemini":
		key := firstNonEmpty(cfg.APIKey, cfg.GeminiAPIKey)
		if key == "" {
			return nil, fmt.Errorf("gemini provider selected but no API key: %w", ErrNoAPIKey)
		}
		gc := DefaultGeminiConfig(key)
		gc.Timeout = timeout
		if cfg.Model != "" {
			gc.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			gc.BaseURL = cfg.BaseURL
		}
		return NewGeminiClientWithConfig(gc), nil

	case "groq":
		key := firstNonEmpty(cfg.APIKey, cfg.GroqAPIKey)
		if key == "" {
			return nil, fmt.Errorf("groq provider selected but no API key: %w", ErrNoAPIKey)
		}
		oc := DefaultGroqConfig(key)
		oc.Timeout = timeout
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		return NewOpenAIClientWithConfig("groq", oc), nil

	case "openai":
		key := firstNonEmpty(cfg.APIKey, cfg.OpenAIAPIKey)
		if key == "" {
			return nil, fmt.Errorf("openai provider selected but no API key: %w", ErrNoAPIKey)
		}
		oc := DefaultOpenAIConfig(key)
		oc.Timeout = timeout
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		return NewOpenAIClientWithConfig("openai", oc), nil

	case "ollama":
		oc := DefaultOllamaConfig()
		if cfg.OllamaHost != "" {
			oc.BaseURL = cfg.OllamaHost
		}
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		return NewOllamaClientWithConfig(oc), nil
	}

	return nil, fmt.Errorf("unknown LLM provider %q", provider)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
