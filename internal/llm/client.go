// Package llm generates archivist narratives through a pluggable completion
// provider.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Anika-Jha/Eterna/internal/config"
)

// ErrDisabled is returned by the "none" provider.
var ErrDisabled = errors.New("llm: narrative generation disabled")

// Client is the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, prompt string) (*Response, error)
}

// Response holds the result of an LLM completion.
type Response struct {
	Content    string
	Provider   string
	TokensUsed int
}

// maxNarrativeTokens keeps narratives to a few sentences.
const maxNarrativeTokens = 150

// NewClient creates an LLM client based on the config provider setting.
func NewClient(cfg config.LLMConfig) (Client, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.Timeout <= 0 {
		httpClient.Timeout = 60 * time.Second
	}

	switch cfg.Provider {
	case "", "none":
		return None{}, nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires llm.api_key or ETERNA_LLM_API_KEY")
		}
		return NewAnthropic(cfg.BaseURL, cfg.APIKey, orDefault(cfg.Model, "claude-haiku-4-5-20251001"), httpClient), nil
	case "openai":
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai provider requires an API key or a compatible base URL")
		}
		return NewOpenAI(cfg.BaseURL, cfg.APIKey, orDefault(cfg.Model, "gpt-4o-mini"), httpClient), nil
	case "ollama":
		return NewOllama(orDefault(cfg.OllamaURL, "http://localhost:11434"), orDefault(cfg.Model, "llama3.2"), httpClient), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}

// None is the provider used when generation is switched off.
type None struct{}

// Complete always fails with ErrDisabled.
func (None) Complete(context.Context, string) (*Response, error) {
	return nil, ErrDisabled
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
