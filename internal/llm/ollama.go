package llm

import (
	"context"
	"net/http"
	"strings"
)

// Ollama calls a local Ollama instance.
type Ollama struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewOllama creates a client for the Ollama server at url.
func NewOllama(url, model string, client *http.Client) *Ollama {
	return &Ollama{
		endpoint: strings.TrimRight(url, "/") + "/api/generate",
		model:    model,
		client:   client,
	}
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaReply struct {
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Complete runs a non-streaming generate call.
func (o *Ollama) Complete(ctx context.Context, prompt string) (*Response, error) {
	in := ollamaRequest{
		Model:   o.model,
		Prompt:  prompt,
		Options: ollamaOptions{Temperature: narrativeTemperature, NumPredict: maxNarrativeTokens},
	}
	var out ollamaReply
	if err := postJSON(ctx, o.client, "ollama", o.endpoint, nil, in, &out); err != nil {
		return nil, err
	}
	return &Response{
		Content:    out.Response,
		Provider:   "ollama",
		TokensUsed: out.PromptEvalCount + out.EvalCount,
	}, nil
}
