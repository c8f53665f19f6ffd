package llm

import (
	"context"
	"net/http"
	"strings"
)

const (
	anthropicAPI     = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
)

// Anthropic calls the Anthropic Messages API directly.
type Anthropic struct {
	endpoint string
	header   http.Header
	model    string
	client   *http.Client
}

// NewAnthropic creates an Anthropic client. An empty baseURL means the public API.
func NewAnthropic(baseURL, apiKey, model string, client *http.Client) *Anthropic {
	if baseURL == "" {
		baseURL = anthropicAPI
	}
	h := http.Header{}
	h.Set("x-api-key", apiKey)
	h.Set("anthropic-version", anthropicVersion)
	return &Anthropic{
		endpoint: strings.TrimRight(baseURL, "/") + "/v1/messages",
		header:   h,
		model:    model,
		client:   client,
	}
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type anthropicReply struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete sends prompt as a single user turn.
func (a *Anthropic) Complete(ctx context.Context, prompt string) (*Response, error) {
	in := anthropicRequest{
		Model:       a.model,
		MaxTokens:   maxNarrativeTokens,
		Temperature: narrativeTemperature,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	}
	var out anthropicReply
	if err := postJSON(ctx, a.client, "anthropic", a.endpoint, a.header, in, &out); err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return &Response{
		Content:    text.String(),
		Provider:   "anthropic",
		TokensUsed: out.Usage.InputTokens + out.Usage.OutputTokens,
	}, nil
}
