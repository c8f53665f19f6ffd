package llm

import (
	"context"
	"net/http"
	"strings"
)

const openAIAPI = "https://api.openai.com/v1"

// OpenAI talks to any chat-completions compatible endpoint.
type OpenAI struct {
	endpoint string
	header   http.Header
	model    string
	client   *http.Client
}

// NewOpenAI creates a chat-completions client. baseURL includes the version
// segment, e.g. https://api.openai.com/v1; empty means the public API.
// Gateways that need no key may pass an empty apiKey.
func NewOpenAI(baseURL, apiKey, model string, client *http.Client) *OpenAI {
	if baseURL == "" {
		baseURL = openAIAPI
	}
	h := http.Header{}
	if apiKey != "" {
		h.Set("Authorization", "Bearer "+apiKey)
	}
	return &OpenAI{
		endpoint: strings.TrimRight(baseURL, "/") + "/chat/completions",
		header:   h,
		model:    model,
		client:   client,
	}
}

type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	MaxCompletionTokens int           `json:"max_completion_tokens"`
}

type chatReply struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete returns the first choice for a single user message.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (*Response, error) {
	in := chatRequest{
		Model:               o.model,
		Messages:            []chatMessage{{Role: "user", Content: prompt}},
		MaxCompletionTokens: maxNarrativeTokens,
	}
	var out chatReply
	if err := postJSON(ctx, o.client, "openai", o.endpoint, o.header, in, &out); err != nil {
		return nil, err
	}

	resp := &Response{Provider: "openai", TokensUsed: out.Usage.TotalTokens}
	if len(out.Choices) > 0 {
		resp.Content = out.Choices[0].Message.Content
	}
	return resp, nil
}
