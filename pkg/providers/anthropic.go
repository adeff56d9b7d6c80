package providers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kerbaras/novelist/pkg/utils"
)

const (
	DefaultAnthropicURL   = "https://api.anthropic.com"
	DefaultAnthropicModel = "claude-3-haiku-20240307"
	anthropicVersion      = "2023-06-01"

	authorSystemPrompt = "You are a world-class author. Write the requested content with great skill and attention to detail."
)

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string  `json:"type"`
		Text *string `json:"text"`
	} `json:"content"`
}

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	api    *utils.API
	apiKey string
	model  string
}

func NewAnthropicClient(baseURL, apiKey, model string, client *http.Client) *AnthropicClient {
	if baseURL == "" {
		baseURL = DefaultAnthropicURL
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicClient{api: utils.NewAPI(baseURL, client), apiKey: apiKey, model: model}
}

// Generate sends req as a single user message and returns the trimmed text
// of the first content block. A request without a model uses the client's.
func (c *AnthropicClient) Generate(ctx context.Context, req TextRequest) (string, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	if err := req.Validate(); err != nil {
		return "", err
	}

	body := anthropicRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		System:      authorSystemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := c.api.PostJSON(ctx, "/v1/messages", headers, body, &resp); err != nil {
		slog.Error("text generation failed", "service", "anthropic", "error", err)
		return "", wrapTransportError(ctx, "anthropic", err)
	}
	if len(resp.Content) == 0 || resp.Content[0].Text == nil {
		slog.Error("unexpected response format", "service", "anthropic")
		return "", newServiceError("anthropic", "unexpected response", 0, errors.New("missing content[0].text"))
	}
	return strings.TrimSpace(*resp.Content[0].Text), nil
}

// wrapTransportError turns an error from the HTTP helper into a ServiceError.
// Cancellation of the caller's context is passed through unchanged.
func wrapTransportError(ctx context.Context, service string, err error) error {
	if ctx.Err() != nil {
		return err
	}
	var statusErr *utils.StatusError
	if errors.As(err, &statusErr) {
		return newServiceError(service, "request failed", statusErr.StatusCode, err)
	}
	if errors.Is(err, utils.ErrDecode) {
		return newServiceError(service, "unexpected response", 0, err)
	}
	return newServiceError(service, "request failed", 0, err)
}
