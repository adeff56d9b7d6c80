package providers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kerbaras/novelist/pkg/utils"
)

const (
	DefaultStabilityHost   = "https://api.stability.ai"
	DefaultStabilityEngine = "stable-diffusion-xl-beta-v2-2-2"

	CoverWidth  = 512
	CoverHeight = 768
)

type textPrompt struct {
	Text string `json:"text"`
}

type stabilityRequest struct {
	TextPrompts        []textPrompt `json:"text_prompts"`
	CfgScale           int          `json:"cfg_scale"`
	ClipGuidancePreset string       `json:"clip_guidance_preset"`
	Height             int          `json:"height"`
	Width              int          `json:"width"`
	Samples            int          `json:"samples"`
	Steps              int          `json:"steps"`
}

type stabilityResponse struct {
	Artifacts []struct {
		Base64       string `json:"base64"`
		FinishReason string `json:"finishReason"`
	} `json:"artifacts"`
}

// StabilityClient renders covers through the Stability text-to-image endpoint.
type StabilityClient struct {
	api    *utils.API
	apiKey string
	engine string
}

func NewStabilityClient(host, apiKey, engine string, client *http.Client) *StabilityClient {
	if host == "" {
		host = DefaultStabilityHost
	}
	if engine == "" {
		engine = DefaultStabilityEngine
	}
	return &StabilityClient{api: utils.NewAPI(host, client), apiKey: apiKey, engine: engine}
}

// GenerateCoverImage returns the decoded bytes of the first artifact.
// The API key and the prompt are checked before any request is made.
func (c *StabilityClient) GenerateCoverImage(ctx context.Context, prompt string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, &CredentialError{Service: "stability", Variable: "STABILITY_API_KEY"}
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: cover prompt is empty", ErrInvalidRequest)
	}

	body := stabilityRequest{
		TextPrompts:        []textPrompt{{Text: prompt}},
		CfgScale:           7,
		ClipGuidancePreset: "FAST_BLUE",
		Height:             CoverHeight,
		Width:              CoverWidth,
		Samples:            1,
		Steps:              30,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}
	path := fmt.Sprintf("/v1/generation/%s/text-to-image", c.engine)

	var resp stabilityResponse
	if err := c.api.PostJSON(ctx, path, headers, body, &resp); err != nil {
		slog.Error("cover generation failed", "service", "stability", "error", err)
		return nil, wrapTransportError(ctx, "stability", err)
	}
	if len(resp.Artifacts) == 0 {
		slog.Error("unexpected response format", "service", "stability")
		return nil, newServiceError("stability", "unexpected response", 0, errors.New("no artifacts returned"))
	}

	img, err := base64.StdEncoding.DecodeString(resp.Artifacts[0].Base64)
	if err != nil {
		return nil, newServiceError("stability", "unexpected response", 0, fmt.Errorf("invalid artifact encoding: %w", err))
	}
	if len(img) == 0 {
		return nil, newServiceError("stability", "unexpected response", 0, errors.New("empty artifact"))
	}
	return img, nil
}
