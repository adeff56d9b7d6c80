package providers

import (
	"context"
	"fmt"
	"strings"
)

// TextGenerator produces text for a single prompt.
type TextGenerator interface {
	Generate(ctx context.Context, req TextRequest) (string, error)
}

// ImageGenerator renders a cover image for a prompt and returns the encoded bytes.
type ImageGenerator interface {
	GenerateCoverImage(ctx context.Context, prompt string) ([]byte, error)
}

// TextRequest is one call to a text generation service.
type TextRequest struct {
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Validate rejects requests that no service would accept.
func (r TextRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: prompt is empty", ErrInvalidRequest)
	}
	if r.MaxTokens <= 0 {
		return fmt.Errorf("%w: max tokens must be positive, got %d", ErrInvalidRequest, r.MaxTokens)
	}
	if r.Temperature < 0 || r.Temperature > 1 {
		return fmt.Errorf("%w: temperature must be within [0, 1], got %g", ErrInvalidRequest, r.Temperature)
	}
	return nil
}
