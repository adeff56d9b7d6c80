package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kerbaras/novelist/pkg/providers"
)

// RetryPolicy retries generation service failures with exponential backoff.
// Credential and request errors are returned immediately.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func NewRetryPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:      maxRetries,
		InitialInterval: 2 * time.Second,
		MaxInterval:     30 * time.Second,
	}
}

func (p RetryPolicy) do(ctx context.Context, op string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = 0

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, providers.ErrGenerationService) {
			return backoff.Permanent(err)
		}
		if attempt <= p.MaxRetries {
			slog.Warn("generation failed, retrying", "op", op, "attempt", attempt, "error", err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxRetries)), ctx))
}

// RetryingText wraps a TextGenerator with a RetryPolicy.
type RetryingText struct {
	next   providers.TextGenerator
	policy RetryPolicy
}

func NewRetryingText(next providers.TextGenerator, policy RetryPolicy) *RetryingText {
	return &RetryingText{next: next, policy: policy}
}

func (r *RetryingText) Generate(ctx context.Context, req providers.TextRequest) (string, error) {
	var text string
	err := r.policy.do(ctx, "text", func() error {
		var err error
		text, err = r.next.Generate(ctx, req)
		return err
	})
	return text, err
}

// RetryingImage wraps an ImageGenerator with a RetryPolicy.
type RetryingImage struct {
	next   providers.ImageGenerator
	policy RetryPolicy
}

func NewRetryingImage(next providers.ImageGenerator, policy RetryPolicy) *RetryingImage {
	return &RetryingImage{next: next, policy: policy}
}

func (r *RetryingImage) GenerateCoverImage(ctx context.Context, prompt string) ([]byte, error) {
	var img []byte
	err := r.policy.do(ctx, "image", func() error {
		var err error
		img, err = r.next.GenerateCoverImage(ctx, prompt)
		return err
	})
	return img, err
}
