package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerbaras/novelist/pkg/providers"
)

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{MaxRetries: retries, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
}

func TestRetryingText_RetriesServiceErrors(t *testing.T) {
	attempts := 0
	next := &mockText{generateFunc: func(req providers.TextRequest) (string, error) {
		attempts++
		if attempts < 3 {
			return "", &providers.ServiceError{Service: "anthropic", Op: "request failed", StatusCode: 529}
		}
		return "ok", nil
	}}

	text, err := NewRetryingText(next, fastPolicy(3)).Generate(context.Background(), providers.TextRequest{Prompt: "p", MaxTokens: 1})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 3, attempts)
}

func TestRetryingText_GivesUp(t *testing.T) {
	next := &mockText{generateFunc: func(req providers.TextRequest) (string, error) {
		return "", &providers.ServiceError{Service: "anthropic", Op: "request failed", StatusCode: 500}
	}}

	_, err := NewRetryingText(next, fastPolicy(2)).Generate(context.Background(), providers.TextRequest{Prompt: "p", MaxTokens: 1})
	assert.ErrorIs(t, err, providers.ErrGenerationService)
	assert.Equal(t, 3, next.count())
}

func TestRetryingText_ZeroRetries(t *testing.T) {
	next := &mockText{generateFunc: func(req providers.TextRequest) (string, error) {
		return "", &providers.ServiceError{Service: "anthropic", Op: "request failed"}
	}}

	_, err := NewRetryingText(next, fastPolicy(0)).Generate(context.Background(), providers.TextRequest{Prompt: "p", MaxTokens: 1})
	assert.ErrorIs(t, err, providers.ErrGenerationService)
	assert.Equal(t, 1, next.count())
}

func TestRetryingImage_DoesNotRetryCredentials(t *testing.T) {
	calls := 0
	next := &mockImage{generateFunc: func(string) ([]byte, error) {
		calls++
		return nil, &providers.CredentialError{Service: "stability", Variable: "STABILITY_API_KEY"}
	}}

	_, err := NewRetryingImage(next, fastPolicy(5)).GenerateCoverImage(context.Background(), "p")
	assert.ErrorIs(t, err, providers.ErrMissingCredential)
	assert.Equal(t, 1, calls)
}

func TestRetryingImage_Succeeds(t *testing.T) {
	calls := 0
	next := &mockImage{generateFunc: func(string) ([]byte, error) {
		calls++
		if calls == 1 {
			return nil, &providers.ServiceError{Service: "stability", Op: "unexpected response"}
		}
		return []byte{1}, nil
	}}

	img, err := NewRetryingImage(next, fastPolicy(1)).GenerateCoverImage(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, img)
}

func TestRetryPolicy_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	next := &mockText{generateFunc: func(req providers.TextRequest) (string, error) {
		cancel()
		return "", &providers.ServiceError{Service: "anthropic", Op: "request failed"}
	}}

	policy := RetryPolicy{MaxRetries: 10, InitialInterval: time.Hour, MaxInterval: time.Hour}
	_, err := NewRetryingText(next, policy).Generate(ctx, providers.TextRequest{Prompt: "p", MaxTokens: 1})
	assert.Error(t, err)
	assert.Equal(t, 1, next.count())
}
