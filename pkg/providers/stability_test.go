package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStabilityClient_GenerateCoverImage(t *testing.T) {
	image := []byte("\x89PNG fake image bytes")
	var got stabilityRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/generation/stable-diffusion-xl-beta-v2-2-2/text-to-image", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]any{
			"artifacts": []map[string]string{{"base64": base64.StdEncoding.EncodeToString(image)}},
		})
	}))
	defer server.Close()

	client := NewStabilityClient(server.URL, "sk-test", "", server.Client())
	data, err := client.GenerateCoverImage(context.Background(), "A rain-soaked city at night.")

	require.NoError(t, err)
	assert.Equal(t, image, data)
	require.Len(t, got.TextPrompts, 1)
	assert.Equal(t, "A rain-soaked city at night.", got.TextPrompts[0].Text)
	assert.Equal(t, 7, got.CfgScale)
	assert.Equal(t, "FAST_BLUE", got.ClipGuidancePreset)
	assert.Equal(t, 768, got.Height)
	assert.Equal(t, 512, got.Width)
	assert.Equal(t, 1, got.Samples)
	assert.Equal(t, 30, got.Steps)
}

func TestStabilityClient_MissingKeySkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewStabilityClient(server.URL, "", "", server.Client())
	data, err := client.GenerateCoverImage(context.Background(), "prompt")

	assert.Nil(t, data)
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, KindMissingCredential, Classify(err))
	assert.Zero(t, calls.Load())
}

func TestStabilityClient_EmptyPromptSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewStabilityClient(server.URL, "key", "", server.Client())
	for _, prompt := range []string{"", "  \n"} {
		data, err := client.GenerateCoverImage(context.Background(), prompt)
		assert.Nil(t, data)
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.Equal(t, KindUnexpected, Classify(err))
	}
	assert.Zero(t, calls.Load())
}

func TestStabilityClient_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"message":"boom"}`},
		{"unauthorized", http.StatusUnauthorized, `{"message":"bad key"}`},
		{"empty artifacts", http.StatusOK, `{"artifacts":[]}`},
		{"missing artifacts", http.StatusOK, `{}`},
		{"bad base64", http.StatusOK, `{"artifacts":[{"base64":"%%%"}]}`},
		{"empty base64", http.StatusOK, `{"artifacts":[{"base64":""}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewStabilityClient(server.URL, "sk", "", server.Client())
			data, err := client.GenerateCoverImage(context.Background(), "prompt")

			assert.Nil(t, data)
			assert.ErrorIs(t, err, ErrGenerationService)
			assert.Equal(t, KindGenerationService, Classify(err))
		})
	}
}
