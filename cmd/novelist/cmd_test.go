package cmd

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kerbaras/novelist/pkg/app"
	"github.com/kerbaras/novelist/pkg/data"
	"github.com/kerbaras/novelist/pkg/providers"
)

func TestOperatorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"missing credential",
			fmt.Errorf("failed to create cover image: %w", &providers.CredentialError{Service: "stability", Variable: "STABILITY_API_KEY"}),
			"Error: Please make sure the Anthropic and Stability API keys are set in the .env file.",
		},
		{
			"service",
			&providers.ServiceError{Service: "anthropic", Op: "request failed", StatusCode: 500},
			"Error: An issue occurred while generating the content. Please try again later.",
		},
		{
			"unexpected",
			errors.New("disk full"),
			"An unexpected error occurred. Please check the logs for more information.",
		},
		{"cancelled form", app.ErrCancelled, "Cancelled."},
		{"interrupted", fmt.Errorf("failed to generate chapter 2: %w", context.Canceled), "Cancelled."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, operatorMessage(tt.err))
		})
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "The Long…", truncateString("The Long Rain", 9))
	assert.Equal(t, "ñandú…", truncateString("ñandúes del sur", 6))
}

func TestChapterTable(t *testing.T) {
	out := chapterTable([]data.Chapter{
		{Ordinal: 1, Title: "The Call", Content: "Rain hit the glass.\nThe phone rang."},
		{Ordinal: 2, Content: "one two three"},
	}).String()

	assert.Contains(t, out, "The Call")
	assert.Contains(t, out, "Rain hit the glass.")
	assert.Contains(t, out, "3")
}

func TestRequestFromFlags_Complete(t *testing.T) {
	cmd := writeCmd
	t.Cleanup(func() {
		cmd.Flags().Set("style", "")
		cmd.Flags().Set("description", "")
		cmd.Flags().Set("chapters", "0")
		cmd.Flags().Set("min-paragraphs", "0")
	})
	cmd.Flags().Set("style", "noir")
	cmd.Flags().Set("description", "a detective")
	cmd.Flags().Set("chapters", "3")
	cmd.Flags().Set("min-paragraphs", "2")

	req, err := requestFromFlags(cmd)
	assert.NoError(t, err)
	assert.Equal(t, data.BookRequest{Style: "noir", Description: "a detective", Chapters: 3, MinParagraphs: 2}, req)
}
