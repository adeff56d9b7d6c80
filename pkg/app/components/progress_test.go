package components

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kerbaras/novelist/pkg/services"
)

func TestNewProgressTracker(t *testing.T) {
	tracker := NewProgressTracker(20)

	if tracker == nil {
		t.Fatal("Expected tracker to be created")
	}
	assert.Equal(t, 20, tracker.width)
	assert.Empty(t, tracker.stages)
	assert.Equal(t, "", tracker.View())
}

func TestProgressTracker_Update(t *testing.T) {
	tracker := NewProgressTracker(20)

	tracker.Update(services.Progress{Stage: services.StageChapter, Current: 1, Total: 3, Status: "complete"})
	tracker.Update(services.Progress{Stage: services.StageChapter, Current: 2, Total: 3, Status: "complete"})
	tracker.Update(services.Progress{Stage: services.StageOutline, Current: 1, Total: 1, Status: "complete"})

	assert.Len(t, tracker.stages, 2)
	assert.Equal(t, 2, tracker.stages[services.StageChapter].Current)

	view := tracker.View()
	assert.Contains(t, view, "Plot outline")
	assert.Contains(t, view, "2/3")
	assert.Less(t, strings.Index(view, "Plot outline"), strings.Index(view, "Chapters"))
	assert.False(t, tracker.Done())

	tracker.Update(services.Progress{Stage: services.StageDone, Status: "complete"})
	assert.True(t, tracker.Done())

	tracker.Clear()
	assert.Empty(t, tracker.stages)
}

func TestLine_Error(t *testing.T) {
	line := Line(services.Progress{Stage: services.StageCover, Status: "error", Error: errors.New("boom")}, 10)
	assert.Contains(t, line, "Cover image")
	assert.Contains(t, line, "Error: boom")
}

func TestLine_UnknownStage(t *testing.T) {
	line := Line(services.Progress{Stage: "custom", Status: "started"}, 10)
	assert.Contains(t, line, "custom")
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		width   int
		filled  int
	}{
		{"empty", 0, 10, 10, 0},
		{"half", 5, 10, 10, 5},
		{"full", 10, 10, 10, 10},
		{"overflow", 15, 10, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := renderProgressBar(tt.current, tt.total, tt.width)
			assert.Equal(t, tt.filled, strings.Count(bar, "█"))
			assert.Equal(t, tt.width-tt.filled, strings.Count(bar, "░"))
		})
	}

	assert.Equal(t, "", renderProgressBar(1, 0, 10))
	assert.Equal(t, SimpleProgress(5, 10, 10), renderProgressBar(5, 10, 10))
}
