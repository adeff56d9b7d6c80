package components

import (
	"fmt"
	"strings"

	"github.com/kerbaras/novelist/pkg/app/styles"
	"github.com/kerbaras/novelist/pkg/services"
)

var stageLabels = map[services.Stage]string{
	services.StageOutline:      "Plot outline",
	services.StageChapter:      "Chapters",
	services.StageTitle:        "Book title",
	services.StageCoverPrompt:  "Cover prompt",
	services.StageChapterTitle: "Chapter titles",
	services.StageCover:        "Cover image",
	services.StagePackage:      "EPUB package",
	services.StageDone:         "Done",
}

var stageOrder = []services.Stage{
	services.StageOutline,
	services.StageChapter,
	services.StageTitle,
	services.StageCoverPrompt,
	services.StageChapterTitle,
	services.StageCover,
	services.StagePackage,
}

// ProgressTracker keeps the latest event per stage of a run.
type ProgressTracker struct {
	stages map[services.Stage]services.Progress
	width  int
}

func NewProgressTracker(width int) *ProgressTracker {
	return &ProgressTracker{
		stages: make(map[services.Stage]services.Progress),
		width:  width,
	}
}

func (p *ProgressTracker) Update(progress services.Progress) {
	p.stages[progress.Stage] = progress
}

func (p *ProgressTracker) Clear() {
	p.stages = make(map[services.Stage]services.Progress)
}

func (p *ProgressTracker) Done() bool {
	_, ok := p.stages[services.StageDone]
	return ok
}

func (p *ProgressTracker) View() string {
	if len(p.stages) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Writing"))
	b.WriteString("\n")

	for _, stage := range stageOrder {
		progress, ok := p.stages[stage]
		if !ok {
			continue
		}
		b.WriteString(Line(progress, p.width))
		b.WriteString("\n")
	}
	return b.String()
}

// Line renders a single event: label, bar for multi-step stages, status.
func Line(progress services.Progress, width int) string {
	label, ok := stageLabels[progress.Stage]
	if !ok {
		label = string(progress.Stage)
	}

	var b strings.Builder
	b.WriteString(styles.LabelStyle.Render(fmt.Sprintf("%-15s", label)))
	if progress.Total > 1 {
		b.WriteString(" ")
		b.WriteString(renderProgressBar(progress.Current, progress.Total, width))
		b.WriteString(styles.MutedStyle.Render(fmt.Sprintf(" %d/%d", progress.Current, progress.Total)))
	}
	b.WriteString(" ")
	b.WriteString(styles.StatusStyle(progress.Status).Render(progress.Status))
	if progress.Error != nil {
		b.WriteString(" ")
		b.WriteString(styles.StatusError.Render(fmt.Sprintf("Error: %s", progress.Error)))
	}
	return b.String()
}

func renderProgressBar(current, total, width int) string {
	if total == 0 || width <= 0 {
		return ""
	}

	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	return styles.ProgressBarStyle.Render(strings.Repeat("█", filled)) +
		styles.ProgressEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// SimpleProgress renders a simple progress bar
func SimpleProgress(current, total, width int) string {
	return renderProgressBar(current, total, width)
}
