package services

import "sync"

type Stage string

const (
	StageOutline      Stage = "outline"
	StageChapter      Stage = "chapter"
	StageTitle        Stage = "title"
	StageCoverPrompt  Stage = "cover-prompt"
	StageChapterTitle Stage = "chapter-title"
	StageCover        Stage = "cover"
	StagePackage      Stage = "package"
	StageDone         Stage = "done"
)

// Progress represents the progress of a generation run
type Progress struct {
	RunID   string
	Stage   Stage
	Current int
	Total   int
	Status  string // "started", "complete", "error"
	Error   error
}

// Reporter fans progress events out on a buffered channel. A nil *Reporter
// discards everything.
type Reporter struct {
	ch   chan Progress
	once sync.Once
}

func NewReporter(buffer int) *Reporter {
	return &Reporter{ch: make(chan Progress, buffer)}
}

// Events returns the channel for receiving progress updates
func (r *Reporter) Events() <-chan Progress {
	if r == nil {
		return nil
	}
	return r.ch
}

// send sends a progress update (non-blocking)
func (r *Reporter) send(p Progress) {
	if r == nil {
		return
	}
	select {
	case r.ch <- p:
	default:
		// Channel full, skip this update
	}
}

// Close closes the event channel. It is safe to call more than once.
func (r *Reporter) Close() {
	if r == nil {
		return
	}
	r.once.Do(func() { close(r.ch) })
}
