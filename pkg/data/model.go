package data

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Outline is the plot outline every chapter is written against.
type Outline string

// BookRequest is what the operator asks for.
type BookRequest struct {
	Style         string
	Description   string
	Chapters      int
	MinParagraphs int
}

func (r BookRequest) Validate() error {
	if strings.TrimSpace(r.Style) == "" {
		return errors.New("writing style cannot be empty")
	}
	if strings.TrimSpace(r.Description) == "" {
		return errors.New("book description cannot be empty")
	}
	if r.Chapters < 1 {
		return fmt.Errorf("number of chapters must be at least 1, got %d", r.Chapters)
	}
	if r.MinParagraphs < 1 {
		return fmt.Errorf("minimum paragraphs per chapter must be at least 1, got %d", r.MinParagraphs)
	}
	return nil
}

// Chapter is one generated chapter. Ordinal is 1-based and follows generation
// order; Title stays empty until the book is assembled.
type Chapter struct {
	Ordinal int
	Content string
	Title   string
}

type CoverImage struct {
	Prompt      string
	Data        []byte
	ContentType string
}

// Draft is everything the pipeline produced, ready to be assembled.
type Draft struct {
	RunID       string
	Request     BookRequest
	Outline     Outline
	Chapters    []Chapter
	Title       string
	CoverPrompt string
	FullText    string
}

// JoinChapters concatenates chapter contents separated by a blank line.
func JoinChapters(chapters []Chapter) string {
	parts := make([]string, len(chapters))
	for i, ch := range chapters {
		parts[i] = ch.Content
	}
	return strings.Join(parts, "\n\n")
}

type Book struct {
	ID       string
	Title    string
	Author   string
	Language string
	Outline  Outline
	Chapters []Chapter
	Cover    *CoverImage
}

// Validate reports whether the book is complete enough to be packaged.
func (b *Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return errors.New("book title cannot be empty")
	}
	if len(b.Chapters) == 0 {
		return errors.New("book has no chapters")
	}
	for i, ch := range b.Chapters {
		if ch.Ordinal != i+1 {
			return fmt.Errorf("chapter at position %d has ordinal %d", i+1, ch.Ordinal)
		}
		if ch.Content == "" {
			return fmt.Errorf("chapter %d has no content", ch.Ordinal)
		}
		if ch.Title == "" {
			return fmt.Errorf("chapter %d has no title", ch.Ordinal)
		}
	}
	if b.Cover == nil || len(b.Cover.Data) == 0 {
		return errors.New("book has no cover image")
	}
	return nil
}

type RunStatus string

const (
	StatusOutlined  RunStatus = "outlined"
	StatusDrafting  RunStatus = "drafting"
	StatusDrafted   RunStatus = "drafted"
	StatusAssembled RunStatus = "assembled"
	StatusFailed    RunStatus = "failed"
)

// Run is a checkpointed generation. Chapters is only filled by GetRun.
type Run struct {
	ID          string
	Request     BookRequest
	Outline     Outline
	Title       string
	CoverPrompt string
	Status      RunStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Chapters    []Chapter
}

// NextChapter returns the ordinal of the first chapter still to be written,
// or 0 when all requested chapters exist.
func (r *Run) NextChapter() int {
	if len(r.Chapters) >= r.Request.Chapters {
		return 0
	}
	return len(r.Chapters) + 1
}

// Draft rebuilds the pipeline output of a fully drafted run.
func (r *Run) Draft() (*Draft, error) {
	if r.NextChapter() != 0 {
		return nil, fmt.Errorf("run %s has %d of %d chapters", r.ID, len(r.Chapters), r.Request.Chapters)
	}
	if r.Title == "" || r.CoverPrompt == "" {
		return nil, fmt.Errorf("run %s is missing its title or cover prompt", r.ID)
	}
	chapters := make([]Chapter, len(r.Chapters))
	copy(chapters, r.Chapters)
	return &Draft{
		RunID:       r.ID,
		Request:     r.Request,
		Outline:     r.Outline,
		Chapters:    chapters,
		Title:       r.Title,
		CoverPrompt: r.CoverPrompt,
		FullText:    JoinChapters(chapters),
	}, nil
}
